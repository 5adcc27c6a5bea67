package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tr2ynab/tr2ynab/pkg/amount"
)

// checkpointKey is the sync_metadata key holding the last-import time.
const checkpointKey = "last_import_at"

// ImportRecord represents one transaction uploaded to YNAB.
type ImportRecord struct {
	ID         int64
	TxHash     string
	TxDate     string // YYYY-MM-DD
	TxType     string
	Amount     amount.Milliunits
	Note       string
	ImportID   string
	ImportedAt time.Time
}

// ImportHistory manages import history operations.
type ImportHistory struct {
	conn *Connection
}

// NewImportHistory creates a new ImportHistory instance.
func NewImportHistory(conn *Connection) *ImportHistory {
	return &ImportHistory{conn: conn}
}

const insertImportQuery = `
	INSERT INTO imported_transactions (tx_hash, tx_date, tx_type, amount, note, import_id)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(tx_hash) DO UPDATE SET
		tx_date = excluded.tx_date,
		tx_type = excluded.tx_type,
		amount = excluded.amount,
		note = excluded.note,
		import_id = excluded.import_id,
		imported_at = CURRENT_TIMESTAMP
`

// RecordImport records an uploaded transaction.
// If the record already exists (same tx_hash), it is refreshed.
func (h *ImportHistory) RecordImport(record ImportRecord) error {
	_, err := h.conn.Exec(insertImportQuery,
		record.TxHash,
		record.TxDate,
		record.TxType,
		int64(record.Amount),
		record.Note,
		record.ImportID,
	)

	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	return nil
}

// RecordImports records a batch of uploaded transactions within a single
// database transaction.
func (h *ImportHistory) RecordImports(records []ImportRecord) error {
	return h.conn.Transaction(func(tx *sql.Tx) error {
		for _, record := range records {
			_, err := tx.Exec(insertImportQuery,
				record.TxHash,
				record.TxDate,
				record.TxType,
				int64(record.Amount),
				record.Note,
				record.ImportID,
			)
			if err != nil {
				return fmt.Errorf("failed to record import: %w", err)
			}
		}
		return nil
	})
}

// IsImported checks if a transaction has been uploaded before.
func (h *ImportHistory) IsImported(txHash string) (bool, error) {
	query := `
		SELECT COUNT(*) as count FROM imported_transactions
		WHERE tx_hash = ?
	`

	var count int
	err := h.conn.QueryRow(query, txHash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if imported: %w", err)
	}

	return count > 0, nil
}

// ImportedHashes retrieves all recorded transaction hashes.
// This is useful for bulk filtering.
func (h *ImportHistory) ImportedHashes() (map[string]bool, error) {
	query := `SELECT tx_hash FROM imported_transactions`

	rows, err := h.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get imported hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]bool)
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan hash: %w", err)
		}
		hashes[hash] = true
	}

	return hashes, nil
}

// Recent retrieves the most recently imported records, newest first.
func (h *ImportHistory) Recent(limit int) ([]ImportRecord, error) {
	query := `
		SELECT id, tx_hash, tx_date, tx_type, amount, note, import_id, imported_at
		FROM imported_transactions
		ORDER BY imported_at DESC, id DESC
		LIMIT ?
	`

	rows, err := h.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent imports: %w", err)
	}
	defer rows.Close()

	var records []ImportRecord
	for rows.Next() {
		var record ImportRecord
		var milliunits int64

		if err := rows.Scan(
			&record.ID,
			&record.TxHash,
			&record.TxDate,
			&record.TxType,
			&milliunits,
			&record.Note,
			&record.ImportID,
			&record.ImportedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import record: %w", err)
		}

		record.Amount = amount.Milliunits(milliunits)
		records = append(records, record)
	}

	return records, nil
}

// DeleteImport deletes an import record.
// Use case: force re-upload of a specific transaction.
func (h *ImportHistory) DeleteImport(txHash string) (bool, error) {
	query := `DELETE FROM imported_transactions WHERE tx_hash = ?`

	result, err := h.conn.Exec(query, txHash)
	if err != nil {
		return false, fmt.Errorf("failed to delete import record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// LastImport returns the last-import checkpoint. The second return value is
// false when no sync has completed yet.
func (h *ImportHistory) LastImport() (time.Time, bool, error) {
	value, err := h.GetMetadata(checkpointKey)
	if err != nil {
		return time.Time{}, false, err
	}
	if value == "" {
		return time.Time{}, false, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse checkpoint %q: %w", value, err)
	}

	return t, true, nil
}

// SetLastImport stores the last-import checkpoint.
func (h *ImportHistory) SetLastImport(t time.Time) error {
	return h.SetMetadata(checkpointKey, t.UTC().Format(time.RFC3339))
}

// Stats represents import statistics.
type Stats struct {
	TotalImported int
	FirstImport   sql.NullString
	LastImport    sql.NullString
	Checkpoint    sql.NullString
}

// GetStats retrieves import statistics.
func (h *ImportHistory) GetStats() (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`SELECT COUNT(*) FROM imported_transactions`).Scan(&stats.TotalImported)
	if err != nil {
		return nil, fmt.Errorf("failed to get import count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT MIN(imported_at), MAX(imported_at) FROM imported_transactions`).
		Scan(&stats.FirstImport, &stats.LastImport)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get import times: %w", err)
	}

	checkpoint, err := h.GetMetadata(checkpointKey)
	if err != nil {
		return nil, err
	}
	if checkpoint != "" {
		stats.Checkpoint = sql.NullString{String: checkpoint, Valid: true}
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (h *ImportHistory) GetMetadata(key string) (string, error) {
	query := `SELECT value FROM sync_metadata WHERE key = ?`

	var value string
	err := h.conn.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *ImportHistory) SetMetadata(key, value string) error {
	query := `
		INSERT INTO sync_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := h.conn.Exec(query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
