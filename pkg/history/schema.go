// Package history provides SQLite storage for the import history and the
// last-import checkpoint.
package history

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Imported transactions table
-- Tracks which Trade Republic transactions have been uploaded to YNAB
CREATE TABLE IF NOT EXISTS imported_transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tx_hash TEXT NOT NULL,             -- SHA-256 of the source transaction
    tx_date TEXT NOT NULL,             -- YYYY-MM-DD
    tx_type TEXT NOT NULL,             -- Deposit, Buy, Card Payment, ...
    amount INTEGER NOT NULL,           -- Amount in milliunits
    note TEXT NOT NULL,
    import_id TEXT NOT NULL,           -- import_id sent to YNAB
    imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(tx_hash)
);

CREATE INDEX IF NOT EXISTS idx_imported_transactions_date
    ON imported_transactions(tx_date);

-- Sync metadata table
-- Stores key-value metadata such as the last-import checkpoint
CREATE TABLE IF NOT EXISTS sync_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
