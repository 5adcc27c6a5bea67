package traderepublic

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// exportRecord mirrors one line of an export file. Dates are ISO 8601
// strings; decimal fields are either quoted strings or bare numbers,
// depending on the exporter's localization setting.
type exportRecord struct {
	Date   string          `json:"Date"`
	Type   string          `json:"Type"`
	Value  json.RawMessage `json:"Value"`
	Note   string          `json:"Note"`
	ISIN   string          `json:"ISIN"`
	Shares json.RawMessage `json:"Shares"`
	Fees   json.RawMessage `json:"Fees"`
	Taxes  json.RawMessage `json:"Taxes"`
}

// ReadExport reads transactions from r, one JSON object per line. Blank
// lines are skipped.
func ReadExport(r io.Reader) ([]Transaction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var transactions []Transaction
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record exportRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("line %d: failed to decode record: %w", line, err)
		}

		tx, err := record.transaction()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		transactions = append(transactions, tx)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	return transactions, nil
}

// ReadExportFile reads transactions from an export file on disk.
func ReadExportFile(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	transactions, err := ReadExport(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return transactions, nil
}

// transaction converts an export record into a Transaction.
func (r exportRecord) transaction() (Transaction, error) {
	date, err := parseTime(r.Date)
	if err != nil {
		return Transaction{}, err
	}

	value, err := decodeDecimal(r.Value)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to decode value: %w", err)
	}
	shares, err := decodeDecimal(r.Shares)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to decode shares: %w", err)
	}
	fees, err := decodeDecimal(r.Fees)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to decode fees: %w", err)
	}
	taxes, err := decodeDecimal(r.Taxes)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to decode taxes: %w", err)
	}

	return Transaction{
		Date:   date,
		Type:   r.Type,
		Value:  value,
		Note:   normalizeNote(r.Note),
		ISIN:   r.ISIN,
		Shares: shares,
		Fees:   fees,
		Taxes:  taxes,
	}, nil
}

// decodeDecimal returns the decimal text of a JSON value that may be a
// quoted string, a bare number, or null.
func decodeDecimal(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
