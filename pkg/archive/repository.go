// Package archive provides monthly JSONL archives of fetched transactions.
// Archive files use the export format, so they can be re-ingested with the
// sync command's --from-export flag.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tr2ynab/tr2ynab/pkg/pathutil"
	"github.com/tr2ynab/tr2ynab/pkg/traderepublic"
)

// Repository defines the interface for archive file operations.
type Repository interface {
	// AppendTransactions appends transactions to their monthly files
	AppendTransactions(transactions []traderepublic.Transaction) error

	// ReadMonthFile reads all transactions of a monthly file
	ReadMonthFile(yearMonth string) ([]traderepublic.Transaction, error)

	// MonthFileExists checks if a monthly file exists
	MonthFileExists(yearMonth string) bool

	// GetMonthFilesInYear gets all monthly files in a year
	GetMonthFilesInYear(year string) ([]string, error)
}

// FileSystemRepository is a file system implementation of Repository.
type FileSystemRepository struct {
	pathResolver *pathutil.PathResolver
}

// NewFileSystemRepository creates a new FileSystemRepository.
func NewFileSystemRepository(pathResolver *pathutil.PathResolver) *FileSystemRepository {
	return &FileSystemRepository{
		pathResolver: pathResolver,
	}
}

// AppendTransactions appends transactions to their monthly files, one JSON
// object per line. Files and directories are created as needed.
func (r *FileSystemRepository) AppendTransactions(transactions []traderepublic.Transaction) error {
	// Group by month so each file is opened once per batch.
	byMonth := make(map[string][]traderepublic.Transaction)
	for _, tx := range transactions {
		monthKey := tx.Date.Format("2006-01")
		byMonth[monthKey] = append(byMonth[monthKey], tx)
	}

	for monthKey, monthTransactions := range byMonth {
		if err := r.appendToMonth(monthKey, monthTransactions); err != nil {
			return err
		}
	}

	return nil
}

// appendToMonth appends transactions to one monthly file.
func (r *FileSystemRepository) appendToMonth(yearMonth string, transactions []traderepublic.Transaction) error {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return fmt.Errorf("failed to get month file path: %w", err)
	}

	if err := r.pathResolver.EnsureParentDir(filePath); err != nil {
		return fmt.Errorf("failed to ensure parent directory: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for appending: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, tx := range transactions {
		if err := encoder.Encode(tx); err != nil {
			return fmt.Errorf("failed to write transaction: %w", err)
		}
	}

	return nil
}

// ReadMonthFile reads all transactions of a monthly file.
// Returns an empty slice if the file doesn't exist.
func (r *FileSystemRepository) ReadMonthFile(yearMonth string) ([]traderepublic.Transaction, error) {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to get month file path: %w", err)
	}

	if !r.pathResolver.FileExists(filePath) {
		return nil, nil
	}

	return traderepublic.ReadExportFile(filePath)
}

// MonthFileExists checks if a monthly file exists.
func (r *FileSystemRepository) MonthFileExists(yearMonth string) bool {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return false
	}

	return r.pathResolver.FileExists(filePath)
}

// GetMonthFilesInYear gets all monthly files in a year.
// Returns a slice of year-month strings (e.g., ["2024-01", "2024-02"]).
func (r *FileSystemRepository) GetMonthFilesInYear(year string) ([]string, error) {
	yearDir := r.pathResolver.GetYearDir(year)
	if !r.pathResolver.FileExists(yearDir) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(yearDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read year directory: %w", err)
	}

	var monthFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) == ".jsonl" {
			monthKey := name[:len(name)-len(".jsonl")]
			monthFiles = append(monthFiles, monthKey)
		}
	}

	return monthFiles, nil
}
