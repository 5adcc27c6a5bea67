package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tr2ynab/tr2ynab/pkg/pathutil"
	"github.com/tr2ynab/tr2ynab/pkg/traderepublic"
)

func newTestRepository(t *testing.T) (*FileSystemRepository, string) {
	t.Helper()
	dir := t.TempDir()
	resolver := pathutil.New(pathutil.Config{ConfigDir: dir, ArchiveDir: dir})
	return NewFileSystemRepository(resolver), dir
}

func TestAppendAndReadBack(t *testing.T) {
	repo, _ := newTestRepository(t)

	transactions := []traderepublic.Transaction{
		{
			Date:  time.Date(2023, 11, 1, 12, 26, 52, 0, time.UTC),
			Type:  "Buy",
			Value: "-40.28",
			Note:  "Apple",
			ISIN:  "US0378331005",
		},
		{
			Date:  time.Date(2023, 11, 15, 9, 0, 0, 0, time.UTC),
			Type:  "Deposit",
			Value: "1,000",
			Note:  "Top up",
		},
	}

	if err := repo.AppendTransactions(transactions); err != nil {
		t.Fatalf("AppendTransactions returned error: %v", err)
	}

	got, err := repo.ReadMonthFile("2023-11")
	if err != nil {
		t.Fatalf("ReadMonthFile returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadMonthFile returned %d transactions, expected 2", len(got))
	}

	if got[0].Value != "-40.28" || got[0].ISIN != "US0378331005" {
		t.Errorf("first transaction = %+v, expected the archived buy order", got[0])
	}
	if got[1].Value != "1,000" || got[1].Note != "Top up" {
		t.Errorf("second transaction = %+v, expected the archived deposit", got[1])
	}
	if !got[0].Date.Equal(transactions[0].Date) {
		t.Errorf("Date = %v, expected %v", got[0].Date, transactions[0].Date)
	}
}

func TestAppendGroupsByMonth(t *testing.T) {
	repo, dir := newTestRepository(t)

	err := repo.AppendTransactions([]traderepublic.Transaction{
		{Date: time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), Type: "Buy", Value: "-1", Note: "a"},
		{Date: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), Type: "Buy", Value: "-2", Note: "b"},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Type: "Buy", Value: "-3", Note: "c"},
	})
	if err != nil {
		t.Fatalf("AppendTransactions returned error: %v", err)
	}

	for _, path := range []string{
		filepath.Join(dir, "2023", "2023-11.jsonl"),
		filepath.Join(dir, "2023", "2023-12.jsonl"),
		filepath.Join(dir, "2024", "2024-01.jsonl"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected archive file %s: %v", path, err)
		}
	}

	months, err := repo.GetMonthFilesInYear("2023")
	if err != nil {
		t.Fatalf("GetMonthFilesInYear returned error: %v", err)
	}
	if len(months) != 2 {
		t.Errorf("GetMonthFilesInYear returned %v, expected 2 months", months)
	}
}

func TestAppendIsIncremental(t *testing.T) {
	repo, _ := newTestRepository(t)
	date := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.AppendTransactions([]traderepublic.Transaction{{Date: date, Type: "Buy", Value: "-1", Note: "a"}}); err != nil {
		t.Fatalf("AppendTransactions returned error: %v", err)
	}
	if err := repo.AppendTransactions([]traderepublic.Transaction{{Date: date, Type: "Buy", Value: "-2", Note: "b"}}); err != nil {
		t.Fatalf("AppendTransactions returned error: %v", err)
	}

	got, err := repo.ReadMonthFile("2023-11")
	if err != nil {
		t.Fatalf("ReadMonthFile returned error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ReadMonthFile returned %d transactions, expected appends to accumulate", len(got))
	}
}

func TestReadMonthFileMissing(t *testing.T) {
	repo, _ := newTestRepository(t)

	got, err := repo.ReadMonthFile("2020-01")
	if err != nil {
		t.Fatalf("ReadMonthFile returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadMonthFile returned %d transactions for a missing month, expected 0", len(got))
	}

	if repo.MonthFileExists("2020-01") {
		t.Error("MonthFileExists = true for a missing month")
	}
}
