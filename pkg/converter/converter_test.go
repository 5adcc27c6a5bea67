package converter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tr2ynab/tr2ynab/pkg/traderepublic"
)

func TestConvert(t *testing.T) {
	c := NewConverter(nil, "acc-1")

	tx := traderepublic.Transaction{
		Date:   time.Date(2023, 11, 1, 12, 26, 52, 0, time.UTC),
		Type:   "Buy",
		Value:  "-40.28",
		Note:   "Apple",
		ISIN:   "US0378331005",
		Shares: "0.250000",
		Fees:   "-1.00",
	}

	got, err := c.Convert(tx)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	if got.AccountID != "acc-1" {
		t.Errorf("AccountID = %q, expected %q", got.AccountID, "acc-1")
	}
	if got.Date != "2023-11-01" {
		t.Errorf("Date = %q, expected %q", got.Date, "2023-11-01")
	}
	if got.Amount != -40280 {
		t.Errorf("Amount = %d, expected %d", got.Amount, -40280)
	}
	if got.PayeeName != "Apple" {
		t.Errorf("PayeeName = %q, expected %q", got.PayeeName, "Apple")
	}
	if got.Memo != "Buy, US0378331005, 0.25 shares, fees 1" {
		t.Errorf("Memo = %q, expected %q", got.Memo, "Buy, US0378331005, 0.25 shares, fees 1")
	}
	if got.Cleared != "cleared" {
		t.Errorf("Cleared = %q, expected %q", got.Cleared, "cleared")
	}
	if got.Approved {
		t.Error("Approved = true, expected converted transactions to stay unapproved")
	}
	if got.CategoryID != "" {
		t.Errorf("CategoryID = %q, expected empty without a mapper", got.CategoryID)
	}
}

func TestConvertMalformedAmount(t *testing.T) {
	c := NewConverter(nil, "acc-1")

	_, err := c.Convert(traderepublic.Transaction{
		Date:  time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC),
		Value: "forty",
	})
	if err == nil {
		t.Fatal("Convert expected an error for a malformed amount")
	}
}

func TestConvertAllImportIDs(t *testing.T) {
	c := NewConverter(nil, "acc-1")
	date := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)

	transactions := []traderepublic.Transaction{
		{Date: date, Value: "-2.50", Note: "Coffee"},
		{Date: date, Value: "-2.50", Note: "Coffee again"},
		{Date: date, Value: "-9.99", Note: "Lunch"},
		{Date: date, Value: "-2.50", Note: "More coffee"},
	}

	batch := c.ConvertAll(transactions)
	if len(batch.Failed) != 0 {
		t.Fatalf("ConvertAll reported %d failed transactions, expected 0", len(batch.Failed))
	}
	if len(batch.Converted) != 4 {
		t.Fatalf("ConvertAll returned %d transactions, expected 4", len(batch.Converted))
	}

	expected := []string{
		"YNAB:-2500:2023-11-01:1",
		"YNAB:-2500:2023-11-01:2",
		"YNAB:-9990:2023-11-01:1",
		"YNAB:-2500:2023-11-01:3",
	}
	for i, want := range expected {
		if batch.Converted[i].Transaction.ImportID != want {
			t.Errorf("ImportID[%d] = %q, expected %q", i, batch.Converted[i].Transaction.ImportID, want)
		}
	}

	if batch.Converted[1].Source.Note != "Coffee again" {
		t.Errorf("Source.Note = %q, expected the source transaction to be carried", batch.Converted[1].Source.Note)
	}

	transactionsOnly := batch.Transactions()
	if len(transactionsOnly) != 4 || transactionsOnly[2].ImportID != expected[2] {
		t.Errorf("Transactions() = %v, expected the converted transactions in order", transactionsOnly)
	}
}

func TestConvertAllCollectsFailures(t *testing.T) {
	c := NewConverter(nil, "acc-1")
	date := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)

	batch := c.ConvertAll([]traderepublic.Transaction{
		{Date: date, Value: "-2.50", Note: "Coffee"},
		{Date: date, Value: "not a number", Note: "Broken"},
		{Date: date, Value: "-9.99", Note: "Lunch"},
	})

	if len(batch.Converted) != 2 {
		t.Errorf("ConvertAll returned %d transactions, expected 2", len(batch.Converted))
	}
	if len(batch.Failed) != 1 {
		t.Fatalf("ConvertAll reported %d failed transactions, expected 1", len(batch.Failed))
	}
	if batch.Failed[0].Transaction.Note != "Broken" {
		t.Errorf("failed transaction Note = %q, expected %q", batch.Failed[0].Transaction.Note, "Broken")
	}
	if batch.Failed[0].Err == nil {
		t.Error("failed transaction has nil error")
	}
}

func TestBuildMemo(t *testing.T) {
	tests := []struct {
		name     string
		tx       traderepublic.Transaction
		expected string
	}{
		{
			"type only",
			traderepublic.Transaction{Type: "Deposit"},
			"Deposit",
		},
		{
			"trade with details",
			traderepublic.Transaction{Type: "Buy", ISIN: "US0378331005", Shares: "0.250000", Fees: "-1.00", Taxes: "0.00"},
			"Buy, US0378331005, 0.25 shares, fees 1",
		},
		{
			"taxes kept when nonzero",
			traderepublic.Transaction{Type: "Sell", ISIN: "DE000A0F5UF5", Taxes: "2.31"},
			"Sell, DE000A0F5UF5, taxes 2.31",
		},
		{
			"separators dropped from shares",
			traderepublic.Transaction{Type: "Buy", Shares: "1,000.50"},
			"Buy, 1000.5 shares",
		},
		{
			"empty",
			traderepublic.Transaction{},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildMemo(tt.tx); got != tt.expected {
				t.Errorf("buildMemo() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestMapper(t *testing.T) {
	const mapping = `categories:
  - type: Dividend
    category_id: cat-dividends
    flag_color: green
  - type: Interest
    category_id: cat-interest
`

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	if err := os.WriteFile(path, []byte(mapping), 0o644); err != nil {
		t.Fatalf("failed to write mapping file: %v", err)
	}

	m, err := NewMapper(path)
	if err != nil {
		t.Fatalf("NewMapper returned error: %v", err)
	}

	if got := m.GetCategoryID("Dividend"); got != "cat-dividends" {
		t.Errorf("GetCategoryID(Dividend) = %q, expected %q", got, "cat-dividends")
	}
	if got := m.GetFlagColor("Dividend"); got != "green" {
		t.Errorf("GetFlagColor(Dividend) = %q, expected %q", got, "green")
	}
	if got := m.GetFlagColor("Interest"); got != "" {
		t.Errorf("GetFlagColor(Interest) = %q, expected empty", got)
	}
	if got := m.GetCategoryID("Buy"); got != "" {
		t.Errorf("GetCategoryID(Buy) = %q, expected empty", got)
	}
	if !m.HasMapping("Interest") {
		t.Error("HasMapping(Interest) = false, expected true")
	}
	if m.HasMapping("Buy") {
		t.Error("HasMapping(Buy) = true, expected false")
	}
}

func TestMapperMissingFile(t *testing.T) {
	if _, err := NewMapper(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("NewMapper expected an error for a missing file")
	}
}
