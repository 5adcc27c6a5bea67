package converter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tr2ynab/tr2ynab/pkg/amount"
	"github.com/tr2ynab/tr2ynab/pkg/traderepublic"
	"github.com/tr2ynab/tr2ynab/pkg/ynab"
)

// Converter converts Trade Republic transactions to YNAB transactions for
// one account. The mapper is optional; without it transactions stay
// uncategorized.
type Converter struct {
	mapper    *Mapper
	accountID string
}

// NewConverter creates a new Converter.
func NewConverter(mapper *Mapper, accountID string) *Converter {
	return &Converter{
		mapper:    mapper,
		accountID: accountID,
	}
}

// Converted pairs a source transaction with its YNAB form.
type Converted struct {
	Source      traderepublic.Transaction
	Transaction ynab.NewTransaction
}

// Failed records a transaction that could not be converted.
type Failed struct {
	Transaction traderepublic.Transaction
	Err         error
}

// Batch is the outcome of converting a slice of transactions.
type Batch struct {
	Converted []Converted
	Failed    []Failed
}

// Transactions returns the YNAB transactions of the batch, in order.
func (b Batch) Transactions() []ynab.NewTransaction {
	transactions := make([]ynab.NewTransaction, len(b.Converted))
	for i, conv := range b.Converted {
		transactions[i] = conv.Transaction
	}
	return transactions
}

// ConvertAll converts a batch of transactions. Transactions whose amounts
// cannot be parsed are collected in Failed instead of aborting the batch.
//
// Import IDs follow the "YNAB:<amount>:<date>:<occurrence>" convention used
// by YNAB's own importers, with the occurrence counting identical amount
// and date pairs within the batch, so re-uploading the same batch is
// deduplicated server-side.
func (c *Converter) ConvertAll(transactions []traderepublic.Transaction) Batch {
	var batch Batch
	occurrences := make(map[string]int)

	for _, tx := range transactions {
		newTx, err := c.Convert(tx)
		if err != nil {
			batch.Failed = append(batch.Failed, Failed{Transaction: tx, Err: err})
			continue
		}

		key := fmt.Sprintf("%d:%s", newTx.Amount, newTx.Date)
		occurrences[key]++
		newTx.ImportID = fmt.Sprintf("YNAB:%d:%s:%d", newTx.Amount, newTx.Date, occurrences[key])

		batch.Converted = append(batch.Converted, Converted{Source: tx, Transaction: newTx})
	}

	return batch
}

// Convert converts a single transaction. Converted transactions are marked
// cleared but not approved, so they surface for review in YNAB. The import
// ID is assigned by ConvertAll.
func (c *Converter) Convert(tx traderepublic.Transaction) (ynab.NewTransaction, error) {
	milliunits, err := amount.Parse(tx.Value)
	if err != nil {
		return ynab.NewTransaction{}, fmt.Errorf("failed to parse amount %q: %w", tx.Value, err)
	}

	newTx := ynab.NewTransaction{
		AccountID: c.accountID,
		Date:      tx.Date.Format("2006-01-02"),
		Amount:    milliunits,
		PayeeName: tx.Note,
		Memo:      buildMemo(tx),
		Cleared:   ynab.ClearedCleared,
	}

	if c.mapper != nil {
		newTx.CategoryID = c.mapper.GetCategoryID(tx.Type)
		newTx.FlagColor = c.mapper.GetFlagColor(tx.Type)
	}

	return newTx, nil
}

// buildMemo describes a transaction for the YNAB memo field: its type, the
// instrument, and any share, fee, and tax details.
func buildMemo(tx traderepublic.Transaction) string {
	var parts []string

	if tx.Type != "" {
		parts = append(parts, tx.Type)
	}
	if tx.ISIN != "" {
		parts = append(parts, tx.ISIN)
	}
	if tx.Shares != "" {
		parts = append(parts, fmt.Sprintf("%s shares", formatQuantity(tx.Shares)))
	}
	if fees := formatCharge(tx.Fees); fees != "" {
		parts = append(parts, fmt.Sprintf("fees %s", fees))
	}
	if taxes := formatCharge(tx.Taxes); taxes != "" {
		parts = append(parts, fmt.Sprintf("taxes %s", taxes))
	}

	return strings.Join(parts, ", ")
}

// formatQuantity normalizes a decimal string for display, dropping
// thousands separators and trailing zeros. Unparseable input is returned
// unchanged rather than failing the conversion.
func formatQuantity(value string) string {
	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return value
	}
	return d.String()
}

// formatCharge renders a fee or tax as a positive decimal. Returns empty
// string when the charge is zero or absent.
func formatCharge(value string) string {
	if value == "" {
		return ""
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return value
	}
	if d.IsZero() {
		return ""
	}

	return d.Abs().String()
}
