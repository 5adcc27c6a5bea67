// Package ynab provides a YNAB v1 API client and types.
package ynab

import "github.com/tr2ynab/tr2ynab/pkg/amount"

// Cleared statuses accepted by YNAB.
const (
	ClearedCleared    = "cleared"
	ClearedUncleared  = "uncleared"
	ClearedReconciled = "reconciled"
)

// NewTransaction represents one transaction in a bulk create request.
// Amounts are milliunits; YNAB deduplicates on import_id per account.
type NewTransaction struct {
	AccountID  string            `json:"account_id"`
	Date       string            `json:"date"` // YYYY-MM-DD
	Amount     amount.Milliunits `json:"amount"`
	PayeeName  string            `json:"payee_name,omitempty"`
	CategoryID string            `json:"category_id,omitempty"`
	Memo       string            `json:"memo,omitempty"`
	Cleared    string            `json:"cleared,omitempty"`
	Approved   bool              `json:"approved"`
	FlagColor  string            `json:"flag_color,omitempty"`
	ImportID   string            `json:"import_id,omitempty"`
}

// createTransactionsRequest represents the body of the bulk create call.
type createTransactionsRequest struct {
	Transactions []NewTransaction `json:"transactions"`
}

// CreateResult represents the outcome of a bulk create. Import IDs YNAB has
// already seen are reported in DuplicateImportIDs instead of being created
// again.
type CreateResult struct {
	TransactionIDs     []string `json:"transaction_ids"`
	DuplicateImportIDs []string `json:"duplicate_import_ids"`
}

// createTransactionsResponse represents the response from the bulk create
// endpoint.
type createTransactionsResponse struct {
	Data CreateResult `json:"data"`
}

// Account represents a budget account.
type Account struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	OnBudget bool              `json:"on_budget"`
	Closed   bool              `json:"closed"`
	Balance  amount.Milliunits `json:"balance"`
}

// accountResponse represents the response from the account endpoint.
type accountResponse struct {
	Data struct {
		Account Account `json:"account"`
	} `json:"data"`
}

// ErrorResponse represents an error response from the YNAB API.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError is the error object inside an ErrorResponse.
type APIError struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Detail string `json:"detail"`
}
