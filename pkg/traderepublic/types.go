// Package traderepublic provides a Trade Republic client: web login,
// timeline retrieval over websocket, and export-file ingestion.
package traderepublic

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Transaction represents one booked transaction from the Trade Republic
// timeline or from an exported transaction file.
type Transaction struct {
	Date  time.Time `json:"Date"`
	Type  string    `json:"Type"`
	Value string    `json:"Value"` // decimal amount string, e.g. "-40.28" or "1,234.56"
	Note  string    `json:"Note"`
	ISIN  string    `json:"ISIN,omitempty"`
	// Shares, Fees, Taxes are decimal strings in the same locale format as
	// Value; empty when the event carries no instrument details.
	Shares string `json:"Shares,omitempty"`
	Fees   string `json:"Fees,omitempty"`
	Taxes  string `json:"Taxes,omitempty"`
}

// Hash returns a stable identity for deduplication: the SHA-256 of
// timestamp, type, value, and note. Full timestamp precision keeps two
// same-day transactions with equal amounts distinct.
func (t Transaction) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", t.Date.UTC().Format(time.RFC3339), t.Type, t.Value, t.Note)
	return hex.EncodeToString(h.Sum(nil))
}

// LoginProcess describes a pending two-factor web login.
type LoginProcess struct {
	ProcessID        string
	CountdownSeconds int
	Method           string // delivery channel for the one-time code, e.g. "SMS"
}

// loginResponse is the payload of POST /api/v1/auth/web/login.
type loginResponse struct {
	ProcessID          string `json:"processId"`
	CountdownInSeconds int    `json:"countdownInSeconds"`
	TwoFactor          string `json:"2fa"`
}

// errorsResponse is the error payload returned by the REST API.
type errorsResponse struct {
	Errors []apiError `json:"errors"`
}

type apiError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// timelinePage is the websocket answer for a timelineTransactions
// subscription.
type timelinePage struct {
	Items   []timelineEvent `json:"items"`
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
}

// timelineEvent is a single timeline item. Amount values are kept as
// json.Number so the decimal text survives unchanged into Transaction.Value.
type timelineEvent struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	EventType string `json:"eventType"`
	Status    string `json:"status,omitempty"`
	Icon      string `json:"icon,omitempty"`
	Amount    struct {
		Currency       string      `json:"currency"`
		Value          json.Number `json:"value"`
		FractionDigits int         `json:"fractionDigits"`
	} `json:"amount"`
}

// cardPaymentPrefix is prepended by the export format to card merchant
// notes; it carries no information and is removed on ingestion.
const cardPaymentPrefix = "Card Payment - "

// normalizeNote strips the card payment prefix from a note.
func normalizeNote(note string) string {
	return strings.ReplaceAll(note, cardPaymentPrefix, "")
}

// timeLayouts covers the timestamp shapes seen on timeline events and in
// export files.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime parses a timestamp in any of the known layouts.
func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
