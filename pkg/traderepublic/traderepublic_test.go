package traderepublic

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseSubscriptionReply(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		id      int
		code    string
		payload string
	}{
		{"answer", `1 A {"items":[]}`, 1, "A", `{"items":[]}`},
		{"error", `7 E {"errors":[]}`, 7, "E", `{"errors":[]}`},
		{"closed", "12 C", 12, "C", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, code, payload, err := parseSubscriptionReply(tt.raw)
			if err != nil {
				t.Fatalf("parseSubscriptionReply(%q) returned error: %v", tt.raw, err)
			}
			if id != tt.id || code != tt.code || payload != tt.payload {
				t.Errorf("parseSubscriptionReply(%q) = (%d, %q, %q), expected (%d, %q, %q)",
					tt.raw, id, code, payload, tt.id, tt.code, tt.payload)
			}
		})
	}
}

func TestParseSubscriptionReplyMalformed(t *testing.T) {
	for _, raw := range []string{"connected", "x A {}", ""} {
		if _, _, _, err := parseSubscriptionReply(raw); err == nil {
			t.Errorf("parseSubscriptionReply(%q) expected an error", raw)
		}
	}
}

func TestEventTypeName(t *testing.T) {
	tests := []struct {
		eventType string
		value     string
		expected  string
	}{
		{"PAYMENT_INBOUND", "500", "Deposit"},
		{"PAYMENT_OUTBOUND", "-500", "Removal"},
		{"INTEREST_PAYOUT", "1.23", "Interest"},
		{"CREDIT", "0.81", "Dividend"},
		{"ssp_corporate_action_invoice_cash", "0.81", "Dividend"},
		{"ORDER_EXECUTED", "-40.28", "Buy"},
		{"ORDER_EXECUTED", "40.28", "Sell"},
		{"TRADE_INVOICE", "-100", "Buy"},
		{"SAVINGS_PLAN_EXECUTED", "-25", "Savings Plan"},
		{"benefits_saveback_execution", "-1.50", "Saveback"},
		{"card_successful_transaction", "-12.99", "Card Payment"},
		{"card_refund", "12.99", "Card Refund"},
		{"card_successful_atm_withdrawal", "-50", "ATM Withdrawal"},
		{"TAX_REFUND", "3.10", "Tax Refund"},
		{"SOME_FUTURE_EVENT", "1", "SOME_FUTURE_EVENT"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType+"/"+tt.value, func(t *testing.T) {
			if got := eventTypeName(tt.eventType, tt.value); got != tt.expected {
				t.Errorf("eventTypeName(%q, %q) = %q, expected %q", tt.eventType, tt.value, got, tt.expected)
			}
		})
	}
}

func TestIsinFromIcon(t *testing.T) {
	tests := []struct {
		name     string
		icon     string
		expected string
	}{
		{"instrument", "logos/DE000A0F5UF5/v2", "DE000A0F5UF5"},
		{"us instrument", "logos/US0378331005/v2", "US0378331005"},
		{"symbolic", "logos/timeline_plus_circle/v2", ""},
		{"default", "logos/default/v2", ""},
		{"no prefix", "icons/DE000A0F5UF5/v2", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isinFromIcon(tt.icon); got != tt.expected {
				t.Errorf("isinFromIcon(%q) = %q, expected %q", tt.icon, got, tt.expected)
			}
		})
	}
}

func TestNormalizeNote(t *testing.T) {
	tests := []struct {
		note     string
		expected string
	}{
		{"Card Payment - REWE Markt", "REWE Markt"},
		{"Apple", "Apple"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeNote(tt.note); got != tt.expected {
			t.Errorf("normalizeNote(%q) = %q, expected %q", tt.note, got, tt.expected)
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"rfc3339", "2023-11-01T12:26:52+00:00", false},
		{"api offset", "2023-11-01T12:26:52.110+0000", false},
		{"naive", "2023-11-01T12:26:52", false},
		{"date only", "2023-11-01", false},
		{"invalid", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTime(%q) error = %v, wantErr = %v", tt.value, err, tt.wantErr)
			}
			if err == nil && (got.Year() != 2023 || got.Month() != time.November || got.Day() != 1) {
				t.Errorf("parseTime(%q) = %v, expected November 1, 2023", tt.value, got)
			}
		})
	}
}

func TestTimelineEventTransaction(t *testing.T) {
	const raw = `{
		"id": "1b9b4f8e-35f7-4e2f-9f2c-000000000000",
		"timestamp": "2023-11-01T12:26:52.110+0000",
		"title": "Apple",
		"subtitle": "Buy order",
		"eventType": "ORDER_EXECUTED",
		"status": "EXECUTED",
		"icon": "logos/US0378331005/v2",
		"amount": {"currency": "EUR", "value": -40.28, "fractionDigits": 2}
	}`

	var event timelineEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}

	tx, ok, err := event.transaction()
	if err != nil {
		t.Fatalf("transaction() returned error: %v", err)
	}
	if !ok {
		t.Fatal("transaction() reported ok=false for a monetary event")
	}

	if tx.Value != "-40.28" {
		t.Errorf("Value = %q, expected %q", tx.Value, "-40.28")
	}
	if tx.Type != "Buy" {
		t.Errorf("Type = %q, expected %q", tx.Type, "Buy")
	}
	if tx.Note != "Apple" {
		t.Errorf("Note = %q, expected %q", tx.Note, "Apple")
	}
	if tx.ISIN != "US0378331005" {
		t.Errorf("ISIN = %q, expected %q", tx.ISIN, "US0378331005")
	}
	if tx.Date.Day() != 1 || tx.Date.Month() != time.November {
		t.Errorf("Date = %v, expected November 1", tx.Date)
	}
}

func TestTimelineEventTransactionSkipped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no amount", `{"id": "a", "timestamp": "2023-11-01T12:26:52", "title": "Statement", "eventType": "timeline_legacy_migrated_events"}`},
		{"canceled", `{"id": "b", "timestamp": "2023-11-01T12:26:52", "title": "Apple", "eventType": "ORDER_EXECUTED", "status": "CANCELED", "amount": {"currency": "EUR", "value": -40.28, "fractionDigits": 2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event timelineEvent
			if err := json.Unmarshal([]byte(tt.raw), &event); err != nil {
				t.Fatalf("failed to decode event: %v", err)
			}

			_, ok, err := event.transaction()
			if err != nil {
				t.Fatalf("transaction() returned error: %v", err)
			}
			if ok {
				t.Error("transaction() reported ok=true, expected the event to be skipped")
			}
		})
	}
}

func TestReadExport(t *testing.T) {
	const export = `{"Date": "2023-11-01T12:26:52", "Type": "Buy", "Value": "-1,234.56", "Note": "Apple", "ISIN": "US0378331005", "Shares": "0.25", "Fees": "-1.00", "Taxes": null}

{"Date": "2023-11-02T09:00:00", "Type": "Card Payment", "Value": -12.99, "Note": "Card Payment - REWE Markt", "ISIN": null}
`

	transactions, err := ReadExport(strings.NewReader(export))
	if err != nil {
		t.Fatalf("ReadExport returned error: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("ReadExport returned %d transactions, expected 2", len(transactions))
	}

	first := transactions[0]
	if first.Value != "-1,234.56" {
		t.Errorf("Value = %q, expected %q", first.Value, "-1,234.56")
	}
	if first.Shares != "0.25" || first.Fees != "-1.00" || first.Taxes != "" {
		t.Errorf("Shares/Fees/Taxes = %q/%q/%q, expected 0.25/-1.00/empty", first.Shares, first.Fees, first.Taxes)
	}
	if first.Date.Format("2006-01-02") != "2023-11-01" {
		t.Errorf("Date = %v, expected 2023-11-01", first.Date)
	}

	second := transactions[1]
	if second.Value != "-12.99" {
		t.Errorf("Value = %q, expected %q", second.Value, "-12.99")
	}
	if second.Note != "REWE Markt" {
		t.Errorf("Note = %q, expected %q", second.Note, "REWE Markt")
	}
	if second.ISIN != "" {
		t.Errorf("ISIN = %q, expected empty", second.ISIN)
	}
}

func TestTransactionHash(t *testing.T) {
	base := Transaction{
		Date:  time.Date(2023, 11, 1, 12, 26, 52, 0, time.UTC),
		Type:  "Buy",
		Value: "-40.28",
		Note:  "Apple",
	}

	if base.Hash() != base.Hash() {
		t.Error("Hash is not deterministic")
	}

	// The same instant in another zone must hash identically.
	berlin := base
	berlin.Date = base.Date.In(time.FixedZone("CET", 3600))
	if berlin.Hash() != base.Hash() {
		t.Error("Hash differs across time zones for the same instant")
	}

	later := base
	later.Date = base.Date.Add(time.Second)
	if later.Hash() == base.Hash() {
		t.Error("Hash collides for transactions at different times")
	}

	other := base
	other.Value = "-40.29"
	if other.Hash() == base.Hash() {
		t.Error("Hash collides for different amounts")
	}
}

func TestReadExportMalformed(t *testing.T) {
	_, err := ReadExport(strings.NewReader(`{"Date": "2023-11-01"}` + "\n" + `not json`))
	if err == nil {
		t.Fatal("ReadExport expected an error for malformed input")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error = %v, expected it to name line 2", err)
	}
}
