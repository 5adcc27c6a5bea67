package traderepublic

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// The timeline is served over a websocket with a line-oriented protocol.
// After the handshake the client sends
//
//	connect 31 {"locale":"en"}
//
// and waits for "connected". Each request is a numbered subscription
//
//	sub 1 {"type":"timelineTransactions","token":"..."}
//
// answered by one of
//
//	1 A {...}   full answer
//	1 E {...}   error
//	1 C         subscription closed
//
// Answers are paginated: the "after" cursor of one page is the subscription
// parameter for the next.
const connectVersion = 31

// Reply codes used by the timeline websocket.
const (
	replyAnswer = "A"
	replyError  = "E"
	replyClosed = "C"
)

// Timeline fetches all timeline transactions dated at or after since,
// newest first. The client must have completed a login.
func (c *Client) Timeline(since time.Time) ([]Transaction, error) {
	if !c.Authenticated() {
		return nil, errors.New("not logged in")
	}

	conn, err := c.dialTimeline()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := c.connectTimeline(conn); err != nil {
		return nil, err
	}

	var transactions []Transaction
	after := ""
	subID := 1

	for {
		page, err := c.fetchTimelinePage(conn, subID, after)
		if err != nil {
			return nil, err
		}
		subID++

		// Items arrive newest first, so the first item older than the
		// cutoff ends the whole fetch.
		reachedCutoff := false
		for _, event := range page.Items {
			tx, ok, err := event.transaction()
			if err != nil {
				return nil, fmt.Errorf("failed to parse timeline event %s: %w", event.ID, err)
			}
			if !ok {
				continue
			}
			if tx.Date.Before(since) {
				reachedCutoff = true
				break
			}
			transactions = append(transactions, tx)
		}

		if reachedCutoff || page.Cursors.After == "" {
			break
		}
		after = page.Cursors.After
	}

	return transactions, nil
}

// dialTimeline opens the timeline websocket.
func (c *Client) dialTimeline() (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.timeout,
	}

	conn, _, err := dialer.Dial(c.wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.wsURL, err)
	}

	return conn, nil
}

// connectTimeline performs the application-level handshake.
func (c *Client) connectTimeline(conn *websocket.Conn) error {
	hello, err := json.Marshal(map[string]string{"locale": c.locale})
	if err != nil {
		return fmt.Errorf("failed to encode connect message: %w", err)
	}

	if err := c.writeMessage(conn, fmt.Sprintf("connect %d %s", connectVersion, hello)); err != nil {
		return err
	}

	reply, err := c.readMessage(conn)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(reply, "connected") {
		return fmt.Errorf("unexpected connect reply: %q", reply)
	}

	return nil
}

// fetchTimelinePage subscribes for one page of timeline transactions and
// waits for its answer.
func (c *Client) fetchTimelinePage(conn *websocket.Conn, subID int, after string) (*timelinePage, error) {
	sub := map[string]string{
		"type":  "timelineTransactions",
		"token": c.sessionToken,
	}
	if after != "" {
		sub["after"] = after
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode subscription: %w", err)
	}

	if err := c.writeMessage(conn, fmt.Sprintf("sub %d %s", subID, payload)); err != nil {
		return nil, err
	}

	for {
		raw, err := c.readMessage(conn)
		if err != nil {
			return nil, err
		}

		id, code, body, err := parseSubscriptionReply(raw)
		if err != nil {
			return nil, err
		}
		if id != subID {
			// Late reply for an already unsubscribed request.
			continue
		}

		switch code {
		case replyAnswer:
			if err := c.writeMessage(conn, fmt.Sprintf("unsub %d", subID)); err != nil {
				return nil, err
			}

			var page timelinePage
			if err := json.Unmarshal([]byte(body), &page); err != nil {
				return nil, fmt.Errorf("failed to decode timeline page: %w", err)
			}
			return &page, nil
		case replyError:
			return nil, fmt.Errorf("timeline subscription failed: %s", body)
		case replyClosed:
			return nil, errors.New("timeline subscription closed before answering")
		default:
			return nil, fmt.Errorf("unexpected reply code %q", code)
		}
	}
}

// writeMessage sends one text message with the client timeout as deadline.
// Payloads carry the session token, so they are never echoed into errors.
func (c *Client) writeMessage(conn *websocket.Conn, msg string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// readMessage receives one text message with the client timeout as deadline.
func (c *Client) readMessage(conn *websocket.Conn) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", fmt.Errorf("failed to set read deadline: %w", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	return string(data), nil
}

// parseSubscriptionReply splits a reply like "1 A {...}" into subscription
// ID, code, and payload. The payload is empty for "C" replies.
func parseSubscriptionReply(raw string) (int, string, string, error) {
	idPart, rest, found := strings.Cut(raw, " ")
	if !found {
		return 0, "", "", fmt.Errorf("malformed reply: %q", raw)
	}

	id, err := strconv.Atoi(idPart)
	if err != nil {
		return 0, "", "", fmt.Errorf("malformed reply ID: %q", raw)
	}

	code, payload, _ := strings.Cut(rest, " ")
	return id, code, payload, nil
}

// transaction converts a timeline event into a Transaction. Events without
// a monetary amount (document notices, status updates) and canceled events
// report ok=false.
func (e timelineEvent) transaction() (Transaction, bool, error) {
	if e.Amount.Value == "" || e.Status == "CANCELED" {
		return Transaction{}, false, nil
	}

	date, err := parseTime(e.Timestamp)
	if err != nil {
		return Transaction{}, false, err
	}

	value := e.Amount.Value.String()

	return Transaction{
		Date:  date,
		Type:  eventTypeName(e.EventType, value),
		Value: value,
		Note:  normalizeNote(e.Title),
		ISIN:  isinFromIcon(e.Icon),
	}, true, nil
}

// eventTypeName maps a timeline eventType to the transaction type used in
// exports. Order executions are split into Buy and Sell by amount sign.
func eventTypeName(eventType, value string) string {
	switch eventType {
	case "PAYMENT_INBOUND", "PAYMENT_INBOUND_SEPA_DIRECT_DEBIT", "INCOMING_TRANSFER":
		return "Deposit"
	case "PAYMENT_OUTBOUND", "OUTGOING_TRANSFER":
		return "Removal"
	case "INTEREST_PAYOUT", "INTEREST_PAYOUT_CREATED":
		return "Interest"
	case "CREDIT", "ssp_corporate_action_invoice_cash":
		return "Dividend"
	case "ORDER_EXECUTED", "TRADE_INVOICE", "trading_trade_executed":
		if strings.HasPrefix(value, "-") {
			return "Buy"
		}
		return "Sell"
	case "SAVINGS_PLAN_EXECUTED", "SAVINGS_PLAN_INVOICE_CREATED", "trading_savingsplan_executed":
		return "Savings Plan"
	case "benefits_saveback_execution":
		return "Saveback"
	case "benefits_spare_change_execution":
		return "Round Up"
	case "card_successful_transaction":
		return "Card Payment"
	case "card_refund":
		return "Card Refund"
	case "card_successful_atm_withdrawal":
		return "ATM Withdrawal"
	case "TAX_REFUND", "ssp_tax_correction_invoice":
		return "Tax Refund"
	default:
		return eventType
	}
}

// isinFromIcon extracts the instrument ISIN from an icon path such as
// "logos/DE000A0F5UF5/v2". Icons of non-instrument events use symbolic
// names in the same position and yield an empty string.
func isinFromIcon(icon string) string {
	rest, ok := strings.CutPrefix(icon, "logos/")
	if !ok {
		return ""
	}

	candidate, _, _ := strings.Cut(rest, "/")
	if !isISIN(candidate) {
		return ""
	}
	return candidate
}

// isISIN reports whether s has the shape of an ISIN: two country letters
// followed by ten alphanumeric characters.
func isISIN(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i < 2 {
			if c < 'A' || c > 'Z' {
				return false
			}
			continue
		}
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
