package ynab

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ClientConfig represents the configuration for the YNAB API client.
type ClientConfig struct {
	APIURL      string
	AccessToken string
	BudgetID    string
	Timeout     time.Duration // Default: 30 seconds
}

// Client is a YNAB API client scoped to one budget.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	budgetID    string
}

// NewClient creates a new YNAB API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     config.APIURL,
		accessToken: config.AccessToken,
		budgetID:    config.BudgetID,
	}
}

// CreateTransactions creates transactions in the configured budget.
func (c *Client) CreateTransactions(transactions []NewTransaction) (*CreateResult, error) {
	endpoint := fmt.Sprintf("%s/budgets/%s/transactions", c.baseURL, url.PathEscape(c.budgetID))

	payload, err := json.Marshal(createTransactionsRequest{Transactions: transactions})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transactions: %w", err)
	}

	req, err := http.NewRequest("POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var createResp createTransactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &createResp.Data, nil
}

// GetAccount fetches one account of the configured budget.
func (c *Client) GetAccount(accountID string) (*Account, error) {
	endpoint := fmt.Sprintf("%s/budgets/%s/accounts/%s",
		c.baseURL, url.PathEscape(c.budgetID), url.PathEscape(accountID))

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var accountResp accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&accountResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &accountResp.Data.Account, nil
}

// parseError parses an error response from the YNAB API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("YNAB API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Name == "" {
		return fmt.Errorf("YNAB API error (status %d): %s", resp.StatusCode, string(body))
	}

	if errResp.Error.Detail != "" {
		return fmt.Errorf("YNAB API error: %s - %s", errResp.Error.Name, errResp.Error.Detail)
	}

	return fmt.Errorf("YNAB API error: %s", errResp.Error.Name)
}
