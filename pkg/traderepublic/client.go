package traderepublic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// sessionCookieName is the cookie set by a completed web login.
const sessionCookieName = "tr_session"

// ClientConfig represents the configuration for the Trade Republic client.
type ClientConfig struct {
	APIURL  string
	WSURL   string
	PhoneNo string
	PIN     string
	Locale  string
	Timeout time.Duration // Default: 30 seconds
}

// Client is a Trade Republic web API client.
//
// A new client is unauthenticated. Call Login to trigger delivery of a
// one-time code, then CompleteLogin with the received code; afterwards
// Timeline can fetch transactions.
type Client struct {
	httpClient   *http.Client
	apiURL       string
	wsURL        string
	phoneNo      string
	pin          string
	locale       string
	timeout      time.Duration
	sessionToken string
}

// NewClient creates a new Trade Republic client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	locale := config.Locale
	if locale == "" {
		locale = "en"
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		apiURL:  config.APIURL,
		wsURL:   config.WSURL,
		phoneNo: config.PhoneNo,
		pin:     config.PIN,
		locale:  locale,
		timeout: timeout,
	}
}

// Login starts a web login. Trade Republic sends a one-time code to the
// account holder's device; the returned process must be confirmed with
// CompleteLogin before the session is usable.
func (c *Client) Login() (*LoginProcess, error) {
	payload, err := json.Marshal(map[string]string{
		"phoneNumber": c.phoneNo,
		"pin":         c.pin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/auth/web/login", c.apiURL)

	req, err := http.NewRequest("POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var loginResp loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &LoginProcess{
		ProcessID:        loginResp.ProcessID,
		CountdownSeconds: loginResp.CountdownInSeconds,
		Method:           loginResp.TwoFactor,
	}, nil
}

// CompleteLogin confirms a login process with the one-time code and stores
// the resulting session on the client.
func (c *Client) CompleteLogin(process *LoginProcess, code string) error {
	endpoint := fmt.Sprintf("%s/api/v1/auth/web/login/%s/%s",
		c.apiURL, url.PathEscape(process.ProcessID), url.PathEscape(code))

	req, err := http.NewRequest("POST", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	token, err := c.sessionCookie()
	if err != nil {
		return err
	}
	c.sessionToken = token

	return nil
}

// Authenticated reports whether the client holds a session token.
func (c *Client) Authenticated() bool {
	return c.sessionToken != ""
}

// sessionCookie extracts the session token set by a completed login.
func (c *Client) sessionCookie() (string, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse API URL: %w", err)
	}

	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == sessionCookieName {
			return cookie.Value, nil
		}
	}

	return "", errors.New("login did not set a session cookie")
}

// parseError parses an error response from the Trade Republic API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("trade republic API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp errorsResponse
	if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Errors) == 0 {
		return fmt.Errorf("trade republic API error (status %d): %s", resp.StatusCode, string(body))
	}

	apiErr := errResp.Errors[0]
	if apiErr.ErrorMessage != "" {
		return fmt.Errorf("trade republic API error: %s - %s", apiErr.ErrorCode, apiErr.ErrorMessage)
	}

	return fmt.Errorf("trade republic API error: %s", apiErr.ErrorCode)
}
