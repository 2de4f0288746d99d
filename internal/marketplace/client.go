// Package marketplace is the HTTP client for the OldPhoneDeals marketplace
// API. Everything it returns is already normalized into the domain types.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// FetchAllLimit is the page size used to approximate "the whole collection"
// on endpoints without a dedicated fetch-all route.
const FetchAllLimit = 1000

// APIError is a non-2xx answer from the marketplace.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("marketplace %s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Client talks to the marketplace REST API.
type Client struct {
	client  *http.Client
	baseURL string
	name    string // client name for logging and User-Agent
}

// NewClient creates a client with the given base URL and request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		name:    "gateway",
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.client = hc
}

// GetJSON issues a GET and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, token string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, token, out)
}

// PostJSON issues a POST with a JSON payload and decodes the JSON body into out.
func (c *Client) PostJSON(ctx context.Context, endpoint string, payload any, token string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON payload: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, nil, bytes.NewReader(body), token, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body io.Reader, token string, out any) error {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "OldPhoneDeals/"+c.name)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debug().
		Str("method", method).
		Str("url", u).
		Msg("marketplace request")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error().
			Str("method", method).
			Str("url", u).
			Err(err).
			Msg("marketplace request failed")
		return fmt.Errorf("marketplace %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("url", u).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(raw)).
		Msg("marketplace response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Method:     method,
			Path:       endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("marketplace %s %s: decode response: %w", method, endpoint, err)
	}
	return nil
}

// errorMessage pulls "message" or "error" out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
