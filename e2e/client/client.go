// Package client is a thin HTTP client for the returns API used by e2e scenarios.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Return mirrors the returns API representation.
type Return struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
	Status  string `json:"status"`
}

// APIError is a non-success response from the returns API.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// Client calls the returns API at BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateReturn posts a new return.
func (c *Client) CreateReturn(ctx context.Context, orderID int64, reason string) (*Return, error) {
	var ret Return
	body := map[string]any{"order_id": orderID, "reason": reason}
	if err := c.do(ctx, http.MethodPost, "/returns", body, http.StatusCreated, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// GetReturn fetches a return by ID.
func (c *Client) GetReturn(ctx context.Context, id int64) (*Return, error) {
	var ret Return
	if err := c.do(ctx, http.MethodGet, "/returns/"+strconv.FormatInt(id, 10), nil, http.StatusOK, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// ListReturns fetches every return.
func (c *Client) ListReturns(ctx context.Context) ([]Return, error) {
	var list []Return
	if err := c.do(ctx, http.MethodGet, "/returns", nil, http.StatusOK, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateStatus sets the status of a return.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status string) (*Return, error) {
	var ret Return
	body := map[string]any{"status": status}
	if err := c.do(ctx, http.MethodPut, "/returns/"+strconv.FormatInt(id, 10), body, http.StatusOK, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// DeleteReturn removes a return.
func (c *Client) DeleteReturn(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/returns/"+strconv.FormatInt(id, 10), nil, http.StatusNoContent, nil)
}

// StatusOf returns the HTTP status of err if it is an *APIError, else 0.
func StatusOf(err error) int {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode
	}
	return 0
}

func (c *Client) do(ctx context.Context, method, path string, in any, wantStatus int, out any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
