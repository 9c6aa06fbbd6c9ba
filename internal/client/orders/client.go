package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cornjacket/returns-service/internal/shared/metrics"
)

// maxBodyBytes bounds how much of an order response is read.
const maxBodyBytes = 1 << 20

var (
	// ErrOrderNotFound means the Orders service reported the order as absent.
	ErrOrderNotFound = errors.New("order does not exist")

	// ErrServiceUnavailable means the Orders service could not be reached in time.
	ErrServiceUnavailable = errors.New("orders service unavailable")

	// ErrUpstream means the Orders service answered with an unexpected status or body.
	ErrUpstream = errors.New("orders service error")
)

// Order is the subset of the Orders service representation forwarded into events.
// Status and TotalPrice are kept as raw JSON so they are forwarded verbatim.
type Order struct {
	Status     json.RawMessage
	TotalPrice json.RawMessage

	// Raw is the complete order document.
	Raw json.RawMessage
}

// Client checks order existence against the Orders service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates an Orders client. Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("client", "orders"),
	}
}

// CheckExists issues a single GET {base}/orders/{id}. No retries, no caching.
func (c *Client) CheckExists(ctx context.Context, orderID int64) (*Order, error) {
	url := c.baseURL + "/orders/" + strconv.FormatInt(orderID, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("orders service unreachable", "order_id", orderID, "error", err)
		metrics.OrderChecksTotal.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.OrderChecksTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("orders service returned error status",
			"order_id", orderID,
			"status_code", resp.StatusCode,
		)
		metrics.OrderChecksTotal.WithLabelValues("upstream_error").Inc()
		return nil, fmt.Errorf("%w (%d)", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.OrderChecksTotal.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: reading response: %v", ErrServiceUnavailable, err)
	}

	order, err := decodeOrder(body)
	if err != nil {
		c.logger.Warn("orders service returned unexpected payload", "order_id", orderID, "error", err)
		metrics.OrderChecksTotal.WithLabelValues("upstream_error").Inc()
		return nil, fmt.Errorf("%w: unexpected payload: %v", ErrUpstream, err)
	}

	metrics.OrderChecksTotal.WithLabelValues("found").Inc()
	c.logger.Debug("order exists", "order_id", orderID)
	return order, nil
}

// decodeOrder requires a JSON object and picks out the forwarded fields.
func decodeOrder(body []byte) (*Order, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("order is not a JSON object")
	}

	return &Order{
		Status:     fields["status"],
		TotalPrice: fields["total_price"],
		Raw:        json.RawMessage(body),
	}, nil
}
