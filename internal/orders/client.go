package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 3 * time.Second

// maxResponseBytes caps how much of the order service response is read
const maxResponseBytes = 1 << 20

// Lookup fetches the orders belonging to a user. Implementations never fail:
// an unavailable upstream yields an empty list.
type Lookup interface {
	LookupOrders(ctx context.Context, userID string) []json.RawMessage
}

// Client calls the external order service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new order service client. An empty baseURL disables lookups.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// LookupOrders issues GET <base>/orders?user=<userID>. Any failure is logged and
// swallowed; the result is then an empty, non-nil slice.
func (c *Client) LookupOrders(ctx context.Context, userID string) []json.RawMessage {
	if c.baseURL == "" {
		return []json.RawMessage{}
	}

	orders, err := c.fetch(ctx, userID)
	if err != nil {
		c.logger.Warn("Order lookup failed, continuing without orders",
			zap.String("user_id", userID),
			zap.Error(err))
		return []json.RawMessage{}
	}
	return orders
}

func (c *Client) fetch(ctx context.Context, userID string) ([]json.RawMessage, error) {
	endpoint := c.baseURL + "/orders?" + url.Values{"user": {userID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("order service error (status %d)", resp.StatusCode)
	}

	var orders []json.RawMessage
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if orders == nil {
		orders = []json.RawMessage{}
	}
	return orders, nil
}

// HealthCheck probes the order service. It is reported but never blocks startup.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return nil
	}
	_, err := c.fetch(ctx, "")
	return err
}
