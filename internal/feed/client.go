package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client fetches the raw payload of a published feed over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client with the given request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "feed_client")),
	}
}

// Fetch performs one GET against the locator and returns the response body.
// A missing locator, a failed round-trip, and a non-success status each map
// to their own error in the refresh taxonomy.
func (c *Client) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, ErrMissingLocator
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("invalid feed locator: %w", err)}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "feed request failed",
			slog.String("locator", locator),
			slog.String("error", err.Error()))
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "feed returned non-success status",
			slog.String("locator", locator),
			slog.Int("status", resp.StatusCode))
		return nil, &TransportError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading feed body: %w", err)}
	}

	c.logger.InfoContext(ctx, "feed fetched",
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))

	return body, nil
}
