package lampclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/logging"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default HTTP request timeout. Page sends take a
	// few AT round trips per kilobyte.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 10 * time.Second

	// ContentType is the media type of the configuration body
	ContentType = "application/octet-stream"
)

// Client talks to a lamp's web server
type Client struct {
	// BaseURL is the base URL for the lamp (e.g., "http://192.168.1.42:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool

	address string
}

// NewClient creates a client for the lamp at address ("host" or "host:port").
func NewClient(address string) *Client {
	address = strings.TrimPrefix(address, "http://")
	address = strings.TrimSuffix(address, "/")
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(strings.Trim(address, "[]"), "80")
	}

	return &Client{
		BaseURL: "http://" + address,
		// The lamp closes every connection after one response.
		HTTPClient:            &http.Client{Timeout: DefaultTimeout, Transport: &http.Transport{DisableKeepAlives: true}},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		address:               address,
	}
}

// Address returns the host:port the client talks to.
func (c *Client) Address() string { return c.address }

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that the lamp answers GET / with 200.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx)
	return err
}

// FetchPage retrieves the control page and checks that its length matches
// the declared Content-Length.
func (c *Client) FetchPage(ctx context.Context) ([]byte, error) {
	var page []byte
	err := c.withRetry(ctx, "fetch page", func() error {
		var err error
		page, err = c.get(ctx)
		return err
	})
	return page, err
}

// Apply sends s as a configuration packet.
func (c *Client) Apply(ctx context.Context, s lamp.State) error {
	pkt := lamp.PacketFromState(s).Encode()
	err := c.withRetry(ctx, "apply", func() error {
		return c.post(ctx, pkt[:])
	})
	if err == nil {
		logging.Info("Lamp configured", zap.String("lamp", c.address), zap.String("state", s.String()))
	}
	return err
}

// withRetry runs op until it succeeds, fails with a non-retryable error,
// runs out of attempts or ctx ends.
func (c *Client) withRetry(ctx context.Context, what string, op func() error) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying lamp request",
				zap.String("op", what),
				zap.Int("attempt", attempt),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr),
			)
			t := time.NewTimer(currentDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return lastErr
			case <-t.C:
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return nil, NewNetworkError("failed to create GET request", c.address, err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("GET request failed", c.address, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewProtocolError("page ended before its declared length", err)
	}
	if resp.ContentLength < 0 {
		return nil, NewProtocolError("response has no Content-Length", nil)
	}
	if int64(len(body)) != resp.ContentLength {
		return nil, NewProtocolError(fmt.Sprintf("page is %d bytes, Content-Length says %d", len(body), resp.ContentLength), nil)
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/", bytes.NewReader(body))
	if err != nil {
		return NewNetworkError("failed to create POST request", c.address, err)
	}
	req.Header.Set("Content-Type", ContentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("POST request failed", c.address, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("update failed with status %d", resp.StatusCode))
	}
	return nil
}
