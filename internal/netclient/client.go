// Package netclient provides the outbound HTTP client the update
// pipeline uses: resty over a retrying transport, with a rate
// limiter, a circuit breaker, and explicit timeouts.
//
// The release-index fetch and the artifact download both carry
// explicit deadlines so a hung remote surfaces as an error status
// instead of an indefinite stall.
package netclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// MetadataTimeout bounds small JSON calls such as the release index.
const MetadataTimeout = 15 * time.Second

// DownloadTimeout bounds a full artifact download.
const DownloadTimeout = 10 * time.Minute

// Client wraps resty with rate limiting and a circuit breaker.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	mu      sync.RWMutex
}

// New creates the production client. The User-Agent embeds the app
// version as the release index expects; token, when non-empty, is
// sent as a bearer credential.
func New(appVersion, token string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 15 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTimeout(MetadataTimeout).
		SetHeader("User-Agent", fmt.Sprintf("Bastion-Browser/%s", appVersion)).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})
	if token != "" {
		restyClient.SetAuthToken(token)
	}

	breaker := resilience.New("update-remote", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		breaker: breaker,
	}
}

// Request creates a request after the rate limiter admits it and
// while the breaker is not open.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resty.R().SetContext(ctx), nil
}

// Execute runs one HTTP operation under circuit breaker accounting.
func (c *Client) Execute(fn func() (*resty.Response, error)) (*resty.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err == resilience.ErrCircuitOpen {
		return nil, fmt.Errorf("update remote unavailable: circuit breaker open")
	}
	if err != nil {
		return nil, err
	}
	return result.(*resty.Response), nil
}

// SetTimeout adjusts the client timeout, e.g. before a long download.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetTimeout(d)
}

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}
