package api

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client provides access to one upstream REST service.
type Client struct {
	service    string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration

	limiter         *rate.Limiter
	breaker         *Breaker
	breakerSettings *BreakerSettings
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. The service name labels logs,
// metrics and the circuit breaker.
func NewClient(service, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		service:   service,
		baseURL:   baseURL,
		userAgent: "albion-omni-dashboard",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.breakerSettings != nil {
		c.breaker = NewBreaker(c.service, *c.breakerSettings, c.logger)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit caps outgoing attempts to perSecond with the given burst.
// A non-positive rate leaves the client unlimited.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCircuitBreaker guards the client with a circuit breaker.
func WithCircuitBreaker(settings BreakerSettings) ClientOption {
	return func(c *Client) {
		c.breakerSettings = &settings
	}
}

// Service returns the service name.
func (c *Client) Service() string {
	return c.service
}

// BreakerState returns the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State()
}
