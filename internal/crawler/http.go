package crawler

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const DefaultRequestTimeout = 10 * time.Second

// HTTPConfig is shared by every request a driver issues: one limiter paces
// REST and websocket calls alike.
type HTTPConfig struct {
	BaseURL        string
	RateLimiter    *rate.Limiter
	RequestTimeout time.Duration
}

func DefaultHTTPConfig(baseURL string, requestsPerSecond float64) *HTTPConfig {
	return &HTTPConfig{
		BaseURL:        baseURL,
		RateLimiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), DefaultBurstSize),
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Client returns an http.Client whose requests are bounded by RequestTimeout.
func (c *HTTPConfig) Client() *http.Client {
	return &http.Client{Timeout: c.RequestTimeout}
}
