package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type option func(*Client)

// waiter is the limiter surface the client needs; satisfied by *rate.Limiter.
type waiter interface {
	Wait(ctx context.Context) error
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout overrides the fixed overall call timeout.
func WithTimeout(d time.Duration) option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit throttles outgoing calls with a token bucket, useful for
// background dashboards polling a shared backend.
func WithRateLimit(perSecond float64, burst int) option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithOnUnauthorized registers the hook fired after any call is rejected with
// an authentication failure, once the local token has been cleared.
func WithOnUnauthorized(fn func()) option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}
