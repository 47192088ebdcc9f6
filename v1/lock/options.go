package lock

import (
	"net/http"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mirkobrombin/go-dlock/v1/metrics"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. The client's own timeout
// applies per attempt and should stay well below the acquisition wait
// budget.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithMetrics enables Prometheus metrics collection using the provided
// registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = metrics.New(reg)
	}
}

// WithTracing enables OpenTelemetry spans around acquire and release.
func WithTracing() Option {
	return func(c *Client) {
		c.traceEnabled = true
	}
}

// WithRetryStrategy sets the factory producing the backoff strategy used
// while a resource is busy. Strategies are stateful, so a fresh one is
// created for every acquisition call. Sleep intervals are still clamped to
// the remaining wait budget regardless of what the strategy returns.
func WithRetryStrategy(newStrategy func() retry.Strategy) Option {
	return func(c *Client) {
		c.newStrategy = newStrategy
	}
}

// WithUserData attaches opaque caller data to every acquisition, stored
// with the lock server-side.
func WithUserData(data any) Option {
	return func(c *Client) {
		c.userData = data
	}
}

// WithServerWait caps the long-poll hint sent with each acquisition
// attempt. The hint is shrunk further near the end of the wait budget.
func WithServerWait(d time.Duration) Option {
	return func(c *Client) {
		c.serverWait = d
	}
}

type acquireConfig struct {
	lifetime time.Duration
	wait     time.Duration
}

// AcquireOption tunes a single acquisition call.
type AcquireOption func(*acquireConfig)

// WithLifetime sets the server-side auto-expiry for the lock. Must be
// positive.
func WithLifetime(d time.Duration) AcquireOption {
	return func(ac *acquireConfig) {
		ac.lifetime = d
	}
}

// WithWait sets the wait budget: the maximum time to keep polling a busy
// resource before giving up. Zero means fail immediately on conflict.
func WithWait(d time.Duration) AcquireOption {
	return func(ac *acquireConfig) {
		ac.wait = d
	}
}
