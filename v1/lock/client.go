package lock

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mirkobrombin/go-dlock/v1/config"
	dlockerrors "github.com/mirkobrombin/go-dlock/v1/errors"
	"github.com/mirkobrombin/go-dlock/v1/metrics"
	"github.com/mirkobrombin/go-dlock/v1/transport"
)

// Version is the client library version, reported in the User-Agent header
// unless the configuration overrides it.
const Version = "0.1.0"

var tracer = otel.Tracer("github.com/mirkobrombin/go-dlock/v1/lock")

// Client issues exclusive-lock operations against one cluster. It is
// stateless between calls apart from its immutable configuration and safe
// for concurrent use.
type Client struct {
	cfg config.Config
	tr  *transport.Transport

	httpClient   *http.Client
	log          zerolog.Logger
	metrics      *metrics.Metrics
	traceEnabled bool
	newStrategy  func() retry.Strategy
	userData     any
	serverWait   time.Duration
}

// New returns a Client for the given configuration.
func New(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		cfg:         cfg,
		log:         zerolog.Nop(),
		newStrategy: defaultStrategy,
		serverWait:  config.DefaultServerWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.UserAgent == "" {
		c.cfg.UserAgent = "go-dlock/" + Version
	}
	if c.httpClient == nil {
		// One attempt may legitimately long-poll for the whole server wait
		// hint, so the HTTP timeout has to sit above it.
		c.httpClient = &http.Client{Timeout: c.serverWait + c.cfg.Timeout}
	}
	c.tr = transport.New(c.cfg, c.httpClient, c.log)
	return c
}

// NewFromEnv resolves the configuration from explicit options merged with
// the DLOCK_* environment variables, then builds a Client from it.
func NewFromEnv(o config.Options, opts ...Option) (*Client, error) {
	cfg, err := config.FromEnv(o)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...), nil
}

// defaultStrategy backs off exponentially between polls of a busy
// resource. The attempt count is effectively unbounded; the wait budget is
// what terminates the loop.
func defaultStrategy() retry.Strategy {
	s, _ := retry.NewExponentialBackoffRetryStrategy(500*time.Millisecond, 4*time.Second, math.MaxInt32)
	return s
}

// ReleaseExclusiveLock releases a previously acquired lock. Releasing a
// lock id the service no longer knows returns ErrNotFound; callers that
// treat release as idempotent can ignore that kind specifically.
func (c *Client) ReleaseExclusiveLock(ctx context.Context, resource, lockID string) error {
	if resource == "" || lockID == "" {
		return fmt.Errorf("%w: resource name and lock id must not be empty", dlockerrors.ErrValidation)
	}

	var span trace.Span
	if c.traceEnabled {
		ctx, span = tracer.Start(ctx, "Lock.Release")
		defer span.End()
		span.SetAttributes(attribute.String("dlock.resource", resource))
	}

	url := c.tr.ResourceURL(resource) + "/" + lockID
	if err := c.tr.DoJSON(ctx, http.MethodDelete, url, nil, nil); err != nil {
		if c.metrics != nil {
			c.metrics.ReleaseFailures.Inc()
		}
		if c.traceEnabled {
			span.SetAttributes(attribute.String("dlock.outcome", "error"))
		}
		return err
	}
	if c.metrics != nil {
		c.metrics.Released.Inc()
	}
	if c.traceEnabled {
		span.SetAttributes(attribute.String("dlock.outcome", "released"))
	}
	c.log.Info().Str("resource", resource).Str("lock_id", lockID).Msg("lock released")
	return nil
}

// WithExclusiveLock acquires resource, runs fn with the lock held and
// attempts exactly one release afterwards, on every exit path. A release
// failure is logged and counted but never replaces fn's error; the lock
// still expires server-side once its lifetime runs out.
func (c *Client) WithExclusiveLock(ctx context.Context, resource string, fn func(ctx context.Context, lk AcquiredLock) error, opts ...AcquireOption) error {
	lk, err := c.AcquireExclusiveLock(ctx, resource, opts...)
	if err != nil {
		return err
	}
	defer func() {
		// Release must still go out when fn cancelled the context.
		rctx := context.WithoutCancel(ctx)
		if rerr := c.ReleaseExclusiveLock(rctx, resource, lk.LockID); rerr != nil {
			c.log.Warn().Err(rerr).
				Str("resource", resource).
				Str("lock_id", lk.LockID).
				Msg("release failed during scoped cleanup")
		}
	}()
	return fn(ctx, lk)
}
