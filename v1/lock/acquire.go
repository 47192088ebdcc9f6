package lock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mirkobrombin/go-dlock/v1/config"
	dlockerrors "github.com/mirkobrombin/go-dlock/v1/errors"
)

// minPollInterval floors the sleep between polls so a degenerate backoff
// strategy cannot busy-loop against the service.
const minPollInterval = 10 * time.Millisecond

// AcquireExclusiveLock acquires an exclusive lock on resource. When the
// resource is held by someone else and the wait budget is positive, the
// call polls with backoff until it acquires the lock, the budget runs out
// or a non-retryable error occurs. Only busy conflicts are retried; every
// other error kind terminates the call. With a zero budget a conflict is
// returned immediately as ErrUnavailable.
//
// The call returns within the wait budget plus at most one attempt's
// network latency.
func (c *Client) AcquireExclusiveLock(ctx context.Context, resource string, opts ...AcquireOption) (AcquiredLock, error) {
	ac := acquireConfig{lifetime: config.DefaultLifetime, wait: config.DefaultWait}
	for _, opt := range opts {
		opt(&ac)
	}

	if resource == "" {
		return AcquiredLock{}, fmt.Errorf("%w: resource name must not be empty", dlockerrors.ErrValidation)
	}
	if ac.lifetime <= 0 {
		return AcquiredLock{}, fmt.Errorf("%w: lifetime must be positive, got %s", dlockerrors.ErrValidation, ac.lifetime)
	}
	if ac.wait < 0 {
		return AcquiredLock{}, fmt.Errorf("%w: wait must not be negative, got %s", dlockerrors.ErrValidation, ac.wait)
	}

	var span trace.Span
	if c.traceEnabled {
		ctx, span = tracer.Start(ctx, "Lock.Acquire")
		defer span.End()
		span.SetAttributes(
			attribute.String("dlock.resource", resource),
			attribute.Int64("dlock.wait_ms", ac.wait.Milliseconds()),
		)
	}

	start := time.Now()
	if c.metrics != nil {
		defer func() {
			c.metrics.AcquireWaitSeconds.Observe(time.Since(start).Seconds())
		}()
	}

	deadline := start.Add(ac.wait)
	var strat retry.Strategy
	if ac.wait > 0 {
		strat = c.newStrategy()
	}

	attempts := 0
	for {
		attempts++
		if c.metrics != nil {
			c.metrics.AcquireAttempts.Inc()
		}

		lk, err := c.acquireOnce(ctx, resource, ac, deadline)
		if err == nil {
			if c.metrics != nil {
				c.metrics.Acquired.Inc()
			}
			if c.traceEnabled {
				span.SetAttributes(
					attribute.Int("dlock.attempts", attempts),
					attribute.String("dlock.outcome", "acquired"),
				)
			}
			c.log.Info().
				Str("resource", resource).
				Str("lock_id", lk.LockID).
				Int("attempts", attempts).
				Msg("lock acquired")
			return lk, nil
		}
		if !errors.Is(err, dlockerrors.ErrUnavailable) {
			if c.traceEnabled {
				span.SetAttributes(attribute.String("dlock.outcome", "error"))
			}
			return AcquiredLock{}, err
		}
		if c.metrics != nil {
			c.metrics.AcquireConflicts.Inc()
		}

		remaining := time.Until(deadline)
		if strat == nil || remaining <= 0 {
			if c.traceEnabled {
				span.SetAttributes(
					attribute.Int("dlock.attempts", attempts),
					attribute.String("dlock.outcome", "unavailable"),
				)
			}
			c.log.Debug().
				Str("resource", resource).
				Int("attempts", attempts).
				Msg("wait budget exhausted, giving up")
			return AcquiredLock{}, err
		}

		d, ok := strat.Next()
		if !ok {
			return AcquiredLock{}, err
		}
		if d < minPollInterval {
			d = minPollInterval
		}
		if d > remaining {
			d = remaining
		}
		c.log.Debug().
			Str("resource", resource).
			Dur("sleep", d).
			Msg("resource busy, retrying")

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return AcquiredLock{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// acquireOnce sends a single acquisition attempt.
func (c *Client) acquireOnce(ctx context.Context, resource string, ac acquireConfig, deadline time.Time) (AcquiredLock, error) {
	body := acquireRequest{
		Wait:      c.serverWaitFor(ac.wait, deadline),
		Lifetime:  secondsCeil(ac.lifetime),
		UserAgent: c.cfg.UserAgent,
		UserData:  c.userData,
	}
	var lk AcquiredLock
	url := c.tr.ResourceURL(resource)
	if err := c.tr.DoJSON(ctx, http.MethodPost, url, body, &lk); err != nil {
		return AcquiredLock{}, err
	}
	if lk.LockID == "" || lk.Resource == "" {
		return AcquiredLock{}, fmt.Errorf("%w: bad reply from service, missing lock_id", dlockerrors.ErrTransport)
	}
	return lk, nil
}

// serverWaitFor shrinks the long-poll hint so the service never holds an
// attempt past the remaining client budget. A zero budget disables server
// side waiting entirely.
func (c *Client) serverWaitFor(wait time.Duration, deadline time.Time) int64 {
	if wait == 0 {
		return 0
	}
	sw := c.serverWait
	if remaining := time.Until(deadline); remaining < sw {
		sw = remaining
	}
	secs := int64(sw / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func secondsCeil(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}
