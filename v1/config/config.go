// Package config resolves the client configuration from explicit options
// and the DLOCK_* environment variables. Resolution is pure: it reads an
// environment snapshot passed in as a lookup function, which keeps the
// resolver testable without touching process state.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	dlockerrors "github.com/mirkobrombin/go-dlock/v1/errors"
)

// Environment variables recognized at resolution time. Their names are a
// stable contract for deployment tooling.
const (
	EnvToken    = "DLOCK_TOKEN"
	EnvTenantID = "DLOCK_TENANT_ID"
	EnvCluster  = "DLOCK_CLUSTER"
)

const (
	// DefaultCluster is the free-tier cluster used when none is selected.
	DefaultCluster = "europe-free"
	// DefaultLifetime is the server-side auto-expiry applied to a lock when
	// the caller does not choose one.
	DefaultLifetime = time.Hour
	// DefaultWait bounds how long an acquisition polls a busy resource when
	// the caller does not choose a budget.
	DefaultWait = time.Minute
	// DefaultServerWait is the long-poll hint sent to the service with each
	// acquisition attempt.
	DefaultServerWait = time.Minute
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 10 * time.Second
)

// Options carries explicit values that take precedence over the
// environment. Zero values fall back to the environment, then to defaults
// where one exists.
type Options struct {
	Token    string
	TenantID string
	Cluster  string
	// BaseURL overrides the URL derived from the cluster name. Mostly
	// useful to point the client at a test double.
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Config is the immutable client configuration.
type Config struct {
	Token     string
	TenantID  string
	Cluster   string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Resolve merges explicit options with the environment snapshot provided by
// lookup. Precedence: explicit option > environment variable > default.
// Token and tenant id have no default; a missing value is a configuration
// error naming the field.
func Resolve(o Options, lookup func(string) string) (Config, error) {
	if lookup == nil {
		lookup = func(string) string { return "" }
	}

	cfg := Config{
		Token:     o.Token,
		TenantID:  o.TenantID,
		Cluster:   o.Cluster,
		BaseURL:   o.BaseURL,
		UserAgent: o.UserAgent,
		Timeout:   o.Timeout,
	}
	if cfg.Token == "" {
		cfg.Token = normalize(lookup(EnvToken))
	}
	if cfg.TenantID == "" {
		cfg.TenantID = normalize(lookup(EnvTenantID))
	}
	if cfg.Cluster == "" {
		cfg.Cluster = normalize(lookup(EnvCluster))
	}

	if cfg.Token == "" {
		return Config{}, fmt.Errorf("%w: you must provide a token (or set %s)",
			dlockerrors.ErrConfiguration, EnvToken)
	}
	if cfg.TenantID == "" {
		return Config{}, fmt.Errorf("%w: you must provide a tenant id (or set %s)",
			dlockerrors.ErrConfiguration, EnvTenantID)
	}
	if cfg.Cluster == "" {
		cfg.Cluster = DefaultCluster
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s.distributed-lock.com", cfg.Cluster)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg, nil
}

// FromEnv resolves the configuration against the process environment.
func FromEnv(o Options) (Config, error) {
	return Resolve(o, os.Getenv)
}

// normalize mirrors what the service expects for env-provided values:
// surrounding whitespace stripped and the value lower-cased.
func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
