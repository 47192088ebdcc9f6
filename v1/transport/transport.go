// Package transport is the HTTP adapter for the distributed-lock service.
// It owns the per-cluster base URL, auth headers and the mapping from HTTP
// status codes to the error kinds in v1/errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mirkobrombin/go-dlock/v1/config"
	dlockerrors "github.com/mirkobrombin/go-dlock/v1/errors"
)

// maxReplyBytes bounds how much of a reply body is read. Service replies
// are small; anything larger is not worth buffering for an error message.
const maxReplyBytes = 1 << 20

// Transport issues authenticated JSON requests against one cluster.
type Transport struct {
	baseURL   string
	token     string
	tenantID  string
	userAgent string
	http      *http.Client
	log       zerolog.Logger
}

// New returns a Transport for the given configuration. A nil http client
// gets a default one with the configured timeout.
func New(cfg config.Config, hc *http.Client, log zerolog.Logger) *Transport {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Transport{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		tenantID:  cfg.TenantID,
		userAgent: cfg.UserAgent,
		http:      hc,
		log:       log,
	}
}

// ResourceURL returns the exclusive-locks endpoint for a resource.
func (t *Transport) ResourceURL(resource string) string {
	return fmt.Sprintf("%s/exclusive_locks/%s/%s", t.baseURL, t.tenantID, resource)
}

// DoJSON sends body (when non-nil) as JSON and decodes a successful reply
// into out (when non-nil). Non-2xx statuses come back as a *StatusError
// wrapping the matching error kind; network failures map to ErrTransport.
func (t *Transport) DoJSON(ctx context.Context, method, url string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", dlockerrors.ErrValidation, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return fmt.Errorf("%w: %v", dlockerrors.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", dlockerrors.ErrTransport, err)
	}
	defer rsp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(rsp.Body, maxReplyBytes))

	if kind := kindForStatus(rsp.StatusCode); kind != nil {
		if rsp.StatusCode == http.StatusTooManyRequests {
			t.log.Warn().Str("url", url).Msg("rate limited by the lock service")
		}
		return &dlockerrors.StatusError{
			Kind:   kind,
			Method: method,
			Path:   req.URL.Path,
			Code:   rsp.StatusCode,
			Body:   strings.TrimSpace(string(raw)),
		}
	}

	if out != nil && len(raw) > 0 {
		// A 2xx reply we cannot decode is a broken wire, not a server
		// outcome.
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: bad reply from service: %v", dlockerrors.ErrTransport, err)
		}
	}
	return nil
}

// kindForStatus maps an HTTP status code to an error kind. A nil return
// means success.
func kindForStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusConflict:
		return dlockerrors.ErrUnavailable
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return dlockerrors.ErrAuthentication
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return dlockerrors.ErrValidation
	case code == http.StatusNotFound:
		return dlockerrors.ErrNotFound
	case code == http.StatusTooManyRequests:
		return dlockerrors.ErrServer
	default:
		return dlockerrors.ErrServer
	}
}
