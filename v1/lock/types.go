package lock

import "time"

// AcquiredLock is returned on a successful acquisition. LockID is the
// opaque token required to release the lock. The caller owns the value and
// must eventually release it or let the lifetime expire it server-side.
type AcquiredLock struct {
	Resource  string    `json:"resource"`
	LockID    string    `json:"lock_id"`
	TenantID  string    `json:"tenant_id"`
	Created   time.Time `json:"created"`
	Expires   time.Time `json:"expires"`
	UserAgent string    `json:"user_agent"`
	UserData  any       `json:"user_data"`
}

// acquireRequest is the wire shape of one acquisition attempt. Wait is the
// long-poll hint for the service, in seconds; Lifetime the auto-expiry, in
// seconds.
type acquireRequest struct {
	Wait      int64  `json:"wait"`
	Lifetime  int64  `json:"lifetime"`
	UserAgent string `json:"user_agent,omitempty"`
	UserData  any    `json:"user_data,omitempty"`
}
