// Package ratelimit gates manual snapshot refreshes. Scheduled polls are
// never gated; a manual refresh inside the window after the last
// successful fetch is refused unless forced.
package ratelimit

import (
	"strconv"
	"time"
)

// DefaultRefreshWindow applies when the config does not set one
const DefaultRefreshWindow = time.Minute

// Config is satisfied by the server configuration
type Config interface {
	GetDisableRateLimit() bool
	GetRefreshWindow() time.Duration
}

// Reason explains a refresh decision. It is echoed in API responses.
type Reason string

const (
	ReasonDisabled   Reason = "rate_limiting_disabled"
	ReasonForced     Reason = "forced_refresh"
	ReasonFirst      Reason = "no_previous_refresh"
	ReasonActive     Reason = "rate_limit_active"
	ReasonWindowOver Reason = "rate_limit_passed"
)

// Decision is the outcome of CheckRefreshRateLimit
type Decision struct {
	Blocked bool
	Wait    time.Duration
	Reason  Reason
}

// RetryAfter renders Wait as whole seconds for the Retry-After header,
// rounded up so a client that honours it is not refused again.
func (d Decision) RetryAfter() string {
	secs := int((d.Wait + time.Second - 1) / time.Second)
	return strconv.Itoa(max(secs, 1))
}

// CheckRefreshRateLimit decides whether a manual refresh at now may run.
// lastRefresh is the last successful fetch, scheduled or manual.
func CheckRefreshRateLimit(cfg Config, lastRefresh *time.Time, forced bool, now time.Time) Decision {
	switch {
	case cfg.GetDisableRateLimit():
		return Decision{Reason: ReasonDisabled}
	case forced:
		return Decision{Reason: ReasonForced}
	case lastRefresh == nil || lastRefresh.IsZero():
		return Decision{Reason: ReasonFirst}
	}

	window := GetRateLimitDuration(cfg)
	if elapsed := now.Sub(*lastRefresh); elapsed < window {
		return Decision{Blocked: true, Wait: window - elapsed, Reason: ReasonActive}
	}
	return Decision{Reason: ReasonWindowOver}
}

// GetRateLimitDuration returns the refresh window, defaulting when unset
func GetRateLimitDuration(cfg Config) time.Duration {
	if w := cfg.GetRefreshWindow(); w > 0 {
		return w
	}
	return DefaultRefreshWindow
}
