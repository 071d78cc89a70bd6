package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testConfig struct {
	disabled bool
	window   time.Duration
}

func (c testConfig) GetDisableRateLimit() bool       { return c.disabled }
func (c testConfig) GetRefreshWindow() time.Duration { return c.window }

func TestCheckRefreshRateLimit(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}
	window := testConfig{window: 2 * time.Minute}

	tests := []struct {
		name    string
		cfg     testConfig
		last    *time.Time
		forced  bool
		blocked bool
		wait    time.Duration
		reason  Reason
	}{
		{"disabled", testConfig{disabled: true}, ago(time.Second), false, false, 0, ReasonDisabled},
		{"forced inside window", window, ago(10 * time.Second), true, false, 0, ReasonForced},
		{"never fetched", window, nil, false, false, 0, ReasonFirst},
		{"zero time", window, &time.Time{}, false, false, 0, ReasonFirst},
		{"inside window", window, ago(time.Minute), false, true, time.Minute, ReasonActive},
		{"window over", window, ago(3 * time.Minute), false, false, 0, ReasonWindowOver},
		{"exactly at window", window, ago(2 * time.Minute), false, false, 0, ReasonWindowOver},
		{"default window", testConfig{}, ago(30 * time.Second), false, true, 30 * time.Second, ReasonActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CheckRefreshRateLimit(tt.cfg, tt.last, tt.forced, now)
			assert.Equal(t, tt.blocked, d.Blocked)
			assert.Equal(t, tt.wait, d.Wait)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestDecisionRetryAfter(t *testing.T) {
	assert.Equal(t, "60", Decision{Wait: time.Minute}.RetryAfter())
	assert.Equal(t, "2", Decision{Wait: 1500 * time.Millisecond}.RetryAfter())
	assert.Equal(t, "1", Decision{Wait: 10 * time.Millisecond}.RetryAfter())
	assert.Equal(t, "1", Decision{}.RetryAfter())
}

func TestGetRateLimitDuration(t *testing.T) {
	assert.Equal(t, DefaultRefreshWindow, GetRateLimitDuration(testConfig{}))
	assert.Equal(t, 30*time.Second, GetRateLimitDuration(testConfig{window: 30 * time.Second}))
}
