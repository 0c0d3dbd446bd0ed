package controller

import (
	"context"
	"time"
)

// TimeoutConfig bounds each external call. Zero disables the bound for that step.
type TimeoutConfig struct {
	Encrypt   time.Duration
	Submit    time.Duration
	Confirm   time.Duration
	Read      time.Duration
	Authorize time.Duration // user prompt, so generous
	Decrypt   time.Duration // includes the relayer round trip
}

// DefaultTimeoutConfig returns default timeout configuration
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Encrypt:   30 * time.Second,
		Submit:    30 * time.Second,
		Confirm:   2 * time.Minute,
		Read:      15 * time.Second,
		Authorize: 5 * time.Minute,
		Decrypt:   time.Minute,
	}
}

func (tc TimeoutConfig) validate() bool {
	for _, d := range []time.Duration{tc.Encrypt, tc.Submit, tc.Confirm, tc.Read, tc.Authorize, tc.Decrypt} {
		if d < 0 {
			return false
		}
	}
	return true
}

// withTimeout derives a context bounded by d, or ctx itself when d is zero
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
