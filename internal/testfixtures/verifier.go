package testfixtures

import (
	"context"
	"sync/atomic"
)

// StubVerifier is a captcha verifier that returns a fixed result and counts
// how often it was consulted.
type StubVerifier struct {
	Err   error
	calls atomic.Int64
}

// Verify returns the configured error (nil means approved).
func (v *StubVerifier) Verify(_ context.Context, _ string) error {
	v.calls.Add(1)
	return v.Err
}

// Calls reports how many times Verify was invoked.
func (v *StubVerifier) Calls() int64 {
	return v.calls.Load()
}
