// Package clock provides the time oracle the bill-action engine consults
// instead of reading the wall clock directly, so payment sweeps and the
// timeout engine can be driven deterministically in tests.
package clock

import "time"

// Clock is a monotonic source of the current unix time. All of billservice's
// time-dependent decisions (deadlines, timeouts, signing timestamps) go
// through a Clock instead of calling time.Now directly.
type Clock interface {
	// Now returns the current time as unix seconds.
	Now() uint64
}

// Default is the production Clock backed by the system wall clock.
type Default struct{}

// Now returns time.Now() truncated to unix seconds.
func (Default) Now() uint64 {
	return uint64(time.Now().Unix())
}

// Fixed is a Clock that always returns the same instant. Useful for tests
// that need to drive sweeps and the timeout engine with literal timestamps.
type Fixed uint64

// Now returns the fixed instant.
func (f Fixed) Now() uint64 {
	return uint64(f)
}
