// File: timeout/timeout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-operation deadline policy, checked cooperatively at segment-sized
// intervals by CPU-bound paths. Blocking transport calls that offer no
// cooperative checkpoint are covered by AsyncTimeout instead.

package timeout

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout reports that an operation's deadline was reached, whether
// discovered cooperatively or by the watchdog force-closing the resource.
// Both paths surface this same error kind.
var ErrTimeout = errors.New("operation deadline reached")

// Timeout bounds a single operation with a relative duration, an absolute
// deadline, or both. The zero value applies no limit.
type Timeout struct {
	timeout     time.Duration
	hasDeadline bool
	deadline    time.Time
}

// SetDuration bounds each future operation to d, measured from the moment the
// operation starts. Zero removes the bound.
func (t *Timeout) SetDuration(d time.Duration) {
	if d < 0 {
		panic("timeout: negative duration")
	}
	t.timeout = d
}

// Duration reports the per-operation bound, zero meaning unlimited.
func (t *Timeout) Duration() time.Duration {
	return t.timeout
}

// SetDeadline sets an absolute point in time after which operations fail.
func (t *Timeout) SetDeadline(at time.Time) {
	t.hasDeadline = true
	t.deadline = at
}

// Deadline returns the absolute deadline, if one is set.
func (t *Timeout) Deadline() (time.Time, bool) {
	return t.deadline, t.hasDeadline
}

// ClearDeadline removes the absolute deadline.
func (t *Timeout) ClearDeadline() {
	t.hasDeadline = false
	t.deadline = time.Time{}
}

// Expiry computes the effective deadline for an operation started at start:
// the earlier of start+duration and the absolute deadline. A zero start
// considers only the absolute deadline. ok is false when no limit applies.
func (t *Timeout) Expiry(start time.Time) (expiry time.Time, ok bool) {
	if t.timeout > 0 && !start.IsZero() {
		expiry = start.Add(t.timeout)
		ok = true
	}
	if t.hasDeadline && (!ok || t.deadline.Before(expiry)) {
		expiry = t.deadline
		ok = true
	}
	return expiry, ok
}

// Check fails with ErrTimeout exactly when the current time is past the
// effective deadline of an operation started at start. Cooperative loops call
// this after each segment-sized chunk of work.
func (t *Timeout) Check(start time.Time) error {
	expiry, ok := t.Expiry(start)
	if !ok {
		return nil
	}
	if now := time.Now(); now.After(expiry) {
		return fmt.Errorf("deadline exceeded by %v: %w", now.Sub(expiry), ErrTimeout)
	}
	return nil
}
