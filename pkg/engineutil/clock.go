// Package engineutil holds the ambient helpers shared across the engine:
// typed errors, a monotonic clock/budget abstraction for FilterResultIterator
// timeout latching, a trace id helper, and the CollectionLock contract the
// caller is expected to honor (spec.md §5).
package engineutil

import "time"

// Clock supplies monotonic microsecond timestamps, abstracted so budgets
// are unit-testable without sleeping (spec.md §4.6/§5 cancellation).
type Clock interface {
	NowMicros() int64
}

type systemClock struct{}

func (systemClock) NowMicros() int64 { return time.Now().UnixMicro() }

// SystemClock is the default, real monotonic clock.
var SystemClock Clock = systemClock{}

// FakeClock is a manually-advanced Clock for tests.
type FakeClock struct {
	micros int64
}

// NewFakeClock returns a FakeClock starting at the given microsecond value.
func NewFakeClock(startMicros int64) *FakeClock {
	return &FakeClock{micros: startMicros}
}

func (c *FakeClock) NowMicros() int64 { return c.micros }

// Advance moves the fake clock forward by delta microseconds.
func (c *FakeClock) Advance(delta int64) { c.micros += delta }

// Budget tracks a start time and microsecond allowance; FilterResultIterator
// consults it on every advance to latch "timed_out" (spec.md §4.6
// "Timeout and cancellation", §5 "Cancellation").
type Budget struct {
	clock        Clock
	startMicros  int64
	budgetMicros int64
}

// NewBudget starts a budget now (per clock) with budgetMicros microseconds
// of allowance. A non-positive budgetMicros means "no limit". A nil clock
// defaults to SystemClock.
func NewBudget(clock Clock, budgetMicros int64) *Budget {
	if clock == nil {
		clock = SystemClock
	}
	return &Budget{clock: clock, startMicros: clock.NowMicros(), budgetMicros: budgetMicros}
}

// Exceeded reports whether the budget has been exceeded as of now.
func (b *Budget) Exceeded() bool {
	if b == nil || b.budgetMicros <= 0 {
		return false
	}
	return b.clock.NowMicros()-b.startMicros >= b.budgetMicros
}
