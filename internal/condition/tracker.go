package condition

import "time"

// HoldState is the hold-time state of a tracked condition.
type HoldState int

const (
	// StateUnmet means the condition does not currently hold.
	StateUnmet HoldState = iota
	// StateHolding means the condition holds but has not yet held long enough.
	StateHolding
	// StateSatisfied means the condition has held continuously for at least
	// its hold duration.
	StateSatisfied
)

// String returns the lowercase state name.
func (s HoldState) String() string {
	switch s {
	case StateUnmet:
		return "unmet"
	case StateHolding:
		return "holding"
	case StateSatisfied:
		return "satisfied"
	default:
		return "unknown"
	}
}

// Tracker wraps a condition spec with hold-time bookkeeping.
//
// A hold window is continuous: any tick on which the condition does not hold
// resets the timer, regardless of prior state. With a zero hold duration the
// tracker reaches StateSatisfied on the same tick the condition first holds.
type Tracker struct {
	spec             Spec
	state            HoldState
	holdStartedAt    time.Time
	firstSatisfiedAt time.Time
}

// NewTracker creates a tracker for the given spec in StateUnmet.
func NewTracker(spec Spec) *Tracker {
	return &Tracker{spec: spec}
}

// Spec returns the authored condition spec.
func (t *Tracker) Spec() Spec {
	return t.spec
}

// State returns the current hold state.
func (t *Tracker) State() HoldState {
	return t.state
}

// Satisfied reports whether the condition has been held long enough.
func (t *Tracker) Satisfied() bool {
	return t.state == StateSatisfied
}

// HoldStartedAt returns when the current hold window began. Zero when unmet.
func (t *Tracker) HoldStartedAt() time.Time {
	if t.state == StateUnmet {
		return time.Time{}
	}
	return t.holdStartedAt
}

// FirstSatisfiedAt returns when the condition first reached StateSatisfied
// in the current attempt. Zero if it never has.
func (t *Tracker) FirstSatisfiedAt() time.Time {
	return t.firstSatisfiedAt
}

// Observe advances the state machine with one tick's evaluation result.
func (t *Tracker) Observe(now time.Time, holds bool) {
	if !holds {
		t.state = StateUnmet
		t.holdStartedAt = time.Time{}
		return
	}

	if t.state == StateUnmet {
		t.state = StateHolding
		t.holdStartedAt = now
	}

	if t.state == StateHolding && now.Sub(t.holdStartedAt) >= t.spec.HoldDuration {
		t.state = StateSatisfied
		if t.firstSatisfiedAt.IsZero() {
			t.firstSatisfiedAt = now
		}
	}
}

// Reset returns the tracker to StateUnmet and clears all timestamps.
func (t *Tracker) Reset() {
	t.state = StateUnmet
	t.holdStartedAt = time.Time{}
	t.firstSatisfiedAt = time.Time{}
}
