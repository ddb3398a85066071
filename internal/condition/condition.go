// Package condition evaluates and tracks mission success criteria.
//
// A condition is one testable requirement contributing to a mission's
// completion. Evaluation is stateless and happens every tick; hold-time
// bookkeeping lives in Tracker, which turns an instantaneous boolean into
// "held true continuously for at least the configured duration".
package condition

import (
	"time"

	"github.com/robotrial/engine/internal/snapshot"
)

// Kind identifies a condition evaluation strategy.
type Kind string

const (
	// KindPositionInArea holds when the robot (or a named field object)
	// center lies within a circle or rectangle, expanded by the tolerance.
	KindPositionInArea Kind = "position_in_area"
	// KindPositionAtPoint holds when the distance to a target point is
	// within the tolerance (default 10 units).
	KindPositionAtPoint Kind = "position_at_point"
	// KindSensorReading holds when a named sensor value satisfies a
	// comparison against an expected value, within the tolerance.
	KindSensorReading Kind = "sensor_reading"
	// KindDistanceTraveled holds when cumulative odometry is within the
	// tolerance of the target distance.
	KindDistanceTraveled Kind = "distance_traveled"
	// KindAngleAchieved holds when the heading, normalized to [-180, 180]
	// degrees, is within the tolerance of the target heading.
	KindAngleAchieved Kind = "angle_achieved"
	// KindSpeedMaintained holds when the current speed is within the
	// tolerance of the target speed.
	KindSpeedMaintained Kind = "speed_maintained"
	// KindTimeElapsed holds when elapsed mission time reaches the target
	// minus the tolerance.
	KindTimeElapsed Kind = "time_elapsed"
	// KindEnergyLimit holds while cumulative energy stays at or below the
	// limit plus the tolerance.
	KindEnergyLimit Kind = "energy_limit"
	// KindSequenceCompleted holds when the count of reported completed
	// sub-steps reaches the required count.
	KindSequenceCompleted Kind = "sequence_completed"
	// KindCustom delegates to a caller-supplied predicate.
	KindCustom Kind = "custom"
)

// KnownKind reports whether the kind has a built-in evaluation strategy.
func KnownKind(kind Kind) bool {
	switch kind {
	case KindPositionInArea,
		KindPositionAtPoint,
		KindSensorReading,
		KindDistanceTraveled,
		KindAngleAchieved,
		KindSpeedMaintained,
		KindTimeElapsed,
		KindEnergyLimit,
		KindSequenceCompleted,
		KindCustom:
		return true
	}
	return false
}

// Predicate is the extension point behind the custom condition kind.
//
// Implementations must be deterministic with respect to their inputs and
// must not retain the snapshots beyond the call.
type Predicate interface {
	Evaluate(robot snapshot.RobotState, env snapshot.EnvironmentState) (bool, error)
}

// PredicateFunc adapts a plain function to the Predicate interface.
type PredicateFunc func(robot snapshot.RobotState, env snapshot.EnvironmentState) (bool, error)

// Evaluate implements Predicate.
func (f PredicateFunc) Evaluate(robot snapshot.RobotState, env snapshot.EnvironmentState) (bool, error) {
	return f(robot, env)
}

// denyPredicate is the no-op default resolved when no predicate is supplied.
// It never holds, so a misconfigured custom condition surfaces as an
// unsatisfiable mission instead of a runtime failure.
type denyPredicate struct{}

func (denyPredicate) Evaluate(snapshot.RobotState, snapshot.EnvironmentState) (bool, error) {
	return false, nil
}

// DenyAll returns the default predicate that never holds.
func DenyAll() Predicate {
	return denyPredicate{}
}

// Spec describes one authored condition.
type Spec struct {
	Kind         Kind
	Params       map[string]any
	Required     bool
	HoldDuration time.Duration
	Tolerance    float64

	// Predicate backs the custom kind. Resolved at composition time by the
	// authoring layer; nil means DenyAll.
	Predicate Predicate
}

// Context carries per-mission facts a condition may need beyond the snapshot.
type Context struct {
	// Elapsed is the time since the owning mission started.
	Elapsed time.Duration
	// StepsCompleted is the number of sub-steps reported complete so far.
	StepsCompleted int
}

// FloatParam returns the named parameter coerced to float64, or the
// fallback when absent or of an unusable type. Authoring layers decode
// parameters from YAML, so integer-typed numbers are accepted.
func (s Spec) FloatParam(name string, fallback float64) float64 {
	raw, ok := s.Params[name]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// IntParam returns the named parameter coerced to int, or the fallback.
func (s Spec) IntParam(name string, fallback int) int {
	raw, ok := s.Params[name]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// StringParam returns the named parameter as a string, or the fallback.
func (s Spec) StringParam(name string, fallback string) string {
	raw, ok := s.Params[name]
	if !ok {
		return fallback
	}
	if v, ok := raw.(string); ok {
		return v
	}
	return fallback
}
