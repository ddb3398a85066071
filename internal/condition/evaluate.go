package condition

import (
	"fmt"
	"math"

	apperrors "github.com/robotrial/engine/internal/platform/errors"
	"github.com/robotrial/engine/internal/snapshot"
)

// DefaultPointTolerance is the slack applied to position_at_point
// conditions when the author leaves the tolerance unset.
const DefaultPointTolerance = 10.0

// Evaluate reports whether the condition currently holds for the given
// snapshots.
//
// Evaluation is stateless and deterministic: the same spec and snapshots
// always produce the same answer. Unknown kinds and failing custom
// predicates return an error alongside false; callers treat the condition
// as unmet for the tick and keep going, so one bad condition never aborts
// a mission.
func Evaluate(spec Spec, robot snapshot.RobotState, env snapshot.EnvironmentState, evalCtx Context) (bool, error) {
	switch spec.Kind {
	case KindPositionInArea:
		return evaluatePositionInArea(spec, robot, env), nil
	case KindPositionAtPoint:
		return evaluatePositionAtPoint(spec, robot), nil
	case KindSensorReading:
		return evaluateSensorReading(spec, robot), nil
	case KindDistanceTraveled:
		target := spec.FloatParam("target", 0)
		return math.Abs(robot.DistanceTraveled-target) <= spec.Tolerance, nil
	case KindAngleAchieved:
		target := spec.FloatParam("target", 0)
		diff := normalizeAngle(robot.Position.Angle - target)
		return math.Abs(diff) <= spec.Tolerance, nil
	case KindSpeedMaintained:
		target := spec.FloatParam("target", 0)
		return math.Abs(robot.Speed-target) <= spec.Tolerance, nil
	case KindTimeElapsed:
		target := spec.FloatParam("target", 0)
		threshold := target - spec.Tolerance
		return evalCtx.Elapsed.Seconds() >= threshold, nil
	case KindEnergyLimit:
		limit := spec.FloatParam("limit", 0)
		return robot.EnergyUsed <= limit+spec.Tolerance, nil
	case KindSequenceCompleted:
		required := spec.IntParam("count", 1)
		return evalCtx.StepsCompleted >= required, nil
	case KindCustom:
		return evaluateCustom(spec, robot, env)
	default:
		return false, apperrors.WithMetadata(
			apperrors.CodeConditionUnknownKind,
			fmt.Sprintf("unknown condition kind %q", spec.Kind),
			map[string]string{"Kind": string(spec.Kind)},
		)
	}
}

func evaluatePositionInArea(spec Spec, robot snapshot.RobotState, env snapshot.EnvironmentState) bool {
	x := robot.Position.X
	y := robot.Position.Y
	if name := spec.StringParam("object", ""); name != "" {
		object, ok := env.Objects[name]
		if !ok {
			return false
		}
		x = object.X
		y = object.Y
	}

	centerX := spec.FloatParam("x", 0)
	centerY := spec.FloatParam("y", 0)

	if radius := spec.FloatParam("radius", 0); radius > 0 {
		return distance(x, y, centerX, centerY) <= radius+spec.Tolerance
	}

	width := spec.FloatParam("width", 0)
	height := spec.FloatParam("height", 0)
	halfW := width/2 + spec.Tolerance
	halfH := height/2 + spec.Tolerance
	return x >= centerX-halfW && x <= centerX+halfW &&
		y >= centerY-halfH && y <= centerY+halfH
}

func evaluatePositionAtPoint(spec Spec, robot snapshot.RobotState) bool {
	targetX := spec.FloatParam("x", 0)
	targetY := spec.FloatParam("y", 0)
	tolerance := spec.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultPointTolerance
	}
	return distance(robot.Position.X, robot.Position.Y, targetX, targetY) <= tolerance
}

func evaluateSensorReading(spec Spec, robot snapshot.RobotState) bool {
	name := spec.StringParam("sensor", "")
	reading, ok := robot.Sensor(name)
	if !ok {
		return false
	}

	expected := spec.FloatParam("value", 0)
	switch spec.StringParam("comparison", "equals") {
	case "equals":
		return math.Abs(reading-expected) <= spec.Tolerance
	case "greater_than":
		return reading > expected-spec.Tolerance
	case "less_than":
		return reading < expected+spec.Tolerance
	case "in_range":
		low := spec.FloatParam("min", 0)
		high := spec.FloatParam("max", 0)
		return reading >= low-spec.Tolerance && reading <= high+spec.Tolerance
	}
	return false
}

func evaluateCustom(spec Spec, robot snapshot.RobotState, env snapshot.EnvironmentState) (holds bool, err error) {
	predicate := spec.Predicate
	if predicate == nil {
		predicate = DenyAll()
	}

	// A predicate is foreign code; a panic must not take the tick down.
	defer func() {
		if recovered := recover(); recovered != nil {
			holds = false
			err = apperrors.New(
				apperrors.CodeConditionEvalFailed,
				fmt.Sprintf("custom predicate panicked: %v", recovered),
			)
		}
	}()

	holds, evalErr := predicate.Evaluate(robot, env)
	if evalErr != nil {
		return false, apperrors.Wrap(
			apperrors.CodeConditionEvalFailed,
			"custom predicate failed",
			evalErr,
		)
	}
	return holds, nil
}

// normalizeAngle wraps a heading difference into [-180, 180] degrees.
func normalizeAngle(degrees float64) float64 {
	wrapped := math.Mod(degrees, 360)
	if wrapped > 180 {
		wrapped -= 360
	}
	if wrapped < -180 {
		wrapped += 360
	}
	return wrapped
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
