package mission

import (
	"math"
	"time"

	"github.com/robotrial/engine/internal/condition"
)

// TracePoint is one recorded robot position during an attempt.
type TracePoint struct {
	X  float64
	Y  float64
	At time.Time
}

// SensorSample is one recorded set of sensor readings during an attempt.
type SensorSample struct {
	At       time.Time
	Readings map[string]float64
}

// PrecisionScorer rates how closely a completed attempt matched ideal
// execution, in [0, 1]. The formula is pluggable per mission kind;
// embedders install their own scorer at composition time.
type PrecisionScorer interface {
	Score(specs []condition.Spec, trace []TracePoint) float64
}

// PrecisionScorerFunc adapts a plain function to the PrecisionScorer
// interface.
type PrecisionScorerFunc func(specs []condition.Spec, trace []TracePoint) float64

// Score implements PrecisionScorer.
func (f PrecisionScorerFunc) Score(specs []condition.Spec, trace []TracePoint) float64 {
	return f(specs, trace)
}

// DefaultPrecisionScorer rates precision by how close the attempt ended to
// its positional target.
//
// It reads the first required position condition: the target point and
// tolerance for position_at_point, or the circle center and radius for
// position_in_area. The score falls linearly from 1 at the target to 0 at
// twice the reference distance. Missions without a positional target score
// a neutral 1.
func DefaultPrecisionScorer() PrecisionScorer {
	return PrecisionScorerFunc(defaultPrecision)
}

func defaultPrecision(specs []condition.Spec, trace []TracePoint) float64 {
	if len(trace) == 0 {
		return 1
	}
	targetX, targetY, reference, ok := positionalTarget(specs)
	if !ok {
		return 1
	}
	final := trace[len(trace)-1]
	dist := math.Hypot(final.X-targetX, final.Y-targetY)
	return clamp01(1 - dist/(2*reference))
}

func positionalTarget(specs []condition.Spec) (x, y, reference float64, ok bool) {
	for _, spec := range specs {
		if !spec.Required {
			continue
		}
		switch spec.Kind {
		case condition.KindPositionAtPoint:
			reference = spec.Tolerance
			if reference <= 0 {
				reference = condition.DefaultPointTolerance
			}
			return spec.FloatParam("x", 0), spec.FloatParam("y", 0), reference, true
		case condition.KindPositionInArea:
			// Only targets tracking the robot itself; named-object
			// conditions say nothing about where the robot stopped.
			if spec.StringParam("object", "") != "" {
				continue
			}
			reference = spec.FloatParam("radius", 0)
			if reference <= 0 {
				continue
			}
			return spec.FloatParam("x", 0), spec.FloatParam("y", 0), reference, true
		}
	}
	return 0, 0, 0, false
}

// EfficiencyScore averages the time and energy usage ratios against the
// reward policy's targets, each clamped to at most 1. A dimension with no
// configured target counts as a perfect 1.
func EfficiencyScore(policy RewardPolicy, elapsed time.Duration, energyUsed float64) float64 {
	timeRatio := 1.0
	if policy.TargetTime > 0 && elapsed > 0 {
		timeRatio = math.Min(1, policy.TargetTime.Seconds()/elapsed.Seconds())
	}

	energyRatio := 1.0
	if policy.MaxEnergy > 0 && energyUsed > 0 {
		energyRatio = math.Min(1, policy.MaxEnergy/energyUsed)
	}

	return (timeRatio + energyRatio) / 2
}

// StyleScore rates how smooth the recorded path was, in [0, 1].
//
// A direction change is counted between three consecutive samples whenever
// the incoming and outgoing bearings differ by more than 45 degrees. The
// score is 1 minus the change count over one fifth of the trace length.
func StyleScore(trace []TracePoint) float64 {
	if len(trace) < 3 {
		return 1
	}

	changes := 0
	for i := 1; i < len(trace)-1; i++ {
		in, okIn := bearing(trace[i-1], trace[i])
		out, okOut := bearing(trace[i], trace[i+1])
		if !okIn || !okOut {
			continue
		}
		if math.Abs(bearingDiff(out, in)) > 45 {
			changes++
		}
	}

	budget := math.Max(1, float64(len(trace))/5)
	return clamp01(1 - float64(changes)/budget)
}

// bearing returns the heading of the segment in degrees. Stationary
// segments have no bearing.
func bearing(from, to TracePoint) (float64, bool) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if dx == 0 && dy == 0 {
		return 0, false
	}
	return math.Atan2(dy, dx) * 180 / math.Pi, true
}

// bearingDiff wraps the difference between two headings into [-180, 180].
func bearingDiff(a, b float64) float64 {
	diff := math.Mod(a-b, 360)
	if diff > 180 {
		diff -= 360
	}
	if diff < -180 {
		diff += 360
	}
	return diff
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
