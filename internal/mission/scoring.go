package mission

import (
	"math"
	"time"
)

// ScoreInputs are the recorded facts of a completed attempt.
type ScoreInputs struct {
	Elapsed        time.Duration
	EnergyUsed     float64
	AttemptNumber  int
	PrecisionScore float64
}

// CalculateScore turns a reward policy and attempt facts into points.
//
// The order is fixed: base points scaled by difficulty, then the time
// bonus or overtime penalty, then the efficiency bonus, then the
// first-attempt multiplier over the running total, then the precision
// bonus, and finally a clamp at zero. The multiplier applies after the
// additive adjustments because it scales total achievement, while the
// precision bonus rewards execution quality independent of attempt order.
func CalculateScore(policy RewardPolicy, in ScoreInputs) int {
	score := int(math.Floor(float64(policy.BasePoints) * policy.difficultyMultiplier()))

	if policy.TimeBonus && policy.TargetTime > 0 {
		if in.Elapsed <= policy.TargetTime {
			score += policy.BonusPoints
		} else {
			overtime := (in.Elapsed - policy.TargetTime).Seconds()
			score -= int(math.Floor(overtime * policy.TimePenaltyPerSecond))
		}
	}

	if policy.EfficiencyBonus && policy.MaxEnergy > 0 && in.EnergyUsed <= policy.MaxEnergy {
		score += int(math.Floor(float64(policy.BonusPoints) * 0.5))
	}

	if in.AttemptNumber == 1 {
		score = int(math.Floor(float64(score) * policy.firstAttemptMultiplier()))
	}

	if policy.PrecisionBonus && in.PrecisionScore > 0.8 {
		score += int(math.Floor(float64(policy.BonusPoints) * 0.3))
	}

	if score < 0 {
		score = 0
	}
	return score
}
