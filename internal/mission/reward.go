package mission

import (
	"fmt"
	"time"

	apperrors "github.com/robotrial/engine/internal/platform/errors"
)

// RewardPolicy converts attempt facts into points. Immutable after authoring.
//
// A zero multiplier means unset and is treated as 1. A zero TargetTime or
// MaxEnergy disables the corresponding bonus dimension.
type RewardPolicy struct {
	BasePoints  int
	BonusPoints int

	DifficultyMultiplier   float64
	FirstAttemptMultiplier float64

	TargetTime           time.Duration
	TimePenaltyPerSecond float64

	MaxEnergy     float64
	EnergyPenalty float64

	TimeBonus       bool
	EfficiencyBonus bool
	PrecisionBonus  bool
}

// Validate rejects policies with negative fields. Surfaced at registration
// so a broken reward can never corrupt an in-progress session.
func (p RewardPolicy) Validate() error {
	checks := []struct {
		field string
		value float64
	}{
		{"base_points", float64(p.BasePoints)},
		{"bonus_points", float64(p.BonusPoints)},
		{"difficulty_multiplier", p.DifficultyMultiplier},
		{"first_attempt_multiplier", p.FirstAttemptMultiplier},
		{"target_time", p.TargetTime.Seconds()},
		{"time_penalty_per_second", p.TimePenaltyPerSecond},
		{"max_energy", p.MaxEnergy},
		{"energy_penalty", p.EnergyPenalty},
	}
	for _, check := range checks {
		if check.value < 0 {
			return apperrors.WithMetadata(
				apperrors.CodeMissionNegativeReward,
				fmt.Sprintf("reward field %s must not be negative", check.field),
				map[string]string{"Field": check.field},
			)
		}
	}
	return nil
}

func (p RewardPolicy) difficultyMultiplier() float64 {
	if p.DifficultyMultiplier == 0 {
		return 1
	}
	return p.DifficultyMultiplier
}

func (p RewardPolicy) firstAttemptMultiplier() float64 {
	if p.FirstAttemptMultiplier == 0 {
		return 1
	}
	return p.FirstAttemptMultiplier
}
