// Package missionpack decodes authored mission definitions into runnable
// missions.
//
// A pack is a YAML document holding a season's missions, reward policies,
// and named predicate sources. The engine performs no file I/O; callers
// hand Decode raw bytes from wherever their packs live. The bundled
// seasons ship through the embedded filesystem in seasons.go.
package missionpack

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotrial/engine/internal/condition"
	"github.com/robotrial/engine/internal/mission"
	apperrors "github.com/robotrial/engine/internal/platform/errors"
)

// Duration decodes YAML durations given either as strings ("2s", "1m30s")
// or as bare numbers of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(time.Duration(v) * time.Second)
		return nil
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value %v", raw)
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Pack is one decoded season of missions.
type Pack struct {
	Season      string `yaml:"season"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Predicates maps names to Lua sources backing custom conditions.
	Predicates map[string]string `yaml:"predicates"`
	Missions   []MissionDef      `yaml:"missions"`
}

// MissionDef is one authored mission.
type MissionDef struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	Difficulty    int            `yaml:"difficulty"`
	TimeLimit     Duration       `yaml:"time_limit"`
	Prerequisites []string       `yaml:"prerequisites"`
	Reward        RewardDef      `yaml:"reward"`
	Conditions    []ConditionDef `yaml:"conditions"`
}

// RewardDef is the authored reward policy.
type RewardDef struct {
	BasePoints             int      `yaml:"base_points"`
	BonusPoints            int      `yaml:"bonus_points"`
	DifficultyMultiplier   float64  `yaml:"difficulty_multiplier"`
	FirstAttemptMultiplier float64  `yaml:"first_attempt_multiplier"`
	TargetTime             Duration `yaml:"target_time"`
	TimePenaltyPerSecond   float64  `yaml:"time_penalty_per_second"`
	MaxEnergy              float64  `yaml:"max_energy"`
	EnergyPenalty          float64  `yaml:"energy_penalty"`
	TimeBonus              bool     `yaml:"time_bonus"`
	EfficiencyBonus        bool     `yaml:"efficiency_bonus"`
	PrecisionBonus         bool     `yaml:"precision_bonus"`
}

// ConditionDef is one authored condition.
type ConditionDef struct {
	Kind         string         `yaml:"kind"`
	Params       map[string]any `yaml:"params"`
	Required     bool           `yaml:"required"`
	HoldDuration Duration       `yaml:"hold_duration"`
	Tolerance    float64        `yaml:"tolerance"`
	// Predicate names an entry in the pack's predicates section. Only
	// meaningful for the custom kind.
	Predicate string `yaml:"predicate"`
}

// PredicateResolver turns a named predicate source into an executable
// predicate. The scripting layer provides the usual implementation.
type PredicateResolver interface {
	ResolvePredicate(name, source string) (condition.Predicate, error)
}

// Decode parses a pack from raw YAML.
func Decode(data []byte) (*Pack, error) {
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, apperrors.Wrap(apperrors.CodePackInvalid, "pack is not valid yaml", err)
	}
	if pack.Season == "" {
		return nil, apperrors.New(apperrors.CodePackInvalid, "pack has no season")
	}
	if len(pack.Missions) == 0 {
		return nil, apperrors.WithMetadata(
			apperrors.CodePackInvalid,
			fmt.Sprintf("pack %s has no missions", pack.Season),
			map[string]string{"Name": pack.Season},
		)
	}
	return &pack, nil
}

// Build turns the pack into runnable missions in authored order.
//
// Custom conditions resolve their named predicate sources through the
// resolver; a pack that references predicates cannot build without one.
// Mission options apply to every built mission, so callers inject one
// clock and one observer for the whole pack.
func (p *Pack) Build(resolver PredicateResolver, opts ...mission.Option) ([]*mission.Mission, error) {
	missions := make([]*mission.Mission, 0, len(p.Missions))
	for _, def := range p.Missions {
		specs, err := p.buildConditions(def, resolver)
		if err != nil {
			return nil, err
		}

		m, err := mission.New(mission.Config{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Conditions:  specs,
			Reward: mission.RewardPolicy{
				BasePoints:             def.Reward.BasePoints,
				BonusPoints:            def.Reward.BonusPoints,
				DifficultyMultiplier:   def.Reward.DifficultyMultiplier,
				FirstAttemptMultiplier: def.Reward.FirstAttemptMultiplier,
				TargetTime:             def.Reward.TargetTime.Std(),
				TimePenaltyPerSecond:   def.Reward.TimePenaltyPerSecond,
				MaxEnergy:              def.Reward.MaxEnergy,
				EnergyPenalty:          def.Reward.EnergyPenalty,
				TimeBonus:              def.Reward.TimeBonus,
				EfficiencyBonus:        def.Reward.EfficiencyBonus,
				PrecisionBonus:         def.Reward.PrecisionBonus,
			},
			Difficulty:    def.Difficulty,
			TimeLimit:     def.TimeLimit.Std(),
			Prerequisites: def.Prerequisites,
		}, opts...)
		if err != nil {
			return nil, err
		}
		missions = append(missions, m)
	}
	return missions, nil
}

func (p *Pack) buildConditions(def MissionDef, resolver PredicateResolver) ([]condition.Spec, error) {
	specs := make([]condition.Spec, 0, len(def.Conditions))
	for _, c := range def.Conditions {
		spec := condition.Spec{
			Kind:         condition.Kind(c.Kind),
			Params:       c.Params,
			Required:     c.Required,
			HoldDuration: c.HoldDuration.Std(),
			Tolerance:    c.Tolerance,
		}

		if c.Predicate != "" {
			source, ok := p.Predicates[c.Predicate]
			if !ok {
				return nil, apperrors.WithMetadata(
					apperrors.CodePackInvalid,
					fmt.Sprintf("mission %s references unknown predicate %s", def.ID, c.Predicate),
					map[string]string{"MissionID": def.ID, "Name": c.Predicate},
				)
			}
			if resolver == nil {
				return nil, apperrors.WithMetadata(
					apperrors.CodePackInvalid,
					fmt.Sprintf("mission %s needs a predicate resolver for %s", def.ID, c.Predicate),
					map[string]string{"MissionID": def.ID, "Name": c.Predicate},
				)
			}
			predicate, err := resolver.ResolvePredicate(c.Predicate, source)
			if err != nil {
				return nil, apperrors.Wrap(
					apperrors.CodePackInvalid,
					fmt.Sprintf("mission %s predicate %s failed to load", def.ID, c.Predicate),
					err,
				)
			}
			spec.Predicate = predicate
		}

		specs = append(specs, spec)
	}
	return specs, nil
}
