package missionpack

import (
	"strings"
	"testing"
	"time"

	"github.com/robotrial/engine/internal/condition"
	"github.com/robotrial/engine/internal/mission"
	apperrors "github.com/robotrial/engine/internal/platform/errors"
	"github.com/robotrial/engine/internal/snapshot"
)

const minimalPack = `
season: "2024-TEST"
name: Test Season
missions:
  - id: m1
    name: First
    time_limit: 30s
    reward:
      base_points: 10
      difficulty_multiplier: 1.0
    conditions:
      - kind: position_at_point
        required: true
        tolerance: 10
        params:
          x: 50
          y: 50
`

type stubResolver struct {
	resolved []string
	err      error
}

func (r *stubResolver) ResolvePredicate(name, source string) (condition.Predicate, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.resolved = append(r.resolved, name)
	return condition.PredicateFunc(func(snapshot.RobotState, snapshot.EnvironmentState) (bool, error) {
		return true, nil
	}), nil
}

func TestDecodeMinimalPack(t *testing.T) {
	pack, err := Decode([]byte(minimalPack))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pack.Season != "2024-TEST" {
		t.Fatalf("unexpected season %q", pack.Season)
	}
	if len(pack.Missions) != 1 {
		t.Fatalf("expected 1 mission, got %d", len(pack.Missions))
	}

	def := pack.Missions[0]
	if def.TimeLimit.Std() != 30*time.Second {
		t.Fatalf("expected 30s time limit, got %v", def.TimeLimit.Std())
	}
	if def.Conditions[0].Params["x"] != 50 {
		t.Fatalf("expected numeric param, got %v", def.Conditions[0].Params["x"])
	}
}

func TestDecodeRejectsBadPacks(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", ":\n  - ["},
		{"missing season", "name: x\nmissions:\n  - id: m\n    name: m"},
		{"no missions", "season: s\nname: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !apperrors.IsCode(err, apperrors.CodePackInvalid) {
				t.Fatalf("expected pack invalid, got %v", err)
			}
		})
	}
}

func TestDurationForms(t *testing.T) {
	data := `
season: s
name: x
missions:
  - id: m
    name: m
    time_limit: 90
    reward:
      base_points: 1
    conditions:
      - kind: time_elapsed
        required: true
        hold_duration: 1.5
        params:
          target: 10
`
	pack, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pack.Missions[0].TimeLimit.Std() != 90*time.Second {
		t.Fatalf("expected bare numbers to mean seconds, got %v", pack.Missions[0].TimeLimit.Std())
	}
	if pack.Missions[0].Conditions[0].HoldDuration.Std() != 1500*time.Millisecond {
		t.Fatalf("expected fractional seconds, got %v", pack.Missions[0].Conditions[0].HoldDuration.Std())
	}
}

func TestBuildProducesRunnableMissions(t *testing.T) {
	pack, err := Decode([]byte(minimalPack))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	missions, err := pack.Build(nil, mission.WithClock(clock))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(missions) != 1 {
		t.Fatalf("expected 1 mission, got %d", len(missions))
	}

	m := missions[0]
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	now = now.Add(time.Second)
	robot := snapshot.RobotState{Position: snapshot.Pose{X: 50, Y: 50}}
	if err := m.Update(robot, snapshot.EnvironmentState{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Status() != mission.StatusCompleted {
		t.Fatalf("expected built mission to run, got %v", m.Status())
	}
	if m.Score() != 10 {
		t.Fatalf("expected score 10, got %d", m.Score())
	}
}

func TestBuildResolvesNamedPredicates(t *testing.T) {
	data := `
season: s
name: x
predicates:
  near_sample: |
    function evaluate(robot, env) return true end
missions:
  - id: m
    name: m
    reward:
      base_points: 1
    conditions:
      - kind: custom
        required: true
        predicate: near_sample
`
	pack, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	resolver := &stubResolver{}
	missions, err := pack.Build(resolver)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(resolver.resolved) != 1 || resolver.resolved[0] != "near_sample" {
		t.Fatalf("expected near_sample resolved, got %v", resolver.resolved)
	}
	if len(missions[0].Conditions()) != 1 || missions[0].Conditions()[0].Predicate == nil {
		t.Fatal("expected predicate wired into the condition spec")
	}
}

func TestBuildRejectsUnknownPredicateReference(t *testing.T) {
	data := `
season: s
name: x
missions:
  - id: m
    name: m
    reward:
      base_points: 1
    conditions:
      - kind: custom
        required: true
        predicate: ghost
`
	pack, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	_, err = pack.Build(&stubResolver{})
	if !apperrors.IsCode(err, apperrors.CodePackInvalid) {
		t.Fatalf("expected pack invalid for ghost predicate, got %v", err)
	}
}

func TestBuildRequiresResolverForPredicates(t *testing.T) {
	data := `
season: s
name: x
predicates:
  p: "function evaluate(robot, env) return true end"
missions:
  - id: m
    name: m
    reward:
      base_points: 1
    conditions:
      - kind: custom
        required: true
        predicate: p
`
	pack, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	_, err = pack.Build(nil)
	if !apperrors.IsCode(err, apperrors.CodePackInvalid) {
		t.Fatalf("expected pack invalid without a resolver, got %v", err)
	}
}

func TestBuildSurfacesMissionValidation(t *testing.T) {
	data := `
season: s
name: x
missions:
  - id: m
    name: m
    reward:
      base_points: -1
    conditions:
      - kind: position_at_point
        required: true
`
	pack, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	_, err = pack.Build(nil)
	if !apperrors.IsCode(err, apperrors.CodeMissionNegativeReward) {
		t.Fatalf("expected reward validation to surface, got %v", err)
	}
}

func TestBundledSubmergedSeason(t *testing.T) {
	names := Seasons()
	found := false
	for _, name := range names {
		if name == SeasonSubmerged {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected bundled submerged season, got %v", names)
	}

	data, err := Season(SeasonSubmerged)
	if err != nil {
		t.Fatalf("season: %v", err)
	}
	pack, err := Decode(data)
	if err != nil {
		t.Fatalf("decode bundled season: %v", err)
	}
	if pack.Season != "2024-SUBMERGED" {
		t.Fatalf("unexpected season id %q", pack.Season)
	}
	if len(pack.Missions) != 4 {
		t.Fatalf("expected 4 missions, got %d", len(pack.Missions))
	}
	if !strings.Contains(pack.Predicates["sample_secured"], "coral_sample") {
		t.Fatal("expected the sample_secured predicate source")
	}

	missions, err := pack.Build(&stubResolver{})
	if err != nil {
		t.Fatalf("build bundled season: %v", err)
	}
	if missions[0].ID() != "coral-nursery" {
		t.Fatalf("expected coral-nursery first, got %s", missions[0].ID())
	}

	if _, err := Season("atlantis"); err == nil {
		t.Fatal("expected unknown season to error")
	}
}
