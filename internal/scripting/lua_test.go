package scripting

import (
	"strings"
	"testing"

	"github.com/robotrial/engine/internal/snapshot"
)

const nearSampleSource = `
function evaluate(robot, env)
  local sample = env.objects["coral_sample"]
  if sample == nil then
    return false
  end
  local dx = robot.position.x - sample.x
  local dy = robot.position.y - sample.y
  return math.sqrt(dx * dx + dy * dy) <= 50
end
`

func testEnv() snapshot.EnvironmentState {
	return snapshot.EnvironmentState{
		Objects: map[string]snapshot.Object{
			"coral_sample": {X: 1800, Y: 900},
		},
	}
}

func TestPredicateEvaluatesAgainstSnapshots(t *testing.T) {
	p, err := Compile("near_sample", nearSampleSource)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	near := snapshot.RobotState{Position: snapshot.Pose{X: 1820, Y: 910}}
	holds, err := p.Evaluate(near, testEnv())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !holds {
		t.Fatal("expected predicate to hold near the sample")
	}

	far := snapshot.RobotState{Position: snapshot.Pose{X: 0, Y: 0}}
	holds, err = p.Evaluate(far, testEnv())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if holds {
		t.Fatal("expected predicate not to hold far from the sample")
	}
}

func TestPredicateMissingObjectReturnsFalse(t *testing.T) {
	p, err := Compile("near_sample", nearSampleSource)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	holds, err := p.Evaluate(snapshot.RobotState{}, snapshot.EnvironmentState{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if holds {
		t.Fatal("expected predicate to be false without the object")
	}
}

func TestPredicateReadsSensorsAndScalars(t *testing.T) {
	source := `
function evaluate(robot, env)
  return robot.sensors.color == 3
    and robot.speed > 10
    and robot.energy_used < 100
    and robot.distance_traveled >= 500
end
`
	p, err := Compile("telemetry_check", source)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	robot := snapshot.RobotState{
		Sensors:          map[string]float64{"color": 3},
		Speed:            25,
		EnergyUsed:       40,
		DistanceTraveled: 640,
	}
	holds, err := p.Evaluate(robot, snapshot.EnvironmentState{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !holds {
		t.Fatal("expected all telemetry checks to pass")
	}
}

func TestCompileRejectsBadChunks(t *testing.T) {
	if _, err := Compile("broken", "function evaluate(robot"); err == nil {
		t.Fatal("expected syntax error")
	}

	_, err := Compile("no_entry", "local x = 1")
	if err == nil || !strings.Contains(err.Error(), "evaluate") {
		t.Fatalf("expected missing evaluate error, got %v", err)
	}
}

func TestEvaluateSurfacesRuntimeErrors(t *testing.T) {
	source := `
function evaluate(robot, env)
  error("sensor bridge offline")
end
`
	p, err := Compile("boom", source)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	_, err = p.Evaluate(snapshot.RobotState{}, snapshot.EnvironmentState{})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected runtime error naming the predicate, got %v", err)
	}
}

func TestDeterministicSandboxExcludesOSAndIO(t *testing.T) {
	source := `
function evaluate(robot, env)
  return os ~= nil or io ~= nil
end
`
	p, err := Compile("sandbox_probe", source)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	holds, err := p.Evaluate(snapshot.RobotState{}, snapshot.EnvironmentState{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if holds {
		t.Fatal("expected os and io to be unavailable to predicates")
	}
}

func TestRegistryCachesByName(t *testing.T) {
	registry := NewRegistry()

	first, err := registry.ResolvePredicate("p", nearSampleSource)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := registry.ResolvePredicate("p", nearSampleSource)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached predicate on the second resolve")
	}

	if _, err := registry.ResolvePredicate("bad", "not lua at all ("); err == nil {
		t.Fatal("expected compile error to surface through the registry")
	}
}
