// Package sim replays recorded scenarios against a mission session.
//
// A scenario is a YAML script of ticks: robot and environment snapshots
// fed to the session manager on a manual clock. Replays are fully
// deterministic, so the same scenario always produces the same
// condition-satisfaction timeline, scores, and summary.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/robotrial/engine/internal/missionpack"
	"github.com/robotrial/engine/internal/session"
	"github.com/robotrial/engine/internal/snapshot"
)

const tracerName = "github.com/robotrial/engine/internal/sim"

// Clock is the manual time source driving a replay.
type Clock struct {
	now time.Time
}

// NewClock creates a clock frozen at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current replay time.
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the replay time forward.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Scenario is one decoded replay script.
type Scenario struct {
	Name string `yaml:"name"`
	// TickInterval is the simulated time between ticks. Defaults to one
	// second.
	TickInterval missionpack.Duration `yaml:"tick_interval"`
	Steps        []StepDef            `yaml:"steps"`
}

// StepDef is one scripted action. Exactly one field should be set.
type StepDef struct {
	// StartMission activates the named mission.
	StartMission string `yaml:"start_mission"`
	// ReportSteps reports this many completed sub-steps on the active
	// mission.
	ReportSteps int `yaml:"report_steps"`
	// Tick feeds one (or repeated) snapshot pair to the manager.
	Tick *TickDef `yaml:"tick"`
}

// TickDef is one scripted snapshot pair.
type TickDef struct {
	Robot   RobotDef             `yaml:"robot"`
	Objects map[string]ObjectDef `yaml:"objects"`
	// Repeat replays this tick N times. Zero means once.
	Repeat int `yaml:"repeat"`
}

// RobotDef is the scripted robot state.
type RobotDef struct {
	X                float64            `yaml:"x"`
	Y                float64            `yaml:"y"`
	Angle            float64            `yaml:"angle"`
	Sensors          map[string]float64 `yaml:"sensors"`
	Speed            float64            `yaml:"speed"`
	EnergyUsed       float64            `yaml:"energy_used"`
	DistanceTraveled float64            `yaml:"distance_traveled"`
}

// ObjectDef is one scripted field object.
type ObjectDef struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// DecodeScenario parses a scenario from raw YAML.
func DecodeScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario is not valid yaml: %w", err)
	}
	if scenario.Name == "" {
		return nil, fmt.Errorf("scenario has no name")
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", scenario.Name)
	}
	return &scenario, nil
}

func (d TickDef) robotState() snapshot.RobotState {
	return snapshot.RobotState{
		Position:         snapshot.Pose{X: d.Robot.X, Y: d.Robot.Y, Angle: d.Robot.Angle},
		Sensors:          d.Robot.Sensors,
		Speed:            d.Robot.Speed,
		EnergyUsed:       d.Robot.EnergyUsed,
		DistanceTraveled: d.Robot.DistanceTraveled,
	}
}

func (d TickDef) environmentState() snapshot.EnvironmentState {
	if len(d.Objects) == 0 {
		return snapshot.EnvironmentState{}
	}
	objects := make(map[string]snapshot.Object, len(d.Objects))
	for id, object := range d.Objects {
		objects[id] = snapshot.Object{X: object.X, Y: object.Y}
	}
	return snapshot.EnvironmentState{Objects: objects}
}

// Runner replays scenarios against one session manager.
//
// The manager's missions must share the runner's clock, otherwise replay
// time and mission time drift apart.
type Runner struct {
	manager *session.Manager
	clock   *Clock
	tracer  trace.Tracer
}

// NewRunner creates a runner over the given manager and clock.
func NewRunner(manager *session.Manager, clock *Clock) *Runner {
	return &Runner{
		manager: manager,
		clock:   clock,
		tracer:  otel.Tracer(tracerName),
	}
}

// Run replays the scenario and returns the resulting session summary.
//
// The replay stops at the first failing step; feeding snapshots into a
// finished mission is never an error, matching live operation where the
// manager simply ignores ticks with no active mission.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) (session.Summary, error) {
	ctx, span := r.tracer.Start(ctx, "sim.scenario.run",
		trace.WithAttributes(attribute.String("scenario.name", scenario.Name)))
	defer span.End()

	summary, ticks, err := r.run(ctx, scenario)
	span.SetAttributes(attribute.Int("scenario.ticks", ticks))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return session.Summary{}, err
	}
	span.SetAttributes(
		attribute.Int("session.total_score", summary.TotalScore),
		attribute.Int("session.completed", summary.CompletedCount),
	)
	return summary, nil
}

func (r *Runner) run(ctx context.Context, scenario *Scenario) (session.Summary, int, error) {
	interval := scenario.TickInterval.Std()
	if interval <= 0 {
		interval = time.Second
	}

	ticks := 0
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return session.Summary{}, ticks, err
		}

		switch {
		case step.StartMission != "":
			if err := r.manager.StartMission(step.StartMission); err != nil {
				return session.Summary{}, ticks, fmt.Errorf("step %d: start %s: %w", i, step.StartMission, err)
			}
		case step.ReportSteps > 0:
			for n := 0; n < step.ReportSteps; n++ {
				r.manager.ReportStepCompleted()
			}
		case step.Tick != nil:
			repeat := step.Tick.Repeat
			if repeat <= 0 {
				repeat = 1
			}
			robot := step.Tick.robotState()
			env := step.Tick.environmentState()
			for n := 0; n < repeat; n++ {
				r.clock.Advance(interval)
				if err := r.manager.Update(robot, env); err != nil {
					return session.Summary{}, ticks, fmt.Errorf("step %d: tick: %w", i, err)
				}
				ticks++
			}
		default:
			return session.Summary{}, ticks, fmt.Errorf("step %d: no action", i)
		}
	}

	return r.manager.Summary(), ticks, nil
}
