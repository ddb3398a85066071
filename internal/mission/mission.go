// Package mission owns the lifecycle, scoring, and performance analysis of
// a single scorable objective.
//
// A mission holds an ordered set of tracked conditions and a reward policy.
// Every update re-evaluates the conditions against the tick's snapshots,
// decides completion, failure, or timeout, and computes the score and the
// three performance metrics when the attempt completes.
package mission

import (
	"fmt"
	"time"

	"github.com/robotrial/engine/internal/condition"
	apperrors "github.com/robotrial/engine/internal/platform/errors"
	"github.com/robotrial/engine/internal/snapshot"
	"github.com/robotrial/engine/internal/telemetry"
)

// Status is the lifecycle state of a mission.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusTimedOut   Status = "timed_out"
)

// Config is the authored definition of a mission.
type Config struct {
	ID          string
	Name        string
	Description string
	Conditions  []condition.Spec
	Reward      RewardPolicy
	Difficulty  int
	// TimeLimit bounds one attempt. Zero means unlimited.
	TimeLimit time.Duration
	// Prerequisites lists mission ids that must be completed first. The
	// manager enforces the gate; the mission only records it.
	Prerequisites []string
}

// Option configures a mission at construction time.
type Option func(*Mission)

// WithClock injects the time source. Defaults to time.Now; tests and
// replay runners inject a manual clock so identical snapshot sequences
// yield identical timelines.
func WithClock(clock func() time.Time) Option {
	return func(m *Mission) { m.clock = clock }
}

// WithObserver injects the telemetry sink. Defaults to telemetry.Nop.
func WithObserver(observer telemetry.Observer) Option {
	return func(m *Mission) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// WithPrecisionScorer overrides the precision formula for this mission.
func WithPrecisionScorer(scorer PrecisionScorer) Option {
	return func(m *Mission) {
		if scorer != nil {
			m.precision = scorer
		}
	}
}

// Mission is one scorable objective and the runtime state of its current
// attempt. Not safe for concurrent use; callers serialize all access.
type Mission struct {
	id            string
	name          string
	description   string
	reward        RewardPolicy
	difficulty    int
	timeLimit     time.Duration
	prerequisites []string
	trackers      []*condition.Tracker

	clock     func() time.Time
	observer  telemetry.Observer
	precision PrecisionScorer

	status          Status
	startTime       time.Time
	endTime         time.Time
	attemptCount    int
	stepsCompleted  int
	score           int
	precisionScore  float64
	efficiencyScore float64
	styleScore      float64
	positionTrace   []TracePoint
	sensorTrace     []SensorSample
}

// New validates the config and builds a mission in StatusNotStarted.
//
// Validation failures carry authoring error codes and surface here, at
// registration time, never mid-attempt.
func New(cfg Config, opts ...Option) (*Mission, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	trackers := make([]*condition.Tracker, len(cfg.Conditions))
	for i, spec := range cfg.Conditions {
		trackers[i] = condition.NewTracker(spec)
	}

	m := &Mission{
		id:            cfg.ID,
		name:          cfg.Name,
		description:   cfg.Description,
		reward:        cfg.Reward,
		difficulty:    cfg.Difficulty,
		timeLimit:     cfg.TimeLimit,
		prerequisites: append([]string(nil), cfg.Prerequisites...),
		trackers:      trackers,
		clock:         time.Now,
		observer:      telemetry.Nop{},
		precision:     DefaultPrecisionScorer(),
		status:        StatusNotStarted,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func validate(cfg Config) error {
	if cfg.ID == "" {
		return apperrors.New(apperrors.CodeMissionEmptyID, "mission id must not be empty")
	}
	if cfg.Name == "" {
		return apperrors.WithMetadata(
			apperrors.CodeMissionEmptyName,
			fmt.Sprintf("mission %s has no name", cfg.ID),
			map[string]string{"MissionID": cfg.ID},
		)
	}
	if cfg.TimeLimit < 0 {
		return apperrors.WithMetadata(
			apperrors.CodeMissionInvalidTimeLimit,
			fmt.Sprintf("mission %s has a negative time limit", cfg.ID),
			map[string]string{"MissionID": cfg.ID},
		)
	}
	if err := cfg.Reward.Validate(); err != nil {
		return err
	}
	for _, spec := range cfg.Conditions {
		// An unknown kind can never satisfy, so it is only a defect on a
		// required condition. Observational ones register and evaluate
		// false each tick through the runtime error path.
		if spec.Required && !condition.KnownKind(spec.Kind) {
			return apperrors.WithMetadata(
				apperrors.CodeConditionUnknownKind,
				fmt.Sprintf("mission %s requires unknown condition kind %q", cfg.ID, spec.Kind),
				map[string]string{"MissionID": cfg.ID, "Kind": string(spec.Kind)},
			)
		}
		if spec.HoldDuration < 0 {
			return apperrors.WithMetadata(
				apperrors.CodeConditionNegativeHold,
				fmt.Sprintf("mission %s has a condition with a negative hold duration", cfg.ID),
				map[string]string{"MissionID": cfg.ID, "Kind": string(spec.Kind)},
			)
		}
		// A required custom condition without a predicate could never be
		// satisfied; a non-required one is merely observational and falls
		// back to the deny-all default.
		if spec.Kind == condition.KindCustom && spec.Required && spec.Predicate == nil {
			return apperrors.WithMetadata(
				apperrors.CodeConditionMissingPredicate,
				fmt.Sprintf("mission %s requires a custom condition with no predicate", cfg.ID),
				map[string]string{"MissionID": cfg.ID},
			)
		}
	}
	return nil
}

// ID returns the stable mission id.
func (m *Mission) ID() string { return m.id }

// Name returns the display name.
func (m *Mission) Name() string { return m.name }

// Description returns the authored description.
func (m *Mission) Description() string { return m.description }

// Status returns the current lifecycle state.
func (m *Mission) Status() Status { return m.status }

// Score returns the points earned by the latest completed attempt.
func (m *Mission) Score() int { return m.score }

// AttemptCount returns how many times the mission has been started.
func (m *Mission) AttemptCount() int { return m.attemptCount }

// Difficulty returns the ordinal difficulty rating.
func (m *Mission) Difficulty() int { return m.difficulty }

// TimeLimit returns the per-attempt time budget. Zero means unlimited.
func (m *Mission) TimeLimit() time.Duration { return m.timeLimit }

// Reward returns the reward policy.
func (m *Mission) Reward() RewardPolicy { return m.reward }

// Prerequisites returns the ids that must be completed before this mission
// may start.
func (m *Mission) Prerequisites() []string {
	return append([]string(nil), m.prerequisites...)
}

// StartTime returns when the current or latest attempt began.
func (m *Mission) StartTime() time.Time { return m.startTime }

// EndTime returns when the latest attempt ended. Zero while in progress.
func (m *Mission) EndTime() time.Time { return m.endTime }

// PrecisionScore returns the latest attempt's precision metric.
func (m *Mission) PrecisionScore() float64 { return m.precisionScore }

// EfficiencyScore returns the latest attempt's efficiency metric.
func (m *Mission) EfficiencyScore() float64 { return m.efficiencyScore }

// StyleScore returns the latest attempt's style metric.
func (m *Mission) StyleScore() float64 { return m.styleScore }

// Conditions returns the authored condition specs in order.
func (m *Mission) Conditions() []condition.Spec {
	specs := make([]condition.Spec, len(m.trackers))
	for i, tracker := range m.trackers {
		specs[i] = tracker.Spec()
	}
	return specs
}

// PositionTrace returns a copy of the latest attempt's recorded positions.
func (m *Mission) PositionTrace() []TracePoint {
	return append([]TracePoint(nil), m.positionTrace...)
}

// SensorTrace returns a copy of the latest attempt's recorded readings.
func (m *Mission) SensorTrace() []SensorSample {
	return append([]SensorSample(nil), m.sensorTrace...)
}

// Start begins a new attempt.
//
// Rejected unless the mission is in StatusNotStarted; call Reset first to
// retry a finished mission. Clears trackers and traces, records the start
// time, and increments the attempt count.
func (m *Mission) Start() error {
	if m.status != StatusNotStarted {
		return m.transitionError(StatusInProgress)
	}

	for _, tracker := range m.trackers {
		tracker.Reset()
	}
	m.positionTrace = nil
	m.sensorTrace = nil
	m.stepsCompleted = 0
	m.score = 0
	m.precisionScore = 0
	m.efficiencyScore = 0
	m.styleScore = 0
	m.startTime = m.clock()
	m.endTime = time.Time{}
	m.attemptCount++
	m.status = StatusInProgress

	m.observer.Observe(telemetry.Event{
		Name:          telemetry.EventMissionStarted,
		At:            m.startTime,
		MissionID:     m.id,
		MissionName:   m.name,
		AttemptNumber: m.attemptCount,
		StartedAt:     m.startTime,
	})
	return nil
}

// Fail ends the current attempt as failed. Rejected unless in progress.
func (m *Mission) Fail() error {
	if m.status != StatusInProgress {
		return m.transitionError(StatusFailed)
	}
	m.endTime = m.clock()
	m.status = StatusFailed

	m.observer.Observe(telemetry.Event{
		Name:          telemetry.EventMissionFailed,
		At:            m.endTime,
		MissionID:     m.id,
		MissionName:   m.name,
		AttemptNumber: m.attemptCount,
		StartedAt:     m.startTime,
		EndedAt:       m.endTime,
	})
	return nil
}

// Reset returns the mission to StatusNotStarted from any state, clearing
// trackers, traces, and the latest attempt's results. The attempt count
// survives so retries keep their numbering.
func (m *Mission) Reset() {
	for _, tracker := range m.trackers {
		tracker.Reset()
	}
	m.positionTrace = nil
	m.sensorTrace = nil
	m.stepsCompleted = 0
	m.score = 0
	m.precisionScore = 0
	m.efficiencyScore = 0
	m.styleScore = 0
	m.startTime = time.Time{}
	m.endTime = time.Time{}
	m.status = StatusNotStarted
}

// ReportStepCompleted records one completed sub-step for the current
// attempt, feeding sequence_completed conditions. Ignored unless the
// mission is in progress.
func (m *Mission) ReportStepCompleted() {
	if m.status != StatusInProgress {
		return
	}
	m.stepsCompleted++
}

// StepsCompleted returns the sub-steps reported in the current attempt.
func (m *Mission) StepsCompleted() int { return m.stepsCompleted }

// Update advances the current attempt with one tick's snapshots.
//
// Appends trace samples, enforces the time limit, re-runs every condition
// tracker, and completes the mission once all required conditions are
// satisfied. Individual evaluator failures are reported to the observer
// and treated as unmet for the tick; they never abort the attempt.
func (m *Mission) Update(robot snapshot.RobotState, env snapshot.EnvironmentState) error {
	if m.status != StatusInProgress {
		return apperrors.WithMetadata(
			apperrors.CodeMissionNotActive,
			fmt.Sprintf("mission %s is not in progress", m.id),
			map[string]string{"MissionID": m.id},
		)
	}

	now := m.clock()
	elapsed := now.Sub(m.startTime)

	m.positionTrace = append(m.positionTrace, TracePoint{
		X:  robot.Position.X,
		Y:  robot.Position.Y,
		At: now,
	})
	readings := make(map[string]float64, len(robot.Sensors))
	for name, value := range robot.Sensors {
		readings[name] = value
	}
	m.sensorTrace = append(m.sensorTrace, SensorSample{At: now, Readings: readings})

	if m.timeLimit > 0 && elapsed > m.timeLimit {
		m.endTime = now
		m.score = 0
		m.status = StatusTimedOut

		m.observer.Observe(telemetry.Event{
			Name:          telemetry.EventMissionTimedOut,
			At:            now,
			MissionID:     m.id,
			MissionName:   m.name,
			AttemptNumber: m.attemptCount,
			StartedAt:     m.startTime,
			EndedAt:       now,
		})
		return nil
	}

	evalCtx := condition.Context{Elapsed: elapsed, StepsCompleted: m.stepsCompleted}
	for _, tracker := range m.trackers {
		spec := tracker.Spec()
		holds, err := condition.Evaluate(spec, robot, env, evalCtx)
		if err != nil {
			holds = false
			m.observer.Observe(telemetry.Event{
				Name:          telemetry.EventEvaluationError,
				At:            now,
				MissionID:     m.id,
				ConditionKind: string(spec.Kind),
				Err:           err,
			})
		}

		wasSatisfied := tracker.Satisfied()
		tracker.Observe(now, holds)
		if !wasSatisfied && tracker.Satisfied() {
			m.observer.Observe(telemetry.Event{
				Name:          telemetry.EventConditionSatisfied,
				At:            now,
				MissionID:     m.id,
				ConditionKind: string(spec.Kind),
			})
		}
	}

	if m.requiredSatisfied() {
		m.complete(now, elapsed, robot.EnergyUsed)
	}
	return nil
}

func (m *Mission) requiredSatisfied() bool {
	for _, tracker := range m.trackers {
		if tracker.Spec().Required && !tracker.Satisfied() {
			return false
		}
	}
	return true
}

func (m *Mission) complete(now time.Time, elapsed time.Duration, energyUsed float64) {
	m.endTime = now
	m.precisionScore = clamp01(m.precision.Score(m.Conditions(), m.positionTrace))
	m.efficiencyScore = EfficiencyScore(m.reward, elapsed, energyUsed)
	m.styleScore = StyleScore(m.positionTrace)
	m.score = CalculateScore(m.reward, ScoreInputs{
		Elapsed:        elapsed,
		EnergyUsed:     energyUsed,
		AttemptNumber:  m.attemptCount,
		PrecisionScore: m.precisionScore,
	})
	m.status = StatusCompleted

	m.observer.Observe(telemetry.Event{
		Name:            telemetry.EventMissionCompleted,
		At:              now,
		MissionID:       m.id,
		MissionName:     m.name,
		AttemptNumber:   m.attemptCount,
		Score:           m.score,
		PrecisionScore:  m.precisionScore,
		EfficiencyScore: m.efficiencyScore,
		StyleScore:      m.styleScore,
		StartedAt:       m.startTime,
		EndedAt:         now,
	})
}

// Progress returns the share of required conditions currently satisfied,
// in [0, 1]. Observational conditions never count; a mission with no
// required conditions is always at full progress.
func (m *Mission) Progress() float64 {
	required := 0
	satisfied := 0
	for _, tracker := range m.trackers {
		if !tracker.Spec().Required {
			continue
		}
		required++
		if tracker.Satisfied() {
			satisfied++
		}
	}
	if required == 0 {
		return 1
	}
	return float64(satisfied) / float64(required)
}

func (m *Mission) transitionError(to Status) error {
	return apperrors.WithMetadata(
		apperrors.CodeMissionInvalidTransition,
		fmt.Sprintf("mission %s cannot transition from %s to %s", m.id, m.status, to),
		map[string]string{
			"MissionID":  m.id,
			"FromStatus": string(m.status),
			"ToStatus":   string(to),
		},
	)
}

// ConditionStatus is the per-condition view exposed in snapshots.
type ConditionStatus struct {
	Kind      condition.Kind
	Required  bool
	State     condition.HoldState
	Satisfied bool
}

// View is the read-only presentation of a mission's current state.
type View struct {
	ID              string
	Name            string
	Status          Status
	Score           int
	AttemptCount    int
	CompletionTime  time.Duration
	PrecisionScore  float64
	EfficiencyScore float64
	StyleScore      float64
	Progress        float64
	Conditions      []ConditionStatus
}

// Snapshot returns the mission's presentation view.
func (m *Mission) Snapshot() View {
	conditions := make([]ConditionStatus, len(m.trackers))
	for i, tracker := range m.trackers {
		spec := tracker.Spec()
		conditions[i] = ConditionStatus{
			Kind:      spec.Kind,
			Required:  spec.Required,
			State:     tracker.State(),
			Satisfied: tracker.Satisfied(),
		}
	}

	var completion time.Duration
	if m.status == StatusCompleted && !m.endTime.IsZero() {
		completion = m.endTime.Sub(m.startTime)
	}

	return View{
		ID:              m.id,
		Name:            m.name,
		Status:          m.status,
		Score:           m.score,
		AttemptCount:    m.attemptCount,
		CompletionTime:  completion,
		PrecisionScore:  m.precisionScore,
		EfficiencyScore: m.efficiencyScore,
		StyleScore:      m.styleScore,
		Progress:        m.Progress(),
		Conditions:      conditions,
	}
}
