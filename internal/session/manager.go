// Package session orchestrates a catalog of missions across one scoring
// session.
//
// The manager enforces prerequisite ordering, tracks the single active
// mission, routes tick snapshots to it, and aggregates completed scores
// into a session total. It owns the catalog and the aggregate only; each
// mission owns its own runtime state.
package session

import (
	"fmt"
	"time"

	"github.com/robotrial/engine/internal/mission"
	apperrors "github.com/robotrial/engine/internal/platform/errors"
	"github.com/robotrial/engine/internal/snapshot"
)

// Option configures a manager at construction time.
type Option func(*Manager)

// WithClock injects the time source. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// Manager owns the mission catalog and session aggregate. Not safe for
// concurrent use; callers serialize all access.
type Manager struct {
	catalog   map[string]*mission.Mission
	order     []string
	completed map[string]bool
	activeID  string

	totalScore   int
	sessionStart time.Time

	clock func() time.Time
}

// NewManager creates an empty manager and marks the session start.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		catalog:   make(map[string]*mission.Mission),
		completed: make(map[string]bool),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sessionStart = m.clock()
	return m
}

// Register adds one mission to the catalog.
//
// Duplicate ids are rejected, and every prerequisite must already be
// registered. Use RegisterPack for a batch whose missions reference each
// other.
func (m *Manager) Register(ms *mission.Mission) error {
	return m.RegisterPack([]*mission.Mission{ms})
}

// RegisterPack adds a batch of missions atomically.
//
// Prerequisites may reference other missions in the batch or already
// registered ones. The whole batch is rejected on a duplicate id, an
// unresolvable prerequisite, or a prerequisite cycle; a broken pack never
// partially lands in the catalog.
func (m *Manager) RegisterPack(missions []*mission.Mission) error {
	incoming := make(map[string]*mission.Mission, len(missions))
	for _, ms := range missions {
		id := ms.ID()
		if _, exists := m.catalog[id]; exists {
			return duplicateIDError(id)
		}
		if _, exists := incoming[id]; exists {
			return duplicateIDError(id)
		}
		incoming[id] = ms
	}

	for _, ms := range missions {
		for _, prereq := range ms.Prerequisites() {
			_, inCatalog := m.catalog[prereq]
			_, inBatch := incoming[prereq]
			if !inCatalog && !inBatch {
				return apperrors.WithMetadata(
					apperrors.CodePrerequisiteNotRegistered,
					fmt.Sprintf("mission %s requires unregistered mission %s", ms.ID(), prereq),
					map[string]string{"MissionID": ms.ID(), "PrerequisiteID": prereq},
				)
			}
		}
	}

	if err := m.detectCycles(incoming); err != nil {
		return err
	}

	for _, ms := range missions {
		m.catalog[ms.ID()] = ms
		m.order = append(m.order, ms.ID())
	}
	return nil
}

func duplicateIDError(id string) error {
	return apperrors.WithMetadata(
		apperrors.CodeMissionDuplicateID,
		fmt.Sprintf("mission %s is already registered", id),
		map[string]string{"MissionID": id},
	)
}

// detectCycles runs a depth-first search over the union of the catalog and
// the incoming batch. Cycles are an authoring-time defect; catching them
// here keeps runtime evaluation loop-free.
func (m *Manager) detectCycles(incoming map[string]*mission.Mission) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	colors := make(map[string]int)

	lookup := func(id string) (*mission.Mission, bool) {
		if ms, ok := incoming[id]; ok {
			return ms, true
		}
		ms, ok := m.catalog[id]
		return ms, ok
	}

	var visit func(id string) error
	visit = func(id string) error {
		switch colors[id] {
		case done:
			return nil
		case visiting:
			return apperrors.WithMetadata(
				apperrors.CodePrerequisiteCycle,
				fmt.Sprintf("mission %s is part of a prerequisite cycle", id),
				map[string]string{"MissionID": id},
			)
		}
		colors[id] = visiting

		ms, ok := lookup(id)
		if ok {
			for _, prereq := range ms.Prerequisites() {
				if err := visit(prereq); err != nil {
					return err
				}
			}
		}
		colors[id] = done
		return nil
	}

	for id := range incoming {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// Mission returns the registered mission with the given id.
func (m *Manager) Mission(id string) (*mission.Mission, error) {
	ms, ok := m.catalog[id]
	if !ok {
		return nil, apperrors.WithMetadata(
			apperrors.CodeNotFound,
			fmt.Sprintf("mission %s is not registered", id),
			map[string]string{"MissionID": id},
		)
	}
	return ms, nil
}

// Missions returns all registered missions in registration order.
func (m *Manager) Missions() []*mission.Mission {
	missions := make([]*mission.Mission, 0, len(m.order))
	for _, id := range m.order {
		missions = append(missions, m.catalog[id])
	}
	return missions
}

// AvailableMissions returns the not-started missions whose prerequisites
// are all completed, in registration order.
func (m *Manager) AvailableMissions() []*mission.Mission {
	available := make([]*mission.Mission, 0, len(m.order))
	for _, id := range m.order {
		ms := m.catalog[id]
		if ms.Status() != mission.StatusNotStarted {
			continue
		}
		if !m.prerequisitesMet(ms) {
			continue
		}
		available = append(available, ms)
	}
	return available
}

func (m *Manager) prerequisitesMet(ms *mission.Mission) bool {
	for _, prereq := range ms.Prerequisites() {
		if !m.completed[prereq] {
			return false
		}
	}
	return true
}

// StartMission activates the mission with the given id.
//
// Any currently active mission is force-failed first. A failed or
// timed-out mission is reset before starting, so retries keep their
// attempt numbering; a completed mission cannot be restarted.
func (m *Manager) StartMission(id string) error {
	ms, err := m.Mission(id)
	if err != nil {
		return err
	}

	if !m.prerequisitesMet(ms) {
		return apperrors.WithMetadata(
			apperrors.CodePrerequisiteUnmet,
			fmt.Sprintf("mission %s has unmet prerequisites", id),
			map[string]string{"MissionID": id},
		)
	}

	if m.activeID != "" && m.activeID != id {
		if active, ok := m.catalog[m.activeID]; ok && active.Status() == mission.StatusInProgress {
			if err := active.Fail(); err != nil {
				return err
			}
		}
		m.activeID = ""
	}

	switch ms.Status() {
	case mission.StatusFailed, mission.StatusTimedOut:
		ms.Reset()
	}

	if err := ms.Start(); err != nil {
		return err
	}
	m.activeID = id
	return nil
}

// Update routes one tick's snapshots to the active mission. A no-op with
// no active mission.
//
// When the active mission completes, its id joins the completed set, its
// score joins the session total, and the active slot clears. A failed or
// timed-out mission clears the slot without scoring.
func (m *Manager) Update(robot snapshot.RobotState, env snapshot.EnvironmentState) error {
	if m.activeID == "" {
		return nil
	}
	ms, ok := m.catalog[m.activeID]
	if !ok {
		m.activeID = ""
		return nil
	}

	if err := ms.Update(robot, env); err != nil {
		return err
	}

	switch ms.Status() {
	case mission.StatusCompleted:
		m.completed[ms.ID()] = true
		m.totalScore += ms.Score()
		m.activeID = ""
	case mission.StatusFailed, mission.StatusTimedOut:
		m.activeID = ""
	}
	return nil
}

// ReportStepCompleted records one completed sub-step on the active
// mission. Ignored with no active mission.
func (m *Manager) ReportStepCompleted() {
	if m.activeID == "" {
		return
	}
	if ms, ok := m.catalog[m.activeID]; ok {
		ms.ReportStepCompleted()
	}
}

// ActiveMission returns the currently active mission, if any.
func (m *Manager) ActiveMission() (*mission.Mission, bool) {
	if m.activeID == "" {
		return nil, false
	}
	ms, ok := m.catalog[m.activeID]
	return ms, ok
}

// TotalScore returns the sum of completed mission scores this session.
func (m *Manager) TotalScore() int {
	return m.totalScore
}

// Completed reports whether the mission with the given id has been
// completed this session.
func (m *Manager) Completed(id string) bool {
	return m.completed[id]
}

// Reset returns the session to a fresh start without touching the
// catalog. Every mission resets to not started, the completed set and
// total clear, and the session clock restarts. Attempt counts survive,
// matching per-mission reset semantics.
func (m *Manager) Reset() {
	for _, id := range m.order {
		m.catalog[id].Reset()
	}
	m.completed = make(map[string]bool)
	m.activeID = ""
	m.totalScore = 0
	m.sessionStart = m.clock()
}

// Summary is the aggregate session view for presentation collaborators.
type Summary struct {
	TotalScore      int
	CompletedCount  int
	TotalCount      int
	CompletionRate  float64
	ActiveMissionID string
	SessionElapsed  time.Duration
	Missions        []mission.View
}

// Summary returns the session aggregate. A pure read: consecutive calls
// with no intervening update return identical results except for elapsed
// time under a real clock.
func (m *Manager) Summary() Summary {
	views := make([]mission.View, 0, len(m.order))
	for _, id := range m.order {
		views = append(views, m.catalog[id].Snapshot())
	}

	rate := 0.0
	if len(m.order) > 0 {
		rate = float64(len(m.completed)) / float64(len(m.order))
	}

	return Summary{
		TotalScore:      m.totalScore,
		CompletedCount:  len(m.completed),
		TotalCount:      len(m.order),
		CompletionRate:  rate,
		ActiveMissionID: m.activeID,
		SessionElapsed:  m.clock().Sub(m.sessionStart),
		Missions:        views,
	}
}
