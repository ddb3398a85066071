// Package telemetry reports engine lifecycle events to pluggable observers.
//
// The engine never logs through ambient globals; every component takes an
// Observer (defaulting to Nop) so embedders decide where events go.
package telemetry

import (
	"log"
	"time"
)

// EventName identifies an engine lifecycle event.
type EventName string

const (
	// EventMissionStarted fires when a mission attempt begins.
	EventMissionStarted EventName = "mission.started"
	// EventMissionCompleted fires when every required condition is satisfied.
	EventMissionCompleted EventName = "mission.completed"
	// EventMissionFailed fires when a mission is failed explicitly or
	// force-failed by the manager.
	EventMissionFailed EventName = "mission.failed"
	// EventMissionTimedOut fires when a mission exceeds its time limit.
	EventMissionTimedOut EventName = "mission.timed_out"
	// EventConditionSatisfied fires the first tick a condition reaches its
	// satisfied state within an attempt.
	EventConditionSatisfied EventName = "condition.satisfied"
	// EventEvaluationError fires when a condition evaluator fails; the
	// condition is treated as unmet for the tick and the mission continues.
	EventEvaluationError EventName = "condition.evaluation_error"
)

// Event is one engine lifecycle occurrence.
//
// Only the fields relevant to the event name are populated.
type Event struct {
	Name        EventName
	At          time.Time
	MissionID   string
	MissionName string

	ConditionKind string

	AttemptNumber   int
	Score           int
	PrecisionScore  float64
	EfficiencyScore float64
	StyleScore      float64
	StartedAt       time.Time
	EndedAt         time.Time

	Err error
}

// Observer receives engine lifecycle events.
//
// Implementations must be cheap and must not call back into the engine;
// they run inline on the tick path.
type Observer interface {
	Observe(evt Event)
}

// Nop is the default observer that discards all events.
type Nop struct{}

// Observe implements Observer.
func (Nop) Observe(Event) {}

// LogObserver writes events to a standard library logger.
type LogObserver struct {
	logger *log.Logger
}

// NewLogObserver creates an observer backed by the given logger.
func NewLogObserver(logger *log.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// Observe implements Observer.
func (o *LogObserver) Observe(evt Event) {
	if o == nil || o.logger == nil {
		return
	}
	switch evt.Name {
	case EventConditionSatisfied:
		o.logger.Printf("%s mission=%s kind=%s", evt.Name, evt.MissionID, evt.ConditionKind)
	case EventEvaluationError:
		o.logger.Printf("%s mission=%s kind=%s err=%v", evt.Name, evt.MissionID, evt.ConditionKind, evt.Err)
	case EventMissionCompleted:
		o.logger.Printf("%s mission=%s score=%d attempt=%d", evt.Name, evt.MissionID, evt.Score, evt.AttemptNumber)
	default:
		o.logger.Printf("%s mission=%s attempt=%d", evt.Name, evt.MissionID, evt.AttemptNumber)
	}
}

// Multi fans one event out to several observers in order.
func Multi(observers ...Observer) Observer {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return multiObserver(filtered)
}

type multiObserver []Observer

// Observe implements Observer.
func (m multiObserver) Observe(evt Event) {
	for _, obs := range m {
		obs.Observe(evt)
	}
}
