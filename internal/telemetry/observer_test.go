package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/robotrial/engine/internal/storage"
)

type captureObserver struct {
	events []Event
}

func (o *captureObserver) Observe(evt Event) {
	o.events = append(o.events, evt)
}

func TestLogObserverFormatsByEvent(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogObserver(log.New(&buf, "", 0))

	obs.Observe(Event{Name: EventMissionStarted, MissionID: "m1", AttemptNumber: 1})
	obs.Observe(Event{Name: EventConditionSatisfied, MissionID: "m1", ConditionKind: "position_in_area"})
	obs.Observe(Event{Name: EventEvaluationError, MissionID: "m1", ConditionKind: "custom", Err: errors.New("boom")})
	obs.Observe(Event{Name: EventMissionCompleted, MissionID: "m1", Score: 20, AttemptNumber: 1})

	out := buf.String()
	for _, want := range []string{
		"mission.started mission=m1 attempt=1",
		"condition.satisfied mission=m1 kind=position_in_area",
		"condition.evaluation_error mission=m1 kind=custom err=boom",
		"mission.completed mission=m1 score=20 attempt=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %q, got:\n%s", want, out)
		}
	}
}

func TestMultiFansOutInOrder(t *testing.T) {
	first := &captureObserver{}
	second := &captureObserver{}
	multi := Multi(first, nil, second)

	multi.Observe(Event{Name: EventMissionStarted, MissionID: "m1"})

	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected both observers to receive the event, got %d and %d", len(first.events), len(second.events))
	}
}

type fakeStore struct {
	records []storage.AttemptRecord
	err     error
}

func (s *fakeStore) AppendAttempt(_ context.Context, attempt storage.AttemptRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, attempt)
	return nil
}

func (s *fakeStore) GetAttempt(context.Context, string) (storage.AttemptRecord, error) {
	return storage.AttemptRecord{}, storage.ErrNotFound
}

func (s *fakeStore) ListAttempts(context.Context, storage.ListQuery) (storage.AttemptPage, error) {
	return storage.AttemptPage{}, nil
}

func (s *fakeStore) AppendSummary(context.Context, storage.SummaryRecord) error {
	return nil
}

func (s *fakeStore) Close() error {
	return nil
}

func TestRecorderPersistsTerminalEvents(t *testing.T) {
	store := &fakeStore{}
	recorder := NewRecorder(store, "2024-SUBMERGED", nil)

	started := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	recorder.Observe(Event{Name: EventMissionStarted, MissionID: "m1"})
	recorder.Observe(Event{Name: EventConditionSatisfied, MissionID: "m1"})
	recorder.Observe(Event{
		Name:            EventMissionCompleted,
		MissionID:       "m1",
		MissionName:     "Coral Nursery",
		AttemptNumber:   1,
		Score:           20,
		PrecisionScore:  1,
		EfficiencyScore: 0.9,
		StyleScore:      1,
		StartedAt:       started,
		EndedAt:         started.Add(3 * time.Second),
	})
	recorder.Observe(Event{Name: EventMissionTimedOut, MissionID: "m2", AttemptNumber: 2})

	if len(store.records) != 2 {
		t.Fatalf("expected 2 persisted records, got %d", len(store.records))
	}

	first := store.records[0]
	if first.ID == "" {
		t.Fatal("expected a generated attempt id")
	}
	if first.Season != "2024-SUBMERGED" || first.Status != "completed" {
		t.Fatalf("unexpected record %+v", first)
	}
	if first.Score != 20 || first.AttemptNumber != 1 {
		t.Fatalf("unexpected record %+v", first)
	}
	if !first.StartedAt.Equal(started) || !first.EndedAt.Equal(started.Add(3*time.Second)) {
		t.Fatalf("unexpected timestamps %+v", first)
	}

	if store.records[1].Status != "timed_out" {
		t.Fatalf("expected timed_out record, got %+v", store.records[1])
	}
}

func TestRecorderLogsStoreFailures(t *testing.T) {
	var buf bytes.Buffer
	store := &fakeStore{err: errors.New("disk full")}
	recorder := NewRecorder(store, "s", log.New(&buf, "", 0))

	recorder.Observe(Event{Name: EventMissionFailed, MissionID: "m1"})

	if !strings.Contains(buf.String(), "disk full") {
		t.Fatalf("expected failure logged, got %q", buf.String())
	}
}
