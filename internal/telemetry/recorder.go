package telemetry

import (
	"context"
	"log"

	"github.com/robotrial/engine/internal/platform/id"
	"github.com/robotrial/engine/internal/storage"
)

// Recorder persists finished attempts to an attempt store.
//
// Only terminal mission events produce records; per-tick events pass
// through untouched. Persistence failures are logged and swallowed so a
// broken store can never stall the tick path.
type Recorder struct {
	store  storage.AttemptStore
	season string
	logger *log.Logger
}

// NewRecorder creates a recorder writing to the given store. The season
// labels every record; the logger receives persistence failures and may
// be nil.
func NewRecorder(store storage.AttemptStore, season string, logger *log.Logger) *Recorder {
	return &Recorder{store: store, season: season, logger: logger}
}

// Observe implements Observer.
func (r *Recorder) Observe(evt Event) {
	if r == nil || r.store == nil {
		return
	}

	var status string
	switch evt.Name {
	case EventMissionCompleted:
		status = "completed"
	case EventMissionFailed:
		status = "failed"
	case EventMissionTimedOut:
		status = "timed_out"
	default:
		return
	}

	attemptID, err := id.NewID()
	if err != nil {
		r.logf("telemetry: attempt id for mission %s: %v", evt.MissionID, err)
		return
	}

	record := storage.AttemptRecord{
		ID:              attemptID,
		Season:          r.season,
		MissionID:       evt.MissionID,
		MissionName:     evt.MissionName,
		Status:          status,
		Score:           evt.Score,
		AttemptNumber:   evt.AttemptNumber,
		PrecisionScore:  evt.PrecisionScore,
		EfficiencyScore: evt.EfficiencyScore,
		StyleScore:      evt.StyleScore,
		StartedAt:       evt.StartedAt,
		EndedAt:         evt.EndedAt,
	}
	if err := r.store.AppendAttempt(context.Background(), record); err != nil {
		r.logf("telemetry: persist attempt for mission %s: %v", evt.MissionID, err)
	}
}

func (r *Recorder) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
