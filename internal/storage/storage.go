// Package storage defines the attempt history contracts.
//
// The engine itself performs no I/O; embedders that want a run log persist
// finished attempts through an AttemptStore. The sqlite subpackage is the
// bundled implementation.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("attempt not found")

// AttemptRecord is one finished mission attempt.
type AttemptRecord struct {
	ID              string
	Season          string
	MissionID       string
	MissionName     string
	Status          string
	Score           int
	AttemptNumber   int
	PrecisionScore  float64
	EfficiencyScore float64
	StyleScore      float64
	StartedAt       time.Time
	EndedAt         time.Time
}

// SummaryRecord is one finished session aggregate.
type SummaryRecord struct {
	ID             string
	Season         string
	TotalScore     int
	CompletedCount int
	TotalCount     int
	CompletionRate float64
	StartedAt      time.Time
	EndedAt        time.Time
}

// ListQuery selects a page of attempts.
type ListQuery struct {
	// Filter is an AIP-160 expression over mission_id, season, status,
	// score, attempt_number, started_at. Empty matches everything.
	Filter    string
	PageSize  int
	PageToken string
}

// AttemptPage is one page of attempt records.
type AttemptPage struct {
	Attempts      []AttemptRecord
	NextPageToken string
}

// AttemptStore persists finished attempts and session summaries.
type AttemptStore interface {
	AppendAttempt(ctx context.Context, attempt AttemptRecord) error
	GetAttempt(ctx context.Context, id string) (AttemptRecord, error)
	ListAttempts(ctx context.Context, query ListQuery) (AttemptPage, error)
	AppendSummary(ctx context.Context, summary SummaryRecord) error
	Close() error
}
