// Package sqlite provides a SQLite-backed attempt store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/robotrial/engine/internal/platform/storage/sqlitemigrate"
	"github.com/robotrial/engine/internal/storage"
	"github.com/robotrial/engine/internal/storage/filter"
	"github.com/robotrial/engine/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists attempt records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite attempt store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// OpenInMemory opens an ephemeral store for tests and dry runs.
func OpenInMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendAttempt inserts one finished attempt.
func (s *Store) AppendAttempt(ctx context.Context, attempt storage.AttemptRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(attempt.ID)
	missionID := strings.TrimSpace(attempt.MissionID)
	if id == "" {
		return fmt.Errorf("attempt id is required")
	}
	if missionID == "" {
		return fmt.Errorf("mission id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO attempts (
		   id,
		   season,
		   mission_id,
		   mission_name,
		   status,
		   score,
		   attempt_number,
		   precision_score,
		   efficiency_score,
		   style_score,
		   started_at,
		   ended_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		attempt.Season,
		missionID,
		attempt.MissionName,
		attempt.Status,
		attempt.Score,
		attempt.AttemptNumber,
		attempt.PrecisionScore,
		attempt.EfficiencyScore,
		attempt.StyleScore,
		toMillis(attempt.StartedAt),
		toMillis(attempt.EndedAt),
	)
	if err != nil {
		if isAttemptUniqueViolation(err) {
			return fmt.Errorf("attempt %s already recorded", id)
		}
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// GetAttempt returns one attempt by id.
func (s *Store) GetAttempt(ctx context.Context, id string) (storage.AttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AttemptRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AttemptRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.AttemptRecord{}, fmt.Errorf("attempt id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, season, mission_id, mission_name, status,
		        score, attempt_number,
		        precision_score, efficiency_score, style_score,
		        started_at, ended_at
		   FROM attempts
		  WHERE id = ?`,
		id,
	)

	attempt, err := scanAttempt(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AttemptRecord{}, storage.ErrNotFound
		}
		return storage.AttemptRecord{}, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

// ListAttempts returns one page of attempts matching the query, in
// ascending id order so the id cursor in the page token stays stable.
func (s *Store) ListAttempts(ctx context.Context, query storage.ListQuery) (storage.AttemptPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.AttemptPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AttemptPage{}, fmt.Errorf("storage is not configured")
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	cond, err := filter.ParseAttemptFilter(query.Filter)
	if err != nil {
		return storage.AttemptPage{}, fmt.Errorf("list attempts: %w", err)
	}

	clauses := make([]string, 0, 2)
	params := make([]any, 0, len(cond.Params)+2)
	if cond.Clause != "" {
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		clauses = append(clauses, "id > ?")
		params = append(params, token)
	}

	sqlQuery := `SELECT id, season, mission_id, mission_name, status,
	        score, attempt_number,
	        precision_score, efficiency_score, style_score,
	        started_at, ended_at
	   FROM attempts`
	if len(clauses) > 0 {
		sqlQuery += " WHERE " + strings.Join(clauses, " AND ")
	}
	sqlQuery += " ORDER BY id ASC LIMIT ?"
	params = append(params, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, sqlQuery, params...)
	if err != nil {
		return storage.AttemptPage{}, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	page := storage.AttemptPage{
		Attempts: make([]storage.AttemptRecord, 0, pageSize),
	}
	for rows.Next() {
		attempt, err := scanAttempt(rows.Scan)
		if err != nil {
			return storage.AttemptPage{}, fmt.Errorf("list attempts: %w", err)
		}
		page.Attempts = append(page.Attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return storage.AttemptPage{}, fmt.Errorf("list attempts: %w", err)
	}
	if len(page.Attempts) > pageSize {
		page.NextPageToken = page.Attempts[pageSize-1].ID
		page.Attempts = page.Attempts[:pageSize]
	}

	return page, nil
}

// AppendSummary inserts one finished session aggregate.
func (s *Store) AppendSummary(ctx context.Context, summary storage.SummaryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(summary.ID)
	if id == "" {
		return fmt.Errorf("summary id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO session_summaries (
		   id,
		   season,
		   total_score,
		   completed_count,
		   total_count,
		   completion_rate,
		   started_at,
		   ended_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		summary.Season,
		summary.TotalScore,
		summary.CompletedCount,
		summary.TotalCount,
		summary.CompletionRate,
		toMillis(summary.StartedAt),
		toMillis(summary.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("append summary: %w", err)
	}
	return nil
}

func scanAttempt(scan func(dest ...any) error) (storage.AttemptRecord, error) {
	var attempt storage.AttemptRecord
	var startedAt int64
	var endedAt int64
	err := scan(
		&attempt.ID,
		&attempt.Season,
		&attempt.MissionID,
		&attempt.MissionName,
		&attempt.Status,
		&attempt.Score,
		&attempt.AttemptNumber,
		&attempt.PrecisionScore,
		&attempt.EfficiencyScore,
		&attempt.StyleScore,
		&startedAt,
		&endedAt,
	)
	if err != nil {
		return storage.AttemptRecord{}, err
	}
	attempt.StartedAt = fromMillis(startedAt)
	attempt.EndedAt = fromMillis(endedAt)
	return attempt, nil
}

func isAttemptUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "attempts.id")
}

var _ storage.AttemptStore = (*Store)(nil)
