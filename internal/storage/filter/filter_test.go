package filter

import (
	"testing"
	"time"
)

func TestParseAttemptFilterEmpty(t *testing.T) {
	cond, err := ParseAttemptFilter("   ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "" || len(cond.Params) != 0 {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseAttemptFilterEquality(t *testing.T) {
	cond, err := ParseAttemptFilter(`mission_id = "coral-nursery"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "mission_id = ?" {
		t.Fatalf("unexpected clause %q", cond.Clause)
	}
	if len(cond.Params) != 1 || cond.Params[0] != "coral-nursery" {
		t.Fatalf("unexpected params %v", cond.Params)
	}
}

func TestParseAttemptFilterConjunction(t *testing.T) {
	cond, err := ParseAttemptFilter(`status = "completed" AND score >= 20`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "(status = ? AND score >= ?)" {
		t.Fatalf("unexpected clause %q", cond.Clause)
	}
	if len(cond.Params) != 2 {
		t.Fatalf("expected 2 params, got %v", cond.Params)
	}
	if cond.Params[0] != "completed" {
		t.Fatalf("unexpected first param %v", cond.Params[0])
	}
	if cond.Params[1] != int64(20) {
		t.Fatalf("unexpected second param %v", cond.Params[1])
	}
}

func TestParseAttemptFilterDisjunction(t *testing.T) {
	cond, err := ParseAttemptFilter(`status = "failed" OR status = "timed_out"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "(status = ? OR status = ?)" {
		t.Fatalf("unexpected clause %q", cond.Clause)
	}
}

func TestParseAttemptFilterTimestamp(t *testing.T) {
	cond, err := ParseAttemptFilter(`started_at >= timestamp("2026-02-01T09:00:00Z")`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "started_at >= ?" {
		t.Fatalf("unexpected clause %q", cond.Clause)
	}
	want := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC).UnixMilli()
	if cond.Params[0] != want {
		t.Fatalf("expected millis %d, got %v", want, cond.Params[0])
	}
}

func TestParseAttemptFilterRejectsUnknownField(t *testing.T) {
	if _, err := ParseAttemptFilter(`pilot = "kai"`); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestParseAttemptFilterRejectsBadSyntax(t *testing.T) {
	if _, err := ParseAttemptFilter(`mission_id = `); err == nil {
		t.Fatal("expected parse error")
	}
}
