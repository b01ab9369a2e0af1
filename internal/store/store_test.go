package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "sansu.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestAppendAndQueryByClass(t *testing.T) {
	st := openTestStore(t)
	fixed := time.Date(2024, 6, 1, 3, 4, 5, 0, time.UTC)
	st.now = func() time.Time { return fixed }
	ctx := context.Background()

	recs := []model.AttemptRecord{
		{ClassCode: "5-1", StudentNo: "1", Grade: "5", SessionID: "s1", Mode: "test", Word: "比", Selected: "a", Correct: false, Choices: []string{"a", "b", "c", "d"}},
		{ClassCode: "5-2", StudentNo: "2", Mode: "test", Word: "倍", Selected: "b", Correct: true, Choices: []string{"a", "b", "c", "d"}},
		{ClassCode: "5-1", StudentNo: "3", Mode: "test", Word: "平均", Selected: "c", Correct: true, Choices: []string{"a", "b", "c", "d"}, Timestamp: fixed.Add(time.Hour)},
	}
	for _, rec := range recs {
		if err := st.AppendAttempt(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := st.QueryByField(ctx, "classCode", "5-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
	first := got[0]
	if first.Word != "比" || first.Grade != "5" || first.SessionID != "s1" || first.Correct {
		t.Fatalf("unexpected first attempt: %+v", first)
	}
	if !first.Timestamp.Equal(fixed) {
		t.Fatalf("expected store timestamp %v, got %v", fixed, first.Timestamp)
	}
	if len(first.Choices) != 4 || first.Choices[3] != "d" {
		t.Fatalf("unexpected choices: %v", first.Choices)
	}
	second := got[1]
	if second.Grade != model.UnknownGrade {
		t.Fatalf("missing grade should read as unknown, got %q", second.Grade)
	}
	if !second.Timestamp.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("record timestamp should be kept, got %v", second.Timestamp)
	}
}

func TestQueryUnknownGradeMatchesMissing(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for _, grade := range []string{"", "4", "unknown"} {
		rec := model.AttemptRecord{ClassCode: "c", StudentNo: "1", Grade: grade, Mode: "test", Word: "w", Selected: "s"}
		if err := st.AppendAttempt(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := st.QueryByField(ctx, "grade", model.UnknownGrade)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 unknown-grade attempts, got %d", len(got))
	}
}

func TestQueryRejectsUnknownField(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.QueryByField(context.Background(), "correct", "true"); err == nil {
		t.Fatalf("expected error for unsupported field")
	}
	if QueryableField("selected") {
		t.Fatalf("selected should not be queryable")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.db")
	st, err := Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = st.Close()

	if _, err := Open("oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
	if _, err := Open("postgres", ""); err == nil {
		t.Fatalf("expected error for missing dsn")
	}
	if _, err := Open("remote", "not a url"); err == nil {
		t.Fatalf("expected error for invalid remote url")
	}
}
