package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

type fakeQuerier struct {
	field, value string
	attempts     []model.AttemptRecord
	err          error
}

func (f *fakeQuerier) QueryByField(_ context.Context, field, value string) ([]model.AttemptRecord, error) {
	f.field, f.value = field, value
	return f.attempts, f.err
}

func TestLoadAttemptsSortsNewestFirst(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	q := &fakeQuerier{attempts: []model.AttemptRecord{
		{Word: "a", Timestamp: base},
		{Word: "b", Timestamp: base.Add(time.Hour)},
	}}
	got, err := LoadAttempts(context.Background(), q, "5-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if q.field != "classCode" || q.value != "5-1" {
		t.Fatalf("unexpected query %s=%s", q.field, q.value)
	}
	if got[0].Word != "b" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestLoadAttemptsWrapsReadError(t *testing.T) {
	cause := errors.New("connection refused")
	_, err := LoadAttempts(context.Background(), &fakeQuerier{err: cause}, "5-1")
	var rerr *ReadError
	if !errors.As(err, &rerr) || !errors.Is(err, cause) {
		t.Fatalf("expected ReadError wrapping cause, got %v", err)
	}
}

func TestBuildReport(t *testing.T) {
	attempts := []model.AttemptRecord{
		{Word: "割合", Grade: "5", Correct: true},
		{Word: "割合", Grade: "5", Selected: "x", Correct: false},
		{Word: "平均", Grade: "4", Selected: "y", Correct: false},
	}
	r := BuildReport("5-1", attempts, Filter{Grade: "5"})
	if len(r.Loaded) != 3 || len(r.Filtered) != 2 {
		t.Fatalf("unexpected counts: loaded=%d filtered=%d", len(r.Loaded), len(r.Filtered))
	}
	if len(r.Accuracy) != 1 || r.Accuracy[0].Rate != 0.5 {
		t.Fatalf("unexpected accuracy: %+v", r.Accuracy)
	}
	if len(r.Wrong) != 1 || r.Wrong[0].Selected != "x" {
		t.Fatalf("unexpected wrong patterns: %+v", r.Wrong)
	}
}
