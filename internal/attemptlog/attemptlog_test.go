package attemptlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

type fakeWriter struct {
	records []model.AttemptRecord
	err     error
	block   bool
}

func (f *fakeWriter) AppendAttempt(ctx context.Context, rec model.AttemptRecord) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func TestSaveSuccess(t *testing.T) {
	w := &fakeWriter{}
	r := NewRecorder(w, nil)
	msg := r.Save(context.Background(), 3, model.AttemptRecord{Word: "割合", Correct: true})
	if msg.Seq != 3 || msg.Err != nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(w.records) != 1 || w.records[0].Word != "割合" {
		t.Fatalf("unexpected records: %+v", w.records)
	}
}

func TestSaveFailureWrapsError(t *testing.T) {
	cause := errors.New("permission denied")
	r := NewRecorder(&fakeWriter{err: cause}, nil)
	msg := r.Save(context.Background(), 1, model.AttemptRecord{Word: "比"})
	var werr *WriteError
	if !errors.As(msg.Err, &werr) {
		t.Fatalf("expected WriteError, got %v", msg.Err)
	}
	if werr.Word != "比" || !errors.Is(msg.Err, cause) {
		t.Fatalf("unexpected error: %v", werr)
	}
}

func TestSaveTimesOut(t *testing.T) {
	r := NewRecorder(&fakeWriter{block: true}, nil).WithTimeout(10 * time.Millisecond)
	msg := r.Save(context.Background(), 2, model.AttemptRecord{Word: "倍"})
	if !errors.Is(msg.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", msg.Err)
	}
}

func TestRecordCommand(t *testing.T) {
	w := &fakeWriter{}
	cmd := NewRecorder(w, nil).Record(7, model.AttemptRecord{Word: "平均"})
	msg, ok := cmd().(SavedMsg)
	if !ok {
		t.Fatalf("expected SavedMsg")
	}
	if msg.Seq != 7 || msg.Err != nil || len(w.records) != 1 {
		t.Fatalf("unexpected result: %+v records=%d", msg, len(w.records))
	}
}
