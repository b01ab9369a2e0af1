// Package attemptlog persists quiz answers without blocking the study loop.
package attemptlog

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/sansu/internal/model"
)

// DefaultTimeout bounds a single append.
const DefaultTimeout = 10 * time.Second

// Writer appends one attempt record.
type Writer interface {
	AppendAttempt(ctx context.Context, rec model.AttemptRecord) error
}

// WriteError reports a failed append.
type WriteError struct {
	Word string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("save attempt %q: %v", e.Word, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SavedMsg is delivered to the UI loop when an append finishes.
type SavedMsg struct {
	Seq uint64
	Err error
}

// Recorder writes attempts through a Writer.
type Recorder struct {
	w       Writer
	log     *zap.Logger
	timeout time.Duration
}

// NewRecorder creates a Recorder. A nil logger disables logging.
func NewRecorder(w Writer, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{w: w, log: log, timeout: DefaultTimeout}
}

// WithTimeout returns a copy of r using the given append timeout.
func (r *Recorder) WithTimeout(d time.Duration) *Recorder {
	cp := *r
	if d > 0 {
		cp.timeout = d
	}
	return &cp
}

// Save appends rec and reports the outcome for write seq. Failures are
// logged and returned in the message; nothing is retried.
func (r *Recorder) Save(ctx context.Context, seq uint64, rec model.AttemptRecord) SavedMsg {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.w.AppendAttempt(ctx, rec); err != nil {
		werr := &WriteError{Word: rec.Word, Err: err}
		r.log.Warn("attempt write failed",
			zap.Uint64("seq", seq),
			zap.String("class", rec.ClassCode),
			zap.String("student", rec.StudentNo),
			zap.String("word", rec.Word),
			zap.Error(err),
		)
		return SavedMsg{Seq: seq, Err: werr}
	}
	r.log.Debug("attempt saved",
		zap.Uint64("seq", seq),
		zap.String("word", rec.Word),
		zap.Bool("correct", rec.Correct),
	)
	return SavedMsg{Seq: seq}
}

// Record returns a command that runs Save off the UI loop.
func (r *Recorder) Record(seq uint64, rec model.AttemptRecord) tea.Cmd {
	return func() tea.Msg {
		return r.Save(context.Background(), seq, rec)
	}
}
