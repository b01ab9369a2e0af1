package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

// Querier reads attempts by a single field equality.
type Querier interface {
	QueryByField(ctx context.Context, field, value string) ([]model.AttemptRecord, error)
}

// ReadError reports a failed dashboard load.
type ReadError struct {
	ClassCode string
	Err       error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("load attempts for class %q: %v", e.ClassCode, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Report contains precomputed data for dashboard rendering.
type Report struct {
	ClassCode string
	Filter    Filter
	Loaded    []model.AttemptRecord
	Filtered  []model.AttemptRecord
	Accuracy  []model.VocabStat
	Wrong     []model.WrongPattern
}

// LoadAttempts fetches all attempts for a class in one query, newest first.
func LoadAttempts(ctx context.Context, q Querier, classCode string) ([]model.AttemptRecord, error) {
	attempts, err := q.QueryByField(ctx, "classCode", classCode)
	if err != nil {
		return nil, &ReadError{ClassCode: classCode, Err: err}
	}
	SortNewestFirst(attempts)
	return attempts, nil
}

// BuildReport filters loaded attempts and computes the aggregates.
func BuildReport(classCode string, attempts []model.AttemptRecord, f Filter) Report {
	filtered := FilterAttempts(attempts, f)
	return Report{
		ClassCode: classCode,
		Filter:    f,
		Loaded:    attempts,
		Filtered:  filtered,
		Accuracy:  AccuracyStats(filtered),
		Wrong:     WrongPatterns(filtered),
	}
}

// Daily returns the per-day accuracy of the filtered attempts.
func (r Report) Daily() []DayAccuracy {
	return DailyAccuracy(r.Filtered, time.Local)
}
