package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

func TestParseFilterBounds(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	f, err := ParseFilter("2024-06-01", "2024-06-03", "5", loc)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if !f.From.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected from: %v", f.From)
	}
	if !f.Until.Equal(time.Date(2024, 6, 4, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected until: %v", f.Until)
	}
	if f.AllGrades() {
		t.Fatalf("grade filter should be active")
	}
}

func TestParseFilterRejectsBadDate(t *testing.T) {
	if _, err := ParseFilter("06/01/2024", "", "", time.UTC); err == nil {
		t.Fatalf("expected error for bad from date")
	}
	if _, err := ParseFilter("", "2024-13-01", "", time.UTC); err == nil {
		t.Fatalf("expected error for bad to date")
	}
}

func TestFilterDateRangeInclusive(t *testing.T) {
	loc := time.UTC
	f, err := ParseFilter("2024-06-01", "2024-06-01", "all", loc)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	attempts := []model.AttemptRecord{
		{Word: "before", Timestamp: time.Date(2024, 5, 31, 23, 59, 59, 0, loc)},
		{Word: "start", Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, loc)},
		{Word: "end", Timestamp: time.Date(2024, 6, 1, 23, 59, 59, 500, loc)},
		{Word: "after", Timestamp: time.Date(2024, 6, 2, 0, 0, 0, 0, loc)},
	}
	got := FilterAttempts(attempts, f)
	if len(got) != 2 || got[0].Word != "start" || got[1].Word != "end" {
		t.Fatalf("unexpected filtered attempts: %+v", got)
	}
}

func TestFilterGradeUnknown(t *testing.T) {
	attempts := []model.AttemptRecord{
		{Word: "a", Grade: "4"},
		{Word: "b"},
		{Word: "c", Grade: "5"},
	}
	got := FilterAttempts(attempts, Filter{Grade: model.UnknownGrade})
	if len(got) != 1 || got[0].Word != "b" {
		t.Fatalf("expected only missing grade, got %+v", got)
	}
	got = FilterAttempts(attempts, Filter{Grade: "5"})
	if len(got) != 1 || got[0].Word != "c" {
		t.Fatalf("expected grade 5, got %+v", got)
	}
	if got := FilterAttempts(attempts, Filter{Grade: "all"}); len(got) != 3 {
		t.Fatalf("expected all attempts, got %d", len(got))
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	attempts := []model.AttemptRecord{
		{Word: "old", Timestamp: base},
		{Word: "new", Timestamp: base.Add(time.Hour)},
		{Word: "mid", Timestamp: base.Add(time.Minute)},
	}
	SortNewestFirst(attempts)
	if attempts[0].Word != "new" || attempts[1].Word != "mid" || attempts[2].Word != "old" {
		t.Fatalf("unexpected order: %+v", attempts)
	}
}

func TestGrades(t *testing.T) {
	got := Grades([]model.AttemptRecord{{Grade: "5"}, {}, {Grade: "4"}, {Grade: "5"}})
	want := []string{"4", "5", "unknown"}
	if len(got) != len(want) {
		t.Fatalf("unexpected grades: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected grades: %v", got)
		}
	}
}
