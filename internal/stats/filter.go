package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/verte-zerg/sansu/internal/model"
)

// GradeAll disables the grade filter.
const GradeAll = "all"

const dateLayout = "2006-01-02"

// Filter narrows attempts by date range and grade. From is inclusive, Until
// is exclusive. Nil bounds are open.
type Filter struct {
	From  *time.Time
	Until *time.Time
	Grade string
}

// ParseFilter builds a Filter from YYYY-MM-DD dates in loc. The to date is
// inclusive through the end of that day. Empty strings leave a bound open.
func ParseFilter(from, to, grade string, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.Local
	}
	var f Filter
	if from = strings.TrimSpace(from); from != "" {
		day, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid from date %q: expected YYYY-MM-DD", from)
		}
		f.From = &day
	}
	if to = strings.TrimSpace(to); to != "" {
		day, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid to date %q: expected YYYY-MM-DD", to)
		}
		next := day.AddDate(0, 0, 1)
		f.Until = &next
	}
	f.Grade = strings.TrimSpace(grade)
	return f, nil
}

// AllGrades reports whether the filter accepts every grade.
func (f Filter) AllGrades() bool {
	return f.Grade == "" || strings.EqualFold(f.Grade, GradeAll)
}

// Match reports whether a single attempt passes the filter.
func (f Filter) Match(a model.AttemptRecord) bool {
	if f.From != nil && a.Timestamp.Before(*f.From) {
		return false
	}
	if f.Until != nil && !a.Timestamp.Before(*f.Until) {
		return false
	}
	if !f.AllGrades() && model.NormalizeGrade(a.Grade) != f.Grade {
		return false
	}
	return true
}

// FilterAttempts returns the attempts that pass f, keeping their order.
func FilterAttempts(attempts []model.AttemptRecord, f Filter) []model.AttemptRecord {
	return lo.Filter(attempts, func(a model.AttemptRecord, _ int) bool {
		return f.Match(a)
	})
}

// SortNewestFirst orders attempts by timestamp descending in place.
func SortNewestFirst(attempts []model.AttemptRecord) {
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].Timestamp.After(attempts[j].Timestamp)
	})
}

// Grades lists the distinct normalized grades present in attempts, sorted.
func Grades(attempts []model.AttemptRecord) []string {
	grades := lo.Uniq(lo.Map(attempts, func(a model.AttemptRecord, _ int) string {
		return model.NormalizeGrade(a.Grade)
	}))
	sort.Strings(grades)
	return grades
}
