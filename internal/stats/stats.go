// Package stats aggregates logged attempts for the class dashboard.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

const sparkChars = " .:-=+*#%@"

// WrongPatternDisplayLimit caps wrong-pattern rows shown on screen. Exports
// always contain every row.
const WrongPatternDisplayLimit = 50

// Rate returns correct/total, or 0 when total is 0.
func Rate(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// AccuracyStats groups attempts by word. Rows are ordered by rate ascending,
// then total descending, then first appearance. Attempts without a word are
// skipped.
func AccuracyStats(attempts []model.AttemptRecord) []model.VocabStat {
	index := map[string]int{}
	var rows []model.VocabStat
	for _, a := range attempts {
		if a.Word == "" {
			continue
		}
		i, ok := index[a.Word]
		if !ok {
			i = len(rows)
			index[a.Word] = i
			rows = append(rows, model.VocabStat{Word: a.Word})
		}
		rows[i].Total++
		if a.Correct {
			rows[i].Correct++
		}
	}
	for i := range rows {
		rows[i].Rate = Rate(rows[i].Correct, rows[i].Total)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rate != rows[j].Rate {
			return rows[i].Rate < rows[j].Rate
		}
		return rows[i].Total > rows[j].Total
	})
	return rows
}

// WrongPatterns counts (word, selected) pairs over incorrect attempts.
// Rows are ordered by count descending; ties keep words in first-seen order
// and, within a word, selections in first-seen order.
func WrongPatterns(attempts []model.AttemptRecord) []model.WrongPattern {
	type bucket struct {
		word   string
		order  []string
		counts map[string]int
	}
	byWord := map[string]*bucket{}
	var words []*bucket
	for _, a := range attempts {
		if a.Correct || a.Word == "" || a.Selected == "" {
			continue
		}
		b, ok := byWord[a.Word]
		if !ok {
			b = &bucket{word: a.Word, counts: map[string]int{}}
			byWord[a.Word] = b
			words = append(words, b)
		}
		if _, seen := b.counts[a.Selected]; !seen {
			b.order = append(b.order, a.Selected)
		}
		b.counts[a.Selected]++
	}

	var rows []model.WrongPattern
	for _, b := range words {
		for _, sel := range b.order {
			rows = append(rows, model.WrongPattern{Word: b.word, Selected: sel, Count: b.counts[sel]})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// TopWrongPatterns returns at most limit rows.
func TopWrongPatterns(rows []model.WrongPattern, limit int) []model.WrongPattern {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}

// DayAccuracy is the accuracy of all attempts on one local calendar day.
type DayAccuracy struct {
	Day     string
	Total   int
	Correct int
	Rate    float64
}

// DailyAccuracy buckets attempts by local date, oldest day first. Attempts
// without a timestamp are skipped.
func DailyAccuracy(attempts []model.AttemptRecord, loc *time.Location) []DayAccuracy {
	if loc == nil {
		loc = time.Local
	}
	byDay := map[string]*DayAccuracy{}
	for _, a := range attempts {
		if a.Timestamp.IsZero() {
			continue
		}
		day := a.Timestamp.In(loc).Format(dateLayout)
		d, ok := byDay[day]
		if !ok {
			d = &DayAccuracy{Day: day}
			byDay[day] = d
		}
		d.Total++
		if a.Correct {
			d.Correct++
		}
	}
	out := make([]DayAccuracy, 0, len(byDay))
	for _, d := range byDay {
		d.Rate = Rate(d.Correct, d.Total)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// DailyRates extracts the per-day rates for plotting.
func DailyRates(days []DayAccuracy) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = d.Rate
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints counts and overall accuracy for a report.
func RenderSummary(w io.Writer, r Report) error {
	if _, err := fmt.Fprintf(w, "Class: %s\n", r.ClassCode); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Attempts: %d loaded, %d after filter\n", len(r.Loaded), len(r.Filtered)); err != nil {
		return err
	}
	if len(r.Filtered) == 0 {
		_, err := fmt.Fprintln(w, "No attempts match the filter.")
		return err
	}
	correct := 0
	for _, a := range r.Filtered {
		if a.Correct {
			correct++
		}
	}
	if _, err := fmt.Fprintf(w, "Accuracy: %.2f%% (%d/%d)\n", Rate(correct, len(r.Filtered))*100, correct, len(r.Filtered)); err != nil {
		return err
	}
	if days := r.Daily(); len(days) > 1 {
		if _, err := fmt.Fprintf(w, "Daily: [%s] %s .. %s\n", Sparkline(DailyRates(days)), days[0].Day, days[len(days)-1].Day); err != nil {
			return err
		}
	}
	return nil
}

// AccuracyRows formats accuracy stats as table cells.
func AccuracyRows(rows []model.VocabStat) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Word,
			fmt.Sprintf("%d", r.Total),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%.1f%%", r.Rate*100),
		})
	}
	return out
}

// WrongPatternRows formats wrong patterns as table cells.
func WrongPatternRows(rows []model.WrongPattern) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Word, r.Selected, fmt.Sprintf("%d", r.Count)})
	}
	return out
}

// RenderAccuracyTable prints per-word accuracy, weakest first.
func RenderAccuracyTable(w io.Writer, rows []model.VocabStat) error {
	if _, err := fmt.Fprintln(w, "Accuracy by Word"); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data.")
		return err
	}
	headers := []string{"Word", "Total", "Correct", "Rate"}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	return writeLines(w, formatTable(headers, AccuracyRows(rows), rightAlign))
}

// RenderWrongPatterns prints the most frequent wrong answers.
func RenderWrongPatterns(w io.Writer, rows []model.WrongPattern) error {
	if _, err := fmt.Fprintln(w, "Wrong Answer Patterns"); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data.")
		return err
	}
	shown := TopWrongPatterns(rows, WrongPatternDisplayLimit)
	headers := []string{"Word", "Selected", "Count"}
	if err := writeLines(w, formatTable(headers, WrongPatternRows(shown), map[int]bool{2: true})); err != nil {
		return err
	}
	if len(shown) < len(rows) {
		if _, err := fmt.Fprintf(w, "Showing top %d of %d. CSV export contains all rows.\n", len(shown), len(rows)); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
