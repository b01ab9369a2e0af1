package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

// ExportKind names one of the CSV exports.
type ExportKind string

const (
	ExportAttempts      ExportKind = "attempts"
	ExportAccuracy      ExportKind = "vocab_stats"
	ExportWrongPatterns ExportKind = "wrong_patterns"
)

const csvTimestampLayout = "2006-01-02T15:04:05.000Z"

var (
	attemptsHeader = []string{"timestamp", "classCode", "studentNo", "grade", "sessionId", "word", "correct", "selected", "choices"}
	accuracyHeader = []string{"word", "total", "correct", "rate"}
	wrongHeader    = []string{"word", "selected", "count"}
)

// ExportFileName returns <kind>_<class>_<YYYY-MM-DD>.csv for the local date
// of now.
func ExportFileName(kind ExportKind, classCode string, now time.Time) string {
	class := strings.NewReplacer("/", "_", "\\", "_").Replace(classCode)
	return fmt.Sprintf("%s_%s_%s.csv", kind, class, now.Format(dateLayout))
}

// WriteAttemptsCSV writes one row per attempt. Missing grades are written as
// "unknown" and choices are joined with "|".
func WriteAttemptsCSV(w io.Writer, attempts []model.AttemptRecord) error {
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		ts := ""
		if !a.Timestamp.IsZero() {
			ts = a.Timestamp.UTC().Format(csvTimestampLayout)
		}
		rows = append(rows, []string{
			ts,
			a.ClassCode,
			a.StudentNo,
			model.NormalizeGrade(a.Grade),
			a.SessionID,
			a.Word,
			strconv.FormatBool(a.Correct),
			a.Selected,
			strings.Join(a.Choices, "|"),
		})
	}
	return writeCSV(w, attemptsHeader, rows)
}

// WriteAccuracyCSV writes per-word accuracy with the rate to four decimals.
func WriteAccuracyCSV(w io.Writer, stats []model.VocabStat) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Word,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Correct),
			strconv.FormatFloat(s.Rate, 'f', 4, 64),
		})
	}
	return writeCSV(w, accuracyHeader, rows)
}

// WriteWrongPatternsCSV writes every wrong pattern, not only the displayed ones.
func WriteWrongPatternsCSV(w io.Writer, patterns []model.WrongPattern) error {
	rows := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		rows = append(rows, []string{p.Word, p.Selected, strconv.Itoa(p.Count)})
	}
	return writeCSV(w, wrongHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	var b strings.Builder
	writeRecord(&b, header)
	for _, row := range rows {
		writeRecord(&b, row)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRecord(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(f))
	}
	b.WriteByte('\n')
}

// escapeField quotes a field only when it holds a comma, a quote or a newline.
func escapeField(f string) string {
	if !strings.ContainsAny(f, ",\"\n") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// ExportAll writes the three CSV files for r into dir and returns their
// paths. Empty tables are skipped.
func ExportAll(dir string, r Report, now time.Time) ([]string, error) {
	exports := []struct {
		kind  ExportKind
		empty bool
		write func(io.Writer) error
	}{
		{ExportAttempts, len(r.Filtered) == 0, func(w io.Writer) error { return WriteAttemptsCSV(w, r.Filtered) }},
		{ExportAccuracy, len(r.Accuracy) == 0, func(w io.Writer) error { return WriteAccuracyCSV(w, r.Accuracy) }},
		{ExportWrongPatterns, len(r.Wrong) == 0, func(w io.Writer) error { return WriteWrongPatternsCSV(w, r.Wrong) }},
	}
	var paths []string
	for _, e := range exports {
		if e.empty {
			continue
		}
		path, err := ExportFile(dir, e.kind, r.ClassCode, now, e.write)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ExportFile creates the named export in dir and fills it with write.
func ExportFile(dir string, kind ExportKind, classCode string, now time.Time, write func(io.Writer) error) (path string, err error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path = filepath.Join(dir, ExportFileName(kind, classCode, now))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Export writes a single kind of export for r into dir.
func Export(dir string, kind ExportKind, r Report, now time.Time) (string, error) {
	switch kind {
	case ExportAttempts:
		return ExportFile(dir, kind, r.ClassCode, now, func(w io.Writer) error { return WriteAttemptsCSV(w, r.Filtered) })
	case ExportAccuracy:
		return ExportFile(dir, kind, r.ClassCode, now, func(w io.Writer) error { return WriteAccuracyCSV(w, r.Accuracy) })
	case ExportWrongPatterns:
		return ExportFile(dir, kind, r.ClassCode, now, func(w io.Writer) error { return WriteWrongPatternsCSV(w, r.Wrong) })
	}
	return "", fmt.Errorf("unknown export %q", kind)
}
