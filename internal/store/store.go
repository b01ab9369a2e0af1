// Package store persists attempt records.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

// AttemptStore is the append-only attempt log shared by the study flow and
// the dashboard.
type AttemptStore interface {
	AppendAttempt(ctx context.Context, rec model.AttemptRecord) error
	QueryByField(ctx context.Context, field, value string) ([]model.AttemptRecord, error)
	Close() error
}

// fieldColumns maps queryable record fields to columns.
var fieldColumns = map[string]string{
	"classCode": "class_code",
	"studentNo": "student_no",
	"grade":     "grade",
	"sessionId": "session_id",
	"mode":      "mode",
	"word":      "word",
}

// QueryableField reports whether field can be passed to QueryByField.
func QueryableField(field string) bool {
	_, ok := fieldColumns[field]
	return ok
}

// SQLStore wraps database/sql access for attempts.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQLite opens or creates the SQLite database at path.
func OpenSQLite(path string) (*SQLStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return OpenSQL(sqliteDialect{}, path)
}

// OpenSQL opens dsn with the given dialect and creates the schema.
func OpenSQL(d Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", d.Name(), err)
	}
	s := &SQLStore{db: db, dialect: d, now: time.Now}
	if err := s.init(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on init failure.
			_ = cerr
		}
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to %s store: %w", s.dialect.Name(), err)
	}
	if err := s.dialect.Configure(s.db); err != nil {
		return fmt.Errorf("failed to configure %s store: %w", s.dialect.Name(), err)
	}
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// AppendAttempt inserts one record. A zero timestamp is replaced with the
// current time; timestamps are stored in UTC.
func (s *SQLStore) AppendAttempt(ctx context.Context, rec model.AttemptRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	choices := rec.Choices
	if choices == nil {
		choices = []string{}
	}
	encoded, err := json.Marshal(choices)
	if err != nil {
		return err
	}
	query := s.dialect.Rewrite(`INSERT INTO attempts
		(class_code, student_no, grade, session_id, mode, word, selected, correct, choices, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		rec.ClassCode,
		rec.StudentNo,
		nullString(rec.Grade),
		nullString(rec.SessionID),
		rec.Mode,
		rec.Word,
		rec.Selected,
		rec.Correct,
		string(encoded),
		ts.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// QueryByField returns every attempt whose field equals value, in insertion
// order. Querying grade "unknown" also matches records stored without one.
func (s *SQLStore) QueryByField(ctx context.Context, field, value string) ([]model.AttemptRecord, error) {
	column, ok := fieldColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported query field %q", field)
	}
	where := column + " = ?"
	if field == "grade" && value == model.UnknownGrade {
		where = "(grade IS NULL OR grade = '' OR grade = ?)"
	}
	query := s.dialect.Rewrite(`SELECT class_code, student_no, grade, session_id, mode, word, selected, correct, choices, created_at
		FROM attempts
		WHERE ` + where + `
		ORDER BY id ASC`)

	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AttemptRecord
	for rows.Next() {
		var rec model.AttemptRecord
		var grade, sessionID sql.NullString
		var choices, createdAt string
		if err := rows.Scan(&rec.ClassCode, &rec.StudentNo, &grade, &sessionID, &rec.Mode, &rec.Word, &rec.Selected, &rec.Correct, &choices, &createdAt); err != nil {
			return nil, err
		}
		rec.Grade = model.NormalizeGrade(grade.String)
		rec.SessionID = sessionID.String
		if err := json.Unmarshal([]byte(choices), &rec.Choices); err != nil {
			return nil, fmt.Errorf("decode choices: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.Timestamp = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
