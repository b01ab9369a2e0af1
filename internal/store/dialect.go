package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver.
	_ "github.com/lib/pq"              // PostgreSQL driver.
	_ "modernc.org/sqlite"             // SQLite driver.
)

// Dialect hides the differences between the supported SQL databases.
type Dialect interface {
	// Name is the configuration name of the dialect.
	Name() string
	// DriverName is passed to sql.Open.
	DriverName() string
	// Rewrite converts ? placeholders when the driver needs another syntax.
	Rewrite(query string) string
	// Schema returns the statements that create the attempts table.
	Schema() []string
	// Configure applies pool and session settings after open.
	Configure(db *sql.DB) error
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3", "":
		return sqliteDialect{}, nil
	case "postgres", "postgresql":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", name)
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// numberPlaceholders converts ? placeholders to $1, $2, ...
func numberPlaceholders(query string) string {
	n := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }
func (sqliteDialect) Rewrite(query string) string { return query }

func (sqliteDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			class_code TEXT NOT NULL,
			student_no TEXT NOT NULL,
			grade TEXT,
			session_id TEXT,
			mode TEXT NOT NULL,
			word TEXT NOT NULL,
			selected TEXT NOT NULL,
			correct INTEGER NOT NULL,
			choices TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_class_code ON attempts(class_code);`,
	}
}

func (sqliteDialect) Configure(db *sql.DB) error {
	// Concurrent handlers queue on one connection; other processes wait on busy_timeout.
	db.SetMaxOpenConns(1)
	_, err := db.Exec(`PRAGMA busy_timeout = 5000;`)
	return err
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }
func (postgresDialect) DriverName() string { return "postgres" }
func (postgresDialect) Rewrite(query string) string { return numberPlaceholders(query) }

func (postgresDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id BIGSERIAL PRIMARY KEY,
			class_code TEXT NOT NULL,
			student_no TEXT NOT NULL,
			grade TEXT,
			session_id TEXT,
			mode TEXT NOT NULL,
			word TEXT NOT NULL,
			selected TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			choices TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_class_code ON attempts(class_code);`,
	}
}

func (postgresDialect) Configure(db *sql.DB) error {
	configurePool(db)
	return nil
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }
func (mysqlDialect) Rewrite(query string) string { return query }

func (mysqlDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			class_code VARCHAR(191) NOT NULL,
			student_no VARCHAR(191) NOT NULL,
			grade VARCHAR(64),
			session_id VARCHAR(64),
			mode VARCHAR(16) NOT NULL,
			word TEXT NOT NULL,
			selected TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			choices TEXT NOT NULL,
			created_at VARCHAR(40) NOT NULL,
			INDEX idx_attempts_class_code (class_code)
		) CHARACTER SET utf8mb4;`,
	}
}

func (mysqlDialect) Configure(db *sql.DB) error {
	configurePool(db)
	return nil
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}
