package store

import (
	"fmt"
	"strings"
)

// Open returns the store selected by driver. sqlite takes a file path as
// dsn, postgres and mysql take a driver DSN, and remote takes the base URL of
// a `sansu serve` instance.
func Open(driver, dsn string) (AttemptStore, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "remote", "http":
		r, err := NewRemote(dsn)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "sqlite", "sqlite3", "":
		if dsn == "" {
			return nil, fmt.Errorf("sqlite store needs a database path")
		}
		s, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s store needs a dsn", d.Name())
	}
	s, err := OpenSQL(d, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}
