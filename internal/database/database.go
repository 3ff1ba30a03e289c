package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/georgemunganga/epharmacy-backend/internal/config"
)

// Connect opens the SQL database backing the key/value store. SQLite is limited to a
// single open connection so concurrent writers queue instead of failing with SQLITE_BUSY.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case config.DriverSQLite:
		db, err := sqlx.Connect("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("database: connect sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		return db, nil
	case config.DriverPostgres:
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("database: connect postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}
