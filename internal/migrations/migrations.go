package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the schema the SQL store backend needs. The statements are valid for
// both SQLite and Postgres.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS kv_store (
            store_key TEXT PRIMARY KEY,
            store_value TEXT NOT NULL,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
