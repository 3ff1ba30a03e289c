package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SQLBackend stores values in the kv_store table created by migrations.Run. The
// same queries serve SQLite and Postgres; placeholders are rebound per driver.
type SQLBackend struct {
	db       *sqlx.DB
	getQuery string
	putQuery string
	delQuery string
}

// NewSQLBackend prepares the rebound queries for db's driver.
func NewSQLBackend(db *sqlx.DB) *SQLBackend {
	return &SQLBackend{
		db:       db,
		getQuery: db.Rebind(`SELECT store_value FROM kv_store WHERE store_key = ?`),
		putQuery: db.Rebind(`INSERT INTO kv_store (store_key, store_value, updated_at)
                VALUES (?, ?, CURRENT_TIMESTAMP)
                ON CONFLICT (store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = CURRENT_TIMESTAMP`),
		delQuery: db.Rebind(`DELETE FROM kv_store WHERE store_key = ?`),
	}
}

func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := b.db.GetContext(ctx, &value, b.getQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (b *SQLBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, b.putQuery, key, string(value))
	return err
}

func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, b.delQuery, key)
	return err
}
