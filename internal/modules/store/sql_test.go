package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/georgemunganga/epharmacy-backend/internal/config"
	"github.com/georgemunganga/epharmacy-backend/internal/database"
	"github.com/georgemunganga/epharmacy-backend/internal/migrations"
)

func TestSQLBackendSharesStateBetweenHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")
	db, err := database.Connect(config.DriverSQLite, path)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	backend := NewSQLBackend(db)
	writer := New(backend, nil)
	reader := New(NewSQLBackend(db), nil)

	want := []record{{ID: "MED001", Price: 10, Stock: 118}}
	if err := writer.Set(ctx, KeyCatalog, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	want[0].Stock = 117
	if err := writer.Set(ctx, KeyCatalog, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got := Get[[]record](ctx, reader, KeyCatalog, nil)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reader saw %#v, want %#v", got, want)
	}

	if err := writer.Remove(ctx, KeyCatalog); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, err := backend.Get(ctx, KeyCatalog); err != nil || ok {
		t.Fatalf("Get after delete = %v, %v", ok, err)
	}
}
