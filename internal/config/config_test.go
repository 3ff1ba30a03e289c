package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HTTP_PORT", "STORE_DRIVER", "STORE_DSN", "CATALOG_URL", "CATALOG_FILE", "JWT_SECRET", "TOKEN_TTL", "CONFIG_FILE"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.HTTPPort != "8080" {
		t.Fatalf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Fatalf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverSQLite)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("TokenTTL = %s, want 24h", cfg.TokenTTL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("TOKEN_TTL", "soon")
	cfg := Load()
	if cfg.HTTPPort != "8080" {
		t.Fatalf("HTTPPort = %q, want fallback 8080", cfg.HTTPPort)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Fatalf("StoreDriver = %q, want fallback sqlite", cfg.StoreDriver)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("TokenTTL = %s, want fallback 24h", cfg.TokenTTL)
	}
}

func TestLoadAppliesYAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "epharmacy.yaml")
	body := strings.TrimSpace(`
http_port: "9090"
store_driver: memory
catalog_url: https://example.test/medicines.json
token_ttl: 2h
`)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CONFIG_FILE", path)

	cfg := Load()
	if cfg.HTTPPort != "9090" {
		t.Fatalf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Fatalf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.CatalogURL != "https://example.test/medicines.json" {
		t.Fatalf("CatalogURL = %q", cfg.CatalogURL)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("TokenTTL = %s, want 2h", cfg.TokenTTL)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("JWTSecret = %q, want env value kept", cfg.JWTSecret)
	}
}
