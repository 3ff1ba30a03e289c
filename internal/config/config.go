package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers understood by database.Connect.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort    string        `yaml:"http_port"`
	StoreDriver string        `yaml:"store_driver"`
	StoreDSN    string        `yaml:"store_dsn"`
	CatalogURL  string        `yaml:"catalog_url"`
	CatalogFile string        `yaml:"catalog_file"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

// Load reads configuration from environment variables with reasonable defaults.
// When CONFIG_FILE is set the YAML file it names is applied on top.
func Load() Config {
	cfg := Config{
		HTTPPort:    getenv("HTTP_PORT", "8080"),
		StoreDriver: getenv("STORE_DRIVER", DriverSQLite),
		StoreDSN:    getenv("STORE_DSN", "epharmacy.db"),
		CatalogURL:  os.Getenv("CATALOG_URL"),
		CatalogFile: getenv("CATALOG_FILE", "data/medicines.json"),
		JWTSecret:   getenv("JWT_SECRET", "dev_secret"),
		TokenTTL:    24 * time.Hour,
	}

	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			log.Printf("invalid TOKEN_TTL value %q, defaulting to %s", raw, cfg.TokenTTL)
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			log.Printf("unable to apply config file %s: %v", path, err)
		}
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		log.Printf("unknown STORE_DRIVER %q, defaulting to %s", cfg.StoreDriver, DriverSQLite)
		cfg.StoreDriver = DriverSQLite
	}

	return cfg
}

// ApplyFile overlays the non-empty fields of a YAML config file.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if overlay.HTTPPort != "" {
		c.HTTPPort = overlay.HTTPPort
	}
	if overlay.StoreDriver != "" {
		c.StoreDriver = overlay.StoreDriver
	}
	if overlay.StoreDSN != "" {
		c.StoreDSN = overlay.StoreDSN
	}
	if overlay.CatalogURL != "" {
		c.CatalogURL = overlay.CatalogURL
	}
	if overlay.CatalogFile != "" {
		c.CatalogFile = overlay.CatalogFile
	}
	if overlay.JWTSecret != "" {
		c.JWTSecret = overlay.JWTSecret
	}
	if overlay.TokenTTL > 0 {
		c.TokenTTL = overlay.TokenTTL
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
