package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the bucketstore API.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and parameterizes the bucket record store.
type DatabaseConfig struct {
	// Backend is either "sqlite" or "postgres".
	Backend  string
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// StorageConfig describes the on-disk layout and upload policy.
type StorageConfig struct {
	// RootDir holds one subdirectory per bucket.
	RootDir string
	// MaxRequestBytes caps the request body before any write happens.
	MaxRequestBytes int64
	// AllowedExtensions are accepted upload extensions, without the dot.
	AllowedExtensions []string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

const defaultAllowedExtensions = "txt,pdf,png,jpg,jpeg,gif,bmp,svg,webp"

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("BUCKETSTORE_API_HOST", "0.0.0.0"),
			Port:         getInt("BUCKETSTORE_API_PORT", 8080),
			ReadTimeout:  getDuration("BUCKETSTORE_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("BUCKETSTORE_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("BUCKETSTORE_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Backend: strings.ToLower(getString("BUCKETSTORE_DB_BACKEND", "sqlite")),
			SQLite: SQLiteConfig{
				Path: getString("BUCKETSTORE_SQLITE_PATH", "storage/bucketstore.db"),
			},
			Postgres: PostgresConfig{
				Host:     getString("POSTGRES_HOST", "localhost"),
				Port:     getInt("POSTGRES_PORT", 5432),
				User:     getString("POSTGRES_USER", "bucketstore_app"),
				Password: getString("POSTGRES_PASSWORD", "change-me"),
				Database: getString("POSTGRES_DB", "bucketstore"),
				SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
			},
		},
		Storage: StorageConfig{
			RootDir:           getString("BUCKETSTORE_STORAGE_ROOT", "storage/buckets"),
			MaxRequestBytes:   getInt64("BUCKETSTORE_MAX_REQUEST_BYTES", 50*1024*1024),
			AllowedExtensions: splitList(getString("BUCKETSTORE_ALLOWED_EXTENSIONS", defaultAllowedExtensions)),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("BUCKETSTORE_METRICS_PATH", "/metrics"),
		},
	}

	switch cfg.Database.Backend {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported database backend %q", cfg.Database.Backend)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
