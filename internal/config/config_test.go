package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
sqlite:
  path: /tmp/dating.db
redis:
  addr: localhost:6379
realtime:
  send_buffer: 8
  ping_period: 15s
limits:
  messages_per_minute: 20
registration:
  default_bio: hi
cors:
  allowed_origins: ["https://app.example.com"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.SQLite.Path != "/tmp/dating.db" {
		t.Fatalf("unexpected sqlite path: %s", cfg.SQLite.Path)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %s", cfg.Redis.Addr)
	}
	if cfg.Realtime.SendBuffer != 8 || cfg.Realtime.PingPeriod != 15*time.Second {
		t.Fatalf("unexpected realtime config: %+v", cfg.Realtime)
	}
	if cfg.Limits.MessagesPerMinute != 20 {
		t.Fatalf("unexpected messages/min: %d", cfg.Limits.MessagesPerMinute)
	}
	if cfg.Registration.DefaultBio != "hi" {
		t.Fatalf("unexpected default bio: %s", cfg.Registration.DefaultBio)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}

	if cfg.Limits.MessagesPer10Seconds != 15 {
		t.Fatalf("messages_per_10sec default should stay 15")
	}
	if cfg.Redis.RelayChannel != "realtime:relay" {
		t.Fatalf("relay channel default should stay realtime:relay")
	}
	if cfg.Registration.DefaultLat != 40.7128 {
		t.Fatalf("default_lat default should stay 40.7128")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Postgres.DSN != "" {
		t.Fatalf("postgres dsn should be empty by default, got %q", cfg.Postgres.DSN)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("redis should be disabled by default, got %q", cfg.Redis.Addr)
	}
	if cfg.Auth.JWTAccessTTL != 24*time.Hour {
		t.Fatalf("unexpected access ttl: %s", cfg.Auth.JWTAccessTTL)
	}
	if cfg.Limits.MaxMessageLength != 2000 {
		t.Fatalf("unexpected max message length: %d", cfg.Limits.MaxMessageLength)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgres://legacy")
	t.Setenv("POSTGRES_DSN", "postgres://primary")
	t.Setenv("WS_WRITE_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.dev, ,https://b.dev")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Postgres.DSN != "postgres://primary" {
		t.Fatalf("POSTGRES_DSN should win over DATABASE_URL, got %q", cfg.Postgres.DSN)
	}
	if cfg.Realtime.WriteTimeout != 3*time.Second {
		t.Fatalf("unexpected ws write timeout: %s", cfg.Realtime.WriteTimeout)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsBadEnvValue(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MESSAGES_PER_MINUTE", "lots")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when jwt secret is the default in production")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(""); err != nil {
		t.Fatalf("unexpected error with explicit secret: %v", err)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"HTTP_REQUEST_TIMEOUT",
		"LOG_LEVEL",
		"DATABASE_URL",
		"POSTGRES_DSN",
		"SQLITE_PATH",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"REDIS_RELAY_CHANNEL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"BCRYPT_COST",
		"WS_SEND_BUFFER",
		"WS_WRITE_TIMEOUT",
		"WS_PING_PERIOD",
		"WS_READ_TIMEOUT",
		"MESSAGES_PER_MINUTE",
		"MESSAGES_PER_10SEC",
		"MAX_MESSAGE_LENGTH",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}
