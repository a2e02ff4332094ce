package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "change-me"

type Config struct {
	Env          string             `yaml:"env"`
	HTTP         HTTPConfig         `yaml:"http"`
	Log          LogConfig          `yaml:"log"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	SQLite       SQLiteConfig       `yaml:"sqlite"`
	Redis        RedisConfig        `yaml:"redis"`
	Auth         AuthConfig         `yaml:"auth"`
	Realtime     RealtimeConfig     `yaml:"realtime"`
	Limits       LimitsConfig       `yaml:"limits"`
	Registration RegistrationConfig `yaml:"registration"`
	CORS         CORSConfig         `yaml:"cors"`
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// PostgresConfig selects the primary store. An empty DSN falls back to SQLite.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig enables the message rate limiter and the cross-node relay. An empty
// address disables both.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	RelayChannel string `yaml:"relay_channel"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTAccessTTL time.Duration `yaml:"jwt_access_ttl"`
	BcryptCost   int           `yaml:"bcrypt_cost"`
}

type RealtimeConfig struct {
	SendBuffer   int           `yaml:"send_buffer"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingPeriod   time.Duration `yaml:"ping_period"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

type LimitsConfig struct {
	MessagesPerMinute    int `yaml:"messages_per_minute"`
	MessagesPer10Seconds int `yaml:"messages_per_10sec"`
	MaxMessageLength     int `yaml:"max_message_length"`
	CandidatesPageSize   int `yaml:"candidates_page_size"`
}

type RegistrationConfig struct {
	DefaultBio    string  `yaml:"default_bio"`
	AvatarBaseURL string  `yaml:"avatar_base_url"`
	DefaultLat    float64 `yaml:"default_lat"`
	DefaultLng    float64 `yaml:"default_lng"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:           ":8000",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    30 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Log: LogConfig{Level: "debug"},
		SQLite: SQLiteConfig{
			Path: "commit_dating.db",
		},
		Redis: RedisConfig{
			RelayChannel: "realtime:relay",
		},
		Auth: AuthConfig{
			JWTSecret:    defaultJWTSecret,
			JWTAccessTTL: 24 * time.Hour,
			BcryptCost:   10,
		},
		Realtime: RealtimeConfig{
			SendBuffer:   32,
			WriteTimeout: 10 * time.Second,
			PingPeriod:   30 * time.Second,
			ReadTimeout:  60 * time.Second,
		},
		Limits: LimitsConfig{
			MessagesPerMinute:    60,
			MessagesPer10Seconds: 15,
			MaxMessageLength:     2000,
			CandidatesPageSize:   100,
		},
		Registration: RegistrationConfig{
			DefaultBio:    "Hello! I'm new here.",
			AvatarBaseURL: "https://ui-avatars.com/api/?name=",
			DefaultLat:    40.7128,
			DefaultLng:    -74.0060,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.IsProduction() && (cfg.Auth.JWTSecret == "" || cfg.Auth.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("auth.jwt_secret must be set in production")
	}
	if cfg.Limits.MaxMessageLength <= 0 {
		return fmt.Errorf("limits.max_message_length must be positive")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_REQUEST_TIMEOUT", &cfg.HTTP.RequestTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// DATABASE_URL is accepted for hosted deployments that only export that name.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	if v := os.Getenv("REDIS_RELAY_CHANNEL"); v != "" {
		cfg.Redis.RelayChannel = v
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if err := overrideDuration("JWT_ACCESS_TTL", &cfg.Auth.JWTAccessTTL); err != nil {
		return err
	}
	if err := overrideInt("BCRYPT_COST", &cfg.Auth.BcryptCost); err != nil {
		return err
	}

	if err := overrideInt("WS_SEND_BUFFER", &cfg.Realtime.SendBuffer); err != nil {
		return err
	}
	if err := overrideDuration("WS_WRITE_TIMEOUT", &cfg.Realtime.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("WS_PING_PERIOD", &cfg.Realtime.PingPeriod); err != nil {
		return err
	}
	if err := overrideDuration("WS_READ_TIMEOUT", &cfg.Realtime.ReadTimeout); err != nil {
		return err
	}

	if err := overrideInt("MESSAGES_PER_MINUTE", &cfg.Limits.MessagesPerMinute); err != nil {
		return err
	}
	if err := overrideInt("MESSAGES_PER_10SEC", &cfg.Limits.MessagesPer10Seconds); err != nil {
		return err
	}
	if err := overrideInt("MAX_MESSAGE_LENGTH", &cfg.Limits.MaxMessageLength); err != nil {
		return err
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}
