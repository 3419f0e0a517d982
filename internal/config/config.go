package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const DefaultDatabaseURL = "sqlite:///retail_price_agent_v1.db"

type MemoryBackend string

const (
	MemoryBackendInProcess MemoryBackend = "memory"
	MemoryBackendRedis     MemoryBackend = "redis"
	MemoryBackendNone      MemoryBackend = "none"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	AI            AIConfig
	Memory        MemoryConfig
	ObjectStore   ObjectStoreConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	ReadOnly        bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	SampleRows      int
	MaxResultRows   int
}

type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxSteps    int
}

type MemoryConfig struct {
	Backend       MemoryBackend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	MaxMessages   int
}

// ObjectStoreConfig is only consulted by the seed tool; an empty Endpoint
// disables the parquet upload.
type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

// LoadFromEnv reads an optional .env file from the working directory before
// resolving the process environment. Variables already set win over the file.
func LoadFromEnv(serviceName string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("RETAILAGENT_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid RETAILAGENT_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	steps := []func() error{
		func() error { return applyString(lookup, "RETAILAGENT_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "RETAILAGENT_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "RETAILAGENT_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "RETAILAGENT_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "RETAILAGENT_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		// DATABASE_URL and OPENAI_API_KEY are the legacy names; the prefixed
		// variable takes precedence when both are present.
		func() error { return applyString(lookup, "DATABASE_URL", &cfg.Database.URL) },
		func() error { return applyString(lookup, "RETAILAGENT_DATABASE_URL", &cfg.Database.URL) },
		func() error { return applyBool(lookup, "RETAILAGENT_DATABASE_READ_ONLY", &cfg.Database.ReadOnly) },
		func() error { return applyInt(lookup, "RETAILAGENT_DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns) },
		func() error { return applyInt(lookup, "RETAILAGENT_DATABASE_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns) },
		func() error {
			return applyDuration(lookup, "RETAILAGENT_DATABASE_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime)
		},
		func() error {
			return applyDuration(lookup, "RETAILAGENT_DATABASE_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
		},
		func() error { return applyInt(lookup, "RETAILAGENT_DATABASE_SAMPLE_ROWS", &cfg.Database.SampleRows) },
		func() error { return applyInt(lookup, "RETAILAGENT_DATABASE_MAX_RESULT_ROWS", &cfg.Database.MaxResultRows) },
		func() error { return applyString(lookup, "OPENAI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "RETAILAGENT_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "RETAILAGENT_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "RETAILAGENT_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyFloat(lookup, "RETAILAGENT_AI_TEMPERATURE", &cfg.AI.Temperature) },
		func() error { return applyDuration(lookup, "RETAILAGENT_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyInt(lookup, "RETAILAGENT_AI_MAX_STEPS", &cfg.AI.MaxSteps) },
		func() error { return applyMemoryBackend(lookup, "RETAILAGENT_MEMORY_BACKEND", &cfg.Memory.Backend) },
		func() error { return applyString(lookup, "RETAILAGENT_MEMORY_REDIS_ADDR", &cfg.Memory.RedisAddr) },
		func() error { return applyString(lookup, "RETAILAGENT_MEMORY_REDIS_PASSWORD", &cfg.Memory.RedisPassword) },
		func() error { return applyInt(lookup, "RETAILAGENT_MEMORY_REDIS_DB", &cfg.Memory.RedisDB) },
		func() error { return applyDuration(lookup, "RETAILAGENT_MEMORY_TTL", &cfg.Memory.TTL) },
		func() error { return applyInt(lookup, "RETAILAGENT_MEMORY_MAX_MESSAGES", &cfg.Memory.MaxMessages) },
		func() error { return applyString(lookup, "RETAILAGENT_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "RETAILAGENT_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "RETAILAGENT_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error { return applyString(lookup, "RETAILAGENT_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID) },
		func() error {
			return applyString(lookup, "RETAILAGENT_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey)
		},
		func() error { return applyBool(lookup, "RETAILAGENT_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error { return applyString(lookup, "RETAILAGENT_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix) },
		func() error {
			return applyBool(lookup, "RETAILAGENT_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)
		},
		func() error { return applyBool(lookup, "RETAILAGENT_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "RETAILAGENT_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyBool(lookup, "RETAILAGENT_AUTH_REQUIRED", &cfg.Auth.Required) },
		func() error { return applyString(lookup, "RETAILAGENT_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return Config{}, err
		}
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("database url is required")
	}
	if cfg.Database.SampleRows < 0 {
		return Config{}, fmt.Errorf("RETAILAGENT_DATABASE_SAMPLE_ROWS must be >= 0")
	}
	if cfg.AI.MaxSteps <= 0 {
		return Config{}, fmt.Errorf("RETAILAGENT_AI_MAX_STEPS must be > 0")
	}
	if cfg.Memory.Backend == MemoryBackendRedis && cfg.Memory.RedisAddr == "" {
		return Config{}, fmt.Errorf("RETAILAGENT_MEMORY_REDIS_ADDR is required for the redis memory backend")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "retailagent-api"},
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 3 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			URL:             DefaultDatabaseURL,
			ReadOnly:        true,
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
			SampleRows:      3,
			MaxResultRows:   200,
		},
		AI: AIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4-turbo-preview",
			Temperature: 0,
			Timeout:     60 * time.Second,
			MaxSteps:    25,
		},
		Memory: MemoryConfig{
			Backend:     MemoryBackendInProcess,
			TTL:         24 * time.Hour,
			MaxMessages: 20,
		},
		ObjectStore: ObjectStoreConfig{
			Region:           "us-east-1",
			Bucket:           "retailagent",
			Prefix:           "exports",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18000"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
		cfg.Memory.Backend = MemoryBackendNone
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	*dst = raw
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}

func applyMemoryBackend(lookup LookupFunc, key string, dst *MemoryBackend) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	backend := MemoryBackend(strings.ToLower(strings.TrimSpace(raw)))
	switch backend {
	case MemoryBackendInProcess, MemoryBackendRedis, MemoryBackendNone:
		*dst = backend
		return nil
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
}
