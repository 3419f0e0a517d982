package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("retailagent-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8000" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Database.URL != DefaultDatabaseURL {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if !cfg.Database.ReadOnly {
		t.Fatal("Database.ReadOnly should default to true")
	}
	if cfg.Database.SampleRows != 3 {
		t.Fatalf("Database.SampleRows = %d", cfg.Database.SampleRows)
	}
	if cfg.AI.Model != "gpt-4-turbo-preview" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.MaxSteps != 25 {
		t.Fatalf("AI.MaxSteps = %d", cfg.AI.MaxSteps)
	}
	if cfg.Memory.Backend != MemoryBackendInProcess {
		t.Fatalf("Memory.Backend = %q", cfg.Memory.Backend)
	}
	if cfg.ObjectStore.Endpoint != "" {
		t.Fatalf("ObjectStore.Endpoint = %q, want empty", cfg.ObjectStore.Endpoint)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("retailagent-api", mapLookup(map[string]string{"RETAILAGENT_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
}

func TestLoadTestProfileDisablesMemory(t *testing.T) {
	cfg, err := Load("retailagent-api", mapLookup(map[string]string{"RETAILAGENT_PROFILE": "TEST"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Memory.Backend != MemoryBackendNone {
		t.Fatalf("Memory.Backend = %q", cfg.Memory.Backend)
	}
	if cfg.HTTP.Address != ":18000" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"RETAILAGENT_SERVICE_NAME":            "retailagent-custom",
		"RETAILAGENT_HTTP_ADDR":               ":9999",
		"RETAILAGENT_HTTP_READ_TIMEOUT":       "2s",
		"RETAILAGENT_HTTP_WRITE_TIMEOUT":      "3s",
		"RETAILAGENT_LOG_LEVEL":               "error",
		"RETAILAGENT_AUTH_REQUIRED":           "true",
		"RETAILAGENT_AUTH_STATIC_KEYS":        "k1:chat-ui",
		"RETAILAGENT_DATABASE_URL":            "postgresql+psycopg2://u:p@db/retail",
		"RETAILAGENT_DATABASE_READ_ONLY":      "false",
		"RETAILAGENT_DATABASE_MAX_OPEN_CONNS": "42",
		"RETAILAGENT_DATABASE_SAMPLE_ROWS":    "0",
		"RETAILAGENT_AI_BASE_URL":             "https://api.example.com/v1",
		"RETAILAGENT_AI_API_KEY":              "secret-key",
		"RETAILAGENT_AI_MODEL":                "gpt-4o",
		"RETAILAGENT_AI_TEMPERATURE":          "0.3",
		"RETAILAGENT_AI_TIMEOUT":              "21s",
		"RETAILAGENT_AI_MAX_STEPS":            "12",
		"RETAILAGENT_MEMORY_BACKEND":          "redis",
		"RETAILAGENT_MEMORY_REDIS_ADDR":       "localhost:6379",
		"RETAILAGENT_MEMORY_REDIS_DB":         "2",
		"RETAILAGENT_MEMORY_TTL":              "1h",
		"RETAILAGENT_OBJECTSTORE_ENDPOINT":    "s3.example.com",
		"RETAILAGENT_OBJECTSTORE_BUCKET":      "retail-exports",
		"RETAILAGENT_OBJECTSTORE_USE_SSL":     "true",
	})
	cfg, err := Load("retailagent-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "retailagent-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Fatalf("HTTP.WriteTimeout = %s", cfg.HTTP.WriteTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.Auth.StaticKeys != "k1:chat-ui" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
	if cfg.Database.URL != "postgresql+psycopg2://u:p@db/retail" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Database.ReadOnly {
		t.Fatal("Database.ReadOnly = true, want false")
	}
	if cfg.Database.MaxOpenConns != 42 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.SampleRows != 0 {
		t.Fatalf("Database.SampleRows = %d", cfg.Database.SampleRows)
	}
	if cfg.AI.BaseURL != "https://api.example.com/v1" {
		t.Fatalf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.APIKey != "secret-key" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.AI.MaxSteps != 12 {
		t.Fatalf("AI.MaxSteps = %d", cfg.AI.MaxSteps)
	}
	if cfg.Memory.Backend != MemoryBackendRedis {
		t.Fatalf("Memory.Backend = %q", cfg.Memory.Backend)
	}
	if cfg.Memory.RedisAddr != "localhost:6379" || cfg.Memory.RedisDB != 2 {
		t.Fatalf("Memory redis = %q/%d", cfg.Memory.RedisAddr, cfg.Memory.RedisDB)
	}
	if cfg.Memory.TTL != time.Hour {
		t.Fatalf("Memory.TTL = %s", cfg.Memory.TTL)
	}
	if cfg.ObjectStore.Endpoint != "s3.example.com" || cfg.ObjectStore.Bucket != "retail-exports" {
		t.Fatalf("ObjectStore = %#v", cfg.ObjectStore)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL = false, want true")
	}
}

func TestLoadLegacyVariableNames(t *testing.T) {
	cfg, err := Load("retailagent-api", mapLookup(map[string]string{
		"DATABASE_URL":   "sqlite:///legacy.db",
		"OPENAI_API_KEY": "sk-legacy",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "sqlite:///legacy.db" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.AI.APIKey != "sk-legacy" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
}

func TestLoadPrefixedVariablesWinOverLegacyNames(t *testing.T) {
	cfg, err := Load("retailagent-api", mapLookup(map[string]string{
		"DATABASE_URL":             "sqlite:///legacy.db",
		"RETAILAGENT_DATABASE_URL": "duckdb:///retail.duckdb",
		"OPENAI_API_KEY":           "sk-legacy",
		"RETAILAGENT_AI_API_KEY":   "sk-new",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "duckdb:///retail.duckdb" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.AI.APIKey != "sk-new" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"RETAILAGENT_PROFILE": "oops"},
		{"RETAILAGENT_HTTP_READ_TIMEOUT": "NaN"},
		{"RETAILAGENT_DATABASE_MAX_OPEN_CONNS": "oops"},
		{"RETAILAGENT_DATABASE_SAMPLE_ROWS": "-1"},
		{"RETAILAGENT_AI_TEMPERATURE": "bad"},
		{"RETAILAGENT_AI_MAX_STEPS": "0"},
		{"RETAILAGENT_AUTH_REQUIRED": "not-bool"},
		{"RETAILAGENT_LOG_LEVEL": "verbose"},
		{"RETAILAGENT_MEMORY_BACKEND": "sqlite"},
		{"RETAILAGENT_MEMORY_BACKEND": "redis"},
	}
	for _, env := range tests {
		_, err := Load("retailagent-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestLoadRequiresLookup(t *testing.T) {
	if _, err := Load("retailagent-api", nil); err == nil {
		t.Fatal("Load(nil) expected error")
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
