package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.Delay != time.Second {
		t.Errorf("retry = %+v, want 3 attempts with 1s delay", cfg.Retry)
	}
	if cfg.Database.LockTimeout != 5*time.Second {
		t.Errorf("lock timeout = %v, want 5s", cfg.Database.LockTimeout)
	}
	if cfg.Store != "postgres" || cfg.Database.Driver != "postgres" {
		t.Errorf("store/driver = %s/%s", cfg.Store, cfg.Database.Driver)
	}
	if len(cfg.Messaging.Brokers) != 1 || cfg.Messaging.Brokers[0] != "localhost:9092" {
		t.Errorf("brokers = %v", cfg.Messaging.Brokers)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("http addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RETRY_DELAY", "250ms")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.URL != "postgres://u:p@db:5432/shop" || cfg.Database.Driver != "pgx" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if strings.Join(cfg.Messaging.Brokers, ",") != "k1:9092,k2:9092" {
		t.Errorf("brokers = %v", cfg.Messaging.Brokers)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.Delay != 250*time.Millisecond {
		t.Errorf("retry = %+v", cfg.Retry)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store: memory
messaging:
  backend: memory
redis:
  addr: localhost:6379
  ttl: 1m
log:
  level: debug
  format: text
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != "memory" || cfg.Messaging.Backend != "memory" {
		t.Errorf("store/backend = %s/%s", cfg.Store, cfg.Messaging.Backend)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.TTL != time.Minute {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Store:     "postgres",
			Database:  DatabaseConfig{Driver: "postgres", URL: "postgres://x"},
			Messaging: MessagingConfig{Backend: "kafka", Brokers: []string{"k:9092"}},
			Retry:     RetryConfig{MaxAttempts: 3, Delay: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"memory store skips database", func(c *Config) { c.Store = "memory"; c.Database = DatabaseConfig{} }, ""},
		{"unknown store", func(c *Config) { c.Store = "mysql" }, "store must be"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "database.driver"},
		{"kafka without brokers", func(c *Config) { c.Messaging.Brokers = nil }, "messaging.brokers"},
		{"unknown backend", func(c *Config) { c.Messaging.Backend = "nats" }, "messaging.backend"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
