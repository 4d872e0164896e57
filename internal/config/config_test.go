package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.StoreBackend != "memory" {
		t.Errorf("expected memory store, got %q", cfg.StoreBackend)
	}
	if cfg.IntersectionTolerance != 2 || cfg.SnapTolerance != 3 || cfg.MinTextRows != 2 {
		t.Errorf("unexpected detection defaults: %+v", cfg)
	}
	if cfg.CleanupTimeout != 30*time.Second {
		t.Errorf("expected 30s cleanup timeout, got %v", cfg.CleanupTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PAGE_WORKERS", "8")
	t.Setenv("SNAP_TOLERANCE", "1.5")
	t.Setenv("CLEANUP_TIMEOUT", "5s")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/tables")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("expected %v, got %v", want, cfg.CORSOrigins)
	}
	if cfg.PageWorkers != 8 {
		t.Errorf("expected 8 page workers, got %d", cfg.PageWorkers)
	}
	if cfg.SnapTolerance != 1.5 {
		t.Errorf("expected snap tolerance 1.5, got %v", cfg.SnapTolerance)
	}
	if cfg.CleanupTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.CleanupTimeout)
	}
	if cfg.StoreBackend != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.StoreBackend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_NonPositiveFallsBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("MIN_TEXT_ROWS", "-3")
	t.Setenv("JOB_TTL", "not-a-duration")

	cfg, _ := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MinTextRows != 2 {
		t.Errorf("expected 2 min text rows, got %d", cfg.MinTextRows)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job ttl, got %v", cfg.JobTTL)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tablegest.yaml")
	content := `
port: "7000"
page_workers: 2
job_ttl: 10m
cors_origins: ["https://app.example"]
cleanup:
  provider: ollama
  model: mistral
  timeout: 12s
  batch_tokens: 4000
store:
  backend: pathstore
  pathstore_url: http://kv:8080
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PAGE_WORKERS", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("expected port from file, got %q", cfg.Port)
	}
	if cfg.PageWorkers != 6 {
		t.Errorf("expected env to override file, got %d", cfg.PageWorkers)
	}
	if cfg.JobTTL != 10*time.Minute {
		t.Errorf("expected 10m, got %v", cfg.JobTTL)
	}
	if cfg.CleanupProvider != "ollama" || cfg.CleanupModel != "mistral" || cfg.CleanupTimeout != 12*time.Second {
		t.Errorf("unexpected cleanup settings: %+v", cfg)
	}
	if cfg.CleanupBatchTokens != 4000 {
		t.Errorf("expected batch tokens 4000, got %d", cfg.CleanupBatchTokens)
	}
	if cfg.StoreBackend != "pathstore" || cfg.PathstoreURL != "http://kv:8080" {
		t.Errorf("unexpected store settings: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.example" {
		t.Errorf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tablegest.json")
	os.WriteFile(path, []byte(`{"port": "7100", "min_text_rows": 3}`), 0o644)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7100" || cfg.MinTextRows != 3 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("cleanup:\n  timeout: soon\n"), 0o644)
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"unknown store", func(c *Config) { c.StoreBackend = "redis" }, false},
		{"postgres without dsn", func(c *Config) { c.StoreBackend = "postgres" }, false},
		{"pathstore without url", func(c *Config) { c.StoreBackend = "pathstore" }, false},
		{"http without url", func(c *Config) { c.CleanupProvider = "http" }, false},
		{"anthropic without key", func(c *Config) { c.CleanupProvider = "anthropic" }, false},
		{"gemini with key", func(c *Config) { c.CleanupProvider = "gemini"; c.CleanupAPIKey = "k" }, true},
		{"openai with base url", func(c *Config) { c.CleanupProvider = "openai"; c.CleanupURL = "http://local/v1" }, true},
		{"ollama", func(c *Config) { c.CleanupProvider = "ollama" }, true},
		{"unknown provider", func(c *Config) { c.CleanupProvider = "bard" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
