package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth and browser access
	APIKey      string
	CORSOrigins []string

	// Upload limits
	MaxUploadBytes int64

	// Worker pool
	WorkerCount       int
	MaxQueueSize      int
	MaxConcurrentDocs int
	PageWorkers       int

	// Job state
	JobTTL time.Duration

	// Table detection
	IntersectionTolerance float64
	SnapTolerance         float64
	TextTolerance         float64
	MinTextRows           int

	// Optional cleanup model
	CleanupProvider string
	CleanupURL      string
	CleanupModel    string
	CleanupAPIKey   string
	CleanupTimeout  time.Duration
	// Estimated tokens per cleanup request; 0 sends all tables at once.
	CleanupBatchTokens int

	// Result store: memory, postgres or pathstore
	StoreBackend    string
	DatabaseURL     string
	PathstoreURL    string
	PathstoreAPIKey string
}

// Defaults returns the configuration used when neither a config file nor
// the environment sets a value.
func Defaults() Config {
	return Config{
		Port:                  "8090",
		CORSOrigins:           []string{"*"},
		MaxUploadBytes:        52428800, // 50MB
		WorkerCount:           4,
		MaxQueueSize:          100,
		MaxConcurrentDocs:     4,
		PageWorkers:           4,
		JobTTL:                1 * time.Hour,
		IntersectionTolerance: 2,
		SnapTolerance:         3,
		TextTolerance:         3,
		MinTextRows:           2,
		CleanupTimeout:        30 * time.Second,
		StoreBackend:          "memory",
	}
}

// Load builds the configuration from defaults, then the file named by
// CONFIG_FILE (if any), then the environment. Env wins over the file.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("API_KEY", cfg.APIKey)
	cfg.CORSOrigins = envList("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentDocs = envInt("MAX_CONCURRENT_DOCS", cfg.MaxConcurrentDocs)
	cfg.PageWorkers = envInt("PAGE_WORKERS", cfg.PageWorkers)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.IntersectionTolerance = envFloat("INTERSECTION_TOLERANCE", cfg.IntersectionTolerance)
	cfg.SnapTolerance = envFloat("SNAP_TOLERANCE", cfg.SnapTolerance)
	cfg.TextTolerance = envFloat("TEXT_TOLERANCE", cfg.TextTolerance)
	cfg.MinTextRows = envInt("MIN_TEXT_ROWS", cfg.MinTextRows)

	cfg.CleanupProvider = envOr("CLEANUP_PROVIDER", cfg.CleanupProvider)
	cfg.CleanupURL = envOr("CLEANUP_URL", cfg.CleanupURL)
	cfg.CleanupModel = envOr("CLEANUP_MODEL", cfg.CleanupModel)
	cfg.CleanupAPIKey = envOr("CLEANUP_API_KEY", cfg.CleanupAPIKey)
	cfg.CleanupTimeout = envDuration("CLEANUP_TIMEOUT", cfg.CleanupTimeout)
	cfg.CleanupBatchTokens = envInt("CLEANUP_BATCH_TOKENS", cfg.CleanupBatchTokens)

	cfg.StoreBackend = strings.ToLower(envOr("STORE_BACKEND", cfg.StoreBackend))
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.PathstoreURL = envOr("PATHSTORE_URL", cfg.PathstoreURL)
	cfg.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", cfg.PathstoreAPIKey)

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Defaults()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxConcurrentDocs <= 0 {
		c.MaxConcurrentDocs = d.MaxConcurrentDocs
	}
	if c.PageWorkers <= 0 {
		c.PageWorkers = d.PageWorkers
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.IntersectionTolerance <= 0 {
		c.IntersectionTolerance = d.IntersectionTolerance
	}
	if c.SnapTolerance <= 0 {
		c.SnapTolerance = d.SnapTolerance
	}
	if c.TextTolerance <= 0 {
		c.TextTolerance = d.TextTolerance
	}
	if c.MinTextRows <= 0 {
		c.MinTextRows = d.MinTextRows
	}
	if c.CleanupTimeout <= 0 {
		c.CleanupTimeout = d.CleanupTimeout
	}
	if c.CleanupBatchTokens < 0 {
		c.CleanupBatchTokens = 0
	}
	if c.StoreBackend == "" {
		c.StoreBackend = d.StoreBackend
	}
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
	case "pathstore":
		if c.PathstoreURL == "" {
			return fmt.Errorf("PATHSTORE_URL is required for STORE_BACKEND=pathstore")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch strings.ToLower(c.CleanupProvider) {
	case "", "none", "off", "ollama":
	case "http":
		if c.CleanupURL == "" {
			return fmt.Errorf("CLEANUP_URL is required for CLEANUP_PROVIDER=http")
		}
	case "openai":
		if c.CleanupAPIKey == "" && c.CleanupURL == "" {
			return fmt.Errorf("CLEANUP_API_KEY or CLEANUP_URL is required for CLEANUP_PROVIDER=openai")
		}
	case "anthropic", "gemini":
		if c.CleanupAPIKey == "" {
			return fmt.Errorf("CLEANUP_API_KEY is required for CLEANUP_PROVIDER=%s", c.CleanupProvider)
		}
	default:
		return fmt.Errorf("unknown CLEANUP_PROVIDER %q", c.CleanupProvider)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
