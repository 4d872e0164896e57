package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with the lower-case keys used in config files.
// JSON files parse too, since JSON is YAML.
type fileConfig struct {
	Port        string   `yaml:"port"`
	APIKey      string   `yaml:"api_key"`
	CORSOrigins []string `yaml:"cors_origins"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	WorkerCount       int `yaml:"worker_count"`
	MaxQueueSize      int `yaml:"max_queue_size"`
	MaxConcurrentDocs int `yaml:"max_concurrent_docs"`
	PageWorkers       int `yaml:"page_workers"`

	JobTTL string `yaml:"job_ttl"`

	IntersectionTolerance float64 `yaml:"intersection_tolerance"`
	SnapTolerance         float64 `yaml:"snap_tolerance"`
	TextTolerance         float64 `yaml:"text_tolerance"`
	MinTextRows           int     `yaml:"min_text_rows"`

	Cleanup struct {
		Provider string `yaml:"provider"`
		URL      string `yaml:"url"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
		Timeout  string `yaml:"timeout"`
		// Batch is the estimated token budget of one request.
		BatchTokens int `yaml:"batch_tokens"`
	} `yaml:"cleanup"`

	Store struct {
		Backend         string `yaml:"backend"`
		DatabaseURL     string `yaml:"database_url"`
		PathstoreURL    string `yaml:"pathstore_url"`
		PathstoreAPIKey string `yaml:"pathstore_api_key"`
	} `yaml:"store"`
}

// applyFile overlays the non-zero values of the file at path onto cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.Port, f.Port)
	setString(&cfg.APIKey, f.APIKey)
	if len(f.CORSOrigins) > 0 {
		cfg.CORSOrigins = f.CORSOrigins
	}
	if f.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = f.MaxUploadBytes
	}
	setInt(&cfg.WorkerCount, f.WorkerCount)
	setInt(&cfg.MaxQueueSize, f.MaxQueueSize)
	setInt(&cfg.MaxConcurrentDocs, f.MaxConcurrentDocs)
	setInt(&cfg.PageWorkers, f.PageWorkers)
	if err := setDuration(&cfg.JobTTL, f.JobTTL, "job_ttl"); err != nil {
		return err
	}

	setFloat(&cfg.IntersectionTolerance, f.IntersectionTolerance)
	setFloat(&cfg.SnapTolerance, f.SnapTolerance)
	setFloat(&cfg.TextTolerance, f.TextTolerance)
	setInt(&cfg.MinTextRows, f.MinTextRows)

	setString(&cfg.CleanupProvider, f.Cleanup.Provider)
	setString(&cfg.CleanupURL, f.Cleanup.URL)
	setString(&cfg.CleanupModel, f.Cleanup.Model)
	setString(&cfg.CleanupAPIKey, f.Cleanup.APIKey)
	if err := setDuration(&cfg.CleanupTimeout, f.Cleanup.Timeout, "cleanup.timeout"); err != nil {
		return err
	}

	setInt(&cfg.CleanupBatchTokens, f.Cleanup.BatchTokens)

	setString(&cfg.StoreBackend, f.Store.Backend)
	setString(&cfg.DatabaseURL, f.Store.DatabaseURL)
	setString(&cfg.PathstoreURL, f.Store.PathstoreURL)
	setString(&cfg.PathstoreAPIKey, f.Store.PathstoreAPIKey)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, key string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config file %s: %w", key, err)
	}
	*dst = d
	return nil
}
