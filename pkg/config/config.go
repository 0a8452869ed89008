// Package config handles loading and managing climascope configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/climascope/climascope/pkg/sentiment"
)

// Config is the top-level configuration for climascope.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Scorer   ScorerConfig   `yaml:"scorer"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Cache    CacheConfig    `yaml:"cache"`
}

// PipelineConfig controls aggregation and alerting.
type PipelineConfig struct {
	LowThreshold  float64         `yaml:"low_threshold"`
	HighThreshold float64         `yaml:"high_threshold"`
	GroupBy       []string        `yaml:"group_by"` // subset of company, department
	Scale         sentiment.Scale `yaml:"scale"`
}

// ScorerConfig points at the hosted sentiment classifier.
type ScorerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	Token       string  `yaml:"token"`
	MaxChars    int     `yaml:"max_chars"`
	Timeout     int     `yaml:"timeout"` // seconds
	Concurrency int     `yaml:"concurrency"`
	RateLimit   float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
}

// ArchiveConfig selects where run reports are archived.
type ArchiveConfig struct {
	Backend   string `yaml:"backend"` // local, s3, gcs
	LocalPath string `yaml:"local_path"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // S3-compatible stores like MinIO
}

// CacheConfig controls the API report cache.
type CacheConfig struct {
	Size     int    `yaml:"size"`
	RedisURL string `yaml:"redis_url"`
	TTL      int    `yaml:"ttl"` // seconds
}

// Groupable columns a survey row can be grouped by.
var Groupable = []string{"company", "department"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	core := sentiment.Defaults()
	return &Config{
		Pipeline: PipelineConfig{
			LowThreshold:  core.LowThreshold,
			HighThreshold: core.HighThreshold,
			GroupBy:       core.GroupBy,
			Scale:         core.Scale,
		},
		Scorer: ScorerConfig{
			Endpoint:    "https://api-inference.huggingface.co/models",
			Model:       "nlptown/bert-base-multilingual-uncased-sentiment",
			MaxChars:    512,
			Timeout:     30,
			Concurrency: 4,
			RateLimit:   10,
		},
		Archive: ArchiveConfig{
			Backend: "local",
		},
		Cache: CacheConfig{
			Size: 20,
			TTL:  3600,
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Core returns the aggregation settings passed to the sentiment engine.
func (c *Config) Core() sentiment.Config {
	return sentiment.Config{
		LowThreshold:  c.Pipeline.LowThreshold,
		HighThreshold: c.Pipeline.HighThreshold,
		GroupBy:       append([]string(nil), c.Pipeline.GroupBy...),
		Scale:         c.Pipeline.Scale,
	}
}

// ScorerTimeout returns the per-request scorer timeout.
func (c *Config) ScorerTimeout() time.Duration {
	return time.Duration(c.Scorer.Timeout) * time.Second
}

// CacheTTL returns the report cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Core().Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, f := range c.Pipeline.GroupBy {
		if !isGroupable(f) {
			errs = append(errs, &sentiment.ConfigurationError{
				Field:  "group_by",
				Reason: fmt.Sprintf("unknown field %q (want one of %v)", f, Groupable),
			})
		}
	}
	if c.Scorer.MaxChars <= 0 {
		errs = append(errs, &sentiment.ConfigurationError{Field: "scorer.max_chars", Reason: "must be positive"})
	}
	if c.Scorer.RateLimit < 0 {
		errs = append(errs, &sentiment.ConfigurationError{Field: "scorer.rate_limit", Reason: "must not be negative"})
	}
	if c.Scorer.Concurrency <= 0 {
		errs = append(errs, &sentiment.ConfigurationError{Field: "scorer.concurrency", Reason: "must be positive"})
	}
	switch c.Archive.Backend {
	case "", "local":
	case "s3", "gcs":
		if c.Archive.Bucket == "" {
			errs = append(errs, &sentiment.ConfigurationError{Field: "archive.bucket", Reason: "required for " + c.Archive.Backend})
		}
	default:
		errs = append(errs, &sentiment.ConfigurationError{Field: "archive.backend", Reason: fmt.Sprintf("unknown backend %q", c.Archive.Backend)})
	}
	return errors.Join(errs...)
}

func isGroupable(field string) bool {
	for _, g := range Groupable {
		if g == field {
			return true
		}
	}
	return false
}

// FindConfigFile looks for .climascope/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".climascope", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// DataDir returns the directory for locally archived run reports.
// Uses ~/.cache/climascope/reports to stay out of the working tree.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "climascope", "reports")
}

// ArchivePath returns the local archive root, honoring the override.
func (c *Config) ArchivePath() string {
	if c.Archive.LocalPath != "" {
		return c.Archive.LocalPath
	}
	return DataDir()
}
