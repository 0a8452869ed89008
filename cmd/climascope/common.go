package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/climascope/climascope/internal/logging"
	"github.com/climascope/climascope/internal/platform"
	"github.com/climascope/climascope/pkg/config"
	"github.com/climascope/climascope/pkg/report"
)

// loadConfig reads the explicit config path, or discovers one from dir.
// Defaults apply when no file is found.
func loadConfig(path, dir string) (*config.Config, error) {
	if path == "" {
		path = config.FindConfigFile(dir)
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads and validates config, builds the logger and opens the database.
func setup(ctx context.Context, g *globalOpts) (*config.Config, *zap.Logger, *sql.DB, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := loadConfig(g.configPath, cwd)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger, err := logging.New(g.env)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := platform.Open(ctx, g.databaseURL)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

// parseDate parses an optional YYYY-MM-DD flag value.
func parseDate(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(report.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	return t, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
