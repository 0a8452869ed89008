// Command climascoped is the climascope service. It serves the run,
// report and history API and a health check.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/climascope/climascope/internal/api"
	"github.com/climascope/climascope/internal/archive"
	"github.com/climascope/climascope/internal/history"
	"github.com/climascope/climascope/internal/logging"
	"github.com/climascope/climascope/internal/pipeline"
	"github.com/climascope/climascope/internal/platform"
	"github.com/climascope/climascope/internal/scorer"
	"github.com/climascope/climascope/internal/survey"
	"github.com/climascope/climascope/pkg/config"
)

type envConfig struct {
	Port        string
	DatabaseURL string
	APIKey      string
	Env         string
	ScorerToken string
	RedisURL    string
	ConfigPath  string
}

func loadEnv() envConfig {
	return envConfig{
		Port:        envOrDefault("PORT", "8080"),
		DatabaseURL: envOrDefault("DATABASE_URL", "postgres://localhost:5432/climascope?sslmode=disable"),
		APIKey:      os.Getenv("API_KEY"),
		Env:         envOrDefault("ENV", "development"),
		ScorerToken: os.Getenv("SCORER_TOKEN"),
		RedisURL:    os.Getenv("REDIS_URL"),
		ConfigPath:  os.Getenv("CLIMASCOPE_CONFIG"),
	}
}

func main() {
	env := loadEnv()

	logger, err := logging.New(env.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(env, logger); err != nil {
		logger.Fatal("climascoped exited", zap.Error(err))
	}
}

func loadConfig(env envConfig) (*config.Config, error) {
	path := env.ConfigPath
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(cwd)
		}
	}
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if env.RedisURL != "" {
		cfg.Cache.RedisURL = env.RedisURL
	}
	if env.ScorerToken != "" {
		cfg.Scorer.Token = env.ScorerToken
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildCache(cfg *config.Config, logger *zap.Logger) (api.ReportCache, func(), error) {
	if cfg.Cache.RedisURL == "" {
		return api.NewMemoryReportCache(cfg.Cache.Size), func() {}, nil
	}
	rc, err := api.NewRedisReportCache(cfg.Cache.RedisURL, cfg.CacheTTL())
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, reports will be read from the archive", zap.Error(err))
	}
	return rc, func() { _ = rc.Close() }, nil
}

func run(env envConfig, logger *zap.Logger) error {
	cfg, err := loadConfig(env)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := platform.Open(ctx, env.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := platform.AutoMigrate(db); err != nil {
		return err
	}

	store, err := archive.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	sc, err := scorer.NewHTTPScorer(scorer.Options{
		Endpoint:  cfg.Scorer.Endpoint,
		Model:     cfg.Scorer.Model,
		Token:     cfg.Scorer.Token,
		MaxChars:  cfg.Scorer.MaxChars,
		Timeout:   cfg.ScorerTimeout(),
		RateLimit: cfg.Scorer.RateLimit,
	})
	if err != nil {
		return err
	}

	hist := history.NewStore(db)
	svc, err := pipeline.NewService(survey.NewLoader(db), sc, hist, store, pipeline.Options{
		Config:      cfg.Core(),
		Concurrency: cfg.Scorer.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	cache, closeCache, err := buildCache(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	handler := api.NewHandler(svc, hist, store, api.Options{
		APIKey:  env.APIKey,
		GroupBy: cfg.Pipeline.GroupBy,
		Cache:   cache,
		DB:      db,
		Runs:    hist,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting climascoped", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
