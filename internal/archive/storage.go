// Package archive stores the JSON report of every pipeline run in blob
// storage so it can be served again without recomputing.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/climascope/climascope/pkg/config"
)

// StorageClient abstracts blob storage for run reports.
type StorageClient interface {
	PutReport(ctx context.Context, runID string, data []byte) error
	GetReport(ctx context.Context, runID string) ([]byte, error)
}

// Ref returns the storage reference recorded for a run's report.
func Ref(runID string) string {
	return "reports/" + runID + ".json"
}

// New builds the StorageClient selected by cfg.
func New(ctx context.Context, cfg *config.Config) (StorageClient, error) {
	switch cfg.Archive.Backend {
	case "", "local":
		return NewLocalStorage(cfg.ArchivePath()), nil
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
	case "gcs":
		return NewGCSStorage(ctx, cfg.Archive.Bucket)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

// LocalStorage implements StorageClient using the local filesystem.
// Useful for development and the CLI.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(runID string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(Ref(runID)))
}

// PutReport stores a report blob.
func (s *LocalStorage) PutReport(ctx context.Context, runID string, data []byte) error {
	path := s.path(runID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetReport retrieves a report blob.
func (s *LocalStorage) GetReport(ctx context.Context, runID string) ([]byte, error) {
	return os.ReadFile(s.path(runID))
}
