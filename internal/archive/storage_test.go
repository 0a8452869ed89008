package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/climascope/climascope/pkg/config"
)

func TestLocalStoragePutGetReport(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte(`{"aggregates":[]}`)
	if err := s.PutReport(ctx, "run1", data); err != nil {
		t.Fatalf("PutReport: %v", err)
	}

	got, err := s.GetReport(ctx, "run1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetReport = %q, want %q", got, data)
	}

	// Verify file path layout
	expectedPath := filepath.Join(dir, "reports", "run1.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStorageGetNotFound(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	_, err := s.GetReport(context.Background(), "nonexistent")
	if err == nil {
		t.Error("expected error for nonexistent report")
	}
}

func TestRef(t *testing.T) {
	if got := Ref("abc"); got != "reports/abc.json" {
		t.Errorf("Ref = %q, want reports/abc.json", got)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Archive.LocalPath = t.TempDir()
	s, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New(local): %v", err)
	}
	if _, ok := s.(*LocalStorage); !ok {
		t.Errorf("New(local) = %T, want *LocalStorage", s)
	}

	cfg.Archive.Backend = "ftp"
	if _, err := New(ctx, cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestS3Options(t *testing.T) {
	if opts := s3Options(S3Config{}); len(opts) != 0 {
		t.Errorf("expected no options without endpoint, got %d", len(opts))
	}
	if opts := s3Options(S3Config{Endpoint: "http://localhost:9000"}); len(opts) != 1 {
		t.Errorf("expected 1 option with endpoint, got %d", len(opts))
	}
}

func TestRemoteBackendsRequireBucket(t *testing.T) {
	ctx := context.Background()
	if _, err := NewS3Storage(ctx, S3Config{}); err == nil {
		t.Error("expected error for empty s3 bucket")
	}
	if _, err := NewGCSStorage(ctx, ""); err == nil {
		t.Error("expected error for empty gcs bucket")
	}
}
