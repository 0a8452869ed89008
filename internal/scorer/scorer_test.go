package scorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/climascope/climascope/pkg/sentiment"
)

func TestPolarity(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"1 star", 1},
		{"4 stars", 4},
		{"5 stars", 5},
		{"LABEL_3", 3},
		{"10 stars", 10},
		{"LABEL_07", 7},
		{"positive", sentiment.Unresolved},
		{"", sentiment.Unresolved},
	}
	for _, tt := range tests {
		if got := Polarity(tt.label); got != tt.want {
			t.Errorf("Polarity(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("hello", 3); got != "hel" {
		t.Errorf("Truncate = %q, want %q", got, "hel")
	}
	// Multi-byte runes must not be split.
	if got := Truncate("ñandú feliz", 5); got != "ñandú" {
		t.Errorf("Truncate runes = %q, want %q", got, "ñandú")
	}
}

func TestTopLabel(t *testing.T) {
	labels := []Label{{"1 star", 0.1}, {"4 stars", 0.6}, {"5 stars", 0.3}}
	if got := TopLabel(labels); got != "4 stars" {
		t.Errorf("TopLabel = %q, want %q", got, "4 stars")
	}
	if got := TopLabel(nil); got != "" {
		t.Errorf("TopLabel(nil) = %q, want empty", got)
	}
}

func TestHTTPScorer(t *testing.T) {
	var gotInput, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotInput = body["inputs"]
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{"label":"2 stars","score":0.7},{"label":"3 stars","score":0.2}]]`))
	}))
	defer srv.Close()

	s, err := NewHTTPScorer(Options{
		Endpoint: srv.URL + "/",
		Model:    "org/model",
		Token:    "secret",
		MaxChars: 8,
	})
	if err != nil {
		t.Fatalf("NewHTTPScorer: %v", err)
	}

	got, err := s.Score(context.Background(), "the workload is unbearable")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 2 {
		t.Errorf("Score = %d, want 2", got)
	}
	if gotInput != "the work" {
		t.Errorf("input sent = %q, want truncated %q", gotInput, "the work")
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/org/model" {
		t.Errorf("path = %q, want /org/model", gotPath)
	}
}

func TestHTTPScorerFlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"5 stars","score":0.9}]`))
	}))
	defer srv.Close()

	s, err := NewHTTPScorer(Options{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPScorer: %v", err)
	}
	got, err := s.Score(context.Background(), "great")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 5 {
		t.Errorf("Score = %d, want 5", got)
	}
}

func TestHTTPScorerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s, err := NewHTTPScorer(Options{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPScorer: %v", err)
	}
	_, err = s.Score(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should mention status, got %v", err)
	}
}

func TestNewHTTPScorerRequiresEndpoint(t *testing.T) {
	if _, err := NewHTTPScorer(Options{}); err == nil {
		t.Error("expected error for empty endpoint")
	}
}

func TestFunc(t *testing.T) {
	var s Scorer = Func(func(ctx context.Context, text string) (int, error) {
		return len(text), nil
	})
	got, err := s.Score(context.Background(), "abc")
	if err != nil || got != 3 {
		t.Errorf("Func.Score = %d, %v", got, err)
	}
}

func TestHTTPScorerRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[{"label":"3 stars","score":0.9}]`))
	}))
	defer srv.Close()

	// One request per ~17 minutes: the first call uses the burst, the
	// second cannot be served before the deadline.
	s, err := NewHTTPScorer(Options{Endpoint: srv.URL, RateLimit: 0.001})
	if err != nil {
		t.Fatalf("NewHTTPScorer: %v", err)
	}
	if _, err := s.Score(context.Background(), "a"); err != nil {
		t.Fatalf("first Score: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.Score(ctx, "b"); err == nil {
		t.Fatal("expected rate limit error")
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1", calls)
	}
}
