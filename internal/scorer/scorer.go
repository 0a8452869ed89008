// Package scorer resolves free-text answers to ordinal polarity labels using
// a hosted text-classification model.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/climascope/climascope/pkg/sentiment"
)

// Scorer maps text to a polarity. It returns sentiment.Unresolved when the
// model's label carries no ordinal value.
type Scorer interface {
	Score(ctx context.Context, text string) (int, error)
}

// Func adapts a plain function to the Scorer interface.
type Func func(ctx context.Context, text string) (int, error)

func (f Func) Score(ctx context.Context, text string) (int, error) { return f(ctx, text) }

// Label is one class returned by the classifier.
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// HTTPScorer calls an inference endpoint that accepts {"inputs": "..."} and
// answers with a list of labels, e.g. [{"label":"4 stars","score":0.61}].
type HTTPScorer struct {
	endpoint   string
	token      string
	maxChars   int
	limiter    *rate.Limiter // nil when unlimited
	httpClient *http.Client
}

// Options configures an HTTPScorer.
type Options struct {
	Endpoint string // base URL; the model name is appended
	Model    string
	Token    string
	MaxChars int
	Timeout  time.Duration
	// RateLimit caps requests per second across all callers. Zero disables it.
	RateLimit float64
}

// NewHTTPScorer creates a scorer for the given model.
func NewHTTPScorer(opts Options) (*HTTPScorer, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("scorer endpoint is required")
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = 512
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if opts.Model != "" {
		endpoint += "/" + opts.Model
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return &HTTPScorer{
		endpoint:   endpoint,
		token:      opts.Token,
		maxChars:   opts.MaxChars,
		limiter:    limiter,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}, nil
}

// Score classifies text and extracts the polarity from the top label.
func (s *HTTPScorer) Score(ctx context.Context, text string) (int, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit: %w", err)
		}
	}
	body, err := json.Marshal(map[string]string{"inputs": Truncate(text, s.maxChars)})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("classify: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("classifier error %d: %s", resp.StatusCode, string(respBody))
	}

	labels, err := decodeLabels(respBody)
	if err != nil {
		return 0, err
	}
	return Polarity(TopLabel(labels)), nil
}

// decodeLabels accepts both a flat list and the batched [[...]] shape.
func decodeLabels(data []byte) ([]Label, error) {
	var nested [][]Label
	if err := json.Unmarshal(data, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}
	var flat []Label
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	return flat, nil
}

// TopLabel returns the label with the highest score, or "" for none.
func TopLabel(labels []Label) string {
	best := -1
	for i, l := range labels {
		if best < 0 || l.Score > labels[best].Score {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return labels[best].Label
}

var numberRe = regexp.MustCompile(`\d+`)

// Polarity extracts the first number in a label ("4 stars" -> 4,
// "10 stars" -> 10).
func Polarity(label string) int {
	m := numberRe.FindString(label)
	if m == "" {
		return sentiment.Unresolved
	}
	p, _ := strconv.Atoi(m)
	return p
}

// Truncate cuts text to at most n runes; the model rejects longer inputs.
func Truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
