package logging

import "testing"

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		logger, err := New(env)
		if err != nil {
			t.Fatalf("New(%q): %v", env, err)
		}
		if logger == nil {
			t.Fatalf("New(%q) returned nil logger", env)
		}
		if ce := logger.Check(-1, "debug"); (ce != nil) == (env == "production") {
			t.Errorf("New(%q): unexpected debug enablement", env)
		}
	}
}
