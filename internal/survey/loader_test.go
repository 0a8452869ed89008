package survey

import (
	"strings"
	"testing"

	"github.com/climascope/climascope/pkg/sentiment"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name        string
		groupBy     []string
		wantErr     bool
		wantCompany bool
		wantCols    string
	}{
		{
			name:     "department only",
			groupBy:  []string{"department"},
			wantCols: "r.id_empleado::text, d.nombre, p.texto",
		},
		{
			name:        "company and department",
			groupBy:     []string{"company", "department"},
			wantCompany: true,
			wantCols:    "r.id_empleado::text, COALESCE(c.nombre, ''), d.nombre, p.texto",
		},
		{
			name:    "unknown field",
			groupBy: []string{"team"},
			wantErr: true,
		},
		{
			name:    "no fields",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := buildQuery(tc.groupBy)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(q, tc.wantCols) {
				t.Errorf("query missing columns %q:\n%s", tc.wantCols, q)
			}
			if got := strings.Contains(q, "JOIN empresa"); got != tc.wantCompany {
				t.Errorf("company join present = %v, want %v", got, tc.wantCompany)
			}
			if !strings.Contains(q, "'abierta', 'texto'") {
				t.Error("query should classify open questions as free text")
			}
		})
	}
}

func TestFreeText(t *testing.T) {
	in := []Response{
		{EmployeeID: "1", Kind: sentiment.KindFreeText, Answer: "good team"},
		{EmployeeID: "1", Kind: sentiment.KindNumeric, Answer: "4"},
		{EmployeeID: "2", Kind: sentiment.KindFreeText, Answer: "too many meetings"},
	}

	got := FreeText(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 free-text responses, got %d", len(got))
	}
	for _, r := range got {
		if r.Kind != sentiment.KindFreeText {
			t.Errorf("unexpected kind %q", r.Kind)
		}
	}
	if FreeText(nil) != nil {
		t.Error("FreeText(nil) should be nil")
	}
}

func TestNewLoader(t *testing.T) {
	if NewLoader(nil) == nil {
		t.Fatal("NewLoader returned nil")
	}
}
