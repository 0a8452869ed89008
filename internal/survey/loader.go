// Package survey loads raw survey answers from the HR relational store.
// The schema (empleado, departamento, empresa, pregunta, respuesta) is owned
// by the HR system; this package only reads it.
package survey

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/climascope/climascope/pkg/sentiment"
)

// Response is one answer joined with its employee's organizational unit.
type Response struct {
	EmployeeID string
	Group      sentiment.GroupKey
	Question   string
	Answer     string
	Kind       sentiment.AnswerKind
}

// Loader reads survey answers from Postgres.
type Loader struct {
	db *sql.DB
}

// NewLoader creates a Loader over an open connection pool.
func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// groupColumns maps a group-by field to the SQL expression that yields it.
var groupColumns = map[string]string{
	"company":    "COALESCE(c.nombre, '')",
	"department": "d.nombre",
}

// buildQuery returns the answers query with one group column per field in
// groupBy, in order. Open question types ('abierta', 'texto') are free text.
func buildQuery(groupBy []string) (string, error) {
	if len(groupBy) == 0 {
		return "", fmt.Errorf("group by: at least one field is required")
	}
	cols := make([]string, 0, len(groupBy))
	needCompany := false
	for _, f := range groupBy {
		expr, ok := groupColumns[f]
		if !ok {
			return "", fmt.Errorf("group by: unknown field %q", f)
		}
		if f == "company" {
			needCompany = true
		}
		cols = append(cols, expr)
	}

	var b strings.Builder
	b.WriteString(`SELECT r.id_empleado::text, `)
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(`, p.texto, r.respuesta,
		        CASE WHEN p.tipo IN ('abierta', 'texto') THEN 'free_text' ELSE 'numeric' END
		 FROM respuesta r
		 JOIN pregunta p ON p.id_pregunta = r.id_pregunta
		 JOIN empleado e ON e.id_empleado = r.id_empleado
		 JOIN departamento d ON d.id_departamento = e.id_departamento`)
	if needCompany {
		b.WriteString(`
		 LEFT JOIN empresa c ON c.id_empresa = d.id_empresa`)
	}
	b.WriteString(`
		 ORDER BY r.id_empleado, p.id_pregunta`)
	return b.String(), nil
}

// Load returns every answer grouped by the given fields. Filtering by kind
// is left to the caller.
func (l *Loader) Load(ctx context.Context, groupBy []string) ([]Response, error) {
	query, err := buildQuery(groupBy)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var (
			r     Response
			kind  string
			group = make([]string, len(groupBy))
		)
		dest := []any{&r.EmployeeID}
		for i := range group {
			dest = append(dest, &group[i])
		}
		dest = append(dest, &r.Question, &r.Answer, &kind)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.Group = sentiment.GroupKey(group)
		r.Kind = sentiment.AnswerKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FreeText keeps only the free-text answers.
func FreeText(responses []Response) []Response {
	var out []Response
	for _, r := range responses {
		if r.Kind == sentiment.KindFreeText {
			out = append(out, r)
		}
	}
	return out
}
