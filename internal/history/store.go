// Package history persists per-group sentiment snapshots and run metadata
// in Postgres.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/climascope/climascope/pkg/sentiment"
)

// Run statuses.
const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusNoData    = "NO_DATA"
	StatusFailed    = "FAILED"
)

// Store provides history and run bookkeeping backed by Postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a new history Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Row is one persisted history record.
type Row struct {
	ID           int64              `json:"id"`
	RunID        string             `json:"run_id"`
	GroupBy      []string           `json:"group_by"`
	Group        sentiment.GroupKey `json:"group"`
	MeanPolarity float64            `json:"mean_polarity"`
	AsOf         time.Time          `json:"as_of"`
	CreatedAt    time.Time          `json:"created_at"`
}

// RunRow is the metadata of one pipeline run.
type RunRow struct {
	ID            string
	AsOf          time.Time
	Status        string
	ResponseCount int
	GroupCount    int
	AlertCount    int
	StorageRef    *string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Filter narrows a history listing. Zero values mean "no constraint".
type Filter struct {
	GroupBy []string
	Group   sentiment.GroupKey
	From    time.Time
	To      time.Time
	Limit   int
}

// Insert writes one row per record in a single transaction. Every call
// inserts; repeated runs on the same day produce additional rows.
func (s *Store) Insert(ctx context.Context, runID string, groupBy []string, records []sentiment.HistoricalRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sentiment_history (run_id, group_by, group_key, mean_polarity, as_of)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			runID, pq.Array(groupBy), pq.Array([]string(rec.Group)), rec.MeanPolarity, rec.AsOf,
		); err != nil {
			return fmt.Errorf("insert history for %s: %w", rec.Group, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// buildListQuery renders the history query and its arguments for f.
func buildListQuery(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if len(f.GroupBy) > 0 {
		args = append(args, pq.Array(f.GroupBy))
		where = append(where, fmt.Sprintf("group_by = $%d", len(args)))
	}
	if len(f.Group) > 0 {
		args = append(args, pq.Array([]string(f.Group)))
		where = append(where, fmt.Sprintf("group_key = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, sentiment.CalendarDay(f.From))
		where = append(where, fmt.Sprintf("as_of >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, sentiment.CalendarDay(f.To))
		where = append(where, fmt.Sprintf("as_of <= $%d", len(args)))
	}

	query := `SELECT id, run_id, group_by, group_key, mean_polarity, as_of, created_at
		 FROM sentiment_history`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY as_of ASC, created_at ASC, id ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

// List returns history rows matching f, oldest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Row, error) {
	query, args := buildListQuery(f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			groupBy pq.StringArray
			group   pq.StringArray
		)
		if err := rows.Scan(&r.ID, &r.RunID, &groupBy, &group, &r.MeanPolarity, &r.AsOf, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.GroupBy = []string(groupBy)
		r.Group = sentiment.GroupKey(group)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateRun records the start of a pipeline run.
func (s *Store) CreateRun(ctx context.Context, runID string, asOf time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sentiment_runs (id, as_of, status) VALUES ($1, $2, $3)`,
		runID, sentiment.CalendarDay(asOf), StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome and counts of a run.
func (s *Store) FinishRun(ctx context.Context, run RunRow) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sentiment_runs
		    SET status = $1, response_count = $2, group_count = $3, alert_count = $4,
		        storage_ref = $5, error_message = $6, updated_at = now()
		  WHERE id = $7`,
		run.Status, run.ResponseCount, run.GroupCount, run.AlertCount,
		run.StorageRef, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns run metadata by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRow, error) {
	r := &RunRow{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, as_of, status, response_count, group_count, alert_count,
		        storage_ref, error_message, created_at, updated_at
		 FROM sentiment_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.AsOf, &r.Status, &r.ResponseCount, &r.GroupCount, &r.AlertCount,
		&r.StorageRef, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}
