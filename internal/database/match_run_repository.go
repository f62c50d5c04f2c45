package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tripsync/tripsync/internal/models"
)

// ErrMatchRunNotFound is returned when a run id is unknown.
var ErrMatchRunNotFound = errors.New("match run not found")

const maxRecentRuns = 100

// MatchRunRepository persists match run summaries.
type MatchRunRepository struct {
	db *sql.DB
}

// NewMatchRunRepository creates a new match run repository.
func NewMatchRunRepository(db *sql.DB) *MatchRunRepository {
	return &MatchRunRepository{db: db}
}

// Record stores one run summary.
func (r *MatchRunRepository) Record(ctx context.Context, run models.MatchRun) error {
	query := `
		INSERT INTO match_runs (id, mode, picks, max_days, radius_miles, occurrences, fallback, fetch_errors, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		string(run.Mode),
		pq.Array(run.Picks),
		run.MaxDays,
		run.RadiusMiles,
		run.Occurrences,
		run.Fallback,
		run.FetchErrors,
		run.DurationMS,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record match run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns one run by id.
func (r *MatchRunRepository) Get(ctx context.Context, id string) (models.MatchRun, error) {
	query := `
		SELECT id, mode, picks, max_days, radius_miles, occurrences, fallback, fetch_errors, duration_ms, created_at
		FROM match_runs
		WHERE id = $1
	`

	run, err := scanMatchRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.MatchRun{}, ErrMatchRunNotFound
	}
	if err != nil {
		return models.MatchRun{}, fmt.Errorf("get match run %s: %w", id, err)
	}
	return run, nil
}

// ListRecent returns the newest runs first.
func (r *MatchRunRepository) ListRecent(ctx context.Context, limit int) ([]models.MatchRun, error) {
	if limit <= 0 || limit > maxRecentRuns {
		limit = maxRecentRuns
	}

	query := `
		SELECT id, mode, picks, max_days, radius_miles, occurrences, fallback, fetch_errors, duration_ms, created_at
		FROM match_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list match runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.MatchRun, 0, limit)
	for rows.Next() {
		run, err := scanMatchRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatchRun(row rowScanner) (models.MatchRun, error) {
	var run models.MatchRun
	var mode string
	err := row.Scan(
		&run.ID,
		&mode,
		pq.Array(&run.Picks),
		&run.MaxDays,
		&run.RadiusMiles,
		&run.Occurrences,
		&run.Fallback,
		&run.FetchErrors,
		&run.DurationMS,
		&run.CreatedAt,
	)
	run.Mode = models.Mode(mode)
	return run, err
}
