package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tripsync/tripsync/internal/models"
)

// ResolutionRepository stores canonical ids found for named picks.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new resolution repository.
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// Lookup returns the stored resolution for kind and normalized name. The
// boolean is false when none exists.
func (r *ResolutionRepository) Lookup(ctx context.Context, kind models.PickKind, nameKey string) (models.PickResolution, bool, error) {
	query := `
		SELECT kind, name_key, canonical_id, display_name, resolved_at
		FROM pick_resolutions
		WHERE kind = $1 AND name_key = $2
	`

	var res models.PickResolution
	err := r.db.QueryRowContext(ctx, query, string(kind), nameKey).Scan(
		&res.Kind,
		&res.NameKey,
		&res.CanonicalID,
		&res.DisplayName,
		&res.ResolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PickResolution{}, false, nil
	}
	if err != nil {
		return models.PickResolution{}, false, fmt.Errorf("lookup resolution %s/%s: %w", kind, nameKey, err)
	}
	return res, true, nil
}

// Save inserts or refreshes a resolution.
func (r *ResolutionRepository) Save(ctx context.Context, res models.PickResolution) error {
	query := `
		INSERT INTO pick_resolutions (kind, name_key, canonical_id, display_name, resolved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, name_key) DO UPDATE
		SET canonical_id = EXCLUDED.canonical_id,
		    display_name = EXCLUDED.display_name,
		    resolved_at = EXCLUDED.resolved_at
	`

	if res.ResolvedAt.IsZero() {
		res.ResolvedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query,
		string(res.Kind),
		res.NameKey,
		res.CanonicalID,
		res.DisplayName,
		res.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("save resolution %s/%s: %w", res.Kind, res.NameKey, err)
	}
	return nil
}

// DeleteOlderThan removes resolutions last refreshed before cutoff.
func (r *ResolutionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pick_resolutions WHERE resolved_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale resolutions: %w", err)
	}
	return result.RowsAffected()
}
