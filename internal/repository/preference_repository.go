package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// PreferenceRepository stores keyed JSON preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs a PreferenceRepository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the preference stored under key.
func (r *PreferenceRepository) Get(ctx context.Context, key string) (*models.Preference, error) {
	const query = `SELECT key, value, updated_at FROM preferences WHERE key = $1`
	var pref models.Preference
	if err := r.db.GetContext(ctx, &pref, query, key); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert inserts or replaces the value for pref.Key.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.Preference) error {
	pref.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO preferences (key, value, updated_at) VALUES (:key, :value, :updated_at)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert preference %s: %w", pref.Key, err)
	}
	return nil
}
