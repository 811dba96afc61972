package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/study-planner-api/internal/models"
)

const activityColumns = `id, name, type, icon, color, frequency, days_of_week, start_time, end_time, location, priority,
flexible, buffer_before, buffer_after, event_date, created_at, updated_at`

// ActivityRepository manages persistence for fixed commitments.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// List returns all activities ordered by name.
func (r *ActivityRepository) List(ctx context.Context) ([]models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities ORDER BY name ASC"
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// FindByID fetches an activity by ID.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities WHERE id = $1"
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Create inserts an activity.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now
	const query = `INSERT INTO activities (id, name, type, icon, color, frequency, days_of_week, start_time, end_time, location,
        priority, flexible, buffer_before, buffer_after, event_date, created_at, updated_at)
        VALUES (:id, :name, :type, :icon, :color, :frequency, :days_of_week, :start_time, :end_time, :location,
        :priority, :flexible, :buffer_before, :buffer_after, :event_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// Update persists the mutable activity fields.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities SET name = :name, type = :type, icon = :icon, color = :color, frequency = :frequency,
        days_of_week = :days_of_week, start_time = :start_time, end_time = :end_time, location = :location,
        priority = :priority, flexible = :flexible, buffer_before = :buffer_before, buffer_after = :buffer_after,
        event_date = :event_date, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, activity)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return requireAffected(res, "update activity")
}

// Delete removes an activity. Blocks referencing it keep their copy with a null link.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM activities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return requireAffected(res, "delete activity")
}
