package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/study-planner-api/internal/models"
)

const scheduleBlockColumns = `id, activity_id, assignment_id, date, start_time, end_time, title, type, icon, color, location,
is_generated, is_locked, is_completed, created_at`

// generationLockKey namespaces the advisory lock taken while regenerating study blocks.
const generationLockKey int64 = 72010

// ScheduleBlockRepository manages persistence for calendar blocks.
type ScheduleBlockRepository struct {
	db *sqlx.DB
}

// NewScheduleBlockRepository constructs a ScheduleBlockRepository.
func NewScheduleBlockRepository(db *sqlx.DB) *ScheduleBlockRepository {
	return &ScheduleBlockRepository{db: db}
}

func (r *ScheduleBlockRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns blocks ordered by date and start time.
func (r *ScheduleBlockRepository) List(ctx context.Context, filter models.ScheduleBlockFilter) ([]models.ScheduleBlock, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	query := "SELECT " + scheduleBlockColumns + " FROM schedule_blocks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, start_time ASC"

	var blocks []models.ScheduleBlock
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule blocks: %w", err)
	}
	return blocks, nil
}

// FindByID fetches a block by ID.
func (r *ScheduleBlockRepository) FindByID(ctx context.Context, id string) (*models.ScheduleBlock, error) {
	query := "SELECT " + scheduleBlockColumns + " FROM schedule_blocks WHERE id = $1"
	var block models.ScheduleBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

const insertScheduleBlock = `INSERT INTO schedule_blocks (id, activity_id, assignment_id, date, start_time, end_time, title, type, icon,
color, location, is_generated, is_locked, is_completed, created_at)
VALUES (:id, :activity_id, :assignment_id, :date, :start_time, :end_time, :title, :type, :icon,
:color, :location, :is_generated, :is_locked, :is_completed, :created_at)`

// Create inserts a single block.
func (r *ScheduleBlockRepository) Create(ctx context.Context, block *models.ScheduleBlock) error {
	batch := []models.ScheduleBlock{*block}
	if err := r.BulkCreate(ctx, nil, batch); err != nil {
		return err
	}
	*block = batch[0]
	return nil
}

// BulkCreate inserts blocks on the given executor (a transaction or the pool),
// writing generated IDs back into the slice.
func (r *ScheduleBlockRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.ScheduleBlock) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range blocks {
		payload := blocks[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, insertScheduleBlock, &payload); err != nil {
			return fmt.Errorf("bulk insert schedule block: %w", err)
		}
		blocks[i] = payload
	}
	return nil
}

// Update persists the mutable block fields.
func (r *ScheduleBlockRepository) Update(ctx context.Context, block *models.ScheduleBlock) error {
	const query = `UPDATE schedule_blocks SET date = :date, start_time = :start_time, end_time = :end_time, title = :title,
color = :color, location = :location, is_locked = :is_locked, is_completed = :is_completed WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, block)
	if err != nil {
		return fmt.Errorf("update schedule block: %w", err)
	}
	return requireAffected(res, "update schedule block")
}

// ToggleCompleted flips the completion flag and returns the updated row.
func (r *ScheduleBlockRepository) ToggleCompleted(ctx context.Context, id string) (*models.ScheduleBlock, error) {
	query := "UPDATE schedule_blocks SET is_completed = NOT is_completed WHERE id = $1 RETURNING " + scheduleBlockColumns
	var block models.ScheduleBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// Delete removes a block.
func (r *ScheduleBlockRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM schedule_blocks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete schedule block: %w", err)
	}
	return requireAffected(res, "delete schedule block")
}

// DeleteGenerated clears unlocked generated blocks and reports how many were removed.
func (r *ScheduleBlockRepository) DeleteGenerated(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM schedule_blocks WHERE is_generated = TRUE AND is_locked = FALSE")
	if err != nil {
		return 0, fmt.Errorf("delete generated schedule blocks: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete generated schedule blocks rows affected: %w", err)
	}
	return removed, nil
}

// LockGeneration takes a transaction-scoped advisory lock serialising regeneration.
// exec must be a transaction; the lock is released on commit or rollback.
func (r *ScheduleBlockRepository) LockGeneration(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := r.exec(exec).ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", generationLockKey); err != nil {
		return fmt.Errorf("acquire generation lock: %w", err)
	}
	return nil
}
