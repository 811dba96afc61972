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

const assignmentSelect = `SELECT a.id, a.course_id, a.title, a.type, a.platform, a.due_date, a.completed, a.created_at, a.updated_at,
c.id AS "course.id", c.code AS "course.code", c.name AS "course.name", c.color AS "course.color",
c.created_at AS "course.created_at", c.updated_at AS "course.updated_at"
FROM assignments a
JOIN courses c ON c.id = a.course_id`

// AssignmentRepository manages persistence for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments joined with their course, ordered by due date.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithCourse, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Completed != nil {
		conditions = append(conditions, fmt.Sprintf("a.completed = $%d", len(args)+1))
		args = append(args, *filter.Completed)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("a.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.due_date >= $%d", len(args)+1))
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.due_date < $%d", len(args)+1))
		args = append(args, *filter.DueTo)
	}

	query := assignmentSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.due_date ASC, a.id ASC"

	var assignments []models.AssignmentWithCourse
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// FindByID fetches an assignment with its course.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.AssignmentWithCourse, error) {
	var assignment models.AssignmentWithCourse
	if err := r.db.GetContext(ctx, &assignment, assignmentSelect+" WHERE a.id = $1", id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, course_id, title, type, platform, due_date, completed, created_at, updated_at)
        VALUES (:id, :course_id, :title, :type, :platform, :due_date, :completed, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update persists the mutable assignment fields.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET course_id = :course_id, title = :title, type = :type, platform = :platform,
        due_date = :due_date, completed = :completed, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return requireAffected(res, "update assignment")
}

// Toggle flips the completed flag atomically and returns the new value.
func (r *AssignmentRepository) Toggle(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE assignments SET completed = NOT completed, updated_at = NOW() WHERE id = $1 RETURNING completed`
	var completed bool
	if err := r.db.GetContext(ctx, &completed, query, id); err != nil {
		return false, err
	}
	return completed, nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return requireAffected(res, "delete assignment")
}
