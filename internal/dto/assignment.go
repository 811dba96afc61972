package dto

import (
	"time"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// CreateAssignmentRequest captures POST /assignments payload.
type CreateAssignmentRequest struct {
	CourseID  string                `json:"courseId" validate:"required"`
	Title     string                `json:"title" validate:"required,max=255"`
	Type      models.AssignmentType `json:"type" validate:"required,oneof=homework quiz exam lab project reading"`
	Platform  string                `json:"platform" validate:"omitempty,max=64"`
	DueDate   time.Time             `json:"dueDate" validate:"required"`
	Completed bool                  `json:"completed"`
}

// UpdateAssignmentRequest captures PATCH /assignments/:id payload. Nil fields are left unchanged.
type UpdateAssignmentRequest struct {
	CourseID  *string                `json:"courseId" validate:"omitempty,min=1"`
	Title     *string                `json:"title" validate:"omitempty,min=1,max=255"`
	Type      *models.AssignmentType `json:"type" validate:"omitempty,oneof=homework quiz exam lab project reading"`
	Platform  *string                `json:"platform" validate:"omitempty,max=64"`
	DueDate   *time.Time             `json:"dueDate"`
	Completed *bool                  `json:"completed"`
}
