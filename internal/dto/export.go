package dto

import "github.com/noah-isme/study-planner-api/internal/models"

// ExportRequest captures POST /schedule-blocks/exports payload.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	From   *string             `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To     *string             `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
