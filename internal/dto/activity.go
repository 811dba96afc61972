package dto

import "github.com/noah-isme/study-planner-api/internal/models"

// ActivityRequest captures POST /activities payload.
type ActivityRequest struct {
	Name         string                  `json:"name" validate:"required,max=128"`
	Type         string                  `json:"type" validate:"required,max=32"`
	Icon         string                  `json:"icon" validate:"omitempty,max=32"`
	Color        string                  `json:"color" validate:"omitempty,hexcolor"`
	Frequency    models.Frequency        `json:"frequency" validate:"required,oneof=daily weekly once"`
	DaysOfWeek   []string                `json:"daysOfWeek" validate:"omitempty,dive,required"`
	StartTime    string                  `json:"startTime" validate:"required,datetime=15:04"`
	EndTime      *string                 `json:"endTime" validate:"omitempty,datetime=15:04"`
	Location     *string                 `json:"location" validate:"omitempty,max=128"`
	Priority     models.ActivityPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Flexible     bool                    `json:"flexible"`
	BufferBefore int                     `json:"bufferBefore" validate:"min=0,max=30"`
	BufferAfter  int                     `json:"bufferAfter" validate:"min=0,max=30"`
	EventDate    *string                 `json:"eventDate" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateActivityRequest captures PATCH /activities/:id payload. Nil fields are left unchanged.
type UpdateActivityRequest struct {
	Name         *string                  `json:"name" validate:"omitempty,min=1,max=128"`
	Type         *string                  `json:"type" validate:"omitempty,min=1,max=32"`
	Icon         *string                  `json:"icon" validate:"omitempty,max=32"`
	Color        *string                  `json:"color" validate:"omitempty,hexcolor"`
	Frequency    *models.Frequency        `json:"frequency" validate:"omitempty,oneof=daily weekly once"`
	DaysOfWeek   []string                 `json:"daysOfWeek" validate:"omitempty,dive,required"`
	StartTime    *string                  `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime      *string                  `json:"endTime" validate:"omitempty,datetime=15:04"`
	Location     *string                  `json:"location" validate:"omitempty,max=128"`
	Priority     *models.ActivityPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Flexible     *bool                    `json:"flexible"`
	BufferBefore *int                     `json:"bufferBefore" validate:"omitempty,min=0,max=30"`
	BufferAfter  *int                     `json:"bufferAfter" validate:"omitempty,min=0,max=30"`
	EventDate    *string                  `json:"eventDate" validate:"omitempty,datetime=2006-01-02"`
}
