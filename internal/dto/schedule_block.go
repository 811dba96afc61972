package dto

// CreateScheduleBlockRequest captures a single block payload.
type CreateScheduleBlockRequest struct {
	ActivityID   *string `json:"activityId"`
	AssignmentID *string `json:"assignmentId"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string  `json:"startTime" validate:"required,datetime=15:04"`
	EndTime      string  `json:"endTime" validate:"required,datetime=15:04"`
	Title        string  `json:"title" validate:"required,max=255"`
	Type         string  `json:"type" validate:"required,max=32"`
	Icon         *string `json:"icon" validate:"omitempty,max=32"`
	Color        string  `json:"color" validate:"omitempty,hexcolor"`
	Location     *string `json:"location" validate:"omitempty,max=128"`
	IsGenerated  bool    `json:"isGenerated"`
	IsLocked     bool    `json:"isLocked"`
	IsCompleted  bool    `json:"isCompleted"`
}

// BulkCreateScheduleBlocksRequest captures POST /schedule-blocks/bulk payload.
type BulkCreateScheduleBlocksRequest struct {
	Blocks []CreateScheduleBlockRequest `json:"blocks" validate:"required,min=1,max=500,dive"`
}

// UpdateScheduleBlockRequest captures PATCH /schedule-blocks/:id payload.
type UpdateScheduleBlockRequest struct {
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime   *string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime     *string `json:"endTime" validate:"omitempty,datetime=15:04"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Location    *string `json:"location" validate:"omitempty,max=128"`
	IsLocked    *bool   `json:"isLocked"`
	IsCompleted *bool   `json:"isCompleted"`
}
