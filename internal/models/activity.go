package models

import (
	"time"

	"github.com/lib/pq"
)

// Frequency describes how an activity recurs.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyOnce   Frequency = "once"
)

// ActivityPriority ranks fixed commitments for display.
type ActivityPriority string

const (
	ActivityPriorityLow    ActivityPriority = "low"
	ActivityPriorityMedium ActivityPriority = "medium"
	ActivityPriorityHigh   ActivityPriority = "high"
)

// Activity is a fixed commitment (class, job, meal) that study time avoids.
type Activity struct {
	ID           string           `db:"id" json:"id"`
	Name         string           `db:"name" json:"name"`
	Type         string           `db:"type" json:"type"`
	Icon         string           `db:"icon" json:"icon"`
	Color        string           `db:"color" json:"color"`
	Frequency    Frequency        `db:"frequency" json:"frequency"`
	DaysOfWeek   pq.StringArray   `db:"days_of_week" json:"daysOfWeek"`
	StartTime    string           `db:"start_time" json:"startTime"`
	EndTime      *string          `db:"end_time" json:"endTime,omitempty"`
	Location     *string          `db:"location" json:"location,omitempty"`
	Priority     ActivityPriority `db:"priority" json:"priority"`
	Flexible     bool             `db:"flexible" json:"flexible"`
	BufferBefore int              `db:"buffer_before" json:"bufferBefore"`
	BufferAfter  int              `db:"buffer_after" json:"bufferAfter"`
	EventDate    *time.Time       `db:"event_date" json:"eventDate,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}
