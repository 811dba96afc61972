package models

import "time"

// BlockTypeStudy marks blocks produced by the study planner.
const BlockTypeStudy = "study"

// ScheduleBlock is a dated time slot on the user's calendar.
type ScheduleBlock struct {
	ID           string    `db:"id" json:"id"`
	ActivityID   *string   `db:"activity_id" json:"activityId"`
	AssignmentID *string   `db:"assignment_id" json:"assignmentId"`
	Date         time.Time `db:"date" json:"date"`
	StartTime    string    `db:"start_time" json:"startTime"`
	EndTime      string    `db:"end_time" json:"endTime"`
	Title        string    `db:"title" json:"title"`
	Type         string    `db:"type" json:"type"`
	Icon         *string   `db:"icon" json:"icon,omitempty"`
	Color        string    `db:"color" json:"color"`
	Location     *string   `db:"location" json:"location,omitempty"`
	IsGenerated  bool      `db:"is_generated" json:"isGenerated"`
	IsLocked     bool      `db:"is_locked" json:"isLocked"`
	IsCompleted  bool      `db:"is_completed" json:"isCompleted"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ScheduleBlockFilter bounds block listings by date (inclusive).
type ScheduleBlockFilter struct {
	From *time.Time
	To   *time.Time
}
