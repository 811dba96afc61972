package models

import "time"

// AssignmentType enumerates coursework categories used for effort estimates.
type AssignmentType string

const (
	AssignmentTypeHomework AssignmentType = "homework"
	AssignmentTypeQuiz     AssignmentType = "quiz"
	AssignmentTypeExam     AssignmentType = "exam"
	AssignmentTypeLab      AssignmentType = "lab"
	AssignmentTypeProject  AssignmentType = "project"
	AssignmentTypeReading  AssignmentType = "reading"
)

// DefaultPlatform is stored when an assignment is created without one.
const DefaultPlatform = "Brightspace"

// Assignment is a unit of coursework with a due date.
type Assignment struct {
	ID        string         `db:"id" json:"id"`
	CourseID  string         `db:"course_id" json:"courseId"`
	Title     string         `db:"title" json:"title"`
	Type      AssignmentType `db:"type" json:"type"`
	Platform  string         `db:"platform" json:"platform"`
	DueDate   time.Time      `db:"due_date" json:"dueDate"`
	Completed bool           `db:"completed" json:"completed"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// AssignmentWithCourse is the read model returned by list and get queries.
type AssignmentWithCourse struct {
	Assignment
	Course Course `db:"course" json:"course"`
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	Completed *bool
	CourseID  string
	DueFrom   *time.Time
	DueTo     *time.Time
}
