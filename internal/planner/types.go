package planner

import (
	"strings"
	"time"
)

// Range selects how many days ahead the generator fills.
type Range string

const (
	RangeToday    Range = "today"
	RangeWeek     Range = "week"
	RangeTwoWeeks Range = "two_weeks"
	RangeMonth    Range = "month"
)

// Days returns the number of calendar days covered by the range.
func (r Range) Days() int {
	switch r {
	case RangeToday:
		return 1
	case RangeWeek:
		return 7
	case RangeTwoWeeks:
		return 14
	default:
		return 30
	}
}

// Valid reports whether r is a recognised range.
func (r Range) Valid() bool {
	switch r {
	case RangeToday, RangeWeek, RangeTwoWeeks, RangeMonth:
		return true
	}
	return false
}

// Frequency describes how a fixed commitment recurs.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyOnce   Frequency = "once"
)

// Options tunes a generation run.
type Options struct {
	Range Range
	// SpreadExamPrep is accepted for API compatibility; placement ignores it.
	SpreadExamPrep bool
	StartEarly     bool
	IncludeBreaks  bool
	RespectSleep   bool
	AllowWeekend   bool
}

// DefaultOptions mirrors the defaults offered to users.
func DefaultOptions() Options {
	return Options{
		Range:          RangeWeek,
		SpreadExamPrep: true,
		StartEarly:     true,
		IncludeBreaks:  true,
		RespectSleep:   true,
		AllowWeekend:   false,
	}
}

// SleepSchedule holds the user's wake and bed clocks in HH:MM.
type SleepSchedule struct {
	Bedtime  string `json:"bedtime"`
	WakeTime string `json:"wakeTime"`
}

// DefaultSleepSchedule is used when no preference is stored.
func DefaultSleepSchedule() SleepSchedule {
	return SleepSchedule{Bedtime: "22:00", WakeTime: "06:00"}
}

// Assignment is the generator's view of outstanding coursework.
type Assignment struct {
	ID          string
	Title       string
	Type        string
	DueDate     time.Time
	Completed   bool
	CourseCode  string
	CourseColor string
}

// Commitment is a fixed busy interval such as a class or a meal.
type Commitment struct {
	ID           string
	StartTime    string
	EndTime      string
	Frequency    Frequency
	DaysOfWeek   []string
	EventDate    *time.Time
	BufferBefore int
	BufferAfter  int
}

func (c Commitment) appliesOn(day time.Time) bool {
	switch c.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		name := day.Weekday().String()
		for _, d := range c.DaysOfWeek {
			if strings.EqualFold(strings.TrimSpace(d), name) {
				return true
			}
		}
		return false
	case FrequencyOnce:
		if c.EventDate == nil {
			return false
		}
		ev := c.EventDate.In(day.Location())
		y1, m1, d1 := ev.Date()
		y2, m2, d2 := day.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	return false
}

// Input bundles everything a run needs. Now anchors "today".
type Input struct {
	Assignments []Assignment
	Commitments []Commitment
	Options     Options
	Sleep       SleepSchedule
	Now         time.Time
}

// StudyTask is the prioritised unit of work derived from an assignment.
type StudyTask struct {
	AssignmentID string    `json:"assignmentId"`
	Title        string    `json:"title"`
	CourseColor  string    `json:"courseColor"`
	EffortHours  float64   `json:"effortHours"`
	DueDate      time.Time `json:"dueDate"`
	Priority     float64   `json:"priorityScore"`
	Sessions     int       `json:"sessions"`
}

// Block is one placed study session.
type Block struct {
	AssignmentID string    `json:"assignmentId"`
	Date         time.Time `json:"date"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	Color        string    `json:"color"`
}

// Minutes returns the block duration in minutes.
func (b Block) Minutes() int {
	start, err := ParseClock(b.StartTime)
	if err != nil {
		return 0
	}
	end, err := ParseClock(b.EndTime)
	if err != nil {
		return 0
	}
	return end - start
}

// CoverageStatus summarises how much of a task was placed.
type CoverageStatus string

const (
	CoverageFull    CoverageStatus = "full"
	CoveragePartial CoverageStatus = "partial"
	CoverageNone    CoverageStatus = "none"
)

// Coverage reports placed versus requested sessions for one assignment.
type Coverage struct {
	AssignmentID      string         `json:"assignmentId"`
	RequestedSessions int            `json:"requestedSessions"`
	PlacedSessions    int            `json:"placedSessions"`
	Status            CoverageStatus `json:"status"`
}

// Result is the output of Generate.
type Result struct {
	Blocks   []Block
	Tasks    []StudyTask
	Coverage []Coverage
}

// DroppedSessions counts sessions that found no slot.
func (r Result) DroppedSessions() int {
	dropped := 0
	for _, c := range r.Coverage {
		dropped += c.RequestedSessions - c.PlacedSessions
	}
	return dropped
}
