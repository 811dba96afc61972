// Package planner places study sessions for outstanding assignments into the
// free time left between a user's fixed commitments.
//
// Generate is a pure function: it reads nothing but its Input and never
// mutates it, so callers own fetching preferences and persisting blocks.
package planner

import (
	"math"
	"sort"
	"time"
)

const (
	maxSessionHours   = 2.0
	breakGapMinutes   = 15
	minimalGapMinutes = 5
	lookaheadDays     = 7

	// BlockTypeStudy tags every generated block.
	BlockTypeStudy = "study"
	// DefaultStudyColor is used when an assignment has no course color.
	DefaultStudyColor = "#22c55e"
)

var effortEstimates = map[string]float64{
	"homework": 2,
	"reading":  1,
	"quiz":     1.5,
	"exam":     6,
	"lab":      2.5,
	"project":  8,
}

// EffortHours estimates the study hours an assignment type needs.
func EffortHours(assignmentType string) float64 {
	if hours, ok := effortEstimates[assignmentType]; ok {
		return hours
	}
	return 2
}

// Generate computes study blocks for the given input.
func Generate(in Input) Result {
	opts := in.Options
	if !opts.Range.Valid() {
		opts.Range = RangeWeek
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := startOfDay(now)
	rangeDays := opts.Range.Days()
	horizon := today.AddDate(0, 0, rangeDays+lookaheadDays)

	window := studyWindow(opts, in.Sleep)
	gap := minimalGapMinutes
	if opts.IncludeBreaks {
		gap = breakGapMinutes
	}

	fixed := busyCalendar(in.Commitments, today, rangeDays)
	placed := make([][]interval, rangeDays)
	tasks := prioritise(in.Assignments, now, today, horizon)

	result := Result{Tasks: tasks}
	for _, task := range tasks {
		due := task.DueDate.In(today.Location())
		startDay := 0
		if !opts.StartEarly {
			startDay = daysBetween(today, due) - task.Sessions - 1
			if startDay < 0 {
				startDay = 0
			}
		}

		remaining := task.EffortHours
		placedSessions := 0
		for session := 0; session < task.Sessions && remaining > 0; session++ {
			hours := math.Min(remaining, maxSessionHours)
			length := int(math.Round(hours * 60))

			for offset := startDay + session; offset < rangeDays; offset++ {
				day := today.AddDate(0, 0, offset)
				if !opts.AllowWeekend && isWeekend(day) {
					continue
				}
				if day.After(due) {
					break
				}
				start, ok := findSlot(fixed[offset], placed[offset], window, length, gap)
				if !ok {
					continue
				}
				placed[offset] = append(placed[offset], interval{start: start, end: start + length})
				result.Blocks = append(result.Blocks, Block{
					AssignmentID: task.AssignmentID,
					Date:         day,
					StartTime:    FormatClock(start),
					EndTime:      FormatClock(start + length),
					Title:        task.Title,
					Type:         BlockTypeStudy,
					Color:        task.CourseColor,
				})
				remaining -= hours
				placedSessions++
				break
			}
		}

		result.Coverage = append(result.Coverage, coverageFor(task, placedSessions))
	}
	return result
}

func prioritise(assignments []Assignment, now, today, horizon time.Time) []StudyTask {
	tasks := make([]StudyTask, 0, len(assignments))
	for _, a := range assignments {
		if a.Completed {
			continue
		}
		if a.DueDate.Before(today) || !a.DueDate.Before(horizon) {
			continue
		}
		effort := EffortHours(a.Type)
		daysUntilDue := math.Max(1, a.DueDate.Sub(now).Hours()/24)
		color := a.CourseColor
		if color == "" {
			color = DefaultStudyColor
		}
		tasks = append(tasks, StudyTask{
			AssignmentID: a.ID,
			Title:        "Study: " + a.Title,
			CourseColor:  color,
			EffortHours:  effort,
			DueDate:      a.DueDate,
			Priority:     effort / daysUntilDue,
			Sessions:     int(math.Ceil(effort / maxSessionHours)),
		})
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority > tasks[j].Priority
	})
	return tasks
}

// busyCalendar expands commitments into buffered busy intervals per day offset.
func busyCalendar(commitments []Commitment, today time.Time, rangeDays int) [][]interval {
	days := make([][]interval, rangeDays)
	for offset := 0; offset < rangeDays; offset++ {
		day := today.AddDate(0, 0, offset)
		for _, c := range commitments {
			if c.EndTime == "" || !c.appliesOn(day) {
				continue
			}
			start, err := ParseClock(c.StartTime)
			if err != nil {
				continue
			}
			end, err := ParseClock(c.EndTime)
			if err != nil {
				continue
			}
			days[offset] = append(days[offset], interval{
				start: start - c.BufferBefore,
				end:   end + c.BufferAfter,
			})
		}
	}
	return days
}

// findSlot scans the day's busy intervals in start order and returns the
// first cursor position where length minutes fit inside the window.
func findSlot(fixed, placed []interval, window interval, length, gap int) (int, bool) {
	busy := make([]interval, 0, len(fixed)+len(placed))
	busy = append(busy, fixed...)
	busy = append(busy, placed...)
	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].start < busy[j].start
	})

	cursor := window.start
	for _, slot := range busy {
		if cursor+length <= slot.start && cursor+length <= window.end {
			return cursor, true
		}
		if next := slot.end + gap; next > cursor {
			cursor = next
		}
	}
	if cursor+length <= window.end {
		return cursor, true
	}
	return 0, false
}

func coverageFor(task StudyTask, placed int) Coverage {
	status := CoveragePartial
	switch {
	case placed == 0:
		status = CoverageNone
	case placed >= task.Sessions:
		status = CoverageFull
	}
	return Coverage{
		AssignmentID:      task.AssignmentID,
		RequestedSessions: task.Sessions,
		PlacedSessions:    placed,
		Status:            status,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
