package planner

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ParseClock converts "HH:MM" to minutes after midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", raw)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type interval struct {
	start int
	end   int
}

// studyWindow returns the daily placement window in minutes.
func studyWindow(opts Options, sleep SleepSchedule) interval {
	if !opts.RespectSleep {
		return interval{start: 6 * 60, end: 23 * 60}
	}
	defaults := DefaultSleepSchedule()
	wake, err := ParseClock(sleep.WakeTime)
	if err != nil {
		wake, _ = ParseClock(defaults.WakeTime)
	}
	bed, err := ParseClock(sleep.Bedtime)
	if err != nil {
		bed, _ = ParseClock(defaults.Bedtime)
	}
	return interval{start: wake + 30, end: bed - 30}
}
