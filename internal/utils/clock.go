package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock converts a wall-clock "HH:MM" string into minutes since midnight.
func ParseClock(value string) (int, error) {
	v := strings.TrimSpace(value)
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", value)
	}
	return h*60 + m, nil
}

// WeekdayIndex returns the Monday-based weekday of d (Monday = 0, Sunday = 6).
func WeekdayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// WeekStart returns the Monday of the ISO week containing d, truncated to a date.
func WeekStart(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return day.AddDate(0, 0, -WeekdayIndex(day))
}
