package models

import (
	"fmt"
)

// ClockTime is a time of day with minute precision, detached from any
// date or zone. Schedule and trip times are stored as strings in the
// source tables; ClockTime is the parsed working form.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM" or "HH:MM:SS" strings. Seconds are
// discarded.
func ParseClockTime(value string) (ClockTime, error) {
	var hour, minute, second int

	if _, err := fmt.Sscanf(value, "%d:%d:%d", &hour, &minute, &second); err != nil {
		if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
			return ClockTime{}, fmt.Errorf("invalid time %q: expected HH:MM or HH:MM:SS", value)
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid time %q: out of range", value)
	}

	return ClockTime{Hour: hour, Minute: minute}, nil
}

// Minutes returns the time as minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Before reports whether c is earlier than other.
func (c ClockTime) Before(other ClockTime) bool {
	return c.Minutes() < other.Minutes()
}

// After reports whether c is later than other.
func (c ClockTime) After(other ClockTime) bool {
	return c.Minutes() > other.Minutes()
}

// Add returns the time the given number of minutes later. The result
// does not wrap at midnight: a bucket boundary past 24:00 stays
// monotonic so interval arithmetic never folds back onto the morning.
func (c ClockTime) Add(minutes int) ClockTime {
	total := c.Minutes() + minutes
	return ClockTime{Hour: total / 60, Minute: total % 60}
}

// DurationHours returns the span from c to end in fractional hours.
func (c ClockTime) DurationHours(end ClockTime) float64 {
	return float64(end.Minutes()-c.Minutes()) / 60.0
}

// String formats the time as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// DBString formats the time as "HH:MM:00" for TIME columns.
func (c ClockTime) DBString() string {
	return fmt.Sprintf("%02d:%02d:00", c.Hour, c.Minute)
}

// Overlaps reports whether [c, end) intersects [otherStart, otherEnd).
// Both intervals are half-open, so intervals touching only at an
// endpoint do not overlap.
func (c ClockTime) Overlaps(end, otherStart, otherEnd ClockTime) bool {
	return c.Minutes() < otherEnd.Minutes() && end.Minutes() > otherStart.Minutes()
}
