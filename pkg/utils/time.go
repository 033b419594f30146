package utils

import (
	"fmt"
	"time"
)

// Now returns the current time in UTC timezone
func Now() time.Time {
	return time.Now().UTC()
}

// BusinessZone returns a fixed-offset location for the business wall clock.
// The zone never observes daylight saving.
func BusinessZone(offsetHours int) *time.Location {
	sign := "+"
	if offsetHours < 0 {
		sign = "-"
	}
	abs := offsetHours
	if abs < 0 {
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d", sign, abs), offsetHours*60*60)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// MinutesOfDay returns the wall clock minutes elapsed since midnight of t in loc.
func MinutesOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// FormatISO8601 formats a time.Time to ISO8601 format in UTC
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
