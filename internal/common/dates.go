package common

import "time"

// Truncate to calendar-day precision; subscription dates carry no time of day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current date at day precision.
func Today() time.Time {
	return DateOnly(time.Now().UTC())
}

// CalculateEndDate computes a subscription end date from a start date and a
// plan duration in days.
func CalculateEndDate(startDate time.Time, durationDays int) time.Time {
	return DateOnly(startDate).AddDate(0, 0, durationDays)
}

// IsPast reports whether date is strictly before today.
func IsPast(date time.Time) bool {
	return DateOnly(date).Before(Today())
}

// IsFuture reports whether date is strictly after today.
func IsFuture(date time.Time) bool {
	return DateOnly(date).After(Today())
}
