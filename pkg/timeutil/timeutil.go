// Package timeutil provides timezone utilities for Indian Standard Time (UTC+5:30).
// All schedule matching and export formatting in Attendance Hub happens in IST,
// which has no DST, so a fixed zone is safe year-round.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time zone (UTC+5:30, no DST).
var IST = time.FixedZone("Asia/Kolkata", 5*60*60+30*60)

// Now returns the current time in IST.
func Now() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in IST with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, IST)
}

// DateTime creates a time in IST with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, IST)
}

// StartOfDay returns the start of the day (00:00:00) in IST.
func StartOfDay(t time.Time) time.Time {
	ist := ToIST(t)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in IST.
func EndOfDay(t time.Time) time.Time {
	ist := ToIST(t)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 23, 59, 59, 999999999, IST)
}

// IsToday checks if the given time is today in IST.
func IsToday(t time.Time) bool {
	now := Now()
	ist := ToIST(t)
	return ist.Year() == now.Year() &&
		ist.Month() == now.Month() &&
		ist.Day() == now.Day()
}

// IsSameDay checks if two times are on the same day in IST.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := ToIST(t1), ToIST(t2)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a1 := StartOfDay(t1)
	a2 := StartOfDay(t2)
	duration := a2.Sub(a1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatLocale is the dashboard-facing timestamp format
	// (M/D/YYYY, h:mm:ss AM), used in CSV exports.
	FormatLocale = "1/2/2006, 3:04:05 PM"
)

// FormatIST formats a time in IST with the given layout.
func FormatIST(t time.Time, layout string) string {
	return ToIST(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in IST.
func FormatDateStr(t time.Time) string {
	return FormatIST(t, FormatDate)
}

// FormatTimeStr formats a time as a time string (HH:MM) in IST.
func FormatTimeStr(t time.Time) string {
	return FormatIST(t, FormatTime)
}

// FormatLocaleStr formats a time as a locale timestamp (M/D/YYYY, h:mm:ss AM) in IST.
func FormatLocaleStr(t time.Time) string {
	return FormatIST(t, FormatLocale)
}

// FormatRelative returns a human-readable relative time string.
func FormatRelative(t time.Time) string {
	now := Now()
	ist := ToIST(t)
	duration := now.Sub(ist)

	if duration < 0 {
		duration = -duration
		return formatFutureDuration(duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		return fmt.Sprintf("%d weeks ago", weeks)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("in %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %d h", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "tomorrow"
		}
		return fmt.Sprintf("in %d days", days)
	}
}

// ParseIST parses a time string in IST.
func ParseIST(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, IST)
}

// ParseDateIST parses a date string (YYYY-MM-DD) in IST.
func ParseDateIST(value string) (time.Time, error) {
	return ParseIST(FormatDate, value)
}

// Notification timing helpers.

// IsSafeNotificationTime checks if it's appropriate to send notifications (7:00-22:00).
func IsSafeNotificationTime(t time.Time) bool {
	hour := ToIST(t).Hour()
	return hour >= 7 && hour < 22
}
