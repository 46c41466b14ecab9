// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// UserID Value Object
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier assigned by the identity
// provider. It is opaque to this system.
type UserID string

// IsValid checks that the user ID is non-empty and has no whitespace.
func (u UserID) IsValid() bool {
	s := string(u)
	return len(s) > 0 && len(s) <= 128 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.TrimSpace(id))
	if !uid.IsValid() {
		return "", ErrInvalidUserID
	}
	return uid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Weekday Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Weekday is a day of the week, Sunday-first to match the document store
// encoding. Schedule membership is always checked against this enum, never
// against day-name strings.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// IsValid checks that the weekday is within range.
func (w Weekday) IsValid() bool {
	return w >= Sunday && w <= Saturday
}

// String returns the English day name.
func (w Weekday) String() string {
	if !w.IsValid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// Int returns the underlying index (Sunday = 0).
func (w Weekday) Int() int {
	return int(w)
}

// WeekdayOf converts a time.Time weekday to the domain enum.
// time.Sunday is already 0, so the mapping is direct.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

// ParseWeekday parses a day name ("Monday", "monday") into a Weekday.
func ParseWeekday(name string) (Weekday, error) {
	trimmed := strings.TrimSpace(name)
	for i, n := range weekdayNames {
		if strings.EqualFold(n, trimmed) {
			return Weekday(i), nil
		}
	}
	return 0, ErrInvalidWeekday
}

// NewWeekday creates a Weekday from its numeric index with validation.
func NewWeekday(index int) (Weekday, error) {
	w := Weekday(index)
	if !w.IsValid() {
		return 0, ErrInvalidWeekday
	}
	return w, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ClockTime Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ClockTime is a wall-clock time of day in "HH:MM" form (24-hour).
type ClockTime string

// IsValid checks the HH:MM format and range.
func (c ClockTime) IsValid() bool {
	_, _, err := c.parts()
	return err == nil
}

// String returns the string representation.
func (c ClockTime) String() string {
	return string(c)
}

// Hour returns the hour component (0-23). Returns -1 for an invalid value.
func (c ClockTime) Hour() int {
	h, _, err := c.parts()
	if err != nil {
		return -1
	}
	return h
}

// Minute returns the minute component (0-59). Returns -1 for an invalid value.
func (c ClockTime) Minute() int {
	_, m, err := c.parts()
	if err != nil {
		return -1
	}
	return m
}

func (c ClockTime) parts() (hour, minute int, err error) {
	s := string(c)
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, ErrInvalidClockTime
	}
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hour, &minute); err != nil {
		return 0, 0, ErrInvalidClockTime
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidClockTime
	}
	return hour, minute, nil
}

// NewClockTime creates a ClockTime with validation.
func NewClockTime(value string) (ClockTime, error) {
	c := ClockTime(strings.TrimSpace(value))
	if !c.IsValid() {
		return "", ErrInvalidClockTime
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Moment Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Moment is the (weekday, hour) pair all time-based reminder decisions are
// made against. Callers snapshot it once per evaluation so every course in
// a pass sees the same "now".
type Moment struct {
	Weekday Weekday
	Hour    int
}

// IsValid checks the weekday and hour ranges.
func (m Moment) IsValid() bool {
	return m.Weekday.IsValid() && m.Hour >= 0 && m.Hour <= 23
}

// String returns a loggable representation.
func (m Moment) String() string {
	return fmt.Sprintf("%s %02d:00", m.Weekday, m.Hour)
}

// MomentOf snapshots the weekday and hour of the given time.
func MomentOf(t time.Time) Moment {
	return Moment{Weekday: WeekdayOf(t), Hour: t.Hour()}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Offset returns the offset for store queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for store queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}
