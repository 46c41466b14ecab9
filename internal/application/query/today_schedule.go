package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
	"github.com/mdi-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TODAY'S SCHEDULE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetTodayScheduleQuery identifies the user. At is optional; the zero
// value means "now" in IST.
type GetTodayScheduleQuery struct {
	UserID string
	At     time.Time
}

// ScheduledCourse is one course on today's schedule.
type ScheduledCourse struct {
	Course    *course.Course
	ClassTime shared.ClockTime
}

// GetTodayScheduleHandler handles the GetTodayScheduleQuery.
type GetTodayScheduleHandler struct {
	courseRepo course.Repository

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewGetTodayScheduleHandler creates a new GetTodayScheduleHandler.
func NewGetTodayScheduleHandler(courseRepo course.Repository) *GetTodayScheduleHandler {
	return &GetTodayScheduleHandler{
		courseRepo: courseRepo,
		now:        timeutil.Now,
	}
}

// WithClock replaces the clock. For tests.
func (h *GetTodayScheduleHandler) WithClock(now func() time.Time) *GetTodayScheduleHandler {
	h.now = now
	return h
}

// Handle executes the query: courses meeting today, sorted by class time.
// Courses without a schedule never appear.
func (h *GetTodayScheduleHandler) Handle(ctx context.Context, q GetTodayScheduleQuery) ([]ScheduledCourse, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	at := q.At
	if at.IsZero() {
		at = h.now()
	}
	today := shared.WeekdayOf(timeutil.ToIST(at))

	courses, err := h.courseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("today_schedule: %w", err)
	}

	var scheduled []ScheduledCourse
	for _, c := range courses {
		if c.MeetsOn(today) {
			scheduled = append(scheduled, ScheduledCourse{Course: c, ClassTime: c.Schedule.Time})
		}
	}

	sort.SliceStable(scheduled, func(i, j int) bool {
		return scheduled[i].ClassTime < scheduled[j].ClassTime
	})

	return scheduled, nil
}
