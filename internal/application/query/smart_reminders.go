package query

import (
	"context"
	"fmt"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/reminder"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
	"github.com/mdi-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SMART REMINDERS QUERY
// The dashboard-facing run of the reminder evaluator: same derivation
// the hourly batch scan uses, computed on demand for one user.
// ══════════════════════════════════════════════════════════════════════════════

// GetSmartRemindersQuery identifies the user. At is optional; the zero
// value means "now" in IST.
type GetSmartRemindersQuery struct {
	UserID string
	At     time.Time
}

// GetSmartRemindersHandler handles the GetSmartRemindersQuery.
type GetSmartRemindersHandler struct {
	courseRepo course.Repository
	logRepo    attendance.LogRepository

	now func() time.Time
}

// NewGetSmartRemindersHandler creates a new GetSmartRemindersHandler.
func NewGetSmartRemindersHandler(courseRepo course.Repository, logRepo attendance.LogRepository) *GetSmartRemindersHandler {
	return &GetSmartRemindersHandler{
		courseRepo: courseRepo,
		logRepo:    logRepo,
		now:        timeutil.Now,
	}
}

// WithClock replaces the clock. For tests.
func (h *GetSmartRemindersHandler) WithClock(now func() time.Time) *GetSmartRemindersHandler {
	h.now = now
	return h
}

// Handle executes the query. The moment is snapshotted once, so every
// course is evaluated against the same (weekday, hour) pair.
func (h *GetSmartRemindersHandler) Handle(ctx context.Context, q GetSmartRemindersQuery) ([]reminder.Reminder, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	at := q.At
	if at.IsZero() {
		at = h.now()
	}
	moment := shared.MomentOf(timeutil.ToIST(at))

	courses, err := h.courseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("smart_reminders: %w", err)
	}

	logs := make(map[string][]*attendance.Entry, len(courses))
	for _, c := range courses {
		entries, err := h.logRepo.ListByCourse(ctx, userID, c.ID)
		if err != nil {
			return nil, fmt.Errorf("smart_reminders: read log of %s: %w", c.ID, err)
		}
		logs[c.ID] = entries
	}

	return reminder.EvaluateAll(courses, logs, moment)
}
