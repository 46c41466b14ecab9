package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ATTENDANCE COMMAND
// Appends one entry to a course's attendance log. The entry timestamp
// is assigned by the store at write time; the client never supplies it.
// ══════════════════════════════════════════════════════════════════════════════

// RecordAttendanceCommand contains the data to record an attendance mark.
type RecordAttendanceCommand struct {
	UserID   string
	CourseID string

	// Status is "present" or "absent".
	Status string
}

// RecordAttendanceResult contains the appended entry and the metrics
// recomputed over the updated log.
type RecordAttendanceResult struct {
	Entry   *attendance.Entry
	Metrics attendance.Metrics
}

// RecordAttendanceHandler handles the RecordAttendanceCommand.
type RecordAttendanceHandler struct {
	courseRepo     course.Repository
	logRepo        attendance.LogRepository
	profileRepo    profile.Repository
	eventPublisher shared.EventPublisher
}

// NewRecordAttendanceHandler creates a new RecordAttendanceHandler.
func NewRecordAttendanceHandler(
	courseRepo course.Repository,
	logRepo attendance.LogRepository,
	profileRepo profile.Repository,
	eventPublisher shared.EventPublisher,
) *RecordAttendanceHandler {
	return &RecordAttendanceHandler{
		courseRepo:     courseRepo,
		logRepo:        logRepo,
		profileRepo:    profileRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the record attendance command. Recording is blocked
// when the session plan is exhausted (sessionsLeft <= 0) - the unclamped
// value is compared, so an over-recorded log stays blocked too.
func (h *RecordAttendanceHandler) Handle(ctx context.Context, cmd RecordAttendanceCommand) (*RecordAttendanceResult, error) {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	status, err := attendance.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	c, err := h.courseRepo.GetByID(ctx, userID, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("record_attendance: %w", err)
	}

	entries, err := h.logRepo.ListByCourse(ctx, userID, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("record_attendance: read log: %w", err)
	}

	expected, err := h.expectedGrade(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("record_attendance: read profile: %w", err)
	}

	metrics, err := attendance.Compute(c.TotalSessions, entries, expected)
	if err != nil {
		return nil, err
	}
	if !metrics.CanRecord() {
		return nil, shared.ErrNoSessionsLeft
	}

	entry, err := attendance.NewEntry(status)
	if err != nil {
		return nil, err
	}

	saved, err := h.logRepo.Append(ctx, userID, cmd.CourseID, entry)
	if err != nil {
		return nil, fmt.Errorf("record_attendance: %w", err)
	}

	updated, err := attendance.Compute(c.TotalSessions, append(entries, saved), expected)
	if err != nil {
		return nil, err
	}

	_ = h.eventPublisher.Publish(shared.NewAttendanceChangedEvent(
		shared.EventAttendanceRecorded, userID.String(), cmd.CourseID, saved.ID, saved.Status.String()))

	return &RecordAttendanceResult{Entry: saved, Metrics: updated}, nil
}

// expectedGrade reads the grade basis from the user's profile. A
// missing profile falls back to the default basis.
func (h *RecordAttendanceHandler) expectedGrade(ctx context.Context, userID shared.UserID) (attendance.Grade, error) {
	p, err := h.profileRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return attendance.GradeAPlus, nil
		}
		return "", err
	}
	return p.GradeBasis(), nil
}
