package command

import (
	"context"
	"fmt"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE COURSE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateCourseCommand contains the new course field values.
type UpdateCourseCommand struct {
	UserID        string
	CourseID      string
	Name          string
	ProfessorName string
	TotalSessions int
	Schedule      *ScheduleInput
	Notes         string
}

// UpdateCourseResult contains the result of updating a course.
type UpdateCourseResult struct {
	Course *course.Course
}

// UpdateCourseHandler handles the UpdateCourseCommand.
type UpdateCourseHandler struct {
	courseRepo     course.Repository
	logRepo        attendance.LogRepository
	eventPublisher shared.EventPublisher
}

// NewUpdateCourseHandler creates a new UpdateCourseHandler.
func NewUpdateCourseHandler(
	courseRepo course.Repository,
	logRepo attendance.LogRepository,
	eventPublisher shared.EventPublisher,
) *UpdateCourseHandler {
	return &UpdateCourseHandler{
		courseRepo:     courseRepo,
		logRepo:        logRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the update course command. The edit is validated
// against the live attendance log: the new session total may not fall
// below the number of entries already recorded.
func (h *UpdateCourseHandler) Handle(ctx context.Context, cmd UpdateCourseCommand) (*UpdateCourseResult, error) {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	c, err := h.courseRepo.GetByID(ctx, userID, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("update_course: %w", err)
	}

	entries, err := h.logRepo.ListByCourse(ctx, userID, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("update_course: read log: %w", err)
	}

	schedule, err := cmd.Schedule.toDomain()
	if err != nil {
		return nil, err
	}

	err = c.ApplyEdit(course.EditParams{
		Name:          cmd.Name,
		ProfessorName: cmd.ProfessorName,
		TotalSessions: cmd.TotalSessions,
		Schedule:      schedule,
		Notes:         cmd.Notes,
	}, len(entries))
	if err != nil {
		return nil, err
	}

	if err := h.courseRepo.Update(ctx, userID, c); err != nil {
		return nil, fmt.Errorf("update_course: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewCourseChangedEvent(
		shared.EventCourseUpdated, userID.String(), c.ID, c.Name))

	return &UpdateCourseResult{Course: c}, nil
}
