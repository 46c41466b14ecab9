package command

import (
	"context"
	"fmt"

	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE COURSE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteCourseCommand identifies the course to delete.
type DeleteCourseCommand struct {
	UserID   string
	CourseID string
}

// DeleteCourseHandler handles the DeleteCourseCommand.
type DeleteCourseHandler struct {
	courseRepo     course.Repository
	eventPublisher shared.EventPublisher
}

// NewDeleteCourseHandler creates a new DeleteCourseHandler.
func NewDeleteCourseHandler(courseRepo course.Repository, eventPublisher shared.EventPublisher) *DeleteCourseHandler {
	return &DeleteCourseHandler{
		courseRepo:     courseRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the delete course command. The attendance log of the
// course is removed together with it - the repository owns that
// cascade.
func (h *DeleteCourseHandler) Handle(ctx context.Context, cmd DeleteCourseCommand) error {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return err
	}

	c, err := h.courseRepo.GetByID(ctx, userID, cmd.CourseID)
	if err != nil {
		return fmt.Errorf("delete_course: %w", err)
	}

	if err := h.courseRepo.Delete(ctx, userID, cmd.CourseID); err != nil {
		return fmt.Errorf("delete_course: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewCourseChangedEvent(
		shared.EventCourseDeleted, userID.String(), cmd.CourseID, c.Name))

	return nil
}
