package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNDO ATTENDANCE COMMAND
// Deletes the most recent log entry, but only when its status matches
// the status being undone. A mismatch is a deliberate no-op: the user
// pressed the wrong undo button and nothing should be deleted.
// ══════════════════════════════════════════════════════════════════════════════

// UndoAttendanceCommand identifies the mark to undo.
type UndoAttendanceCommand struct {
	UserID   string
	CourseID string

	// Status the user believes they are undoing ("present"/"absent").
	Status string
}

// UndoAttendanceResult contains the removed entry.
type UndoAttendanceResult struct {
	Removed *attendance.Entry
}

// UndoAttendanceHandler handles the UndoAttendanceCommand.
type UndoAttendanceHandler struct {
	logRepo        attendance.LogRepository
	eventPublisher shared.EventPublisher
}

// NewUndoAttendanceHandler creates a new UndoAttendanceHandler.
func NewUndoAttendanceHandler(logRepo attendance.LogRepository, eventPublisher shared.EventPublisher) *UndoAttendanceHandler {
	return &UndoAttendanceHandler{
		logRepo:        logRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the undo attendance command.
// Returns shared.ErrEmptyLog when there is nothing to undo and
// shared.ErrUndoStatusMismatch when the latest entry has a different
// status - in both cases the log is left untouched.
func (h *UndoAttendanceHandler) Handle(ctx context.Context, cmd UndoAttendanceCommand) (*UndoAttendanceResult, error) {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	status, err := attendance.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	latest, err := h.logRepo.Latest(ctx, userID, cmd.CourseID)
	if err != nil {
		if errors.Is(err, shared.ErrEmptyLog) || errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrEmptyLog
		}
		return nil, fmt.Errorf("undo_attendance: %w", err)
	}

	if latest.Status != status {
		return nil, shared.ErrUndoStatusMismatch
	}

	if err := h.logRepo.Delete(ctx, userID, cmd.CourseID, latest.ID); err != nil {
		return nil, fmt.Errorf("undo_attendance: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewAttendanceChangedEvent(
		shared.EventAttendanceUndone, userID.String(), cmd.CourseID, latest.ID, latest.Status.String()))

	return &UndoAttendanceResult{Removed: latest}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE LOG ENTRY COMMAND
// Manual pruning of one arbitrary entry, by ID.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteLogEntryCommand identifies the entry to delete.
type DeleteLogEntryCommand struct {
	UserID   string
	CourseID string
	EntryID  string
}

// DeleteLogEntryHandler handles the DeleteLogEntryCommand.
type DeleteLogEntryHandler struct {
	logRepo        attendance.LogRepository
	eventPublisher shared.EventPublisher
}

// NewDeleteLogEntryHandler creates a new DeleteLogEntryHandler.
func NewDeleteLogEntryHandler(logRepo attendance.LogRepository, eventPublisher shared.EventPublisher) *DeleteLogEntryHandler {
	return &DeleteLogEntryHandler{
		logRepo:        logRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the delete log entry command.
func (h *DeleteLogEntryHandler) Handle(ctx context.Context, cmd DeleteLogEntryCommand) error {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return err
	}

	if cmd.EntryID == "" {
		return shared.NewDomainError("attendance", "Delete", shared.ErrEmptyValue, "entry id is required")
	}

	if err := h.logRepo.Delete(ctx, userID, cmd.CourseID, cmd.EntryID); err != nil {
		return fmt.Errorf("delete_log_entry: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewAttendanceChangedEvent(
		shared.EventLogEntryDeleted, userID.String(), cmd.CourseID, cmd.EntryID, ""))

	return nil
}
