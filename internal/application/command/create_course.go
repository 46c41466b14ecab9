// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"

	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE COURSE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleInput carries the raw schedule fields of a request.
// A nil ScheduleInput means the course has no schedule.
type ScheduleInput struct {
	// Days holds weekday indexes, Sunday = 0.
	Days []int

	// Time is the class start time, "HH:MM".
	Time string
}

// toDomain converts the input to a domain schedule with validation.
func (s *ScheduleInput) toDomain() (*course.Schedule, error) {
	if s == nil {
		return nil, nil
	}

	days := make([]shared.Weekday, 0, len(s.Days))
	for _, d := range s.Days {
		w, err := shared.NewWeekday(d)
		if err != nil {
			return nil, err
		}
		days = append(days, w)
	}

	clock, err := shared.NewClockTime(s.Time)
	if err != nil {
		return nil, err
	}

	return &course.Schedule{Days: days, Time: clock}, nil
}

// CreateCourseCommand contains the data to create a course.
type CreateCourseCommand struct {
	UserID        string
	Name          string
	ProfessorName string
	TotalSessions int
	Schedule      *ScheduleInput
	Notes         string
}

// CreateCourseResult contains the result of creating a course.
type CreateCourseResult struct {
	// CourseID is the store-assigned identifier.
	CourseID string

	// Course is the created course.
	Course *course.Course
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreateCourseHandler handles the CreateCourseCommand.
type CreateCourseHandler struct {
	courseRepo     course.Repository
	eventPublisher shared.EventPublisher
}

// NewCreateCourseHandler creates a new CreateCourseHandler.
func NewCreateCourseHandler(courseRepo course.Repository, eventPublisher shared.EventPublisher) *CreateCourseHandler {
	return &CreateCourseHandler{
		courseRepo:     courseRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the create course command. Validation failures block
// the write entirely - an invalid course is never persisted.
func (h *CreateCourseHandler) Handle(ctx context.Context, cmd CreateCourseCommand) (*CreateCourseResult, error) {
	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	schedule, err := cmd.Schedule.toDomain()
	if err != nil {
		return nil, err
	}

	c, err := course.NewCourse(course.NewCourseParams{
		Name:          cmd.Name,
		ProfessorName: cmd.ProfessorName,
		TotalSessions: cmd.TotalSessions,
		Schedule:      schedule,
		Notes:         cmd.Notes,
	})
	if err != nil {
		return nil, err
	}

	id, err := h.courseRepo.Create(ctx, userID, c)
	if err != nil {
		return nil, fmt.Errorf("create_course: %w", err)
	}
	c.ID = id

	_ = h.eventPublisher.Publish(shared.NewCourseChangedEvent(
		shared.EventCourseCreated, userID.String(), id, c.Name))

	return &CreateCourseResult{CourseID: id, Course: c}, nil
}
