// Package query contains read operations (CQRS - Queries).
package query

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
// COURSE SUMMARY QUERIES
// A summary is the stored course plus metrics recomputed from the live
// attendance log on every read. Metrics are never cached or persisted:
// a stale derived number is worse than the extra read.
// ══════════════════════════════════════════════════════════════════════════════

// CourseSummary combines a course with its derived metrics and log.
type CourseSummary struct {
	Course  *course.Course
	Metrics attendance.Metrics
	Entries []*attendance.Entry
}

// GetCourseSummaryQuery identifies the course to summarize.
type GetCourseSummaryQuery struct {
	UserID   string
	CourseID string
}

// GetCourseSummaryHandler handles the GetCourseSummaryQuery.
type GetCourseSummaryHandler struct {
	courseRepo  course.Repository
	logRepo     attendance.LogRepository
	profileRepo profile.Repository
}

// NewGetCourseSummaryHandler creates a new GetCourseSummaryHandler.
func NewGetCourseSummaryHandler(
	courseRepo course.Repository,
	logRepo attendance.LogRepository,
	profileRepo profile.Repository,
) *GetCourseSummaryHandler {
	return &GetCourseSummaryHandler{courseRepo: courseRepo, logRepo: logRepo, profileRepo: profileRepo}
}

// Handle executes the query.
func (h *GetCourseSummaryHandler) Handle(ctx context.Context, q GetCourseSummaryQuery) (*CourseSummary, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	c, err := h.courseRepo.GetByID(ctx, userID, q.CourseID)
	if err != nil {
		return nil, fmt.Errorf("course_summary: %w", err)
	}

	entries, err := h.logRepo.ListByCourse(ctx, userID, q.CourseID)
	if err != nil {
		return nil, fmt.Errorf("course_summary: read log: %w", err)
	}

	expected, err := expectedGrade(ctx, h.profileRepo, userID)
	if err != nil {
		return nil, fmt.Errorf("course_summary: read profile: %w", err)
	}

	metrics, err := attendance.Compute(c.TotalSessions, entries, expected)
	if err != nil {
		return nil, err
	}

	return &CourseSummary{Course: c, Metrics: metrics, Entries: entries}, nil
}

// expectedGrade reads the grade basis the user chose on their profile.
// No profile means the default basis, not an error.
func expectedGrade(ctx context.Context, repo profile.Repository, userID shared.UserID) (attendance.Grade, error) {
	p, err := repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return attendance.GradeAPlus, nil
		}
		return "", err
	}
	return p.GradeBasis(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST COURSE SUMMARIES
// ══════════════════════════════════════════════════════════════════════════════

// ListCourseSummariesQuery identifies the user whose dashboard is loading.
type ListCourseSummariesQuery struct {
	UserID string
}

// ListCourseSummariesHandler handles the ListCourseSummariesQuery.
// The raw course list may come from the short-TTL cache; attendance
// logs are always read from the store.
type ListCourseSummariesHandler struct {
	courseRepo  course.Repository
	courseCache course.Cache
	logRepo     attendance.LogRepository
	profileRepo profile.Repository
}

// NewListCourseSummariesHandler creates a new ListCourseSummariesHandler.
func NewListCourseSummariesHandler(
	courseRepo course.Repository,
	courseCache course.Cache,
	logRepo attendance.LogRepository,
	profileRepo profile.Repository,
) *ListCourseSummariesHandler {
	return &ListCourseSummariesHandler{
		courseRepo:  courseRepo,
		courseCache: courseCache,
		logRepo:     logRepo,
		profileRepo: profileRepo,
	}
}

// Handle executes the query.
func (h *ListCourseSummariesHandler) Handle(ctx context.Context, q ListCourseSummariesQuery) ([]*CourseSummary, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	courses, err := h.listCourses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list_summaries: %w", err)
	}

	expected, err := expectedGrade(ctx, h.profileRepo, userID)
	if err != nil {
		return nil, fmt.Errorf("list_summaries: read profile: %w", err)
	}

	summaries := make([]*CourseSummary, 0, len(courses))
	for _, c := range courses {
		entries, err := h.logRepo.ListByCourse(ctx, userID, c.ID)
		if err != nil {
			return nil, fmt.Errorf("list_summaries: read log of %s: %w", c.ID, err)
		}

		metrics, err := attendance.Compute(c.TotalSessions, entries, expected)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, &CourseSummary{Course: c, Metrics: metrics, Entries: entries})
	}

	return summaries, nil
}

func (h *ListCourseSummariesHandler) listCourses(ctx context.Context, userID shared.UserID) ([]*course.Course, error) {
	if h.courseCache != nil {
		if cached, err := h.courseCache.GetList(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	courses, err := h.courseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if h.courseCache != nil {
		_ = h.courseCache.SetList(ctx, userID, courses)
	}

	return courses, nil
}
