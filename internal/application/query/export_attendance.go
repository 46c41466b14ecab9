package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
	"github.com/mdi-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE EXPORT QUERY
// Produces the dashboard CSV download. Every field is double-quoted,
// matching the format existing spreadsheets of users already import.
// encoding/csv only quotes fields that need it, so the rows are
// assembled by hand here.
// ══════════════════════════════════════════════════════════════════════════════

// ExportAttendanceQuery identifies what to export. An empty CourseID
// exports all courses of the user.
type ExportAttendanceQuery struct {
	UserID   string
	CourseID string
}

// ExportResult is the rendered CSV document.
type ExportResult struct {
	// Filename is a suggested download name.
	Filename string

	// CSV is the document body.
	CSV string
}

// ExportAttendanceHandler handles the ExportAttendanceQuery.
type ExportAttendanceHandler struct {
	courseRepo course.Repository
	logRepo    attendance.LogRepository
}

// NewExportAttendanceHandler creates a new ExportAttendanceHandler.
func NewExportAttendanceHandler(courseRepo course.Repository, logRepo attendance.LogRepository) *ExportAttendanceHandler {
	return &ExportAttendanceHandler{courseRepo: courseRepo, logRepo: logRepo}
}

// Handle executes the export query.
// Single-course exports use the header "Date,Status"; whole-account
// exports prepend a "Course Name" column. Rows keep the log's
// timestamp order; timestamps are rendered as IST locale strings.
func (h *ExportAttendanceHandler) Handle(ctx context.Context, q ExportAttendanceQuery) (*ExportResult, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	if q.CourseID != "" {
		return h.exportOne(ctx, userID, q.CourseID)
	}
	return h.exportAll(ctx, userID)
}

func (h *ExportAttendanceHandler) exportOne(ctx context.Context, userID shared.UserID, courseID string) (*ExportResult, error) {
	c, err := h.courseRepo.GetByID(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	entries, err := h.logRepo.ListByCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("export: read log: %w", err)
	}

	var b strings.Builder
	writeRow(&b, "Date", "Status")
	for _, e := range entries {
		writeRow(&b, timeutil.FormatLocaleStr(e.RecordedAt), e.Status.String())
	}

	return &ExportResult{
		Filename: safeFilename(c.Name) + "_attendance.csv",
		CSV:      b.String(),
	}, nil
}

func (h *ExportAttendanceHandler) exportAll(ctx context.Context, userID shared.UserID) (*ExportResult, error) {
	courses, err := h.courseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var b strings.Builder
	writeRow(&b, "Course Name", "Date", "Status")
	for _, c := range courses {
		entries, err := h.logRepo.ListByCourse(ctx, userID, c.ID)
		if err != nil {
			return nil, fmt.Errorf("export: read log of %s: %w", c.ID, err)
		}
		for _, e := range entries {
			writeRow(&b, c.Name, timeutil.FormatLocaleStr(e.RecordedAt), e.Status.String())
		}
	}

	return &ExportResult{
		Filename: "attendance_export.csv",
		CSV:      b.String(),
	}, nil
}

// writeRow appends one CSV row with every field quoted. Embedded
// quotes are doubled per RFC 4180.
func writeRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}

// safeFilename strips characters that break Content-Disposition.
func safeFilename(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, name)
	if mapped == "" {
		return "course"
	}
	return mapped
}
