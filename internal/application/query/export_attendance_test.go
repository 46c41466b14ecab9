package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
	"github.com/mdi-hub/attendance-hub/pkg/timeutil"
)

// ─────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────

type fakeCourseRepo struct {
	courses []*course.Course
}

func (r *fakeCourseRepo) Create(_ context.Context, _ shared.UserID, c *course.Course) (string, error) {
	r.courses = append(r.courses, c)
	return c.ID, nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, _ shared.UserID, courseID string) (*course.Course, error) {
	for _, c := range r.courses {
		if c.ID == courseID {
			return c, nil
		}
	}
	return nil, shared.ErrCourseNotFound
}

func (r *fakeCourseRepo) ListByUser(_ context.Context, _ shared.UserID) ([]*course.Course, error) {
	return r.courses, nil
}

func (r *fakeCourseRepo) Update(_ context.Context, _ shared.UserID, _ *course.Course) error {
	return nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, _ shared.UserID, _ string) error {
	return nil
}

type fakeLogRepo struct {
	logs map[string][]*attendance.Entry
}

func (r *fakeLogRepo) Append(_ context.Context, _ shared.UserID, courseID string, e *attendance.Entry) (*attendance.Entry, error) {
	r.logs[courseID] = append(r.logs[courseID], e)
	return e, nil
}

func (r *fakeLogRepo) ListByCourse(_ context.Context, _ shared.UserID, courseID string) ([]*attendance.Entry, error) {
	return r.logs[courseID], nil
}

func (r *fakeLogRepo) Latest(_ context.Context, _ shared.UserID, courseID string) (*attendance.Entry, error) {
	entries := r.logs[courseID]
	if len(entries) == 0 {
		return nil, shared.ErrEmptyLog
	}
	return entries[len(entries)-1], nil
}

func (r *fakeLogRepo) Delete(_ context.Context, _ shared.UserID, courseID, entryID string) error {
	entries := r.logs[courseID]
	for i, e := range entries {
		if e.ID == entryID {
			r.logs[courseID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return shared.ErrEntryNotFound
}

func newCourse(t *testing.T, id, name, classTime string, days ...shared.Weekday) *course.Course {
	t.Helper()
	var sched *course.Schedule
	if len(days) > 0 {
		sched = &course.Schedule{Days: days, Time: shared.ClockTime(classTime)}
	}
	c, err := course.NewCourse(course.NewCourseParams{
		Name:          name,
		TotalSessions: 30,
		Schedule:      sched,
	})
	require.NoError(t, err)
	c.ID = id
	return c
}

// ─────────────────────────────────────────────────────────────────────────
// Export
// ─────────────────────────────────────────────────────────────────────────

func TestExport_SingleCourse(t *testing.T) {
	at := time.Date(2026, 3, 9, 4, 30, 0, 0, time.UTC) // 10:00:00 IST
	courses := &fakeCourseRepo{courses: []*course.Course{
		newCourse(t, "c1", "Operating Systems", ""),
	}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{
		"c1": {
			{ID: "e1", Status: attendance.StatusPresent, RecordedAt: at},
			{ID: "e2", Status: attendance.StatusAbsent, RecordedAt: at.Add(48 * time.Hour)},
		},
	}}

	h := NewExportAttendanceHandler(courses, logs)
	res, err := h.Handle(context.Background(), ExportAttendanceQuery{UserID: "u1", CourseID: "c1"})
	require.NoError(t, err)

	assert.Equal(t, "Operating_Systems_attendance.csv", res.Filename)
	expected := "\"Date\",\"Status\"\r\n" +
		"\"3/9/2026, 10:00:00 AM\",\"present\"\r\n" +
		"\"3/11/2026, 10:00:00 AM\",\"absent\"\r\n"
	assert.Equal(t, expected, res.CSV)
}

func TestExport_AllCourses(t *testing.T) {
	at := time.Date(2026, 3, 9, 4, 30, 0, 0, time.UTC)
	courses := &fakeCourseRepo{courses: []*course.Course{
		newCourse(t, "c1", `Maths "Honours"`, ""),
		newCourse(t, "c2", "Physics", ""),
	}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{
		"c1": {{ID: "e1", Status: attendance.StatusPresent, RecordedAt: at}},
		"c2": {{ID: "e2", Status: attendance.StatusAbsent, RecordedAt: at}},
	}}

	h := NewExportAttendanceHandler(courses, logs)
	res, err := h.Handle(context.Background(), ExportAttendanceQuery{UserID: "u1"})
	require.NoError(t, err)

	expected := "\"Course Name\",\"Date\",\"Status\"\r\n" +
		"\"Maths \"\"Honours\"\"\",\"3/9/2026, 10:00:00 AM\",\"present\"\r\n" +
		"\"Physics\",\"3/9/2026, 10:00:00 AM\",\"absent\"\r\n"
	assert.Equal(t, expected, res.CSV)
}

func TestExport_EmptyLogStillHasHeader(t *testing.T) {
	courses := &fakeCourseRepo{courses: []*course.Course{newCourse(t, "c1", "Physics", "")}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{}}

	h := NewExportAttendanceHandler(courses, logs)
	res, err := h.Handle(context.Background(), ExportAttendanceQuery{UserID: "u1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "\"Date\",\"Status\"\r\n", res.CSV)
}

func TestExport_UnknownCourse(t *testing.T) {
	h := NewExportAttendanceHandler(&fakeCourseRepo{}, &fakeLogRepo{logs: map[string][]*attendance.Entry{}})
	_, err := h.Handle(context.Background(), ExportAttendanceQuery{UserID: "u1", CourseID: "nope"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

// ─────────────────────────────────────────────────────────────────────────
// Today's schedule
// ─────────────────────────────────────────────────────────────────────────

func TestTodaySchedule_SortedByTime(t *testing.T) {
	courses := &fakeCourseRepo{courses: []*course.Course{
		newCourse(t, "c1", "Late", "16:00", shared.Monday),
		newCourse(t, "c2", "Early", "09:00", shared.Monday),
		newCourse(t, "c3", "OtherDay", "10:00", shared.Friday),
		newCourse(t, "c4", "NoSchedule", ""),
	}}

	h := NewGetTodayScheduleHandler(courses)
	// Monday 2026-03-09 in IST.
	at := timeutil.DateTime(2026, 3, 9, 12, 0, 0)
	got, err := h.Handle(context.Background(), GetTodayScheduleQuery{UserID: "u1", At: at})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Early", got[0].Course.Name)
	assert.Equal(t, "Late", got[1].Course.Name)
}

// ─────────────────────────────────────────────────────────────────────────
// Smart reminders
// ─────────────────────────────────────────────────────────────────────────

func TestSmartReminders(t *testing.T) {
	courses := &fakeCourseRepo{courses: []*course.Course{
		newCourse(t, "c1", "Algorithms", "13:00", shared.Monday),
	}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{}}

	h := NewGetSmartRemindersHandler(courses, logs)
	// Monday 12:xx IST: class at 13:00 is an hour away.
	at := timeutil.DateTime(2026, 3, 9, 12, 15, 0)
	got, err := h.Handle(context.Background(), GetSmartRemindersQuery{UserID: "u1", At: at})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].CourseID)
}
