package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

func testCourse(t *testing.T, classTime string, days ...shared.Weekday) *course.Course {
	t.Helper()
	c, err := course.NewCourse(course.NewCourseParams{
		Name:          "Algorithms",
		TotalSessions: 40,
		Schedule: &course.Schedule{
			Days: days,
			Time: shared.ClockTime(classTime),
		},
	})
	require.NoError(t, err)
	c.ID = "c1"
	return c
}

func absences(n int) []*attendance.Entry {
	entries := make([]*attendance.Entry, n)
	for i := range entries {
		entries[i] = &attendance.Entry{Status: attendance.StatusAbsent}
	}
	return entries
}

func TestEvaluate_ClassSoon(t *testing.T) {
	c := testCourse(t, "14:00", shared.Monday)

	rs, err := Evaluate(c, nil, shared.Moment{Weekday: shared.Monday, Hour: 13})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, ReasonClassSoon, rs[0].Reason)
	assert.Equal(t, "Algorithms", rs[0].CourseName)
	assert.Equal(t, shared.ClockTime("14:00"), rs[0].ClassTime)
}

func TestEvaluate_NotAtClassHour(t *testing.T) {
	c := testCourse(t, "14:00", shared.Monday)

	// At the class hour itself the "starting soon" window has passed.
	rs, err := Evaluate(c, nil, shared.Moment{Weekday: shared.Monday, Hour: 14})
	require.NoError(t, err)
	assert.Empty(t, rs)

	rs, err = Evaluate(c, nil, shared.Moment{Weekday: shared.Monday, Hour: 12})
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestEvaluate_NoMidnightWraparound(t *testing.T) {
	// A 00:00 class is never "an hour away" at 23:00: 23+1 != 0.
	c := testCourse(t, "00:00", shared.Tuesday)

	rs, err := Evaluate(c, nil, shared.Moment{Weekday: shared.Tuesday, Hour: 23})
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestEvaluate_WrongDay(t *testing.T) {
	c := testCourse(t, "14:00", shared.Monday)

	rs, err := Evaluate(c, nil, shared.Moment{Weekday: shared.Tuesday, Hour: 13})
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestEvaluate_NoSchedule(t *testing.T) {
	c, err := course.NewCourse(course.NewCourseParams{Name: "Seminar", TotalSessions: 10})
	require.NoError(t, err)

	rs, err := Evaluate(c, absences(10), shared.Moment{Weekday: shared.Monday, Hour: 13})
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestEvaluate_LowAllowance(t *testing.T) {
	// 40 sessions -> maxMissable = 8. Seven misses leave one bunk.
	c := testCourse(t, "09:00", shared.Wednesday)

	rs, err := Evaluate(c, absences(7), shared.Moment{Weekday: shared.Wednesday, Hour: 15})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, ReasonLowAllowance, rs[0].Reason)
	assert.Equal(t, 1, rs[0].BunksLeft)
}

func TestEvaluate_LowAllowanceOnlyOnMeetingDay(t *testing.T) {
	c := testCourse(t, "09:00", shared.Wednesday)

	rs, err := Evaluate(c, absences(8), shared.Moment{Weekday: shared.Thursday, Hour: 15})
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestEvaluate_BothReasons(t *testing.T) {
	c := testCourse(t, "16:00", shared.Friday)

	rs, err := Evaluate(c, absences(8), shared.Moment{Weekday: shared.Friday, Hour: 15})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, ReasonClassSoon, rs[0].Reason)
	assert.Equal(t, ReasonLowAllowance, rs[1].Reason)
	assert.Equal(t, 0, rs[1].BunksLeft)
}

func TestEvaluate_AllowanceComfortable(t *testing.T) {
	c := testCourse(t, "09:00", shared.Wednesday)

	rs, err := Evaluate(c, absences(2), shared.Moment{Weekday: shared.Wednesday, Hour: 15})
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestEvaluate_InvalidMoment(t *testing.T) {
	c := testCourse(t, "14:00", shared.Monday)

	_, err := Evaluate(c, nil, shared.Moment{Weekday: shared.Monday, Hour: 24})
	assert.Error(t, err)
}

func TestEvaluate_Deterministic(t *testing.T) {
	c := testCourse(t, "16:00", shared.Friday)
	at := shared.Moment{Weekday: shared.Friday, Hour: 15}

	first, err := Evaluate(c, absences(8), at)
	require.NoError(t, err)
	second, err := Evaluate(c, absences(8), at)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluateAll(t *testing.T) {
	a := testCourse(t, "14:00", shared.Monday)
	a.ID = "a"
	b := testCourse(t, "10:00", shared.Monday)
	b.ID = "b"

	logs := map[string][]*attendance.Entry{
		"b": absences(8),
	}

	rs, err := EvaluateAll([]*course.Course{a, b}, logs, shared.Moment{Weekday: shared.Monday, Hour: 13})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "a", rs[0].CourseID)
	assert.Equal(t, ReasonClassSoon, rs[0].Reason)
	assert.Equal(t, "b", rs[1].CourseID)
	assert.Equal(t, ReasonLowAllowance, rs[1].Reason)
}
