package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

func TestNewCourse_Valid(t *testing.T) {
	c, err := NewCourse(NewCourseParams{
		Name:          "  Linear Algebra  ",
		ProfessorName: "Dr. Rao",
		TotalSessions: 30,
		Schedule: &Schedule{
			Days: []shared.Weekday{shared.Monday, shared.Wednesday},
			Time: "10:30",
		},
		Notes: "bring calculator",
	})
	require.NoError(t, err)

	assert.Equal(t, "Linear Algebra", c.Name)
	assert.Equal(t, "Dr. Rao", c.ProfessorName)
	assert.Equal(t, 30, c.TotalSessions)
	assert.True(t, c.MeetsOn(shared.Wednesday))
	assert.False(t, c.MeetsOn(shared.Friday))
	assert.Equal(t, 10, c.Schedule.ClassHour())
}

func TestNewCourse_WithoutSchedule(t *testing.T) {
	c, err := NewCourse(NewCourseParams{Name: "Seminar", TotalSessions: 10})
	require.NoError(t, err)
	assert.Nil(t, c.Schedule)
	assert.False(t, c.MeetsOn(shared.Monday))
	assert.Equal(t, -1, c.Schedule.ClassHour())
}

func TestNewCourse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params NewCourseParams
	}{
		{"empty name", NewCourseParams{Name: "   ", TotalSessions: 10}},
		{"zero total", NewCourseParams{Name: "Physics", TotalSessions: 0}},
		{"negative total", NewCourseParams{Name: "Physics", TotalSessions: -3}},
		{"schedule without days", NewCourseParams{
			Name: "Physics", TotalSessions: 10,
			Schedule: &Schedule{Time: "10:00"},
		}},
		{"schedule with bad time", NewCourseParams{
			Name: "Physics", TotalSessions: 10,
			Schedule: &Schedule{Days: []shared.Weekday{shared.Monday}, Time: "25:00"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCourse(tt.params)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestApplyEdit(t *testing.T) {
	c, err := NewCourse(NewCourseParams{Name: "Physics", TotalSessions: 30})
	require.NoError(t, err)

	err = c.ApplyEdit(EditParams{
		Name:          "Physics II",
		TotalSessions: 25,
	}, 12)
	require.NoError(t, err)
	assert.Equal(t, "Physics II", c.Name)
	assert.Equal(t, 25, c.TotalSessions)
}

func TestApplyEdit_RejectsTotalBelowRecorded(t *testing.T) {
	c, err := NewCourse(NewCourseParams{Name: "Physics", TotalSessions: 30})
	require.NoError(t, err)

	err = c.ApplyEdit(EditParams{Name: "Physics", TotalSessions: 10}, 12)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrTotalBelowRecorded)
	// The course is untouched on a rejected edit.
	assert.Equal(t, 30, c.TotalSessions)
}

func TestApplyEdit_SameValidationAsCreate(t *testing.T) {
	c, err := NewCourse(NewCourseParams{Name: "Physics", TotalSessions: 30})
	require.NoError(t, err)

	err = c.ApplyEdit(EditParams{Name: "", TotalSessions: 30}, 0)
	assert.ErrorIs(t, err, shared.ErrCourseNameRequired)

	err = c.ApplyEdit(EditParams{Name: "Physics", TotalSessions: 0}, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidTotalSessions)
}

func TestScheduleClone(t *testing.T) {
	s := &Schedule{Days: []shared.Weekday{shared.Monday}, Time: "09:00"}
	clone := s.Clone()
	clone.Days[0] = shared.Friday

	assert.Equal(t, shared.Monday, s.Days[0])
}
