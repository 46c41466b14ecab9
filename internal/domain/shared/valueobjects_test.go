package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	w, err := ParseWeekday("monday")
	require.NoError(t, err)
	assert.Equal(t, Monday, w)

	w, err = ParseWeekday(" Sunday ")
	require.NoError(t, err)
	assert.Equal(t, Sunday, w)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}

func TestWeekdaySundayFirst(t *testing.T) {
	assert.Equal(t, 0, Sunday.Int())
	assert.Equal(t, 6, Saturday.Int())

	// time.Sunday is also 0, so the mapping is direct.
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, Sunday, WeekdayOf(sunday))
}

func TestClockTime(t *testing.T) {
	c, err := NewClockTime("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Hour())
	assert.Equal(t, 30, c.Minute())

	for _, bad := range []string{"24:00", "12:60", "9:30", "nine", "", "12-30"} {
		_, err := NewClockTime(bad)
		assert.Error(t, err, "value %q", bad)
	}
}

func TestMomentOf(t *testing.T) {
	// Friday 15:45 snapshots to (Friday, 15).
	at := time.Date(2026, 8, 28, 15, 45, 0, 0, time.UTC)
	m := MomentOf(at)
	assert.Equal(t, Friday, m.Weekday)
	assert.Equal(t, 15, m.Hour)
	assert.True(t, m.IsValid())
}

func TestDomainErrorMatching(t *testing.T) {
	err := WrapError("course", "Update", ErrValueOutOfRange, "total too small", nil)
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))

	assert.True(t, IsConflict(ErrNoSessionsLeft))
	assert.True(t, IsExternalService(ErrStoreUnavailable))
	assert.True(t, IsNotFound(ErrCourseNotFound))
}
