package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

func makeEntries(present, absent int) []*Entry {
	entries := make([]*Entry, 0, present+absent)
	for i := 0; i < present; i++ {
		entries = append(entries, &Entry{Status: StatusPresent})
	}
	for i := 0; i < absent; i++ {
		entries = append(entries, &Entry{Status: StatusAbsent})
	}
	return entries
}

func TestCompute_RejectsInvalidTotal(t *testing.T) {
	_, err := Compute(0, nil, GradeAPlus)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = Compute(-5, nil, GradeAPlus)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestCompute_EmptyLog(t *testing.T) {
	m, err := Compute(30, nil, GradeAPlus)
	require.NoError(t, err)

	assert.Equal(t, 0, m.Attended)
	assert.Equal(t, 0, m.Missed)
	assert.Equal(t, 0, m.TotalRecorded)
	assert.False(t, m.HasPercentage, "empty log must be distinguishable from 0%")
	assert.Equal(t, 30, m.SessionsLeft)
	assert.Equal(t, 6, m.MaxMissable)
	assert.Equal(t, 6, m.BunksLeft)
	assert.Equal(t, 0, m.GradeDrops)
	assert.Equal(t, GradeAPlus, m.FinalGrade)
}

func TestCompute_Percentage(t *testing.T) {
	tests := []struct {
		name     string
		present  int
		absent   int
		expected int
	}{
		{"all present", 10, 0, 100},
		{"all absent", 0, 10, 0},
		{"two thirds", 2, 1, 67},
		{"one third", 1, 2, 33},
		{"half", 5, 5, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compute(40, makeEntries(tt.present, tt.absent), GradeAPlus)
			require.NoError(t, err)
			assert.True(t, m.HasPercentage)
			assert.Equal(t, tt.expected, m.Percentage)
		})
	}
}

func TestCompute_BunksLeftGoesNegative(t *testing.T) {
	// 10 sessions -> maxMissable = 2; 3 misses overshoot by one.
	m, err := Compute(10, makeEntries(0, 3), GradeAPlus)
	require.NoError(t, err)
	assert.Equal(t, 2, m.MaxMissable)
	assert.Equal(t, -1, m.BunksLeft)
}

func TestCompute_SessionsLeftUnclamped(t *testing.T) {
	// More recorded than planned: sessionsLeft goes negative and is
	// reported as-is.
	m, err := Compute(5, makeEntries(4, 3), GradeAPlus)
	require.NoError(t, err)
	assert.Equal(t, -2, m.SessionsLeft)
	assert.False(t, m.CanRecord())
}

func TestCompute_GradeDrops(t *testing.T) {
	tests := []struct {
		name   string
		missed int
		drops  int
		grade  Grade
	}{
		{"no misses", 0, 0, GradeAPlus},
		{"four misses free", 4, 0, GradeAPlus},
		{"fifth miss drops", 5, 1, GradeA},
		{"seven misses", 7, 3, GradeBPlus},
		{"nine misses", 9, 5, GradeB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compute(60, makeEntries(0, tt.missed), GradeAPlus)
			require.NoError(t, err)
			assert.Equal(t, tt.drops, m.GradeDrops)
			assert.Equal(t, tt.grade, m.FinalGrade)
		})
	}
}

func TestCompute_DropsMeasuredFromExpectedGrade(t *testing.T) {
	// Two drops from A land on B+ on the full +/- scale.
	m, err := Compute(60, makeEntries(0, 6), GradeA)
	require.NoError(t, err)
	assert.Equal(t, 2, m.GradeDrops)
	assert.Equal(t, GradeBPlus, m.FinalGrade)
}

func TestCompute_IncompleteOverridesDrops(t *testing.T) {
	m, err := Compute(60, makeEntries(0, 10), GradeAPlus)
	require.NoError(t, err)
	assert.Equal(t, GradeIncomplete, m.FinalGrade)

	m, err = Compute(60, makeEntries(5, 25), GradeAPlus)
	require.NoError(t, err)
	assert.Equal(t, GradeIncomplete, m.FinalGrade)
}

func TestCompute_GradeClampsAtF(t *testing.T) {
	// 9 misses from D: drops overshoot the scale and clamp at F.
	m, err := Compute(60, makeEntries(0, 9), GradeD)
	require.NoError(t, err)
	assert.Equal(t, GradeF, m.FinalGrade)
}

func TestCompute_InvalidExpectedGradeDefaultsToTop(t *testing.T) {
	m, err := Compute(60, makeEntries(0, 5), Grade("Z"))
	require.NoError(t, err)
	assert.Equal(t, GradeA, m.FinalGrade)
}

func TestCompute_EndToEnd(t *testing.T) {
	// 25 sessions, 15 present + 5 absent recorded.
	m, err := Compute(25, makeEntries(15, 5), GradeAPlus)
	require.NoError(t, err)

	assert.Equal(t, 15, m.Attended)
	assert.Equal(t, 5, m.Missed)
	assert.Equal(t, 20, m.TotalRecorded)
	assert.Equal(t, 75, m.Percentage)
	assert.Equal(t, 5, m.SessionsLeft)
	assert.Equal(t, 5, m.MaxMissable)
	assert.Equal(t, 0, m.BunksLeft)
	assert.Equal(t, 1, m.GradeDrops)
	assert.Equal(t, GradeA, m.FinalGrade)
}

func TestGradeDrop(t *testing.T) {
	assert.Equal(t, GradeAPlus, GradeAPlus.Drop(0))
	assert.Equal(t, GradeBPlus, GradeA.Drop(2))
	assert.Equal(t, GradeF, GradeD.Drop(5))
	assert.Equal(t, GradeF, GradeF.Drop(1))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("present")
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, s)

	_, err = ParseStatus("late")
	assert.Error(t, err)
}
