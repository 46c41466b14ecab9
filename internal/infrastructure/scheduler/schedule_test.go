package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdi-hub/attendance-hub/pkg/timeutil"
)

func TestParseCronExpression(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"every hour", EveryHour, false},
		{"every minute", EveryMinute, false},
		{"step minutes", "*/15 * * * *", false},
		{"range hours", "0 9-17 * * *", false},
		{"weekday list", "0 8 * * 1,3,5", false},
		{"too few fields", "0 * * *", true},
		{"minute out of range", "60 * * * *", true},
		{"garbage field", "x * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCronExpression(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCronExpressionNext_TopOfHour(t *testing.T) {
	ce := MustParseCronExpression(EveryHour)

	from := timeutil.DateTime(2026, 3, 2, 10, 30, 0)
	next := ce.Next(from)

	assert.Equal(t, timeutil.DateTime(2026, 3, 2, 11, 0, 0), next)
	assert.Equal(t, timeutil.IST, next.Location())

	// Exactly on the boundary advances to the following hour.
	next = ce.Next(timeutil.DateTime(2026, 3, 2, 11, 0, 0))
	assert.Equal(t, timeutil.DateTime(2026, 3, 2, 12, 0, 0), next)
}

func TestCronExpressionNext_WeekdayMatch(t *testing.T) {
	// 08:00 on Mondays only. March 2, 2026 is a Monday.
	ce := MustParseCronExpression("0 8 * * 1")

	from := timeutil.DateTime(2026, 3, 2, 9, 0, 0)
	next := ce.Next(from)

	assert.Equal(t, timeutil.DateTime(2026, 3, 9, 8, 0, 0), next)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)

	from := timeutil.DateTime(2026, 3, 2, 10, 0, 0)
	assert.Equal(t, from.Add(30*time.Minute), s.Next(from))
	assert.Equal(t, "@every 30m0s", s.String())
}

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string                { return j.name }
func (j *stubJob) Description() string         { return "stub" }
func (j *stubJob) Run(_ context.Context) error { j.runs++; return j.err }

func TestSchedulerRegister(t *testing.T) {
	s := New(Config{})
	job := &stubJob{name: "scan"}

	require.NoError(t, s.Register(job, MustParseCronExpression(EveryHour)))

	err := s.Register(job, MustParseCronExpression(EveryHour))
	require.ErrorIs(t, err, ErrJobAlreadyExists)

	require.ErrorIs(t, s.Register(nil, MustParseCronExpression(EveryHour)), ErrNilJob)
	require.ErrorIs(t, s.Register(&stubJob{name: "other"}, nil), ErrNilSchedule)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "scan", infos[0].Name)
	assert.Equal(t, EveryHour, infos[0].Schedule)
	assert.False(t, infos[0].NextRun.IsZero())
}

func TestSchedulerRunNow(t *testing.T) {
	s := New(Config{})
	job := &stubJob{name: "scan"}
	require.NoError(t, s.Register(job, MustParseCronExpression(EveryHour)))

	result, err := s.RunNow(context.Background(), "scan")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, job.runs)

	_, err = s.RunNow(context.Background(), "missing")
	require.ErrorIs(t, err, ErrJobNotFound)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalSuccesses)
}
