package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────

type fakeCourseRepo struct {
	courses map[string]*course.Course
	nextID  int
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: make(map[string]*course.Course)}
}

func (r *fakeCourseRepo) Create(_ context.Context, _ shared.UserID, c *course.Course) (string, error) {
	r.nextID++
	id := fmt.Sprintf("c%d", r.nextID)
	c.ID = id
	r.courses[id] = c
	return id, nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, _ shared.UserID, courseID string) (*course.Course, error) {
	c, ok := r.courses[courseID]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return c, nil
}

func (r *fakeCourseRepo) ListByUser(_ context.Context, _ shared.UserID) ([]*course.Course, error) {
	out := make([]*course.Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCourseRepo) Update(_ context.Context, _ shared.UserID, c *course.Course) error {
	if _, ok := r.courses[c.ID]; !ok {
		return shared.ErrCourseNotFound
	}
	r.courses[c.ID] = c
	return nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, _ shared.UserID, courseID string) error {
	if _, ok := r.courses[courseID]; !ok {
		return shared.ErrCourseNotFound
	}
	delete(r.courses, courseID)
	return nil
}

type fakeLogRepo struct {
	logs   map[string][]*attendance.Entry
	nextID int
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{logs: make(map[string][]*attendance.Entry)}
}

func (r *fakeLogRepo) Append(_ context.Context, _ shared.UserID, courseID string, e *attendance.Entry) (*attendance.Entry, error) {
	r.nextID++
	saved := &attendance.Entry{
		ID:         fmt.Sprintf("e%d", r.nextID),
		Status:     e.Status,
		RecordedAt: time.Now().UTC(),
	}
	r.logs[courseID] = append(r.logs[courseID], saved)
	return saved, nil
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

type fakeProfileRepo struct {
	profiles map[shared.UserID]*profile.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[shared.UserID]*profile.Profile)}
}

func (r *fakeProfileRepo) Get(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *fakeProfileRepo) Save(_ context.Context, userID shared.UserID, p *profile.Profile) error {
	r.profiles[userID] = p.Clone()
	return nil
}

func (r *fakeProfileRepo) ListUserIDs(_ context.Context) ([]shared.UserID, error) {
	out := make([]shared.UserID, 0, len(r.profiles))
	for id := range r.profiles {
		out = append(out, id)
	}
	return out, nil
}

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

func seedCourse(t *testing.T, repo *fakeCourseRepo, total int) string {
	t.Helper()
	c, err := course.NewCourse(course.NewCourseParams{Name: "Physics", TotalSessions: total})
	require.NoError(t, err)
	id, err := repo.Create(context.Background(), "u1", c)
	require.NoError(t, err)
	return id
}

// ─────────────────────────────────────────────────────────────────────────
// Record
// ─────────────────────────────────────────────────────────────────────────

func TestRecordAttendance(t *testing.T) {
	courses := newFakeCourseRepo()
	logs := newFakeLogRepo()
	pub := &fakePublisher{}
	id := seedCourse(t, courses, 10)

	h := NewRecordAttendanceHandler(courses, logs, newFakeProfileRepo(), pub)
	res, err := h.Handle(context.Background(), RecordAttendanceCommand{
		UserID: "u1", CourseID: id, Status: "present",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Entry.ID)
	assert.False(t, res.Entry.RecordedAt.IsZero(), "timestamp is store-assigned")
	assert.Equal(t, 1, res.Metrics.Attended)
	assert.Equal(t, 9, res.Metrics.SessionsLeft)
	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventAttendanceRecorded, pub.events[0].EventType())
}

func TestRecordAttendance_ProjectsFromProfileGrade(t *testing.T) {
	courses := newFakeCourseRepo()
	logs := newFakeLogRepo()
	profiles := newFakeProfileRepo()
	id := seedCourse(t, courses, 20)
	ctx := context.Background()

	saveProfile := NewSaveProfileHandler(profiles, &fakePublisher{})
	require.NoError(t, saveProfile.Handle(ctx, SaveProfileCommand{
		UserID: "u1", Name: "Asha", ExpectedGrade: "C",
	}))

	h := NewRecordAttendanceHandler(courses, logs, profiles, &fakePublisher{})
	var res *RecordAttendanceResult
	for i := 0; i < 6; i++ {
		var err error
		res, err = h.Handle(ctx, RecordAttendanceCommand{UserID: "u1", CourseID: id, Status: "absent"})
		require.NoError(t, err)
	}

	// 6 misses against an allowance of 4 drop two steps from C, not
	// from the default A+ basis.
	assert.Equal(t, 2, res.Metrics.GradeDrops)
	assert.Equal(t, attendance.GradeD, res.Metrics.FinalGrade)
}

func TestSaveProfile_RejectsGradeOffScale(t *testing.T) {
	h := NewSaveProfileHandler(newFakeProfileRepo(), &fakePublisher{})
	err := h.Handle(context.Background(), SaveProfileCommand{
		UserID: "u1", Name: "Asha", ExpectedGrade: "Z",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidExpectedGrade)
	assert.True(t, shared.IsValidation(err))
}

func TestRecordAttendance_BlockedWhenPlanExhausted(t *testing.T) {
	courses := newFakeCourseRepo()
	logs := newFakeLogRepo()
	id := seedCourse(t, courses, 2)

	h := NewRecordAttendanceHandler(courses, logs, newFakeProfileRepo(), &fakePublisher{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := h.Handle(ctx, RecordAttendanceCommand{UserID: "u1", CourseID: id, Status: "present"})
		require.NoError(t, err)
	}

	_, err := h.Handle(ctx, RecordAttendanceCommand{UserID: "u1", CourseID: id, Status: "absent"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNoSessionsLeft)
	assert.Len(t, logs.logs[id], 2, "nothing written past the plan")
}

func TestRecordAttendance_InvalidStatus(t *testing.T) {
	courses := newFakeCourseRepo()
	id := seedCourse(t, courses, 10)

	h := NewRecordAttendanceHandler(courses, newFakeLogRepo(), newFakeProfileRepo(), &fakePublisher{})
	_, err := h.Handle(context.Background(), RecordAttendanceCommand{UserID: "u1", CourseID: id, Status: "late"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

// ─────────────────────────────────────────────────────────────────────────
// Undo
// ─────────────────────────────────────────────────────────────────────────

func TestUndoAttendance_MatchingStatus(t *testing.T) {
	courses := newFakeCourseRepo()
	logs := newFakeLogRepo()
	id := seedCourse(t, courses, 10)
	ctx := context.Background()

	rec := NewRecordAttendanceHandler(courses, logs, newFakeProfileRepo(), &fakePublisher{})
	_, err := rec.Handle(ctx, RecordAttendanceCommand{UserID: "u1", CourseID: id, Status: "present"})
	require.NoError(t, err)
	_, err = rec.Handle(ctx, RecordAttendanceCommand{UserID: "u1", CourseID: id, Status: "absent"})
	require.NoError(t, err)

	undo := NewUndoAttendanceHandler(logs, &fakePublisher{})
	res, err := undo.Handle(ctx, UndoAttendanceCommand{UserID: "u1", CourseID: id, Status: "absent"})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusAbsent, res.Removed.Status)
	require.Len(t, logs.logs[id], 1)
	assert.Equal(t, attendance.StatusPresent, logs.logs[id][0].Status)
}

func TestUndoAttendance_MismatchIsNoOp(t *testing.T) {
	courses := newFakeCourseRepo()
	logs := newFakeLogRepo()
	id := seedCourse(t, courses, 10)
	ctx := context.Background()

	rec := NewRecordAttendanceHandler(courses, logs, newFakeProfileRepo(), &fakePublisher{})
	_, err := rec.Handle(ctx, RecordAttendanceCommand{UserID: "u1", CourseID: id, Status: "absent"})
	require.NoError(t, err)

	undo := NewUndoAttendanceHandler(logs, &fakePublisher{})
	_, err = undo.Handle(ctx, UndoAttendanceCommand{UserID: "u1", CourseID: id, Status: "present"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUndoStatusMismatch)
	assert.Len(t, logs.logs[id], 1, "mismatched undo must not delete")
}

func TestUndoAttendance_EmptyLog(t *testing.T) {
	undo := NewUndoAttendanceHandler(newFakeLogRepo(), &fakePublisher{})
	_, err := undo.Handle(context.Background(), UndoAttendanceCommand{UserID: "u1", CourseID: "c1", Status: "present"})
	assert.ErrorIs(t, err, shared.ErrEmptyLog)
}

// ─────────────────────────────────────────────────────────────────────────
// Course editing
// ─────────────────────────────────────────────────────────────────────────

func TestUpdateCourse_RejectsTotalBelowRecorded(t *testing.T) {
	courses := newFakeCourseRepo()
	logs := newFakeLogRepo()
	id := seedCourse(t, courses, 10)
	ctx := context.Background()

	rec := NewRecordAttendanceHandler(courses, logs, newFakeProfileRepo(), &fakePublisher{})
	for i := 0; i < 3; i++ {
		_, err := rec.Handle(ctx, RecordAttendanceCommand{UserID: "u1", CourseID: id, Status: "present"})
		require.NoError(t, err)
	}

	upd := NewUpdateCourseHandler(courses, logs, &fakePublisher{})
	_, err := upd.Handle(ctx, UpdateCourseCommand{
		UserID: "u1", CourseID: id, Name: "Physics", TotalSessions: 2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrTotalBelowRecorded)

	stored, err := courses.GetByID(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.TotalSessions)
}

func TestCreateCourse_Validation(t *testing.T) {
	h := NewCreateCourseHandler(newFakeCourseRepo(), &fakePublisher{})
	ctx := context.Background()

	_, err := h.Handle(ctx, CreateCourseCommand{UserID: "u1", Name: "", TotalSessions: 10})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, CreateCourseCommand{UserID: "u1", Name: "Physics", TotalSessions: 0})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, CreateCourseCommand{
		UserID: "u1", Name: "Physics", TotalSessions: 10,
		Schedule: &ScheduleInput{Days: []int{7}, Time: "10:00"},
	})
	assert.True(t, shared.IsValidation(err))

	res, err := h.Handle(ctx, CreateCourseCommand{
		UserID: "u1", Name: "Physics", TotalSessions: 10,
		Schedule: &ScheduleInput{Days: []int{1, 3}, Time: "10:00"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.CourseID)
	assert.True(t, res.Course.MeetsOn(shared.Monday))
}
