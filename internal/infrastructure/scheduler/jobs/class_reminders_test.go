package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/notification"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
	"github.com/mdi-hub/attendance-hub/pkg/timeutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeProfileRepo struct {
	profiles map[shared.UserID]*profile.Profile
	saved    map[shared.UserID]*profile.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[shared.UserID]*profile.Profile),
		saved:    make(map[shared.UserID]*profile.Profile),
	}
}

func (r *fakeProfileRepo) Get(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) Save(_ context.Context, userID shared.UserID, p *profile.Profile) error {
	r.profiles[userID] = p
	r.saved[userID] = p
	return nil
}

func (r *fakeProfileRepo) ListUserIDs(_ context.Context) ([]shared.UserID, error) {
	ids := make([]shared.UserID, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeCourseRepo struct {
	courses map[shared.UserID][]*course.Course
}

func (r *fakeCourseRepo) Create(_ context.Context, _ shared.UserID, _ *course.Course) (string, error) {
	panic("not used")
}

func (r *fakeCourseRepo) GetByID(_ context.Context, _ shared.UserID, _ string) (*course.Course, error) {
	panic("not used")
}

func (r *fakeCourseRepo) ListByUser(_ context.Context, userID shared.UserID) ([]*course.Course, error) {
	return r.courses[userID], nil
}

func (r *fakeCourseRepo) Update(_ context.Context, _ shared.UserID, _ *course.Course) error {
	panic("not used")
}

func (r *fakeCourseRepo) Delete(_ context.Context, _ shared.UserID, _ string) error {
	panic("not used")
}

type fakeLogRepo struct {
	logs map[string][]*attendance.Entry
}

func (r *fakeLogRepo) Append(_ context.Context, _ shared.UserID, _ string, _ *attendance.Entry) (*attendance.Entry, error) {
	panic("not used")
}

func (r *fakeLogRepo) ListByCourse(_ context.Context, _ shared.UserID, courseID string) ([]*attendance.Entry, error) {
	return r.logs[courseID], nil
}

func (r *fakeLogRepo) Latest(_ context.Context, _ shared.UserID, _ string) (*attendance.Entry, error) {
	panic("not used")
}

func (r *fakeLogRepo) Delete(_ context.Context, _ shared.UserID, _, _ string) error {
	panic("not used")
}

type sentPush struct {
	sub *profile.PushSubscription
	n   *notification.Notification
}

type fakeSender struct {
	sent        []sentPush
	unavailable bool
	failErr     error
	gone        bool
}

func (s *fakeSender) Send(_ context.Context, sub *profile.PushSubscription, n *notification.Notification) notification.DeliveryResult {
	s.sent = append(s.sent, sentPush{sub: sub, n: n})
	if s.failErr != nil {
		return notification.NewFailureResult(s.failErr, s.gone)
	}
	return notification.NewSuccessResult()
}

func (s *fakeSender) IsAvailable() bool {
	return !s.unavailable
}

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────────────────────────────────

// mondayAt returns a Monday in IST at the given hour.
func mondayAt(hour int) time.Time {
	return timeutil.DateTime(2026, 3, 2, hour, 0, 0)
}

func subscribedProfile(name string) *profile.Profile {
	p := profile.NewProfile(name)
	p.Subscription = &profile.PushSubscription{
		Endpoint: "https://push.example.com/sub",
		P256dh:   "p256dh-key",
		Auth:     "auth-secret",
	}
	return p
}

func mondayCourse(t *testing.T, id, name, classTime string, total int) *course.Course {
	t.Helper()
	c, err := course.NewCourse(course.NewCourseParams{
		Name:          name,
		TotalSessions: total,
		Schedule: &course.Schedule{
			Days: []shared.Weekday{shared.Monday},
			Time: shared.ClockTime(classTime),
		},
	})
	require.NoError(t, err)
	c.ID = id
	return c
}

func newTestJob(
	profiles *fakeProfileRepo,
	courses *fakeCourseRepo,
	logs *fakeLogRepo,
	sender *fakeSender,
	publisher *fakePublisher,
	at time.Time,
) *ClassRemindersJob {
	job := NewClassRemindersJob(
		profiles, courses, logs, sender, publisher,
		nil, DefaultClassRemindersConfig(),
	)
	job.now = func() time.Time { return at }
	return job
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestClassReminders_SendsClassSoonReminder(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.profiles["u1"] = subscribedProfile("Asha")

	courses := &fakeCourseRepo{courses: map[shared.UserID][]*course.Course{
		"u1": {mondayCourse(t, "c1", "Algorithms", "10:00", 20)},
	}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{}}
	sender := &fakeSender{}
	publisher := &fakePublisher{}

	// 09:00 Monday: the 10:00 class is one hour away.
	job := newTestJob(profiles, courses, logs, sender, publisher, mondayAt(9))

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Class Reminder: Algorithms", sender.sent[0].n.Title)
	assert.Equal(t, "https://push.example.com/sub", sender.sent[0].sub.Endpoint)

	stats := job.LastScanStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.RemindersSent)
	assert.Equal(t, 0, stats.RemindersFailed)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventReminderSent, publisher.events[0].EventType())
}

func TestClassReminders_SendsLowAllowanceReminder(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.profiles["u1"] = subscribedProfile("Asha")

	courses := &fakeCourseRepo{courses: map[shared.UserID][]*course.Course{
		"u1": {mondayCourse(t, "c1", "Physics", "14:00", 10)},
	}}
	// 10 sessions allow 2 misses; one absence leaves a single bunk.
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{
		"c1": {{ID: "e1", Status: attendance.StatusAbsent}},
	}}
	sender := &fakeSender{}
	publisher := &fakePublisher{}

	// 08:00 Monday: class is hours away, only the allowance warning fires.
	job := newTestJob(profiles, courses, logs, sender, publisher, mondayAt(8))

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Don't skip Physics today", sender.sent[0].n.Title)
	assert.Contains(t, sender.sent[0].n.Body, "1 bunk left")
}

func TestClassReminders_NoReminderAcrossMidnight(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.profiles["u1"] = subscribedProfile("Asha")

	courses := &fakeCourseRepo{courses: map[shared.UserID][]*course.Course{
		"u1": {mondayCourse(t, "c1", "Night Lab", "00:15", 20)},
	}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{}}
	sender := &fakeSender{}
	publisher := &fakePublisher{}

	// 23:00 Monday: the next 00:15 class is on Tuesday, not "in an hour".
	job := newTestJob(profiles, courses, logs, sender, publisher, mondayAt(23))

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, sender.sent)
}

func TestClassReminders_SkipsUserWithoutSubscription(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.profiles["u1"] = profile.NewProfile("Asha") // no subscription
	profiles.profiles["u2"] = subscribedProfile("Ravi")

	courses := &fakeCourseRepo{courses: map[shared.UserID][]*course.Course{
		"u1": {mondayCourse(t, "c1", "Algorithms", "10:00", 20)},
		"u2": {mondayCourse(t, "c2", "Databases", "10:00", 20)},
	}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{}}
	sender := &fakeSender{}
	publisher := &fakePublisher{}

	job := newTestJob(profiles, courses, logs, sender, publisher, mondayAt(9))

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Class Reminder: Databases", sender.sent[0].n.Title)

	stats := job.LastScanStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.SkippedUsers)
	assert.Equal(t, 1, stats.ScannedUsers)
}

func TestClassReminders_ClearsGoneSubscription(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.profiles["u1"] = subscribedProfile("Asha")

	courses := &fakeCourseRepo{courses: map[shared.UserID][]*course.Course{
		"u1": {mondayCourse(t, "c1", "Algorithms", "10:00", 20)},
	}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{}}
	sender := &fakeSender{
		failErr: shared.ErrSubscriptionGone,
		gone:    true,
	}
	publisher := &fakePublisher{}

	job := newTestJob(profiles, courses, logs, sender, publisher, mondayAt(9))

	require.NoError(t, job.Run(context.Background()))

	saved, ok := profiles.saved["u1"]
	require.True(t, ok, "profile should be saved after clearing the subscription")
	assert.Nil(t, saved.Subscription)

	stats := job.LastScanStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.RemindersFailed)
	assert.Equal(t, 1, stats.SubscriptionsCleared)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventReminderFailed, publisher.events[0].EventType())
}

func TestClassReminders_SenderUnavailable(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.profiles["u1"] = subscribedProfile("Asha")

	courses := &fakeCourseRepo{courses: map[shared.UserID][]*course.Course{}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{}}
	sender := &fakeSender{unavailable: true}

	job := newTestJob(profiles, courses, logs, sender, &fakePublisher{}, mondayAt(9))

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Empty(t, sender.sent)
}

func TestClassReminders_LowAllowanceAlertsDisabled(t *testing.T) {
	profiles := newFakeProfileRepo()
	profiles.profiles["u1"] = subscribedProfile("Asha")

	courses := &fakeCourseRepo{courses: map[shared.UserID][]*course.Course{
		"u1": {mondayCourse(t, "c1", "Physics", "14:00", 10)},
	}}
	logs := &fakeLogRepo{logs: map[string][]*attendance.Entry{
		"c1": {{ID: "e1", Status: attendance.StatusAbsent}},
	}}
	sender := &fakeSender{}

	config := DefaultClassRemindersConfig()
	config.LowAllowanceAlerts = false

	job := NewClassRemindersJob(profiles, courses, logs, sender, &fakePublisher{}, nil, config)
	job.now = func() time.Time { return mondayAt(8) }

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, sender.sent)
}
