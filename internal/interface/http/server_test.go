package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdi-hub/attendance-hub/internal/application/command"
	"github.com/mdi-hub/attendance-hub/internal/application/query"
	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// ══════════════════════════════════════════════════════════════════════════════

type memCourseRepo struct {
	nextID  int
	courses map[string]map[string]*course.Course // userID -> courseID -> course
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{courses: make(map[string]map[string]*course.Course)}
}

func (r *memCourseRepo) Create(_ context.Context, userID shared.UserID, c *course.Course) (string, error) {
	r.nextID++
	id := fmt.Sprintf("course-%d", r.nextID)
	c.ID = id
	if r.courses[userID.String()] == nil {
		r.courses[userID.String()] = make(map[string]*course.Course)
	}
	r.courses[userID.String()][id] = c
	return id, nil
}

func (r *memCourseRepo) GetByID(_ context.Context, userID shared.UserID, courseID string) (*course.Course, error) {
	c, ok := r.courses[userID.String()][courseID]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return c, nil
}

func (r *memCourseRepo) ListByUser(_ context.Context, userID shared.UserID) ([]*course.Course, error) {
	out := make([]*course.Course, 0, len(r.courses[userID.String()]))
	for _, c := range r.courses[userID.String()] {
		out = append(out, c)
	}
	return out, nil
}

func (r *memCourseRepo) Update(_ context.Context, userID shared.UserID, c *course.Course) error {
	if _, ok := r.courses[userID.String()][c.ID]; !ok {
		return shared.ErrCourseNotFound
	}
	r.courses[userID.String()][c.ID] = c
	return nil
}

func (r *memCourseRepo) Delete(_ context.Context, userID shared.UserID, courseID string) error {
	if _, ok := r.courses[userID.String()][courseID]; !ok {
		return shared.ErrCourseNotFound
	}
	delete(r.courses[userID.String()], courseID)
	return nil
}

type memLogRepo struct {
	nextID  int
	entries map[string][]*attendance.Entry // userID/courseID -> log
}

func newMemLogRepo() *memLogRepo {
	return &memLogRepo{entries: make(map[string][]*attendance.Entry)}
}

func logKey(userID shared.UserID, courseID string) string {
	return userID.String() + "/" + courseID
}

func (r *memLogRepo) Append(_ context.Context, userID shared.UserID, courseID string, entry *attendance.Entry) (*attendance.Entry, error) {
	r.nextID++
	stored := &attendance.Entry{
		ID:         fmt.Sprintf("entry-%d", r.nextID),
		Status:     entry.Status,
		RecordedAt: time.Now(),
	}
	key := logKey(userID, courseID)
	r.entries[key] = append(r.entries[key], stored)
	return stored, nil
}

func (r *memLogRepo) ListByCourse(_ context.Context, userID shared.UserID, courseID string) ([]*attendance.Entry, error) {
	return r.entries[logKey(userID, courseID)], nil
}

func (r *memLogRepo) Latest(_ context.Context, userID shared.UserID, courseID string) (*attendance.Entry, error) {
	log := r.entries[logKey(userID, courseID)]
	if len(log) == 0 {
		return nil, shared.ErrEmptyLog
	}
	return log[len(log)-1], nil
}

func (r *memLogRepo) Delete(_ context.Context, userID shared.UserID, courseID, entryID string) error {
	key := logKey(userID, courseID)
	for i, e := range r.entries[key] {
		if e.ID == entryID {
			r.entries[key] = append(r.entries[key][:i], r.entries[key][i+1:]...)
			return nil
		}
	}
	return shared.ErrEntryNotFound
}

type memProfileRepo struct {
	profiles map[string]*profile.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*profile.Profile)}
}

func (r *memProfileRepo) Get(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	p, ok := r.profiles[userID.String()]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p, nil
}

func (r *memProfileRepo) Save(_ context.Context, userID shared.UserID, p *profile.Profile) error {
	r.profiles[userID.String()] = p
	return nil
}

func (r *memProfileRepo) ListUserIDs(_ context.Context) ([]shared.UserID, error) {
	ids := make([]shared.UserID, 0, len(r.profiles))
	for id := range r.profiles {
		uid, _ := shared.NewUserID(id)
		ids = append(ids, uid)
	}
	return ids, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(shared.Event) error { return nil }

// ══════════════════════════════════════════════════════════════════════════════
// TEST SERVER
// ══════════════════════════════════════════════════════════════════════════════

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithConfig(t, nil)
}

func newTestServerWithConfig(t *testing.T, tweak func(*Config)) *Server {
	t.Helper()

	courseRepo := newMemCourseRepo()
	logRepo := newMemLogRepo()
	profileRepo := newMemProfileRepo()
	pub := noopPublisher{}

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // deterministic tests
	if tweak != nil {
		tweak(&cfg)
	}

	return NewServer(cfg, Dependencies{
		CreateCourseHandler:     command.NewCreateCourseHandler(courseRepo, pub),
		UpdateCourseHandler:     command.NewUpdateCourseHandler(courseRepo, logRepo, pub),
		DeleteCourseHandler:     command.NewDeleteCourseHandler(courseRepo, pub),
		RecordAttendanceHandler: command.NewRecordAttendanceHandler(courseRepo, logRepo, profileRepo, pub),
		UndoAttendanceHandler:   command.NewUndoAttendanceHandler(logRepo, pub),
		DeleteLogEntryHandler:   command.NewDeleteLogEntryHandler(logRepo, pub),
		SaveProfileHandler:      command.NewSaveProfileHandler(profileRepo, pub),
		SaveSubscriptionHandler: command.NewSaveSubscriptionHandler(profileRepo, pub),

		ListCourseSummariesHandler: query.NewListCourseSummariesHandler(courseRepo, nil, logRepo, profileRepo),
		GetCourseSummaryHandler:    query.NewGetCourseSummaryHandler(courseRepo, logRepo, profileRepo),
		ExportAttendanceHandler:    query.NewExportAttendanceHandler(courseRepo, logRepo),
		GetTodayScheduleHandler:    query.NewGetTodayScheduleHandler(courseRepo),
		GetSmartRemindersHandler:   query.NewGetSmartRemindersHandler(courseRepo, logRepo),
		GetProfileHandler:          query.NewGetProfileHandler(profileRepo, nil, 0),
	})
}

func doRequest(s *Server, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestServerRequiresUserID(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/courses", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_user_id")
}

func TestServerCreateAndGetCourse(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/courses", "user-1", map[string]interface{}{
		"name":           "Algorithms",
		"professor_name": "Dr. Rao",
		"total_sessions": 40,
		"schedule":       map[string]interface{}{"days": []int{1, 3}, "time": "10:00"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeData(t, rec)
	courseID, _ := created["id"].(string)
	require.NotEmpty(t, courseID)

	rec = doRequest(s, http.MethodGet, "/api/v1/courses/"+courseID, "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	c := data["course"].(map[string]interface{})
	assert.Equal(t, "Algorithms", c["name"])

	// Empty log: no percentage field, full allowance remains.
	m := data["metrics"].(map[string]interface{})
	_, hasPercentage := m["percentage"]
	assert.False(t, hasPercentage)
	assert.Equal(t, float64(8), m["max_missable"])
	assert.Equal(t, "A+", m["final_grade"])
}

func TestServerCourseNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/courses/nope", "user-1", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestServerValidationFailure(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/courses", "user-1", map[string]interface{}{
		"name":           "Broken",
		"total_sessions": 0,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_failed")
}

func TestServerRecordAttendance(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/courses", "user-1", map[string]interface{}{
		"name":           "Physics",
		"total_sessions": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	courseID := decodeData(t, rec)["id"].(string)

	for _, status := range []string{"present", "present", "absent"} {
		rec = doRequest(s, http.MethodPost, "/api/v1/courses/"+courseID+"/attendance", "user-1",
			map[string]string{"status": status})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	m := decodeData(t, rec)["metrics"].(map[string]interface{})
	assert.Equal(t, float64(2), m["attended"])
	assert.Equal(t, float64(1), m["missed"])
	assert.Equal(t, float64(67), m["percentage"])
}

func TestServerSummaryUsesExpectedGrade(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/v1/profile", "user-1", map[string]string{
		"name":           "Asha",
		"expected_grade": "C",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodPost, "/api/v1/courses", "user-1", map[string]interface{}{
		"name":           "Statistics",
		"total_sessions": 20,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	courseID := decodeData(t, rec)["id"].(string)

	for i := 0; i < 6; i++ {
		rec = doRequest(s, http.MethodPost, "/api/v1/courses/"+courseID+"/attendance", "user-1",
			map[string]string{"status": "absent"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/courses/"+courseID, "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Two drops below the saved C basis, not below the A+ default.
	m := decodeData(t, rec)["metrics"].(map[string]interface{})
	assert.Equal(t, float64(2), m["grade_drops"])
	assert.Equal(t, "D", m["final_grade"])

	rec = doRequest(s, http.MethodGet, "/api/v1/profile", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "C", decodeData(t, rec)["expected_grade"])
}

func TestServerUndoAttendance(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/courses", "user-1", map[string]interface{}{
		"name":           "Chemistry",
		"total_sessions": 20,
	})
	courseID := decodeData(t, rec)["id"].(string)

	doRequest(s, http.MethodPost, "/api/v1/courses/"+courseID+"/attendance", "user-1",
		map[string]string{"status": "present"})

	rec = doRequest(s, http.MethodPost, "/api/v1/courses/"+courseID+"/attendance/undo", "user-1",
		map[string]string{"status": "present"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Undoing with a mismatched status is a conflict, not a removal.
	doRequest(s, http.MethodPost, "/api/v1/courses/"+courseID+"/attendance", "user-1",
		map[string]string{"status": "absent"})
	rec = doRequest(s, http.MethodPost, "/api/v1/courses/"+courseID+"/attendance/undo", "user-1",
		map[string]string{"status": "present"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServerProfileRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/profile", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(s, http.MethodPut, "/api/v1/profile", "user-1", map[string]string{
		"name":           "Priya",
		"expected_grade": "A",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/api/v1/profile", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "Priya", data["name"])
	assert.Equal(t, false, data["has_subscription"])

	rec = doRequest(s, http.MethodPost, "/api/v1/profile/subscription", "user-1", map[string]interface{}{
		"endpoint": "https://push.example.com/sub/abc",
		"keys":     map[string]string{"p256dh": "key", "auth": "secret"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/api/v1/profile", "user-1", nil)
	data = decodeData(t, rec)
	assert.Equal(t, true, data["has_subscription"])
}

func TestServerExportCourse(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/courses", "user-1", map[string]interface{}{
		"name":           "Biology",
		"total_sessions": 10,
	})
	courseID := decodeData(t, rec)["id"].(string)

	doRequest(s, http.MethodPost, "/api/v1/courses/"+courseID+"/attendance", "user-1",
		map[string]string{"status": "present"})

	rec = doRequest(s, http.MethodGet, "/api/v1/courses/"+courseID+"/export", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), `"Date","Status"`)
	assert.Contains(t, rec.Body.String(), `"present"`)
}

func TestServerTimetableImageDisabled(t *testing.T) {
	s := newTestServerWithConfig(t, func(cfg *Config) {
		cfg.EnableTimetableImage = false
	})

	rec := doRequest(s, http.MethodPut, "/api/v1/profile", "user-1", map[string]string{
		"name":            "Asha",
		"timetable_image": "data:image/png;base64,AAAA",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/api/v1/profile", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "Asha", data["name"])
	assert.Empty(t, data["timetable_image"], "image must be dropped when the feature is off")
}

func TestServerRemindersCarryZeroBunksLeft(t *testing.T) {
	s := newTestServer(t)

	// Meets every day at midnight so the low-allowance check applies
	// today while the class-soon window can never match.
	rec := doRequest(s, http.MethodPost, "/api/v1/courses", "user-1", map[string]interface{}{
		"name":           "Physics",
		"total_sessions": 20,
		"schedule":       map[string]interface{}{"days": []int{0, 1, 2, 3, 4, 5, 6}, "time": "00:00"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	courseID := decodeData(t, rec)["id"].(string)

	for i := 0; i < 4; i++ {
		rec = doRequest(s, http.MethodPost, "/api/v1/courses/"+courseID+"/attendance", "user-1",
			map[string]string{"status": "absent"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/v1/reminders", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	var low map[string]interface{}
	for _, r := range resp.Data {
		if r["reason"] == "low_allowance" {
			low = r
		}
	}
	require.NotNil(t, low, "allowance is exhausted, reminder expected")

	// The exhausted allowance is a meaningful zero and must be present.
	bunks, ok := low["bunks_left"]
	require.True(t, ok, "bunks_left missing from low_allowance reminder")
	assert.Equal(t, float64(0), bunks)
}

func TestServerHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestServerUserIsolation(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/courses", "user-1", map[string]interface{}{
		"name":           "Maths",
		"total_sessions": 10,
	})
	courseID := decodeData(t, rec)["id"].(string)

	// Another user cannot see the course.
	rec = doRequest(s, http.MethodGet, "/api/v1/courses/"+courseID, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
