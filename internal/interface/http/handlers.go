package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/application/command"
	"github.com/mdi-hub/attendance-hub/internal/application/query"
	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/reminder"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
	"github.com/mdi-hub/attendance-hub/pkg/logger"
	"github.com/mdi-hub/attendance-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SCOPING
// All /api/v1 routes operate on the data of a single user, identified by
// the X-User-ID header. There is no cross-user access in the API.
// ══════════════════════════════════════════════════════════════════════════════

// requireUserID extracts the user identity header or writes a 401.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(s.config.UserIDHeader)
	if userID == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing_user_id",
			fmt.Sprintf("%s header is required", s.config.UserIDHeader))
		return "", false
	}
	return userID, true
}

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeBody decodes a JSON request body or writes a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body must be valid JSON")
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// DTO MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// scheduleDTO mirrors the optional weekly schedule of a course.
type scheduleDTO struct {
	Days []int  `json:"days"`
	Time string `json:"time"`
}

// courseDTO is the JSON representation of a stored course.
type courseDTO struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ProfessorName string       `json:"professor_name,omitempty"`
	TotalSessions int          `json:"total_sessions"`
	Schedule      *scheduleDTO `json:"schedule,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// metricsDTO exposes the derived attendance numbers. Percentage is
// omitted entirely for an empty log so the client can render "no data".
type metricsDTO struct {
	Attended      int    `json:"attended"`
	Missed        int    `json:"missed"`
	TotalRecorded int    `json:"total_recorded"`
	Percentage    *int   `json:"percentage,omitempty"`
	SessionsLeft  int    `json:"sessions_left"`
	MaxMissable   int    `json:"max_missable"`
	BunksLeft     int    `json:"bunks_left"`
	GradeDrops    int    `json:"grade_drops"`
	FinalGrade    string `json:"final_grade"`
}

// entryDTO is a single attendance log record.
type entryDTO struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

// summaryDTO bundles a course with its recomputed metrics and log.
type summaryDTO struct {
	Course  courseDTO  `json:"course"`
	Metrics metricsDTO `json:"metrics"`
	Entries []entryDTO `json:"entries"`
}

// profileDTO is the JSON representation of a user profile.
type profileDTO struct {
	Name            string    `json:"name"`
	ExpectedGrade   string    `json:"expected_grade"`
	TimetableImage  string    `json:"timetable_image,omitempty"`
	HasSubscription bool      `json:"has_subscription"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// scheduledCourseDTO is one item of today's timetable.
type scheduledCourseDTO struct {
	Course    courseDTO `json:"course"`
	ClassTime string    `json:"class_time"`
}

// reminderDTO is one actionable reminder for the current moment.
// BunksLeft is a pointer so a low-allowance reminder can carry the
// meaningful value 0 while other reasons omit the field.
type reminderDTO struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	ClassTime  string `json:"class_time"`
	Reason     string `json:"reason"`
	BunksLeft  *int   `json:"bunks_left,omitempty"`
}

func toCourseDTO(c *course.Course) courseDTO {
	dto := courseDTO{
		ID:            c.ID,
		Name:          c.Name,
		ProfessorName: c.ProfessorName,
		TotalSessions: c.TotalSessions,
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.Schedule != nil {
		days := make([]int, 0, len(c.Schedule.Days))
		for _, d := range c.Schedule.Days {
			days = append(days, int(d))
		}
		dto.Schedule = &scheduleDTO{Days: days, Time: string(c.Schedule.Time)}
	}
	return dto
}

func toMetricsDTO(m attendance.Metrics) metricsDTO {
	dto := metricsDTO{
		Attended:      m.Attended,
		Missed:        m.Missed,
		TotalRecorded: m.TotalRecorded,
		SessionsLeft:  m.SessionsLeft,
		MaxMissable:   m.MaxMissable,
		BunksLeft:     m.BunksLeft,
		GradeDrops:    m.GradeDrops,
		FinalGrade:    string(m.FinalGrade),
	}
	if m.HasPercentage {
		p := m.Percentage
		dto.Percentage = &p
	}
	return dto
}

func toEntryDTOs(entries []*attendance.Entry) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryDTO{
			ID:         e.ID,
			Status:     string(e.Status),
			RecordedAt: e.RecordedAt,
		})
	}
	return out
}

func toSummaryDTO(s *query.CourseSummary) summaryDTO {
	return summaryDTO{
		Course:  toCourseDTO(s.Course),
		Metrics: toMetricsDTO(s.Metrics),
		Entries: toEntryDTOs(s.Entries),
	}
}

func toProfileDTO(p *profile.Profile) profileDTO {
	return profileDTO{
		Name:            p.Name,
		ExpectedGrade:   p.ExpectedGrade.String(),
		TimetableImage:  p.TimetableImage,
		HasSubscription: p.Subscription.IsValid(),
		UpdatedAt:       p.UpdatedAt,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth returns overall health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"uptime": s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// handleReady returns readiness status.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": status.Message,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive returns liveness status. If this handler runs, we are live.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "attendance-hub",
		"api":     "/api/v1",
		"uptime":  s.Uptime().String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// courseRequest is the JSON body of course create/update requests.
type courseRequest struct {
	Name          string       `json:"name"`
	ProfessorName string       `json:"professor_name"`
	TotalSessions int          `json:"total_sessions"`
	Schedule      *scheduleDTO `json:"schedule"`
	Notes         string       `json:"notes"`
}

func (cr *courseRequest) scheduleInput() *command.ScheduleInput {
	if cr.Schedule == nil {
		return nil
	}
	return &command.ScheduleInput{Days: cr.Schedule.Days, Time: cr.Schedule.Time}
}

// handleListCourses returns all courses of the user with derived metrics.
func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	summaries, err := s.deps.ListCourseSummariesHandler.Handle(r.Context(), query.ListCourseSummariesQuery{UserID: userID})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	dtos := make([]summaryDTO, 0, len(summaries))
	for _, sum := range summaries {
		dtos = append(dtos, toSummaryDTO(sum))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// handleCreateCourse creates a new course.
func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req courseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreateCourseHandler.Handle(r.Context(), command.CreateCourseCommand{
		UserID:        userID,
		Name:          req.Name,
		ProfessorName: req.ProfessorName,
		TotalSessions: req.TotalSessions,
		Schedule:      req.scheduleInput(),
		Notes:         req.Notes,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCourseDTO(result.Course))
}

// handleGetCourse returns one course with metrics and the full log.
func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	summary, err := s.deps.GetCourseSummaryHandler.Handle(r.Context(), query.GetCourseSummaryQuery{
		UserID:   userID,
		CourseID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// handleUpdateCourse replaces the editable fields of a course.
func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req courseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.UpdateCourseHandler.Handle(r.Context(), command.UpdateCourseCommand{
		UserID:        userID,
		CourseID:      r.PathValue("id"),
		Name:          req.Name,
		ProfessorName: req.ProfessorName,
		TotalSessions: req.TotalSessions,
		Schedule:      req.scheduleInput(),
		Notes:         req.Notes,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCourseDTO(result.Course))
}

// handleDeleteCourse removes a course together with its attendance log.
func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	err := s.deps.DeleteCourseHandler.Handle(r.Context(), command.DeleteCourseCommand{
		UserID:   userID,
		CourseID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// attendanceRequest carries the mark of an attendance request.
type attendanceRequest struct {
	Status string `json:"status"`
}

// handleRecordAttendance appends a present/absent mark to the course log.
func (s *Server) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req attendanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RecordAttendanceHandler.Handle(r.Context(), command.RecordAttendanceCommand{
		UserID:   userID,
		CourseID: r.PathValue("id"),
		Status:   req.Status,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"entry":   toEntryDTOs([]*attendance.Entry{result.Entry})[0],
		"metrics": toMetricsDTO(result.Metrics),
	})
}

// handleUndoAttendance removes the most recent mark with the given status.
func (s *Server) handleUndoAttendance(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req attendanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.UndoAttendanceHandler.Handle(r.Context(), command.UndoAttendanceCommand{
		UserID:   userID,
		CourseID: r.PathValue("id"),
		Status:   req.Status,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed": toEntryDTOs([]*attendance.Entry{result.Removed})[0],
	})
}

// handleGetLog returns the attendance log of a course, newest first.
func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	summary, err := s.deps.GetCourseSummaryHandler.Handle(r.Context(), query.GetCourseSummaryQuery{
		UserID:   userID,
		CourseID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryDTOs(summary.Entries))
}

// handleDeleteLogEntry removes a single log record by its identifier.
func (s *Server) handleDeleteLogEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	err := s.deps.DeleteLogEntryHandler.Handle(r.Context(), command.DeleteLogEntryCommand{
		UserID:   userID,
		CourseID: r.PathValue("id"),
		EntryID:  r.PathValue("entryID"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE & REMINDER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleTodaySchedule returns the courses meeting today, ordered by
// class time. "Today" is resolved in IST.
func (s *Server) handleTodaySchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	scheduled, err := s.deps.GetTodayScheduleHandler.Handle(r.Context(), query.GetTodayScheduleQuery{
		UserID: userID,
		At:     timeutil.Now(),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	dtos := make([]scheduledCourseDTO, 0, len(scheduled))
	for _, sc := range scheduled {
		dtos = append(dtos, scheduledCourseDTO{
			Course:    toCourseDTO(sc.Course),
			ClassTime: string(sc.ClassTime),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// handleSmartReminders evaluates reminder conditions for the current
// moment and returns what would be pushed right now.
func (s *Server) handleSmartReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	reminders, err := s.deps.GetSmartRemindersHandler.Handle(r.Context(), query.GetSmartRemindersQuery{
		UserID: userID,
		At:     timeutil.Now(),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	dtos := make([]reminderDTO, 0, len(reminders))
	for _, rem := range reminders {
		dto := reminderDTO{
			CourseID:   rem.CourseID,
			CourseName: rem.CourseName,
			ClassTime:  string(rem.ClassTime),
			Reason:     string(rem.Reason),
		}
		if rem.Reason == reminder.ReasonLowAllowance {
			bunks := rem.BunksLeft
			dto.BunksLeft = &bunks
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProfile returns the user profile. A missing profile is a 404:
// the client treats it as "not set up yet", not an error state.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	p, err := s.deps.GetProfileHandler.Handle(r.Context(), query.GetProfileQuery{UserID: userID})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// profileRequest is the JSON body of profile save requests.
type profileRequest struct {
	Name           string `json:"name"`
	ExpectedGrade  string `json:"expected_grade"`
	TimetableImage string `json:"timetable_image"`
}

// handleSaveProfile creates or updates the profile. The push
// subscription is managed separately and survives profile saves.
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !s.config.EnableTimetableImage {
		req.TimetableImage = ""
	}

	err := s.deps.SaveProfileHandler.Handle(r.Context(), command.SaveProfileCommand{
		UserID:         userID,
		Name:           req.Name,
		ExpectedGrade:  req.ExpectedGrade,
		TimetableImage: req.TimetableImage,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// subscriptionRequest is the JSON body of a browser push subscription,
// matching the PushSubscription.toJSON() shape of the Push API.
type subscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// handleSaveSubscription stores the push subscription on the profile.
func (s *Server) handleSaveSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req subscriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.deps.SaveSubscriptionHandler.Handle(r.Context(), command.SaveSubscriptionCommand{
		UserID:   userID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleExportAll streams a CSV with the logs of all courses.
func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "")
}

// handleExportCourse streams a CSV with the log of one course.
func (s *Server) handleExportCourse(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, r.PathValue("id"))
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, courseID string) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	result, err := s.deps.ExportAttendanceHandler.Handle(r.Context(), query.ExportAttendanceQuery{
		UserID:   userID,
		CourseID: courseID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.CSV))
}
