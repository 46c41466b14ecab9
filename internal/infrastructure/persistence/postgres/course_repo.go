package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

// Create creates a new course and returns the generated ID.
func (r *CourseRepository) Create(ctx context.Context, userID shared.UserID, c *course.Course) (string, error) {
	query := `
		INSERT INTO courses (
			user_id, name, professor_name, total_sessions,
			schedule_days, schedule_time, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	days, clockTime := scheduleColumns(c.Schedule)

	var id string
	err := r.conn.QueryRow(ctx, query,
		userID.String(),
		c.Name,
		c.ProfessorName,
		c.TotalSessions,
		days,
		clockTime,
		c.Notes,
	).Scan(&id, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to create course: %w", err)
	}

	return id, nil
}

// GetByID returns one course scoped to its owner.
func (r *CourseRepository) GetByID(ctx context.Context, userID shared.UserID, courseID string) (*course.Course, error) {
	query := `
		SELECT id, name, professor_name, total_sessions,
			   schedule_days, schedule_time, notes, created_at, updated_at
		FROM courses
		WHERE id = $1 AND user_id = $2
	`

	row := r.conn.QueryRow(ctx, query, courseID, userID.String())
	return r.scanCourse(row)
}

// ListByUser returns all courses of a user ordered by name.
func (r *CourseRepository) ListByUser(ctx context.Context, userID shared.UserID) ([]*course.Course, error) {
	query := `
		SELECT id, name, professor_name, total_sessions,
			   schedule_days, schedule_time, notes, created_at, updated_at
		FROM courses
		WHERE user_id = $1
		ORDER BY name
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*course.Course, 0)
	for rows.Next() {
		c, err := r.scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}

	return courses, rows.Err()
}

// Update updates a course.
func (r *CourseRepository) Update(ctx context.Context, userID shared.UserID, c *course.Course) error {
	query := `
		UPDATE courses SET
			name = $1,
			professor_name = $2,
			total_sessions = $3,
			schedule_days = $4,
			schedule_time = $5,
			notes = $6,
			updated_at = $7
		WHERE id = $8 AND user_id = $9
	`

	days, clockTime := scheduleColumns(c.Schedule)

	result, err := r.conn.Exec(ctx, query,
		c.Name,
		c.ProfessorName,
		c.TotalSessions,
		days,
		clockTime,
		c.Notes,
		time.Now().UTC(),
		c.ID,
		userID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrCourseNotFound
	}

	return nil
}

// Delete removes a course. The attendance log goes with it via the
// ON DELETE CASCADE constraint.
func (r *CourseRepository) Delete(ctx context.Context, userID shared.UserID, courseID string) error {
	query := `DELETE FROM courses WHERE id = $1 AND user_id = $2`

	result, err := r.conn.Exec(ctx, query, courseID, userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrCourseNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *CourseRepository) scanCourse(row pgx.Row) (*course.Course, error) {
	var (
		c         course.Course
		days      []int16
		clockTime *string
	)

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.ProfessorName,
		&c.TotalSessions,
		&days,
		&clockTime,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}

	if len(days) > 0 && clockTime != nil {
		weekdays := make([]shared.Weekday, 0, len(days))
		for _, d := range days {
			weekdays = append(weekdays, shared.Weekday(d))
		}
		c.Schedule = &course.Schedule{
			Days: weekdays,
			Time: shared.ClockTime(*clockTime),
		}
	}

	return &c, nil
}

// scheduleColumns splits a schedule into its two nullable columns.
func scheduleColumns(s *course.Schedule) ([]int16, *string) {
	if s == nil {
		return nil, nil
	}
	days := make([]int16, len(s.Days))
	for i, d := range s.Days {
		days[i] = int16(d.Int())
	}
	clockTime := s.Time.String()
	return days, &clockTime
}

var _ course.Repository = (*CourseRepository)(nil)
