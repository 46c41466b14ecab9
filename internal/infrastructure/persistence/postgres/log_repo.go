package postgres

import (
	"context"
	"fmt"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE LOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LogRepository implements attendance.LogRepository for PostgreSQL.
type LogRepository struct {
	conn *Connection
}

// NewLogRepository creates a new LogRepository.
func NewLogRepository(conn *Connection) *LogRepository {
	return &LogRepository{conn: conn}
}

// Append inserts one entry. recorded_at is assigned by the database;
// the inserted row is returned via RETURNING.
func (r *LogRepository) Append(ctx context.Context, userID shared.UserID, courseID string, e *attendance.Entry) (*attendance.Entry, error) {
	query := `
		INSERT INTO attendance_log (course_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, status, recorded_at
	`

	saved := &attendance.Entry{}
	var status string
	err := r.conn.QueryRow(ctx, query, courseID, userID.String(), e.Status.String()).
		Scan(&saved.ID, &status, &saved.RecordedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to append log entry: %w", err)
	}
	saved.Status = attendance.Status(status)

	return saved, nil
}

// ListByCourse returns the full log, oldest entry first.
func (r *LogRepository) ListByCourse(ctx context.Context, userID shared.UserID, courseID string) ([]*attendance.Entry, error) {
	query := `
		SELECT id, status, recorded_at
		FROM attendance_log
		WHERE course_id = $1 AND user_id = $2
		ORDER BY recorded_at, id
	`

	rows, err := r.conn.Query(ctx, query, courseID, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*attendance.Entry, 0)
	for rows.Next() {
		e := &attendance.Entry{}
		var status string
		if err := rows.Scan(&e.ID, &status, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		e.Status = attendance.Status(status)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Latest returns the most recently recorded entry.
func (r *LogRepository) Latest(ctx context.Context, userID shared.UserID, courseID string) (*attendance.Entry, error) {
	query := `
		SELECT id, status, recorded_at
		FROM attendance_log
		WHERE course_id = $1 AND user_id = $2
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`

	e := &attendance.Entry{}
	var status string
	err := r.conn.QueryRow(ctx, query, courseID, userID.String()).
		Scan(&e.ID, &status, &e.RecordedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrEmptyLog
		}
		return nil, fmt.Errorf("failed to query latest entry: %w", err)
	}
	e.Status = attendance.Status(status)

	return e, nil
}

// Delete removes one entry by ID.
func (r *LogRepository) Delete(ctx context.Context, userID shared.UserID, courseID, entryID string) error {
	query := `
		DELETE FROM attendance_log
		WHERE id = $1 AND course_id = $2 AND user_id = $3
	`

	result, err := r.conn.Exec(ctx, query, entryID, courseID, userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete log entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}

	return nil
}

var _ attendance.LogRepository = (*LogRepository)(nil)
