package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements profile.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// Get returns one user's profile.
func (r *ProfileRepository) Get(ctx context.Context, userID shared.UserID) (*profile.Profile, error) {
	query := `
		SELECT name, expected_grade, timetable_image,
			   push_endpoint, push_p256dh, push_auth, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var (
		p                       profile.Profile
		grade                   string
		endpoint, p256dh, pAuth *string
	)

	err := r.conn.QueryRow(ctx, query, userID.String()).Scan(
		&p.Name,
		&grade,
		&p.TimetableImage,
		&endpoint,
		&p256dh,
		&pAuth,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.ExpectedGrade = attendance.Grade(grade)
	if endpoint != nil && p256dh != nil && pAuth != nil {
		p.Subscription = &profile.PushSubscription{
			Endpoint: *endpoint,
			P256dh:   *p256dh,
			Auth:     *pAuth,
		}
	}

	return &p, nil
}

// Save upserts the whole profile row.
func (r *ProfileRepository) Save(ctx context.Context, userID shared.UserID, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, name, expected_grade, timetable_image,
			push_endpoint, push_p256dh, push_auth, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			expected_grade = EXCLUDED.expected_grade,
			timetable_image = EXCLUDED.timetable_image,
			push_endpoint = EXCLUDED.push_endpoint,
			push_p256dh = EXCLUDED.push_p256dh,
			push_auth = EXCLUDED.push_auth,
			updated_at = EXCLUDED.updated_at
	`

	var endpoint, p256dh, pAuth *string
	if p.Subscription != nil {
		endpoint = &p.Subscription.Endpoint
		p256dh = &p.Subscription.P256dh
		pAuth = &p.Subscription.Auth
	}

	_, err := r.conn.Exec(ctx, query,
		userID.String(),
		p.Name,
		p.ExpectedGrade.String(),
		p.TimetableImage,
		endpoint,
		p256dh,
		pAuth,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// ListUserIDs returns every user that owns a course or a profile.
// The hourly reminder scan walks this list.
func (r *ProfileRepository) ListUserIDs(ctx context.Context) ([]shared.UserID, error) {
	query := `
		SELECT user_id FROM profiles
		UNION
		SELECT user_id FROM courses
		ORDER BY user_id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	ids := make([]shared.UserID, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, shared.UserID(id))
	}

	return ids, rows.Err()
}

var _ profile.Repository = (*ProfileRepository)(nil)
