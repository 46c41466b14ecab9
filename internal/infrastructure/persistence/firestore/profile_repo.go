package firestore

import (
	"context"
	"time"

	"google.golang.org/api/iterator"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements profile.Repository on Firestore.
type ProfileRepository struct {
	client *Client
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(client *Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

// profileDoc is the Firestore document shape for a user profile.
type profileDoc struct {
	Name           string           `firestore:"name,omitempty"`
	ExpectedGrade  string           `firestore:"expected_grade,omitempty"`
	TimetableImage string           `firestore:"timetable_image,omitempty"`
	Subscription   *subscriptionDoc `firestore:"subscription,omitempty"`
	UpdatedAt      time.Time        `firestore:"updated_at,serverTimestamp"`
}

type subscriptionDoc struct {
	Endpoint string `firestore:"endpoint"`
	P256dh   string `firestore:"p256dh"`
	Auth     string `firestore:"auth"`
}

func toProfileDoc(p *profile.Profile) profileDoc {
	doc := profileDoc{
		Name:           p.Name,
		ExpectedGrade:  p.ExpectedGrade.String(),
		TimetableImage: p.TimetableImage,
	}
	if p.Subscription != nil {
		doc.Subscription = &subscriptionDoc{
			Endpoint: p.Subscription.Endpoint,
			P256dh:   p.Subscription.P256dh,
			Auth:     p.Subscription.Auth,
		}
	}
	return doc
}

func (d profileDoc) toDomain() *profile.Profile {
	p := &profile.Profile{
		Name:           d.Name,
		ExpectedGrade:  attendance.Grade(d.ExpectedGrade),
		TimetableImage: d.TimetableImage,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.Subscription != nil {
		p.Subscription = &profile.PushSubscription{
			Endpoint: d.Subscription.Endpoint,
			P256dh:   d.Subscription.P256dh,
			Auth:     d.Subscription.Auth,
		}
	}
	return p
}

// Get returns one user's profile.
func (r *ProfileRepository) Get(ctx context.Context, userID shared.UserID) (*profile.Profile, error) {
	snap, err := r.client.userDoc(userID).Collection(collectionProfile).Doc(profileDocID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, mapStoreError("profile.Get", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, mapStoreError("profile.Get", err)
	}
	return doc.toDomain(), nil
}

// Save writes the whole profile document.
func (r *ProfileRepository) Save(ctx context.Context, userID shared.UserID, p *profile.Profile) error {
	ref := r.client.userDoc(userID).Collection(collectionProfile).Doc(profileDocID)
	if _, err := ref.Set(ctx, toProfileDoc(p)); err != nil {
		return mapStoreError("profile.Save", err)
	}
	return nil
}

// ListUserIDs returns the IDs of all users that have any data stored.
// The hourly reminder scan walks this list.
func (r *ProfileRepository) ListUserIDs(ctx context.Context) ([]shared.UserID, error) {
	iter := r.client.Raw().Collection(collectionUsers).DocumentRefs(ctx)

	ids := make([]shared.UserID, 0)
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapStoreError("profile.ListUserIDs", err)
		}
		ids = append(ids, shared.UserID(ref.ID))
	}

	return ids, nil
}

var _ profile.Repository = (*ProfileRepository)(nil)
