package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/mdi-hub/attendance-hub/internal/domain/attendance"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE LOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LogRepository implements attendance.LogRepository on Firestore.
// Entries live in the log subcollection under their course document and
// are ordered by the server-assigned recorded_at timestamp.
type LogRepository struct {
	client *Client
}

// NewLogRepository creates a new LogRepository.
func NewLogRepository(client *Client) *LogRepository {
	return &LogRepository{client: client}
}

// entryDoc is the Firestore document shape for one log entry.
type entryDoc struct {
	Status     string    `firestore:"status"`
	RecordedAt time.Time `firestore:"recorded_at,serverTimestamp"`
}

func (d entryDoc) toDomain(id string) *attendance.Entry {
	return &attendance.Entry{
		ID:         id,
		Status:     attendance.Status(d.Status),
		RecordedAt: d.RecordedAt,
	}
}

// Append writes one entry. The timestamp is assigned by Firestore, so
// the document is read back to return the stored value.
func (r *LogRepository) Append(ctx context.Context, userID shared.UserID, courseID string, e *attendance.Entry) (*attendance.Entry, error) {
	logCol := r.client.courseDoc(userID, courseID).Collection(collectionLog)

	ref, _, err := logCol.Add(ctx, entryDoc{Status: e.Status.String()})
	if err != nil {
		return nil, mapStoreError("log.Append", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, mapStoreError("log.Append", err)
	}

	var doc entryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, mapStoreError("log.Append", err)
	}
	return doc.toDomain(ref.ID), nil
}

// ListByCourse returns the full log in recording order, oldest first.
func (r *LogRepository) ListByCourse(ctx context.Context, userID shared.UserID, courseID string) ([]*attendance.Entry, error) {
	iter := r.client.courseDoc(userID, courseID).
		Collection(collectionLog).
		OrderBy("recorded_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	entries := make([]*attendance.Entry, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapStoreError("log.ListByCourse", err)
		}

		var doc entryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, mapStoreError("log.ListByCourse", err)
		}
		entries = append(entries, doc.toDomain(snap.Ref.ID))
	}

	return entries, nil
}

// Latest returns the most recently recorded entry.
func (r *LogRepository) Latest(ctx context.Context, userID shared.UserID, courseID string) (*attendance.Entry, error) {
	iter := r.client.courseDoc(userID, courseID).
		Collection(collectionLog).
		OrderBy("recorded_at", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, shared.ErrEmptyLog
	}
	if err != nil {
		return nil, mapStoreError("log.Latest", err)
	}

	var doc entryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, mapStoreError("log.Latest", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// Delete removes one entry by ID.
func (r *LogRepository) Delete(ctx context.Context, userID shared.UserID, courseID, entryID string) error {
	ref := r.client.courseDoc(userID, courseID).Collection(collectionLog).Doc(entryID)

	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return shared.ErrEntryNotFound
		}
		return mapStoreError("log.Delete", err)
	}

	if _, err := ref.Delete(ctx); err != nil {
		return mapStoreError("log.Delete", err)
	}
	return nil
}

var _ attendance.LogRepository = (*LogRepository)(nil)
