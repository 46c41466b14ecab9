package firestore

import (
	"context"
	"sort"
	"time"

	"google.golang.org/api/iterator"

	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository on Firestore.
type CourseRepository struct {
	client *Client
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(client *Client) *CourseRepository {
	return &CourseRepository{client: client}
}

// courseDoc is the Firestore document shape for a course.
type courseDoc struct {
	Name          string       `firestore:"name"`
	ProfessorName string       `firestore:"professor_name,omitempty"`
	TotalSessions int          `firestore:"total_sessions"`
	Schedule      *scheduleDoc `firestore:"schedule,omitempty"`
	Notes         string       `firestore:"notes,omitempty"`
	CreatedAt     time.Time    `firestore:"created_at"`
	UpdatedAt     time.Time    `firestore:"updated_at,serverTimestamp"`
}

type scheduleDoc struct {
	Days []int  `firestore:"days"`
	Time string `firestore:"time"`
}

func toCourseDoc(c *course.Course) courseDoc {
	doc := courseDoc{
		Name:          c.Name,
		ProfessorName: c.ProfessorName,
		TotalSessions: c.TotalSessions,
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if c.Schedule != nil {
		days := make([]int, len(c.Schedule.Days))
		for i, d := range c.Schedule.Days {
			days[i] = d.Int()
		}
		doc.Schedule = &scheduleDoc{Days: days, Time: c.Schedule.Time.String()}
	}
	return doc
}

func (d courseDoc) toDomain(id string) *course.Course {
	c := &course.Course{
		ID:            id,
		Name:          d.Name,
		ProfessorName: d.ProfessorName,
		TotalSessions: d.TotalSessions,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.Schedule != nil {
		days := make([]shared.Weekday, 0, len(d.Schedule.Days))
		for _, n := range d.Schedule.Days {
			days = append(days, shared.Weekday(n))
		}
		c.Schedule = &course.Schedule{
			Days: days,
			Time: shared.ClockTime(d.Schedule.Time),
		}
	}
	return c
}

// Create stores a new course and returns its generated document ID.
func (r *CourseRepository) Create(ctx context.Context, userID shared.UserID, c *course.Course) (string, error) {
	ref, _, err := r.client.userDoc(userID).Collection(collectionCourses).Add(ctx, toCourseDoc(c))
	if err != nil {
		return "", mapStoreError("course.Create", err)
	}
	return ref.ID, nil
}

// GetByID returns one course.
func (r *CourseRepository) GetByID(ctx context.Context, userID shared.UserID, courseID string) (*course.Course, error) {
	snap, err := r.client.courseDoc(userID, courseID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, mapStoreError("course.GetByID", err)
	}

	var doc courseDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, mapStoreError("course.GetByID", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// ListByUser returns all courses of a user sorted by name.
func (r *CourseRepository) ListByUser(ctx context.Context, userID shared.UserID) ([]*course.Course, error) {
	iter := r.client.userDoc(userID).Collection(collectionCourses).Documents(ctx)
	defer iter.Stop()

	courses := make([]*course.Course, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapStoreError("course.ListByUser", err)
		}

		var doc courseDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, mapStoreError("course.ListByUser", err)
		}
		courses = append(courses, doc.toDomain(snap.Ref.ID))
	}

	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].Name < courses[j].Name
	})

	return courses, nil
}

// Update overwrites an existing course document.
func (r *CourseRepository) Update(ctx context.Context, userID shared.UserID, c *course.Course) error {
	ref := r.client.courseDoc(userID, c.ID)

	// Existence check: Set would silently create the document.
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return shared.ErrCourseNotFound
		}
		return mapStoreError("course.Update", err)
	}

	if _, err := ref.Set(ctx, toCourseDoc(c)); err != nil {
		return mapStoreError("course.Update", err)
	}
	return nil
}

// Delete removes a course together with its attendance log.
func (r *CourseRepository) Delete(ctx context.Context, userID shared.UserID, courseID string) error {
	ref := r.client.courseDoc(userID, courseID)

	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return shared.ErrCourseNotFound
		}
		return mapStoreError("course.Delete", err)
	}

	// Subcollection documents are not deleted with their parent, the log
	// has to be removed entry by entry.
	logIter := ref.Collection(collectionLog).Documents(ctx)
	defer logIter.Stop()

	batch := r.client.Raw().Batch()
	queued := 0
	for {
		snap, err := logIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return mapStoreError("course.Delete", err)
		}
		batch.Delete(snap.Ref)
		queued++

		// Firestore caps a write batch at 500 operations.
		if queued == 400 {
			if _, err := batch.Commit(ctx); err != nil {
				return mapStoreError("course.Delete", err)
			}
			batch = r.client.Raw().Batch()
			queued = 0
		}
	}

	batch.Delete(ref)
	if _, err := batch.Commit(ctx); err != nil {
		return mapStoreError("course.Delete", err)
	}
	return nil
}

var _ course.Repository = (*CourseRepository)(nil)
