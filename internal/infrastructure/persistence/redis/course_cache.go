package redis

import (
	"context"

	"github.com/mdi-hub/attendance-hub/internal/domain/course"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// CourseCache implements course.Cache using the generic Redis Cache.
// The whole course list of a user is cached as one value, invalidated
// on any course write.
type CourseCache struct {
	cache *Cache
}

// NewCourseCache creates a new CourseCache.
func NewCourseCache(cache *Cache) *CourseCache {
	return &CourseCache{cache: cache}
}

// GetList gets a user's course list from cache.
// Returns ErrCacheMiss when nothing is cached.
func (c *CourseCache) GetList(ctx context.Context, userID shared.UserID) ([]*course.Course, error) {
	var courses []*course.Course
	if err := c.cache.Get(ctx, CourseListKey(userID.String()), &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// SetList stores a user's course list in cache.
func (c *CourseCache) SetList(ctx context.Context, userID shared.UserID, courses []*course.Course) error {
	if courses == nil {
		courses = []*course.Course{}
	}
	return c.cache.Set(ctx, CourseListKey(userID.String()), courses, TTLCourseList)
}

// Invalidate drops a user's cached course list.
func (c *CourseCache) Invalidate(ctx context.Context, userID shared.UserID) error {
	return c.cache.Delete(ctx, CourseListKey(userID.String()))
}

var _ course.Cache = (*CourseCache)(nil)
