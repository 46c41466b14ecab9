package query

import (
	"context"
	"fmt"
	"time"

	"github.com/mdi-hub/attendance-hub/internal/domain/profile"
	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery identifies the user whose profile is requested.
type GetProfileQuery struct {
	UserID string
}

// GetProfileHandler handles the GetProfileQuery. Reads go through the
// short-TTL cache when one is configured; the store stays the source
// of truth.
type GetProfileHandler struct {
	profileRepo  profile.Repository
	profileCache profile.Cache
	cacheTTL     time.Duration
}

// NewGetProfileHandler creates a new GetProfileHandler.
// cache may be nil; ttl <= 0 falls back to the cache default.
func NewGetProfileHandler(profileRepo profile.Repository, cache profile.Cache, ttl time.Duration) *GetProfileHandler {
	return &GetProfileHandler{
		profileRepo:  profileRepo,
		profileCache: cache,
		cacheTTL:     ttl,
	}
}

// Handle executes the query.
// Returns shared.ErrProfileNotFound when the user has no profile yet.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*profile.Profile, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	if h.profileCache != nil {
		if cached, err := h.profileCache.Get(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	p, err := h.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	if h.profileCache != nil {
		_ = h.profileCache.Set(ctx, userID, p, h.cacheTTL)
	}

	return p, nil
}
