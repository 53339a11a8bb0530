package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// SearchSpecCache stores generated search specs keyed by (user, profile
// version). A profile bump changes the key, so stale entries miss without any
// explicit bust; they linger until TTL or storage eviction clears them.
//
// Concurrency: no at-most-once guarantee. Two concurrent misses may both
// regenerate and both Set; last write wins, which is fine because generation
// at a fixed version is idempotent. Callers needing stronger guarantees should
// single-flight on the same key externally.
type SearchSpecCache struct {
	store Store
	log   *logger.Logger
}

func NewSearchSpecCache(store Store, baseLog *logger.Logger) *SearchSpecCache {
	return &SearchSpecCache{
		store: store,
		log:   baseLog.With("service", "SearchSpecCache"),
	}
}

// Key derives the deterministic cache key for a (user, version) pair.
func Key(userID uuid.UUID, profileVersion int) string {
	return fmt.Sprintf("search_spec:%s:v%d", userID, profileVersion)
}

// Get returns (nil, nil) on miss or expiry; errors are reserved for genuine
// backend failure.
func (c *SearchSpecCache) Get(ctx context.Context, userID uuid.UUID, profileVersion int) (*types.SearchSpec, error) {
	raw, ok, err := c.store.Get(ctx, Key(userID, profileVersion))
	if err != nil {
		return nil, fmt.Errorf("spec cache get: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var spec types.SearchSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		// A corrupt entry behaves like a miss; regeneration will overwrite it.
		c.log.Warn("dropping undecodable cache entry", "user_id", userID, "profile_version", profileVersion, "error", err)
		_ = c.store.Delete(ctx, Key(userID, profileVersion))
		return nil, nil
	}
	return &spec, nil
}

// Set stores the spec under its own identity fields. ttl <= 0 means no
// expiration.
func (c *SearchSpecCache) Set(ctx context.Context, spec *types.SearchSpec, ttl time.Duration) error {
	if spec == nil {
		return fmt.Errorf("spec required")
	}
	if spec.UserID == uuid.Nil {
		return fmt.Errorf("spec missing user_id")
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("spec cache marshal: %w", err)
	}
	if err := c.store.Set(ctx, Key(spec.UserID, spec.ProfileVersion), raw, ttl); err != nil {
		return fmt.Errorf("spec cache set: %w", err)
	}
	return nil
}

// Invalidate deletes one version's entry. Idempotent: absent keys are not an
// error.
func (c *SearchSpecCache) Invalidate(ctx context.Context, userID uuid.UUID, profileVersion int) error {
	if err := c.store.Delete(ctx, Key(userID, profileVersion)); err != nil {
		return fmt.Errorf("spec cache invalidate: %w", err)
	}
	return nil
}

func (c *SearchSpecCache) Has(ctx context.Context, userID uuid.UUID, profileVersion int) (bool, error) {
	spec, err := c.Get(ctx, userID, profileVersion)
	if err != nil {
		return false, err
	}
	return spec != nil, nil
}
