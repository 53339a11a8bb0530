package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

func testSpecCache(t *testing.T) (*SearchSpecCache, *MemoryStore) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store := NewMemoryStore()
	return NewSearchSpecCache(store, log), store
}

func sampleSpec(userID uuid.UUID, version int) *types.SearchSpec {
	params, _ := json.Marshal(types.SpecParams{
		TitleKeywords: []types.WeightedKeyword{{Keyword: "backend engineer", Weight: 9}},
		SkillKeywords: []types.WeightedKeyword{{Keyword: "go", Weight: 10}},
		ContractTypes: []string{"hourly"},
	})
	return &types.SearchSpec{
		ID:             uuid.New(),
		TeamID:         uuid.New(),
		UserID:         userID,
		ProfileVersion: version,
		Platforms:      datatypes.JSON([]byte(`["upwork"]`)),
		Params:         datatypes.JSON(params),
		GeneratedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestSpecCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := testSpecCache(t)
	userID := uuid.New()
	spec := sampleSpec(userID, 3)

	if err := c.Set(ctx, spec, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, userID, 3)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get missed after Set")
	}
	if got.ID != spec.ID || got.ProfileVersion != 3 || string(got.Params) != string(spec.Params) {
		t.Fatalf("round-trip mismatch: got %+v", got)
	}
}

func TestSpecCacheVersionIsolation(t *testing.T) {
	ctx := context.Background()
	c, _ := testSpecCache(t)
	userID := uuid.New()

	if err := c.Set(ctx, sampleSpec(userID, 1), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, userID, 2)
	if err != nil {
		t.Fatalf("Get v2: %v", err)
	}
	if got != nil {
		t.Fatal("v2 lookup should miss a v1 entry")
	}

	// The v1 entry stays live until explicitly invalidated or expired.
	if got, _ := c.Get(ctx, userID, 1); got == nil {
		t.Fatal("v1 entry should still hit")
	}
}

func TestSpecCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := testSpecCache(t)
	userID := uuid.New()

	if err := c.Set(ctx, sampleSpec(userID, 1), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Invalidate(ctx, userID, 1); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if got, _ := c.Get(ctx, userID, 1); got != nil {
		t.Fatal("entry should be gone after Invalidate")
	}
	// Absent key: still no error.
	if err := c.Invalidate(ctx, userID, 1); err != nil {
		t.Fatalf("Invalidate absent: %v", err)
	}
}

func TestSpecCacheHas(t *testing.T) {
	ctx := context.Background()
	c, _ := testSpecCache(t)
	userID := uuid.New()

	ok, err := c.Has(ctx, userID, 4)
	if err != nil || ok {
		t.Fatalf("Has on empty cache = (%v, %v)", ok, err)
	}
	if err := c.Set(ctx, sampleSpec(userID, 4), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err = c.Has(ctx, userID, 4)
	if err != nil || !ok {
		t.Fatalf("Has after Set = (%v, %v)", ok, err)
	}
}

func TestSpecCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, store := testSpecCache(t)
	now := time.Now()
	store.now = func() time.Time { return now }
	userID := uuid.New()

	if err := c.Set(ctx, sampleSpec(userID, 1), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(2 * time.Second)
	if got, _ := c.Get(ctx, userID, 1); got != nil {
		t.Fatal("entry should expire after TTL")
	}
}

func TestSpecCacheCorruptEntryBehavesAsMiss(t *testing.T) {
	ctx := context.Background()
	c, store := testSpecCache(t)
	userID := uuid.New()

	if err := store.Set(ctx, Key(userID, 1), []byte("not json"), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := c.Get(ctx, userID, 1)
	if err != nil || got != nil {
		t.Fatalf("corrupt entry = (%v, %v), want miss without error", got, err)
	}
}
