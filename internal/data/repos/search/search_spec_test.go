package search

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/talentloop/talentloop-backend/internal/data/repos/testutil"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
)

func TestSearchSpecRepoActiveAndStale(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewSearchSpecRepo(db, testutil.Logger(t))

	userID := uuid.New()
	v1 := testutil.SeedSearchSpec(t, dbc.Ctx, tx, userID, 1)
	v2 := testutil.SeedSearchSpec(t, dbc.Ctx, tx, userID, 2)
	v3 := testutil.SeedSearchSpec(t, dbc.Ctx, tx, userID, 3)

	active, err := repo.GetActive(dbc, userID, 3)
	if err != nil || active == nil || active.ID != v3.ID {
		t.Fatalf("GetActive v3: %+v err=%v", active, err)
	}
	// Misses for a version that was never generated.
	if miss, err := repo.GetActive(dbc, userID, 4); err != nil || miss != nil {
		t.Fatalf("GetActive v4 = (%+v, %v), want miss", miss, err)
	}
	// Superseded rows are retained and still addressable.
	if old, err := repo.GetActive(dbc, userID, 1); err != nil || old == nil || old.ID != v1.ID {
		t.Fatalf("GetActive v1: %+v err=%v", old, err)
	}

	stale, err := repo.ListStale(dbc, userID, 3, 10)
	if err != nil {
		t.Fatalf("ListStale: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("stale count = %d, want 2", len(stale))
	}
	if stale[0].Spec.ID != v1.ID || stale[0].Verdict.VersionGap != 2 {
		t.Fatalf("widest gap first: %+v", stale[0])
	}
	if stale[1].Spec.ID != v2.ID || stale[1].Verdict.VersionGap != 1 {
		t.Fatalf("second stale: %+v", stale[1])
	}
	for _, s := range stale {
		if !s.Verdict.IsStale {
			t.Fatalf("verdict not stale: %+v", s.Verdict)
		}
	}

	limited, err := repo.ListStale(dbc, userID, 3, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited stale = %d err=%v, want 1", len(limited), err)
	}
}
