package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/talentloop/talentloop-backend/internal/data/repos/testutil"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
)

func TestRecomputeRepoEnqueueCoalesces(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewRecomputeRepo(db, testutil.Logger(t))

	userID := uuid.New()
	item := &types.RecomputeItem{UserID: userID, ItemType: types.ItemSearchSpec, TriggeredByVersion: 4}

	first, created, err := repo.EnqueueIfAbsent(dbc, item)
	if err != nil || !created || first == nil {
		t.Fatalf("first enqueue: created=%v err=%v", created, err)
	}
	if first.Status != types.RecomputePending || first.Priority != 5 || first.MaxRetries != 3 {
		t.Fatalf("defaults not applied: %+v", first)
	}

	dup := &types.RecomputeItem{UserID: userID, ItemType: types.ItemSearchSpec, TriggeredByVersion: 4}
	_, created, err = repo.EnqueueIfAbsent(dbc, dup)
	if err != nil {
		t.Fatalf("duplicate enqueue: %v", err)
	}
	if created {
		t.Fatal("duplicate pending item should coalesce")
	}

	// Same type, different triggering version: distinct work.
	other := &types.RecomputeItem{UserID: userID, ItemType: types.ItemSearchSpec, TriggeredByVersion: 5}
	_, created, err = repo.EnqueueIfAbsent(dbc, other)
	if err != nil || !created {
		t.Fatalf("distinct version enqueue: created=%v err=%v", created, err)
	}

	// Per-job items are keyed by item_id too.
	jobID := uuid.New()
	scoped := &types.RecomputeItem{UserID: userID, ItemType: types.ItemJobScores, ItemID: &jobID, TriggeredByVersion: 4}
	_, created, err = repo.EnqueueIfAbsent(dbc, scoped)
	if err != nil || !created {
		t.Fatalf("scoped enqueue: created=%v err=%v", created, err)
	}
}

func TestRecomputeRepoRejectsBadInput(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewRecomputeRepo(db, testutil.Logger(t))

	if _, _, err := repo.EnqueueIfAbsent(dbc, &types.RecomputeItem{UserID: uuid.New(), ItemType: "bogus"}); err == nil {
		t.Fatal("unknown item_type should be rejected")
	}
	if _, _, err := repo.EnqueueIfAbsent(dbc, &types.RecomputeItem{UserID: uuid.New(), ItemType: types.ItemSearchSpec, Priority: 11}); err == nil {
		t.Fatal("priority out of range should be rejected")
	}
}

func TestRecomputeRepoClaimOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewRecomputeRepo(db, testutil.Logger(t))

	userID := uuid.New()
	low := &types.RecomputeItem{UserID: userID, ItemType: types.ItemJobScores, TriggeredByVersion: 2, Priority: 9}
	high := &types.RecomputeItem{UserID: userID, ItemType: types.ItemSearchSpec, TriggeredByVersion: 2, Priority: 1}
	if _, _, err := repo.EnqueueIfAbsent(dbc, low); err != nil {
		t.Fatalf("enqueue low: %v", err)
	}
	if _, _, err := repo.EnqueueIfAbsent(dbc, high); err != nil {
		t.Fatalf("enqueue high: %v", err)
	}

	claimed, err := repo.ClaimNext(dbc)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if claimed == nil || claimed.ID != high.ID {
		t.Fatalf("expected priority-1 item first, got %+v", claimed)
	}
	if claimed.Status != types.RecomputeProcessing || claimed.ClaimedAt == nil {
		t.Fatalf("claimed item not marked processing: %+v", claimed)
	}

	second, err := repo.ClaimNext(dbc)
	if err != nil || second == nil || second.ID != low.ID {
		t.Fatalf("expected low-priority item second, got %+v err=%v", second, err)
	}

	empty, err := repo.ClaimNext(dbc)
	if err != nil || empty != nil {
		t.Fatalf("empty queue: item=%+v err=%v", empty, err)
	}
}

func TestRecomputeRepoRetryCeiling(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewRecomputeRepo(db, testutil.Logger(t))

	item := &types.RecomputeItem{UserID: uuid.New(), ItemType: types.ItemSearchSpec, TriggeredByVersion: 3, MaxRetries: 3}
	if _, _, err := repo.EnqueueIfAbsent(dbc, item); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	boom := errors.New("generation failed")
	for attempt := 1; attempt <= 3; attempt++ {
		claimed, err := repo.ClaimNext(dbc)
		if err != nil || claimed == nil {
			t.Fatalf("attempt %d claim: item=%v err=%v", attempt, claimed, err)
		}
		requeued, err := repo.MarkFailed(dbc, claimed.ID, boom)
		if err != nil {
			t.Fatalf("attempt %d MarkFailed: %v", attempt, err)
		}
		if attempt < 3 && !requeued {
			t.Fatalf("attempt %d should re-queue", attempt)
		}
		if attempt == 3 && requeued {
			t.Fatal("attempt 3 should be terminal")
		}
	}

	final, err := repo.GetByID(dbc, item.ID)
	if err != nil || final == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.Status != types.RecomputeFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if final.RetryCount != 3 {
		t.Fatalf("retry_count = %d, want 3", final.RetryCount)
	}
	if final.Error != "generation failed" {
		t.Fatalf("error = %q", final.Error)
	}

	// Terminally failed items are never claimed again.
	if claimed, _ := repo.ClaimNext(dbc); claimed != nil {
		t.Fatalf("terminal item re-claimed: %+v", claimed)
	}
}

func TestRecomputeRepoCompleteHappyPath(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewRecomputeRepo(db, testutil.Logger(t))

	item := &types.RecomputeItem{UserID: uuid.New(), ItemType: types.ItemProfileEmbedding, TriggeredByVersion: 2}
	if _, _, err := repo.EnqueueIfAbsent(dbc, item); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	claimed, err := repo.ClaimNext(dbc)
	if err != nil || claimed == nil {
		t.Fatalf("claim: %v", err)
	}
	if err := repo.MarkCompleted(dbc, claimed.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	final, _ := repo.GetByID(dbc, claimed.ID)
	if final.Status != types.RecomputeCompleted || final.FinishedAt == nil {
		t.Fatalf("completed item: %+v", final)
	}
	// Completing twice is a state-machine violation.
	if err := repo.MarkCompleted(dbc, claimed.ID); err == nil {
		t.Fatal("double complete should fail")
	}
}
