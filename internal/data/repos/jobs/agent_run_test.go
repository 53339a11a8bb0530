package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/talentloop/talentloop-backend/internal/data/repos/testutil"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
)

func TestAgentRunLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewAgentRunRepo(db, testutil.Logger(t))

	run := &types.AgentRun{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Kind:   types.RunKindJobFetch,
		Inputs: datatypes.JSON([]byte(`{"queries":["go developer"]}`)),
	}
	created, err := repo.Create(dbc, run)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != types.RunQueued {
		t.Fatalf("new run status = %s, want queued", created.Status)
	}

	moved, err := repo.MarkRunning(dbc, run.ID, "trigger-abc123")
	if err != nil || !moved {
		t.Fatalf("MarkRunning: moved=%v err=%v", moved, err)
	}
	got, _ := repo.GetByID(dbc, run.ID)
	if got.Status != types.RunRunning || got.TriggerRunID != "trigger-abc123" || got.StartedAt == nil {
		t.Fatalf("running run: %+v", got)
	}

	// MarkRunning is queued-only; a second call is a no-op.
	moved, err = repo.MarkRunning(dbc, run.ID, "other")
	if err != nil || moved {
		t.Fatalf("second MarkRunning: moved=%v err=%v", moved, err)
	}

	moved, err = repo.MarkSucceeded(dbc, run.ID, datatypes.JSON([]byte(`{"jobs_fetched":12}`)))
	if err != nil || !moved {
		t.Fatalf("MarkSucceeded: moved=%v err=%v", moved, err)
	}
	final, _ := repo.GetByID(dbc, run.ID)
	if final.Status != types.RunSucceeded || final.FinishedAt == nil {
		t.Fatalf("succeeded run: %+v", final)
	}
	if len(final.Outputs) == 0 {
		t.Fatal("succeeded run has no outputs")
	}
	if final.FinishedAt.Before(*final.StartedAt) {
		t.Fatalf("finished_at %v before started_at %v", final.FinishedAt, final.StartedAt)
	}

	// Terminal states are sticky.
	if moved, _ := repo.MarkFailed(dbc, run.ID, "late failure"); moved {
		t.Fatal("terminal run must not transition again")
	}
	if moved, _ := repo.MarkSucceeded(dbc, run.ID, nil); moved {
		t.Fatal("terminal run must not transition again")
	}
	after, _ := repo.GetByID(dbc, run.ID)
	if after.Status != types.RunSucceeded || after.Error != "" {
		t.Fatalf("sticky terminal violated: %+v", after)
	}
}

func TestAgentRunQueuedCanFailDirectly(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	repo := NewAgentRunRepo(db, testutil.Logger(t))

	run := &types.AgentRun{ID: uuid.New(), UserID: uuid.New(), Kind: types.RunKindJobFetch}
	if _, err := repo.Create(dbc, run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Dispatch failure before the substrate accepted the run.
	moved, err := repo.MarkFailed(dbc, run.ID, "substrate unreachable")
	if err != nil || !moved {
		t.Fatalf("MarkFailed from queued: moved=%v err=%v", moved, err)
	}
	got, _ := repo.GetByID(dbc, run.ID)
	if got.Status != types.RunFailed || got.Error != "substrate unreachable" {
		t.Fatalf("failed run: %+v", got)
	}
}
