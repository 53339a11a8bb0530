package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

type fakeQueue struct {
	mu        sync.Mutex
	items     []*types.RecomputeItem
	completed []uuid.UUID
	failed    []uuid.UUID
}

func (q *fakeQueue) EnqueueIfAbsent(_ dbctx.Context, item *types.RecomputeItem) (*types.RecomputeItem, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	return item, true, nil
}

func (q *fakeQueue) ClaimNext(_ dbctx.Context) (*types.RecomputeItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, nil
}

func (q *fakeQueue) MarkCompleted(_ dbctx.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ dbctx.Context, id uuid.UUID, _ error) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed = append(q.failed, id)
	return false, nil
}

func (q *fakeQueue) GetByID(_ dbctx.Context, _ uuid.UUID) (*types.RecomputeItem, error) {
	return nil, nil
}

func (q *fakeQueue) CountByStatus(_ dbctx.Context, _ string) (int64, error) { return 0, nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func queuedItem(itemType string) *types.RecomputeItem {
	return &types.RecomputeItem{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		ItemType:           itemType,
		TriggeredByVersion: 1,
		Status:             types.RecomputeProcessing,
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	noop := HandlerFunc(func(context.Context, *types.RecomputeItem) error { return nil })
	if err := reg.Register(types.ItemSearchSpec, noop); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register(types.ItemSearchSpec, noop); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestWorkerCompletesHandledItem(t *testing.T) {
	q := &fakeQueue{}
	item := queuedItem(types.ItemSearchSpec)
	q.items = append(q.items, item)

	reg := NewRegistry()
	var handled []uuid.UUID
	_ = reg.Register(types.ItemSearchSpec, HandlerFunc(func(_ context.Context, it *types.RecomputeItem) error {
		handled = append(handled, it.ID)
		return nil
	}))

	w := NewWorker(testLogger(t), q, reg)
	w.tick(context.Background(), 1)

	if len(handled) != 1 || handled[0] != item.ID {
		t.Fatalf("handler saw %v, want [%s]", handled, item.ID)
	}
	if len(q.completed) != 1 || q.completed[0] != item.ID {
		t.Fatalf("completed = %v, want [%s]", q.completed, item.ID)
	}
	if len(q.failed) != 0 {
		t.Fatalf("unexpected failures %v", q.failed)
	}
}

func TestWorkerFailsItemOnHandlerError(t *testing.T) {
	q := &fakeQueue{}
	item := queuedItem(types.ItemJobScores)
	q.items = append(q.items, item)

	reg := NewRegistry()
	_ = reg.Register(types.ItemJobScores, HandlerFunc(func(context.Context, *types.RecomputeItem) error {
		return errors.New("generation failed")
	}))

	w := NewWorker(testLogger(t), q, reg)
	w.tick(context.Background(), 1)

	if len(q.failed) != 1 || q.failed[0] != item.ID {
		t.Fatalf("failed = %v, want [%s]", q.failed, item.ID)
	}
	if len(q.completed) != 0 {
		t.Fatalf("unexpected completions %v", q.completed)
	}
}

func TestWorkerRecoversFromHandlerPanic(t *testing.T) {
	q := &fakeQueue{}
	item := queuedItem(types.ItemProfileEmbedding)
	q.items = append(q.items, item)

	reg := NewRegistry()
	_ = reg.Register(types.ItemProfileEmbedding, HandlerFunc(func(context.Context, *types.RecomputeItem) error {
		panic("boom")
	}))

	w := NewWorker(testLogger(t), q, reg)
	w.tick(context.Background(), 1)

	if len(q.failed) != 1 || q.failed[0] != item.ID {
		t.Fatalf("failed = %v, want [%s]", q.failed, item.ID)
	}
}

func TestWorkerFailsUnregisteredItemType(t *testing.T) {
	q := &fakeQueue{}
	item := queuedItem(types.ItemNormalizedProfile)
	q.items = append(q.items, item)

	w := NewWorker(testLogger(t), q, NewRegistry())
	w.tick(context.Background(), 1)

	if len(q.failed) != 1 {
		t.Fatalf("failed = %v, want one entry", q.failed)
	}
}

func TestWorkerDrainsQueueInOneTick(t *testing.T) {
	q := &fakeQueue{}
	for i := 0; i < 3; i++ {
		q.items = append(q.items, queuedItem(types.ItemSearchSpec))
	}
	reg := NewRegistry()
	_ = reg.Register(types.ItemSearchSpec, HandlerFunc(func(context.Context, *types.RecomputeItem) error {
		return nil
	}))

	w := NewWorker(testLogger(t), q, reg)
	w.tick(context.Background(), 1)

	if len(q.completed) != 3 {
		t.Fatalf("completed %d items, want 3", len(q.completed))
	}
}
