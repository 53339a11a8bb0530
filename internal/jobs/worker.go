package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/envutil"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// Worker polls the recompute queue and dispatches claimed items to registered
// handlers. Items claimed by a crashed worker stay processing; recovery of
// those is an operational concern, not handled here.
type Worker struct {
	log      *logger.Logger
	queue    repos.RecomputeRepo
	registry *Registry
}

func NewWorker(baseLog *logger.Logger, queue repos.RecomputeRepo, registry *Registry) *Worker {
	return &Worker{
		log:      baseLog.With("component", "RecomputeWorker"),
		queue:    queue,
		registry: registry,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("starting recompute worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.runLoop(ctx, i+1)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			w.tick(ctx, workerID)
		}
	}
}

// tick drains the queue until it is empty, then returns to the ticker.
func (w *Worker) tick(ctx context.Context, workerID int) {
	for {
		if ctx.Err() != nil {
			return
		}
		item, err := w.queue.ClaimNext(dbctx.With(ctx))
		if err != nil {
			w.log.Warn("claim failed", "worker_id", workerID, "error", err)
			return
		}
		if item == nil {
			return
		}
		w.process(ctx, workerID, item)
	}
}

func (w *Worker) process(ctx context.Context, workerID int, item *types.RecomputeItem) {
	h, ok := w.registry.Get(item.ItemType)
	if !ok {
		w.fail(ctx, item, fmt.Errorf("no handler registered for item_type=%s", item.ItemType))
		return
	}

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("handler panic",
					"worker_id", workerID, "item_id", item.ID, "item_type", item.ItemType, "panic", r)
				runErr = fmt.Errorf("handler panic: %v", r)
			}
		}()
		runErr = h.Run(ctx, item)
	}()

	if runErr != nil {
		w.fail(ctx, item, runErr)
		return
	}
	if err := w.queue.MarkCompleted(dbctx.With(ctx), item.ID); err != nil {
		w.log.Error("mark completed failed", "item_id", item.ID, "error", err)
	}
}

func (w *Worker) fail(ctx context.Context, item *types.RecomputeItem, cause error) {
	requeued, err := w.queue.MarkFailed(dbctx.With(ctx), item.ID, cause)
	if err != nil {
		w.log.Error("mark failed errored", "item_id", item.ID, "error", err)
		return
	}
	if requeued {
		w.log.Warn("item re-queued",
			"item_id", item.ID, "item_type", item.ItemType, "retry", item.RetryCount+1, "error", cause)
	} else {
		w.log.Error("item terminally failed",
			"item_id", item.ID, "item_type", item.ItemType, "error", cause)
	}
}
