package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/talentloop/talentloop-backend/internal/platform/envutil"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
	"github.com/talentloop/talentloop-backend/internal/temporalx"
	"github.com/talentloop/talentloop-backend/internal/temporalx/fetchrun"
)

// Runner hosts the Temporal worker executing fetch-run workflows.
type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	acts *fetchrun.Activities
}

func NewRunner(baseLog *logger.Logger, tc temporalsdkclient.Client, acts *fetchrun.Activities) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil {
		return nil, fmt.Errorf("temporal worker missing activities")
	}
	return &Runner{
		log:  baseLog.With("component", "TemporalWorker"),
		tc:   tc,
		acts: acts,
	}, nil
}

// Start brings the worker up, retrying transient start failures with backoff.
// The worker stops when ctx is canceled.
func (r *Runner) Start(ctx context.Context) error {
	cfg := temporalx.LoadConfig()
	r.log.Info("starting Temporal worker", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)

	if envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false) {
		if err := temporalx.EnsureNamespace(ctx, cfg, r.log); err != nil {
			r.log.Warn("namespace ensure failed; worker will retry on start", "namespace", cfg.Namespace, "error", err)
		}
	}

	maxWait := envutil.DurationSeconds("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60)
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker(cfg)
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false) {
			_ = temporalx.EnsureNamespace(ctx, cfg, r.log)
		}
		if maxWait <= 0 || time.Now().After(deadline) {
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)
		time.Sleep(startBackoff(attempt))
	}
}

func (r *Runner) newWorker(cfg temporalx.Config) worker.Worker {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	w.RegisterWorkflowWithOptions(fetchrun.Workflow, workflow.RegisterOptions{Name: fetchrun.WorkflowName})
	w.RegisterActivityWithOptions(r.acts.ResolveSpec, activity.RegisterOptions{Name: fetchrun.ActivityResolveSpec})
	w.RegisterActivityWithOptions(r.acts.FetchJobs, activity.RegisterOptions{Name: fetchrun.ActivityFetchJobs})
	w.RegisterActivityWithOptions(r.acts.EnrichJobs, activity.RegisterOptions{Name: fetchrun.ActivityEnrichJobs})
	w.RegisterActivityWithOptions(r.acts.RankJobs, activity.RegisterOptions{Name: fetchrun.ActivityRankJobs})
	return w
}

func startBackoff(attempt int) time.Duration {
	base := 250 * time.Millisecond
	max := 5 * time.Second
	sleep := base
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if sleep >= max {
			return max
		}
	}
	return sleep
}
