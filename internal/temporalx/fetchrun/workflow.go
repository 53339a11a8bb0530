package fetchrun

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	types "github.com/talentloop/talentloop-backend/internal/domain"
)

const defaultBatchSize = 50

// Workflow drives one agent run: resolve the user's search spec, optionally
// fetch fresh postings, then enrich and rank whatever is pending. Which stages
// execute depends on the run kind.
func Workflow(ctx workflow.Context, in RunInput) (RunOutput, error) {
	var out RunOutput
	if in.UserID == uuid.Nil {
		return out, fmt.Errorf("fetchrun: missing user_id")
	}
	if in.Tightness == "" {
		in.Tightness = "balanced"
	}
	if in.BatchSize <= 0 {
		in.BatchSize = defaultBatchSize
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	var spec SpecResult
	if err := workflow.ExecuteActivity(ctx, ActivityResolveSpec, in.UserID).Get(ctx, &spec); err != nil {
		return out, err
	}
	out.ProfileVersion = spec.ProfileVersion

	if in.Kind == types.RunKindJobFetch {
		var fetched FetchResult
		if err := workflow.ExecuteActivity(ctx, ActivityFetchJobs, in.UserID, spec.ProfileVersion).Get(ctx, &fetched); err != nil {
			return out, err
		}
		out.JobsFetched = fetched.Inserted
	}

	if in.Kind == types.RunKindJobFetch || in.Kind == types.RunKindEnrichment {
		var enriched EnrichStats
		if err := workflow.ExecuteActivity(ctx, ActivityEnrichJobs, in.BatchSize).Get(ctx, &enriched); err != nil {
			return out, err
		}
		out.JobsEnriched = enriched.Enriched
		out.JobsDropped += enriched.Dropped
	}

	if in.Kind == types.RunKindJobFetch || in.Kind == types.RunKindRescore {
		var ranked RankStats
		rankIn := RankActivityInput{
			UserID:         in.UserID,
			ProfileVersion: spec.ProfileVersion,
			Tightness:      in.Tightness,
			BatchSize:      in.BatchSize,
		}
		if err := workflow.ExecuteActivity(ctx, ActivityRankJobs, rankIn).Get(ctx, &ranked); err != nil {
			return out, err
		}
		out.JobsScored = ranked.Scored
		out.JobsDropped += ranked.Dropped
	}

	return out, nil
}
