package fetchrun

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
	"github.com/talentloop/talentloop-backend/internal/services"
)

// JobSource queries an external job board for postings matching a spec.
type JobSource interface {
	Search(ctx context.Context, spec *types.SearchSpec) ([]*types.RawJob, error)
}

type Activities struct {
	Log    *logger.Logger
	Repos  repos.Set
	Specs  services.SearchSpecService
	Engine services.MatchEngine
	Source JobSource
}

func (a *Activities) ResolveSpec(ctx context.Context, userID uuid.UUID) (SpecResult, error) {
	var res SpecResult
	if a == nil || a.Specs == nil {
		return res, fmt.Errorf("fetchrun: activity not configured")
	}
	spec, err := a.Specs.GetOrGenerate(dbctx.With(ctx), userID)
	if err != nil {
		return res, err
	}
	res.SpecID = spec.ID
	res.ProfileVersion = spec.ProfileVersion
	return res, nil
}

func (a *Activities) FetchJobs(ctx context.Context, userID uuid.UUID, profileVersion int) (FetchResult, error) {
	var res FetchResult
	if a == nil || a.Source == nil {
		return res, fmt.Errorf("fetchrun: job source not configured")
	}
	dbc := dbctx.With(ctx)

	spec, err := a.Repos.SearchSpec.GetActive(dbc, userID, profileVersion)
	if err != nil {
		return res, err
	}
	if spec == nil {
		return res, fmt.Errorf("fetchrun: no spec for user %s at version %d", userID, profileVersion)
	}

	found, err := a.Source.Search(ctx, spec)
	if err != nil {
		return res, fmt.Errorf("job source search: %w", err)
	}
	res.Found = len(found)

	inserted, err := a.Repos.Job.UpsertRaw(dbc, found)
	if err != nil {
		return res, err
	}
	res.Inserted = inserted
	a.Log.Info("jobs fetched", "user_id", userID, "found", res.Found, "inserted", res.Inserted)
	return res, nil
}

func (a *Activities) EnrichJobs(ctx context.Context, batchSize int) (EnrichStats, error) {
	var res EnrichStats
	if a == nil || a.Engine == nil {
		return res, fmt.Errorf("fetchrun: engine not configured")
	}
	dbc := dbctx.With(ctx)

	pending, err := a.Repos.Job.ListRawWithoutEnrichment(dbc, services.EnrichmentPromptVersion, batchSize)
	if err != nil {
		return res, err
	}
	if len(pending) == 0 {
		return res, nil
	}

	enriched, err := a.Engine.Enrich(ctx, pending)
	if err != nil {
		return res, err
	}
	if _, err := a.Repos.Job.SaveEnriched(dbc, enriched.Jobs); err != nil {
		return res, err
	}
	res.Enriched = len(enriched.Jobs)
	res.Dropped = len(enriched.Dropped)
	return res, nil
}

func (a *Activities) RankJobs(ctx context.Context, in RankActivityInput) (RankStats, error) {
	var res RankStats
	if a == nil || a.Engine == nil {
		return res, fmt.Errorf("fetchrun: engine not configured")
	}
	dbc := dbctx.With(ctx)

	np, err := a.Repos.Profile.GetNormalized(dbc, in.UserID, in.ProfileVersion)
	if err != nil {
		return res, err
	}
	if np == nil {
		return res, fmt.Errorf("fetchrun: no normalized profile for user %s at version %d", in.UserID, in.ProfileVersion)
	}
	var normalized types.Normalized
	if err := json.Unmarshal(np.Document, &normalized); err != nil {
		return res, fmt.Errorf("decode normalized profile: %w", err)
	}

	unscored, err := a.Repos.Job.ListRawUnscored(dbc, in.UserID, in.ProfileVersion, in.Tightness, in.BatchSize)
	if err != nil {
		return res, err
	}
	if len(unscored) == 0 {
		return res, nil
	}

	ranked, err := a.Engine.Rank(ctx, unscored, services.RankContext{
		UserID:         in.UserID,
		ProfileVersion: in.ProfileVersion,
		Tightness:      in.Tightness,
		Profile:        normalized,
	})
	if err != nil {
		return res, err
	}
	if _, err := a.Repos.JobScore.InsertBatch(dbc, ranked.Scores); err != nil {
		return res, err
	}
	res.Scored = len(ranked.Scores)
	res.Dropped = len(ranked.Dropped)
	return res, nil
}
