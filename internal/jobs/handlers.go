package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/talentloop/talentloop-backend/internal/clients/openai"
	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/envutil"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
	"github.com/talentloop/talentloop-backend/internal/services"
)

const scoreBatchSize = 50

// Handlers regenerate the derived artifacts the queue tracks. One instance is
// shared across the worker pool; all state lives in the repos.
type Handlers struct {
	log    *logger.Logger
	repos  repos.Set
	specs  services.SearchSpecService
	engine services.MatchEngine
	ai     openai.Client
}

func NewHandlers(baseLog *logger.Logger, r repos.Set, specs services.SearchSpecService, engine services.MatchEngine, ai openai.Client) *Handlers {
	return &Handlers{
		log:    baseLog.With("component", "RecomputeHandlers"),
		repos:  r,
		specs:  specs,
		engine: engine,
		ai:     ai,
	}
}

// RegisterAll binds every item type the queue accepts.
func (h *Handlers) RegisterAll(reg *Registry) error {
	pairs := []struct {
		itemType string
		fn       HandlerFunc
	}{
		{types.ItemNormalizedProfile, h.normalizedProfile},
		{types.ItemSearchSpec, h.searchSpec},
		{types.ItemProfileEmbedding, h.profileEmbedding},
		{types.ItemJobScores, h.jobScores},
	}
	for _, p := range pairs {
		if err := reg.Register(p.itemType, p.fn); err != nil {
			return err
		}
	}
	return nil
}

// normalizedProfile checks the document the rest of the chain depends on is
// present. The profile write path persists it inside the bump transaction, so
// a missing document means that transaction was rolled back and the item
// should keep retrying until a later bump lands one.
func (h *Handlers) normalizedProfile(ctx context.Context, item *types.RecomputeItem) error {
	dbc := dbctx.With(ctx)
	prof, err := h.repos.Profile.GetByUserID(dbc, item.UserID)
	if err != nil {
		return err
	}
	if prof == nil {
		return fmt.Errorf("no profile for user %s", item.UserID)
	}
	np, err := h.repos.Profile.GetNormalized(dbc, item.UserID, prof.ProfileVersion)
	if err != nil {
		return err
	}
	if np == nil {
		return fmt.Errorf("no normalized document for user %s at version %d", item.UserID, prof.ProfileVersion)
	}
	return nil
}

func (h *Handlers) searchSpec(ctx context.Context, item *types.RecomputeItem) error {
	spec, err := h.specs.Regenerate(dbctx.With(ctx), item.UserID)
	if err != nil {
		return err
	}
	if spec.ProfileVersion > item.TriggeredByVersion {
		h.log.Info("spec regenerated past triggering version",
			"user_id", item.UserID, "triggered_by", item.TriggeredByVersion, "generated_at_version", spec.ProfileVersion)
	}
	return nil
}

func (h *Handlers) profileEmbedding(ctx context.Context, item *types.RecomputeItem) error {
	dbc := dbctx.With(ctx)
	prof, err := h.repos.Profile.GetByUserID(dbc, item.UserID)
	if err != nil {
		return err
	}
	if prof == nil {
		return fmt.Errorf("no profile for user %s", item.UserID)
	}
	np, err := h.repos.Profile.GetNormalized(dbc, item.UserID, prof.ProfileVersion)
	if err != nil {
		return err
	}
	if np == nil {
		return fmt.Errorf("no normalized document for user %s at version %d", item.UserID, prof.ProfileVersion)
	}

	vectors, err := h.ai.Embed(ctx, []string{string(np.Document)})
	if err != nil {
		return fmt.Errorf("embed profile: %w", err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("embed profile: expected 1 vector, got %d", len(vectors))
	}
	vecJSON, err := json.Marshal(vectors[0])
	if err != nil {
		return err
	}

	_, err = h.repos.Profile.SaveEmbedding(dbc, &types.ProfileEmbedding{
		UserID:         item.UserID,
		ProfileVersion: prof.ProfileVersion,
		Model:          envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		Vector:         vecJSON,
	})
	return err
}

func (h *Handlers) jobScores(ctx context.Context, item *types.RecomputeItem) error {
	dbc := dbctx.With(ctx)
	prof, err := h.repos.Profile.GetByUserID(dbc, item.UserID)
	if err != nil {
		return err
	}
	if prof == nil {
		return fmt.Errorf("no profile for user %s", item.UserID)
	}
	np, err := h.repos.Profile.GetNormalized(dbc, item.UserID, prof.ProfileVersion)
	if err != nil {
		return err
	}
	if np == nil {
		return fmt.Errorf("no normalized document for user %s at version %d", item.UserID, prof.ProfileVersion)
	}
	var normalized types.Normalized
	if err := json.Unmarshal(np.Document, &normalized); err != nil {
		return fmt.Errorf("decode normalized profile: %w", err)
	}

	tightness := envutil.String("SCORE_TIGHTNESS", "balanced")

	var worklist []*types.RawJob
	if item.ItemID != nil && *item.ItemID != uuid.Nil {
		worklist, err = h.repos.Job.GetRawByIDs(dbc, []uuid.UUID{*item.ItemID})
	} else {
		worklist, err = h.repos.Job.ListRawUnscored(dbc, item.UserID, prof.ProfileVersion, tightness, scoreBatchSize)
	}
	if err != nil {
		return err
	}
	if len(worklist) == 0 {
		return nil
	}

	ranked, err := h.engine.Rank(ctx, worklist, services.RankContext{
		UserID:         item.UserID,
		ProfileVersion: prof.ProfileVersion,
		Tightness:      tightness,
		Profile:        normalized,
	})
	if err != nil {
		return err
	}
	if _, err := h.repos.JobScore.InsertBatch(dbc, ranked.Scores); err != nil {
		return err
	}
	h.log.Info("jobs rescored",
		"user_id", item.UserID, "version", prof.ProfileVersion, "scored", len(ranked.Scores), "dropped", len(ranked.Dropped))
	return nil
}
