package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// EnqueueRequest describes one recompute item to be coalesced into the queue.
type EnqueueRequest struct {
	UserID             uuid.UUID
	ItemType           string
	ItemID             *uuid.UUID
	TriggeredByVersion int
	Priority           int
}

// RecomputeService sits between version bumps and the queue: it coalesces
// enqueues and can sweep a user's stale artifacts into queue items.
type RecomputeService interface {
	// Enqueue coalesces against equivalent pending items; the bool reports
	// whether a new item was created.
	Enqueue(dbc dbctx.Context, req EnqueueRequest) (*types.RecomputeItem, bool, error)
	// EnqueueForBump queues the full derived-artifact chain after a profile
	// version bump, in dependency order via priority.
	EnqueueForBump(dbc dbctx.Context, userID uuid.UUID, newVersion int) ([]*types.RecomputeItem, error)
	// EnqueueStaleArtifacts scans the user's stored artifacts against their
	// current profile version and queues recomputes for anything behind it.
	EnqueueStaleArtifacts(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RecomputeItem, error)
}

type recomputeService struct {
	profiles repos.ProfileRepo
	specs    repos.SearchSpecRepo
	scores   repos.JobScoreRepo
	queue    repos.RecomputeRepo
	log      *logger.Logger
}

func NewRecomputeService(r repos.Set, baseLog *logger.Logger) RecomputeService {
	return &recomputeService{
		profiles: r.Profile,
		specs:    r.SearchSpec,
		scores:   r.JobScore,
		queue:    r.Recompute,
		log:      baseLog.With("service", "RecomputeService"),
	}
}

func (s *recomputeService) Enqueue(dbc dbctx.Context, req EnqueueRequest) (*types.RecomputeItem, bool, error) {
	item := &types.RecomputeItem{
		UserID:             req.UserID,
		ItemType:           req.ItemType,
		ItemID:             req.ItemID,
		TriggeredByVersion: req.TriggeredByVersion,
		Priority:           req.Priority,
	}
	created, wasNew, err := s.queue.EnqueueIfAbsent(dbc, item)
	if err != nil {
		return nil, false, err
	}
	if !wasNew {
		s.log.Debug("enqueue coalesced",
			"user_id", req.UserID, "item_type", req.ItemType, "version", req.TriggeredByVersion)
	}
	return created, wasNew, nil
}

// bumpChain lists the artifact types regenerated after a version bump.
// Normalization feeds the spec and embedding, which feed scoring, so earlier
// entries get stronger priorities.
var bumpChain = []struct {
	itemType string
	priority int
}{
	{types.ItemNormalizedProfile, 1},
	{types.ItemSearchSpec, 2},
	{types.ItemProfileEmbedding, 2},
	{types.ItemJobScores, 4},
}

func (s *recomputeService) EnqueueForBump(dbc dbctx.Context, userID uuid.UUID, newVersion int) ([]*types.RecomputeItem, error) {
	if newVersion < 1 {
		return nil, fmt.Errorf("invalid version %d", newVersion)
	}
	items := make([]*types.RecomputeItem, 0, len(bumpChain))
	for _, link := range bumpChain {
		item, wasNew, err := s.Enqueue(dbc, EnqueueRequest{
			UserID:             userID,
			ItemType:           link.itemType,
			TriggeredByVersion: newVersion,
			Priority:           link.priority,
		})
		if err != nil {
			return items, fmt.Errorf("enqueue %s: %w", link.itemType, err)
		}
		if wasNew {
			items = append(items, item)
		}
	}
	s.log.Info("queued recompute chain", "user_id", userID, "version", newVersion, "created", len(items))
	return items, nil
}

func (s *recomputeService) EnqueueStaleArtifacts(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RecomputeItem, error) {
	prof, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		return nil, fmt.Errorf("no profile for user %s", userID)
	}
	current := prof.ProfileVersion

	var created []*types.RecomputeItem

	staleSpecs, err := s.specs.ListStale(dbc, userID, current, limit)
	if err != nil {
		return created, err
	}
	if len(staleSpecs) > 0 {
		// One regeneration at the current version covers every stale spec.
		item, wasNew, err := s.Enqueue(dbc, EnqueueRequest{
			UserID:             userID,
			ItemType:           types.ItemSearchSpec,
			TriggeredByVersion: current,
			Priority:           2,
		})
		if err != nil {
			return created, err
		}
		if wasNew {
			created = append(created, item)
		}
	}

	staleScores, err := s.scores.ListStale(dbc, userID, current, limit)
	if err != nil {
		return created, err
	}
	for _, sc := range staleScores {
		jobID := sc.Score.JobID
		item, wasNew, err := s.Enqueue(dbc, EnqueueRequest{
			UserID:             userID,
			ItemType:           types.ItemJobScores,
			ItemID:             &jobID,
			TriggeredByVersion: current,
			Priority:           4,
		})
		if err != nil {
			return created, err
		}
		if wasNew {
			created = append(created, item)
		}
	}

	s.log.Info("queued stale artifacts",
		"user_id", userID, "current_version", current,
		"stale_specs", len(staleSpecs), "stale_scores", len(staleScores), "created", len(created))
	return created, nil
}
