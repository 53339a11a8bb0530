package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/talentloop/talentloop-backend/internal/cache"
	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// SearchSpecService is the read-through path over the version-keyed cache:
// cache, then the database, then regeneration, populating the layers above on
// the way back.
type SearchSpecService interface {
	// GetOrGenerate returns the spec for the user's current profile version.
	GetOrGenerate(dbc dbctx.Context, userID uuid.UUID) (*types.SearchSpec, error)
	// Regenerate always runs the generator at the current version, inserts the
	// new row, and refreshes the cache. Used by the recompute worker.
	Regenerate(dbc dbctx.Context, userID uuid.UUID) (*types.SearchSpec, error)
}

type searchSpecService struct {
	profiles repos.ProfileRepo
	specs    repos.SearchSpecRepo
	cache    *cache.SearchSpecCache
	gen      SpecGenService
	ttl      time.Duration
	log      *logger.Logger
	flight   singleflight.Group
}

func NewSearchSpecService(
	profiles repos.ProfileRepo,
	specs repos.SearchSpecRepo,
	specCache *cache.SearchSpecCache,
	gen SpecGenService,
	ttl time.Duration,
	baseLog *logger.Logger,
) SearchSpecService {
	return &searchSpecService{
		profiles: profiles,
		specs:    specs,
		cache:    specCache,
		gen:      gen,
		ttl:      ttl,
		log:      baseLog.With("service", "SearchSpecService"),
	}
}

func (s *searchSpecService) GetOrGenerate(dbc dbctx.Context, userID uuid.UUID) (*types.SearchSpec, error) {
	prof, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		return nil, fmt.Errorf("no profile for user %s", userID)
	}
	version := prof.ProfileVersion

	// Cache errors degrade to a miss; the database is authoritative.
	if cached, err := s.cache.Get(dbc.Ctx, userID, version); err != nil {
		s.log.Warn("spec cache read failed", "user_id", userID, "version", version, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	stored, err := s.specs.GetActive(dbc, userID, version)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		if err := s.cache.Set(dbc.Ctx, stored, s.ttl); err != nil {
			s.log.Warn("spec cache write failed", "user_id", userID, "version", version, "error", err)
		}
		return stored, nil
	}

	// Collapse concurrent read-through misses for the same identity into one
	// generator call. Regenerate bypasses this on purpose.
	key := fmt.Sprintf("%s:v%d", userID, version)
	out, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.generateAt(dbc, prof)
	})
	if err != nil {
		return nil, err
	}
	return out.(*types.SearchSpec), nil
}

func (s *searchSpecService) Regenerate(dbc dbctx.Context, userID uuid.UUID) (*types.SearchSpec, error) {
	prof, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		return nil, fmt.Errorf("no profile for user %s", userID)
	}
	return s.generateAt(dbc, prof)
}

func (s *searchSpecService) generateAt(dbc dbctx.Context, prof *types.FreelancerProfile) (*types.SearchSpec, error) {
	version := prof.ProfileVersion

	np, err := s.profiles.GetNormalized(dbc, prof.UserID, version)
	if err != nil {
		return nil, err
	}
	if np == nil {
		return nil, fmt.Errorf("no normalized profile for user %s at version %d", prof.UserID, version)
	}
	var normalized types.Normalized
	if err := json.Unmarshal(np.Document, &normalized); err != nil {
		return nil, fmt.Errorf("decode normalized profile: %w", err)
	}

	params, err := s.gen.Generate(dbc.Ctx, normalized)
	if err != nil {
		// Invalid output is never cached or persisted.
		return nil, err
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal spec params: %w", err)
	}

	// Identity is attached here, not in the generator.
	spec, err := s.specs.Insert(dbc, &types.SearchSpec{
		TeamID:         prof.TeamID,
		UserID:         prof.UserID,
		ProfileVersion: version,
		Platforms:      defaultPlatforms(),
		Params:         paramsJSON,
		GeneratedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(dbc.Ctx, spec, s.ttl); err != nil {
		s.log.Warn("spec cache write failed", "user_id", prof.UserID, "version", version, "error", err)
	}
	s.log.Info("search spec generated", "user_id", prof.UserID, "version", version, "spec_id", spec.ID)
	return spec, nil
}

func defaultPlatforms() datatypes.JSON {
	buf, _ := json.Marshal([]string{"upwork", "freelancer", "toptal"})
	return buf
}
