package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// ProfileService is the profile-mutation path and the single place versions
// are incremented. Updates run in one transaction so the bump, the new
// normalized document, and the recompute chain land together or not at all.
type ProfileService interface {
	Register(dbc dbctx.Context, p *types.FreelancerProfile, normalized types.Normalized) (*types.FreelancerProfile, error)
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.FreelancerProfile, error)
	// Update bumps the version from the caller's read, persists the new
	// normalized document at the new version, and queues the recompute chain.
	// Returns repos.ErrVersionConflict if a concurrent bump won.
	Update(dbc dbctx.Context, userID uuid.UUID, fromVersion int, normalized types.Normalized) (*types.FreelancerProfile, error)
}

type profileService struct {
	db        *gorm.DB
	profiles  repos.ProfileRepo
	recompute RecomputeService
	log       *logger.Logger
}

func NewProfileService(db *gorm.DB, profiles repos.ProfileRepo, recompute RecomputeService, baseLog *logger.Logger) ProfileService {
	return &profileService{
		db:        db,
		profiles:  profiles,
		recompute: recompute,
		log:       baseLog.With("service", "ProfileService"),
	}
}

func (s *profileService) Register(dbc dbctx.Context, p *types.FreelancerProfile, normalized types.Normalized) (*types.FreelancerProfile, error) {
	doc, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("marshal normalized document: %w", err)
	}

	var created *types.FreelancerProfile
	err = s.run(dbc, func(txc dbctx.Context) error {
		var err error
		created, err = s.profiles.Create(txc, p)
		if err != nil {
			return err
		}
		_, err = s.profiles.SaveNormalized(txc, &types.NormalizedProfile{
			UserID:         created.UserID,
			ProfileVersion: created.ProfileVersion,
			Document:       datatypes.JSON(doc),
		})
		if err != nil {
			return err
		}
		_, err = s.recompute.EnqueueForBump(txc, created.UserID, created.ProfileVersion)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("profile registered", "user_id", created.UserID, "version", created.ProfileVersion)
	return created, nil
}

func (s *profileService) Get(dbc dbctx.Context, userID uuid.UUID) (*types.FreelancerProfile, error) {
	return s.profiles.GetByUserID(dbc, userID)
}

func (s *profileService) Update(dbc dbctx.Context, userID uuid.UUID, fromVersion int, normalized types.Normalized) (*types.FreelancerProfile, error) {
	doc, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("marshal normalized document: %w", err)
	}

	var newVersion int
	err = s.run(dbc, func(txc dbctx.Context) error {
		var err error
		newVersion, err = s.profiles.BumpVersion(txc, userID, fromVersion)
		if err != nil {
			return err
		}
		_, err = s.profiles.SaveNormalized(txc, &types.NormalizedProfile{
			UserID:         userID,
			ProfileVersion: newVersion,
			Document:       datatypes.JSON(doc),
		})
		if err != nil {
			return err
		}
		_, err = s.recompute.EnqueueForBump(txc, userID, newVersion)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("profile updated", "user_id", userID, "version", newVersion)
	return s.profiles.GetByUserID(dbc, userID)
}

// run executes fn inside the caller's transaction when one is present,
// otherwise opens its own.
func (s *profileService) run(dbc dbctx.Context, fn func(dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		return fn(dbctx.WithTx(dbc.Ctx, txx))
	})
}
