package profile

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
	"github.com/talentloop/talentloop-backend/internal/versioning"
)

// ErrVersionConflict means the optimistic guard on BumpVersion saw a different
// stored version than the caller read. Callers re-read and retry.
var ErrVersionConflict = errors.New("profile version conflict")

type ProfileRepo interface {
	Create(dbc dbctx.Context, p *types.FreelancerProfile) (*types.FreelancerProfile, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.FreelancerProfile, error)
	// BumpVersion is the single write path for profile versions. It validates
	// the +1 transition and applies it with an optimistic WHERE guard so two
	// concurrent bumps cannot both land.
	BumpVersion(dbc dbctx.Context, userID uuid.UUID, fromVersion int) (int, error)
	SaveNormalized(dbc dbctx.Context, np *types.NormalizedProfile) (*types.NormalizedProfile, error)
	GetNormalized(dbc dbctx.Context, userID uuid.UUID, profileVersion int) (*types.NormalizedProfile, error)
	SaveEmbedding(dbc dbctx.Context, pe *types.ProfileEmbedding) (*types.ProfileEmbedding, error)
	GetEmbedding(dbc dbctx.Context, userID uuid.UUID, profileVersion int) (*types.ProfileEmbedding, error)
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{
		db:  db,
		log: baseLog.With("repo", "ProfileRepo"),
	}
}

func (r *profileRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *profileRepo) Create(dbc dbctx.Context, p *types.FreelancerProfile) (*types.FreelancerProfile, error) {
	if p == nil {
		return nil, errors.New("profile required")
	}
	if p.ProfileVersion == 0 {
		p.ProfileVersion = versioning.InitialVersion
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.FreelancerProfile, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var p types.FreelancerProfile
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *profileRepo) BumpVersion(dbc dbctx.Context, userID uuid.UUID, fromVersion int) (int, error) {
	if userID == uuid.Nil {
		return 0, errors.New("missing user_id")
	}
	next := versioning.NextVersion(fromVersion)
	if err := versioning.ValidateTransition(fromVersion, next); err != nil {
		// Invariant violations are programming errors; log loudly.
		r.log.Error("rejected profile version transition", "user_id", userID, "from", fromVersion, "to", next, "error", err)
		return 0, err
	}

	res := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.FreelancerProfile{}).
		Where("user_id = ? AND profile_version = ?", userID, fromVersion).
		Updates(map[string]interface{}{
			"profile_version": next,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrVersionConflict
	}
	return next, nil
}

func (r *profileRepo) SaveNormalized(dbc dbctx.Context, np *types.NormalizedProfile) (*types.NormalizedProfile, error) {
	if np == nil {
		return nil, errors.New("normalized profile required")
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(np).Error; err != nil {
		return nil, err
	}
	return np, nil
}

func (r *profileRepo) GetNormalized(dbc dbctx.Context, userID uuid.UUID, profileVersion int) (*types.NormalizedProfile, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var np types.NormalizedProfile
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND profile_version = ?", userID, profileVersion).
		Order("created_at DESC").
		Limit(1).
		Find(&np).Error
	if err != nil {
		return nil, err
	}
	if np.ID == uuid.Nil {
		return nil, nil
	}
	return &np, nil
}

func (r *profileRepo) SaveEmbedding(dbc dbctx.Context, pe *types.ProfileEmbedding) (*types.ProfileEmbedding, error) {
	if pe == nil {
		return nil, errors.New("embedding required")
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(pe).Error; err != nil {
		return nil, err
	}
	return pe, nil
}

func (r *profileRepo) GetEmbedding(dbc dbctx.Context, userID uuid.UUID, profileVersion int) (*types.ProfileEmbedding, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var pe types.ProfileEmbedding
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND profile_version = ?", userID, profileVersion).
		Order("created_at DESC").
		Limit(1).
		Find(&pe).Error
	if err != nil {
		return nil, err
	}
	if pe.ID == uuid.Nil {
		return nil, nil
	}
	return &pe, nil
}
