package search

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
	"github.com/talentloop/talentloop-backend/internal/versioning"
)

// StaleSpec pairs a superseded spec with its staleness verdict, ready for
// enqueueing.
type StaleSpec struct {
	Spec    *types.SearchSpec
	Verdict versioning.Verdict
}

type SearchSpecRepo interface {
	// Insert persists a new spec row. Rows are immutable; a refresh inserts a
	// new row at the new version rather than mutating the old one.
	Insert(dbc dbctx.Context, spec *types.SearchSpec) (*types.SearchSpec, error)
	// GetActive returns the newest spec for (user, version), nil when absent.
	GetActive(dbc dbctx.Context, userID uuid.UUID, profileVersion int) (*types.SearchSpec, error)
	// ListStale returns up to limit specs behind currentVersion, widest gap
	// first, each annotated with its verdict.
	ListStale(dbc dbctx.Context, userID uuid.UUID, currentVersion int, limit int) ([]StaleSpec, error)
}

type searchSpecRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchSpecRepo(db *gorm.DB, baseLog *logger.Logger) SearchSpecRepo {
	return &searchSpecRepo{
		db:  db,
		log: baseLog.With("repo", "SearchSpecRepo"),
	}
}

func (r *searchSpecRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *searchSpecRepo) Insert(dbc dbctx.Context, spec *types.SearchSpec) (*types.SearchSpec, error) {
	if spec == nil {
		return nil, errors.New("spec required")
	}
	if spec.UserID == uuid.Nil {
		return nil, errors.New("spec missing user_id")
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(spec).Error; err != nil {
		return nil, err
	}
	return spec, nil
}

func (r *searchSpecRepo) GetActive(dbc dbctx.Context, userID uuid.UUID, profileVersion int) (*types.SearchSpec, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var spec types.SearchSpec
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND profile_version = ?", userID, profileVersion).
		Order("created_at DESC").
		Limit(1).
		Find(&spec).Error
	if err != nil {
		return nil, err
	}
	if spec.ID == uuid.Nil {
		return nil, nil
	}
	return &spec, nil
}

func (r *searchSpecRepo) ListStale(dbc dbctx.Context, userID uuid.UUID, currentVersion int, limit int) ([]StaleSpec, error) {
	if userID == uuid.Nil || limit <= 0 {
		return nil, nil
	}
	var rows []*types.SearchSpec
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND profile_version < ?", userID, currentVersion).
		Order("profile_version ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]StaleSpec, 0, len(rows))
	for _, row := range rows {
		out = append(out, StaleSpec{
			Spec:    row,
			Verdict: versioning.CheckStaleness(row.ProfileVersion, currentVersion),
		})
	}
	return out, nil
}
