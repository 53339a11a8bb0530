package jobs

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
	"github.com/talentloop/talentloop-backend/internal/versioning"
)

// StaleScore pairs a superseded score row with its staleness verdict.
type StaleScore struct {
	Score   *types.JobScore
	Verdict versioning.Verdict
}

type JobScoreRepo interface {
	// InsertBatch persists score rows. Re-scoring the same identity replaces
	// the previous values; rows across versions accumulate.
	InsertBatch(dbc dbctx.Context, scores []*types.JobScore) ([]*types.JobScore, error)
	// ListLive returns the rows matching the user's current version and
	// tightness, best overall score first.
	ListLive(dbc dbctx.Context, userID uuid.UUID, profileVersion int, tightness string, limit int) ([]*types.JobScore, error)
	// ListStale returns up to limit of the user's newest-per-job score rows
	// whose version is behind currentVersion, annotated with the gap.
	ListStale(dbc dbctx.Context, userID uuid.UUID, currentVersion int, limit int) ([]StaleScore, error)
}

type jobScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobScoreRepo(db *gorm.DB, baseLog *logger.Logger) JobScoreRepo {
	return &jobScoreRepo{
		db:  db,
		log: baseLog.With("repo", "JobScoreRepo"),
	}
}

func (r *jobScoreRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *jobScoreRepo) InsertBatch(dbc dbctx.Context, scores []*types.JobScore) ([]*types.JobScore, error) {
	if len(scores) == 0 {
		return []*types.JobScore{}, nil
	}
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "job_id"}, {Name: "user_id"}, {Name: "profile_version"}, {Name: "tightness"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"skill_match", "budget_fit", "client_quality", "scope_fit",
				"win_probability", "overall_score", "reasoning",
			}),
		}).
		Create(&scores)
	if res.Error != nil {
		return nil, res.Error
	}
	return scores, nil
}

func (r *jobScoreRepo) ListLive(dbc dbctx.Context, userID uuid.UUID, profileVersion int, tightness string, limit int) ([]*types.JobScore, error) {
	if userID == uuid.Nil || limit <= 0 {
		return nil, nil
	}
	var out []*types.JobScore
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND profile_version = ? AND tightness = ?", userID, profileVersion, tightness).
		Order("overall_score DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobScoreRepo) ListStale(dbc dbctx.Context, userID uuid.UUID, currentVersion int, limit int) ([]StaleScore, error) {
	if userID == uuid.Nil || limit <= 0 {
		return nil, nil
	}
	// Only the newest row per job matters: older versions of an already
	// re-scored job are superseded history, not pending work.
	var rows []*types.JobScore
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where(`profile_version = (
			SELECT MAX(s2.profile_version) FROM job_score s2
			WHERE s2.job_id = job_score.job_id AND s2.user_id = job_score.user_id
		)`).
		Where("user_id = ? AND profile_version < ?", userID, currentVersion).
		Order("profile_version ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]StaleScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, StaleScore{
			Score:   row,
			Verdict: versioning.CheckStaleness(row.ProfileVersion, currentVersion),
		})
	}
	return out, nil
}
