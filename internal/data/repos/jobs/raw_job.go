package jobs

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

type JobRepo interface {
	// UpsertRaw inserts scraped jobs, ignoring rows already present for the
	// same (platform, platform_job_id). Raw jobs are never mutated.
	UpsertRaw(dbc dbctx.Context, jobs []*types.RawJob) (int, error)
	GetRawByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.RawJob, error)
	ListRawWithoutEnrichment(dbc dbctx.Context, promptVersion int, limit int) ([]*types.RawJob, error)
	// ListRawUnscored returns jobs with no score row for the given identity,
	// oldest first. This is the rescore worklist after a version bump.
	ListRawUnscored(dbc dbctx.Context, userID uuid.UUID, profileVersion int, tightness string, limit int) ([]*types.RawJob, error)
	SaveEnriched(dbc dbctx.Context, rows []*types.EnrichedJob) ([]*types.EnrichedJob, error)
	GetEnriched(dbc dbctx.Context, jobIDs []uuid.UUID, promptVersion int) ([]*types.EnrichedJob, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{
		db:  db,
		log: baseLog.With("repo", "JobRepo"),
	}
}

func (r *jobRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *jobRepo) UpsertRaw(dbc dbctx.Context, jobs []*types.RawJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "platform_job_id"}},
			DoNothing: true,
		}).
		Create(&jobs)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *jobRepo) GetRawByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.RawJob, error) {
	var out []*types.RawJob
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) ListRawWithoutEnrichment(dbc dbctx.Context, promptVersion int, limit int) ([]*types.RawJob, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []*types.RawJob
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("NOT EXISTS (SELECT 1 FROM enriched_job e WHERE e.job_id = raw_job.id AND e.prompt_version = ?)", promptVersion).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) ListRawUnscored(dbc dbctx.Context, userID uuid.UUID, profileVersion int, tightness string, limit int) ([]*types.RawJob, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []*types.RawJob
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where(`NOT EXISTS (
			SELECT 1 FROM job_score s
			WHERE s.job_id = raw_job.id
			  AND s.user_id = ?
			  AND s.profile_version = ?
			  AND s.tightness = ?
		)`, userID, profileVersion, tightness).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) SaveEnriched(dbc dbctx.Context, rows []*types.EnrichedJob) ([]*types.EnrichedJob, error) {
	if len(rows) == 0 {
		return []*types.EnrichedJob{}, nil
	}
	for _, row := range rows {
		if row.JobID == uuid.Nil {
			return nil, errors.New("enriched row missing job_id")
		}
	}
	// Enrichment is regenerated when the prompt version changes; rows for the
	// same (job, prompt_version) are replaced, not duplicated.
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}, {Name: "prompt_version"}},
			DoUpdates: clause.AssignmentColumns([]string{"seniority", "summary", "markdown_description"}),
		}).
		Create(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	return rows, nil
}

func (r *jobRepo) GetEnriched(dbc dbctx.Context, jobIDs []uuid.UUID, promptVersion int) ([]*types.EnrichedJob, error) {
	var out []*types.EnrichedJob
	if len(jobIDs) == 0 {
		return out, nil
	}
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("job_id IN ? AND prompt_version = ?", jobIDs, promptVersion).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
