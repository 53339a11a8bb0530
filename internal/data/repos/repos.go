package repos

import (
	"gorm.io/gorm"

	"github.com/talentloop/talentloop-backend/internal/data/repos/jobs"
	"github.com/talentloop/talentloop-backend/internal/data/repos/profile"
	"github.com/talentloop/talentloop-backend/internal/data/repos/search"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

type ProfileRepo = profile.ProfileRepo

type SearchSpecRepo = search.SearchSpecRepo
type StaleSpec = search.StaleSpec

type JobRepo = jobs.JobRepo
type JobScoreRepo = jobs.JobScoreRepo
type StaleScore = jobs.StaleScore
type RecomputeRepo = jobs.RecomputeRepo
type AgentRunRepo = jobs.AgentRunRepo

var ErrVersionConflict = profile.ErrVersionConflict

// Set bundles every repository behind one constructor for wiring.
type Set struct {
	Profile    ProfileRepo
	SearchSpec SearchSpecRepo
	Job        JobRepo
	JobScore   JobScoreRepo
	Recompute  RecomputeRepo
	AgentRun   AgentRunRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Profile:    profile.NewProfileRepo(db, baseLog),
		SearchSpec: search.NewSearchSpecRepo(db, baseLog),
		Job:        jobs.NewJobRepo(db, baseLog),
		JobScore:   jobs.NewJobScoreRepo(db, baseLog),
		Recompute:  jobs.NewRecomputeRepo(db, baseLog),
		AgentRun:   jobs.NewAgentRunRepo(db, baseLog),
	}
}
