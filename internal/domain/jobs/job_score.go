package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Sub-score weights for the overall match score. Must sum to 1.
const (
	WeightSkillMatch     = 0.30
	WeightBudgetFit      = 0.25
	WeightClientQuality  = 0.15
	WeightScopeFit       = 0.15
	WeightWinProbability = 0.15
)

// JobScore rows are insert-only and keyed (job, user, profile_version,
// tightness); only the row matching the user's current version and selected
// tightness is live. Stale rows stay for audit.
type JobScore struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_job_score_identity" json:"job_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_job_score_identity;index:idx_job_score_user_version" json:"user_id"`
	ProfileVersion int       `gorm:"column:profile_version;not null;uniqueIndex:idx_job_score_identity;index:idx_job_score_user_version" json:"profile_version"`
	Tightness      string    `gorm:"column:tightness;not null;uniqueIndex:idx_job_score_identity" json:"tightness"`
	SkillMatch     float64   `gorm:"column:skill_match;not null" json:"skill_match"`
	BudgetFit      float64   `gorm:"column:budget_fit;not null" json:"budget_fit"`
	ClientQuality  float64   `gorm:"column:client_quality;not null" json:"client_quality"`
	ScopeFit       float64   `gorm:"column:scope_fit;not null" json:"scope_fit"`
	WinProbability float64   `gorm:"column:win_probability;not null" json:"win_probability"`
	OverallScore   float64   `gorm:"column:overall_score;not null;index" json:"overall_score"`
	Reasoning      string    `gorm:"column:reasoning;type:text" json:"reasoning"`
	CreatedAt      time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (JobScore) TableName() string { return "job_score" }

// OverallFromSubScores computes the fixed weighted sum.
func OverallFromSubScores(skill, budget, client, scope, win float64) float64 {
	return skill*WeightSkillMatch +
		budget*WeightBudgetFit +
		client*WeightClientQuality +
		scope*WeightScopeFit +
		win*WeightWinProbability
}
