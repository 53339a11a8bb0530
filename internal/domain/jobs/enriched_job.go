package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Seniority values the enrichment step may assign. Ambiguous postings default
// to mid.
const (
	SeniorityJunior = "junior"
	SeniorityMid    = "mid"
	SenioritySenior = "senior"
)

// EnrichedJob is derived from a RawJob. Not stamped with a profile version:
// enrichment is profile-independent and keyed on the prompt version instead,
// so a prompt change regenerates rows for everyone.
type EnrichedJob struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enriched_job_prompt" json:"job_id"`
	PromptVersion       int       `gorm:"column:prompt_version;not null;uniqueIndex:idx_enriched_job_prompt" json:"prompt_version"`
	Seniority           string    `gorm:"column:seniority;not null" json:"seniority"`
	Summary             string    `gorm:"column:summary;type:text;not null" json:"summary"`
	MarkdownDescription string    `gorm:"column:markdown_description;type:text;not null" json:"markdown_description"`
	CreatedAt           time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (EnrichedJob) TableName() string { return "enriched_job" }
