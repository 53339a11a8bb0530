package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RawJob is a scraped posting, stored once and never mutated. Extra holds
// fields the scraper emitted that we don't model yet.
type RawJob struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Platform      string         `gorm:"column:platform;not null;uniqueIndex:idx_raw_job_platform_id" json:"platform"`
	PlatformJobID string         `gorm:"column:platform_job_id;not null;uniqueIndex:idx_raw_job_platform_id" json:"platform_job_id"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Description   string         `gorm:"column:description;type:text" json:"description"`
	BudgetMin     *float64       `gorm:"column:budget_min" json:"budget_min,omitempty"`
	BudgetMax     *float64       `gorm:"column:budget_max" json:"budget_max,omitempty"`
	ClientRating  *float64       `gorm:"column:client_rating" json:"client_rating,omitempty"`
	PostedAt      *time.Time     `gorm:"column:posted_at;index" json:"posted_at,omitempty"`
	Extra         datatypes.JSON `gorm:"column:extra;type:jsonb" json:"extra,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (RawJob) TableName() string { return "raw_job" }
