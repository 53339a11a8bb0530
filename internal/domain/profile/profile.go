package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FreelancerProfile is the root record the whole matching pipeline hangs off.
// ProfileVersion starts at 1 and moves by exactly +1 through
// ProfileRepo.BumpVersion; every derived artifact is stamped with the version
// it was computed under.
type FreelancerProfile struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TeamID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"team_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	ProfileVersion int            `gorm:"column:profile_version;not null;default:1" json:"profile_version"`
	Headline       string         `gorm:"column:headline" json:"headline,omitempty"`
	Skills         datatypes.JSON `gorm:"column:skills;type:jsonb" json:"skills"`
	Preferences    datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FreelancerProfile) TableName() string { return "freelancer_profile" }

// NormalizedProfile is the stable, already-validated representation the
// generator consumes. Produced by the (out-of-scope) normalization step and
// persisted per version for reproducibility.
type NormalizedProfile struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_normalized_profile_user_version" json:"user_id"`
	ProfileVersion int            `gorm:"column:profile_version;not null;index:idx_normalized_profile_user_version" json:"profile_version"`
	Document       datatypes.JSON `gorm:"column:document;type:jsonb;not null" json:"document"`
	CreatedAt      time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (NormalizedProfile) TableName() string { return "normalized_profile" }

// ProfileEmbedding is a versioned artifact; rows are insert-only and old
// versions are retained for audit.
type ProfileEmbedding struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_profile_embedding_user_version" json:"user_id"`
	ProfileVersion int            `gorm:"column:profile_version;not null;index:idx_profile_embedding_user_version" json:"profile_version"`
	Model          string         `gorm:"column:model;not null" json:"model"`
	Vector         datatypes.JSON `gorm:"column:vector;type:jsonb;not null" json:"vector"`
	CreatedAt      time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (ProfileEmbedding) TableName() string { return "profile_embedding" }

// Normalized is the decoded shape of NormalizedProfile.Document, and the input
// contract of the search-spec generator.
type Normalized struct {
	Headline        string   `json:"headline"`
	Skills          []string `json:"skills"`
	YearsExperience int      `json:"years_experience"`
	Seniority       string   `json:"seniority"`
	Locations       []string `json:"locations"`
	RemotePref      string   `json:"remote_pref"`
	HourlyRateMin   *float64 `json:"hourly_rate_min,omitempty"`
	HourlyRateMax   *float64 `json:"hourly_rate_max,omitempty"`
	Summary         string   `json:"summary"`
}
