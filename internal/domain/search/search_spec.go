package search

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SearchSpec is a versioned artifact: one active spec per (user, version),
// insert-only, stale rows retained but excluded from active use.
type SearchSpec struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TeamID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"team_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_search_spec_user_version" json:"user_id"`
	ProfileVersion int            `gorm:"column:profile_version;not null;index:idx_search_spec_user_version" json:"profile_version"`
	Platforms      datatypes.JSON `gorm:"column:platforms;type:jsonb" json:"platforms"`
	Params         datatypes.JSON `gorm:"column:params;type:jsonb;not null" json:"params"`
	GeneratedAt    time.Time      `gorm:"column:generated_at;not null;default:now()" json:"generated_at"`
	CreatedAt      time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (SearchSpec) TableName() string { return "search_spec" }

// WeightedKeyword is a keyword with a 1-10 weight, 10 strongest.
type WeightedKeyword struct {
	Keyword string `json:"keyword"`
	Weight  int    `json:"weight"`
}

// SpecParams is the decoded shape of SearchSpec.Params: the structured search
// parameters the generator produces. Identity fields live on the row, not here;
// the generator has no knowledge of versioning.
type SpecParams struct {
	TitleKeywords    []WeightedKeyword `json:"title_keywords"`
	SkillKeywords    []WeightedKeyword `json:"skill_keywords"`
	NegativeKeywords []string          `json:"negative_keywords"`
	Locations        []string          `json:"locations"`
	SeniorityLevels  []string          `json:"seniority_levels"`
	RemotePreference string            `json:"remote_preference"`
	ContractTypes    []string          `json:"contract_types"`
	BudgetMin        *float64          `json:"budget_min"`
	BudgetMax        *float64          `json:"budget_max"`
}

// Enum vocabularies for SpecParams categorical fields.
var (
	SeniorityLevels   = []string{"intern", "junior", "mid", "senior", "lead", "principal"}
	RemotePreferences = []string{"remote", "hybrid", "onsite", "any"}
	ContractTypes     = []string{"hourly", "fixed_price", "full_time", "part_time"}
)
