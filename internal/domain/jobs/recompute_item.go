package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Recompute item types: the derived artifacts a profile bump can invalidate.
const (
	ItemNormalizedProfile = "normalized_profile"
	ItemSearchSpec        = "search_spec"
	ItemProfileEmbedding  = "profile_embedding"
	ItemJobScores         = "job_scores"
)

// Recompute item statuses. pending -> processing -> {completed | failed};
// failed re-queues to pending while retry_count < max_retries.
const (
	RecomputePending    = "pending"
	RecomputeProcessing = "processing"
	RecomputeCompleted  = "completed"
	RecomputeFailed     = "failed"
)

const (
	DefaultMaxRetries = 3

	PriorityHighest = 1
	PriorityDefault = 5
	PriorityLowest  = 10
)

// RecomputeItem is one unit of pending recomputation work. Claiming is a
// single conditional pending->processing transition under SKIP LOCKED;
// duplicate pending rows for the same logical unit are coalesced at enqueue.
type RecomputeItem struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ItemType           string     `gorm:"column:item_type;not null;index" json:"item_type"`
	ItemID             *uuid.UUID `gorm:"type:uuid;column:item_id;index" json:"item_id,omitempty"`
	TriggeredByVersion int        `gorm:"column:triggered_by_version;not null" json:"triggered_by_version"`
	Priority           int        `gorm:"column:priority;not null;default:5;index" json:"priority"`
	Status             string     `gorm:"column:status;not null;default:'pending';index" json:"status"`
	RetryCount         int        `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	MaxRetries         int        `gorm:"column:max_retries;not null;default:3" json:"max_retries"`
	Error              string     `gorm:"column:error" json:"error,omitempty"`
	ClaimedAt          *time.Time `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
	FinishedAt         *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt          time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (RecomputeItem) TableName() string { return "recompute_item" }

// ValidRecomputeTransition reports whether a status move is allowed by the
// item state machine. Terminal completed/failed-out states never move again.
func ValidRecomputeTransition(from, to string) bool {
	switch from {
	case RecomputePending:
		return to == RecomputeProcessing
	case RecomputeProcessing:
		return to == RecomputeCompleted || to == RecomputeFailed
	case RecomputeFailed:
		// Re-queue is allowed; the retry ceiling is enforced by the repo,
		// which checks retry_count < max_retries before flipping back.
		return to == RecomputePending
	default:
		return false
	}
}

func ValidRecomputeItemType(t string) bool {
	switch t {
	case ItemNormalizedProfile, ItemSearchSpec, ItemProfileEmbedding, ItemJobScores:
		return true
	}
	return false
}
