package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/talentloop/talentloop-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Profiles + versioned artifacts
		&types.FreelancerProfile{},
		&types.NormalizedProfile{},
		&types.ProfileEmbedding{},
		&types.SearchSpec{},

		// Jobs + scores
		&types.RawJob{},
		&types.EnrichedJob{},
		&types.JobScore{},

		// Queue + runs
		&types.RecomputeItem{},
		&types.AgentRun{},
	)
}

// EnsureQueueIndexes adds the partial unique index backing enqueue
// coalescing: at most one pending item per (user, item_type, item_id,
// triggered_by_version). The application checks before inserting; this index
// closes the race between two concurrent enqueuers.
func EnsureQueueIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_recompute_item_pending_identity
		ON recompute_item (user_id, item_type, COALESCE(item_id, '00000000-0000-0000-0000-000000000000'::uuid), triggered_by_version)
		WHERE status = 'pending';
	`).Error; err != nil {
		return fmt.Errorf("create idx_recompute_item_pending_identity: %w", err)
	}

	// Claim scan: pending items by priority then age.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_recompute_item_claim_order
		ON recompute_item (priority, created_at)
		WHERE status = 'pending';
	`).Error; err != nil {
		return fmt.Errorf("create idx_recompute_item_claim_order: %w", err)
	}
	return nil
}
