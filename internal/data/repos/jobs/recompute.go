package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

type RecomputeRepo interface {
	// EnqueueIfAbsent inserts a pending item unless an equivalent pending item
	// already exists; the bool reports whether a row was created.
	EnqueueIfAbsent(dbc dbctx.Context, item *types.RecomputeItem) (*types.RecomputeItem, bool, error)
	// ClaimNext atomically flips the best pending item to processing and
	// returns it, or nil when the queue is empty. Priority 1 wins; FIFO within
	// a priority.
	ClaimNext(dbc dbctx.Context) (*types.RecomputeItem, error)
	MarkCompleted(dbc dbctx.Context, id uuid.UUID) error
	// MarkFailed re-queues the item when retries remain, otherwise leaves it
	// terminally failed. The bool reports whether it was re-queued.
	MarkFailed(dbc dbctx.Context, id uuid.UUID, cause error) (bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RecomputeItem, error)
	CountByStatus(dbc dbctx.Context, status string) (int64, error)
}

type recomputeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecomputeRepo(db *gorm.DB, baseLog *logger.Logger) RecomputeRepo {
	return &recomputeRepo{
		db:  db,
		log: baseLog.With("repo", "RecomputeRepo"),
	}
}

func (r *recomputeRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *recomputeRepo) EnqueueIfAbsent(dbc dbctx.Context, item *types.RecomputeItem) (*types.RecomputeItem, bool, error) {
	if item == nil {
		return nil, false, errors.New("item required")
	}
	if item.UserID == uuid.Nil {
		return nil, false, errors.New("item missing user_id")
	}
	if !validItemType(item.ItemType) {
		return nil, false, fmt.Errorf("unknown item_type %q", item.ItemType)
	}
	if item.Priority == 0 {
		item.Priority = 5
	}
	if item.Priority < 1 || item.Priority > 10 {
		return nil, false, fmt.Errorf("priority %d out of range 1-10", item.Priority)
	}
	if item.MaxRetries == 0 {
		item.MaxRetries = 3
	}
	item.Status = types.RecomputePending

	created := false
	err := r.tx(dbc).WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		q := txx.Model(&types.RecomputeItem{}).
			Where("user_id = ? AND item_type = ? AND triggered_by_version = ? AND status = ?",
				item.UserID, item.ItemType, item.TriggeredByVersion, types.RecomputePending)
		if item.ItemID != nil {
			q = q.Where("item_id = ?", *item.ItemID)
		} else {
			q = q.Where("item_id IS NULL")
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := txx.Create(item).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !created {
		return nil, false, nil
	}
	return item, true, nil
}

func (r *recomputeRepo) ClaimNext(dbc dbctx.Context) (*types.RecomputeItem, error) {
	now := time.Now()
	var claimed *types.RecomputeItem
	err := r.tx(dbc).WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var item types.RecomputeItem
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", types.RecomputePending).
			Order("priority ASC, created_at ASC").
			First(&item).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		res := txx.Model(&types.RecomputeItem{}).
			Where("id = ? AND status = ?", item.ID, types.RecomputePending).
			Updates(map[string]interface{}{
				"status":     types.RecomputeProcessing,
				"claimed_at": now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race despite the lock; treat as empty poll.
			return nil
		}
		item.Status = types.RecomputeProcessing
		item.ClaimedAt = &now
		claimed = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *recomputeRepo) MarkCompleted(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("missing item id")
	}
	now := time.Now()
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.RecomputeItem{}).
		Where("id = ? AND status = ?", id, types.RecomputeProcessing).
		Updates(map[string]interface{}{
			"status":      types.RecomputeCompleted,
			"error":       "",
			"finished_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %s not in processing state", id)
	}
	return nil
}

func (r *recomputeRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, cause error) (bool, error) {
	if id == uuid.Nil {
		return false, errors.New("missing item id")
	}
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	now := time.Now()

	requeued := false
	err := r.tx(dbc).WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		// One more attempt consumed either way; the ceiling decides whether
		// the item goes back to pending or stays failed for good.
		retry := txx.Model(&types.RecomputeItem{}).
			Where("id = ? AND status = ? AND retry_count + 1 < max_retries", id, types.RecomputeProcessing).
			Updates(map[string]interface{}{
				"status":      types.RecomputePending,
				"retry_count": gorm.Expr("retry_count + 1"),
				"error":       msg,
				"claimed_at":  nil,
				"updated_at":  now,
			})
		if retry.Error != nil {
			return retry.Error
		}
		if retry.RowsAffected > 0 {
			requeued = true
			return nil
		}

		final := txx.Model(&types.RecomputeItem{}).
			Where("id = ? AND status = ?", id, types.RecomputeProcessing).
			Updates(map[string]interface{}{
				"status":      types.RecomputeFailed,
				"retry_count": gorm.Expr("retry_count + 1"),
				"error":       msg,
				"finished_at": now,
				"updated_at":  now,
			})
		if final.Error != nil {
			return final.Error
		}
		if final.RowsAffected == 0 {
			return fmt.Errorf("item %s not in processing state", id)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return requeued, nil
}

func (r *recomputeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RecomputeItem, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var item types.RecomputeItem
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == uuid.Nil {
		return nil, nil
	}
	return &item, nil
}

func (r *recomputeRepo) CountByStatus(dbc dbctx.Context, status string) (int64, error) {
	var count int64
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.RecomputeItem{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func validItemType(t string) bool {
	switch t {
	case types.ItemNormalizedProfile, types.ItemSearchSpec, types.ItemProfileEmbedding, types.ItemJobScores:
		return true
	}
	return false
}
