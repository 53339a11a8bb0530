package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

type AgentRunRepo interface {
	Create(dbc dbctx.Context, run *types.AgentRun) (*types.AgentRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AgentRun, error)
	// MarkRunning transitions queued -> running and records the substrate's
	// correlation id. No-op (false) if the run already left queued.
	MarkRunning(dbc dbctx.Context, id uuid.UUID, triggerRunID string) (bool, error)
	// MarkSucceeded / MarkFailed land a terminal status exactly once. Guarded
	// so an already-terminal run is never rewritten.
	MarkSucceeded(dbc dbctx.Context, id uuid.UUID, outputs datatypes.JSON) (bool, error)
	MarkFailed(dbc dbctx.Context, id uuid.UUID, errMsg string) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AgentRun, error)
}

type agentRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRunRepo(db *gorm.DB, baseLog *logger.Logger) AgentRunRepo {
	return &agentRunRepo{
		db:  db,
		log: baseLog.With("repo", "AgentRunRepo"),
	}
}

func (r *agentRunRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *agentRunRepo) Create(dbc dbctx.Context, run *types.AgentRun) (*types.AgentRun, error) {
	if run == nil {
		return nil, errors.New("run required")
	}
	if run.UserID == uuid.Nil {
		return nil, errors.New("run missing user_id")
	}
	if run.Kind == "" {
		return nil, errors.New("run missing kind")
	}
	if run.Status == "" {
		run.Status = types.RunQueued
	}
	if run.Status != types.RunQueued {
		return nil, fmt.Errorf("runs are created queued, got %q", run.Status)
	}
	if len(run.Inputs) == 0 {
		run.Inputs = datatypes.JSON([]byte(`{}`))
	}
	if err := r.tx(dbc).WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *agentRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AgentRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.AgentRun
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *agentRunRepo) MarkRunning(dbc dbctx.Context, id uuid.UUID, triggerRunID string) (bool, error) {
	if id == uuid.Nil {
		return false, errors.New("missing run id")
	}
	now := time.Now()
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.AgentRun{}).
		Where("id = ? AND status = ?", id, types.RunQueued).
		Updates(map[string]interface{}{
			"status":         types.RunRunning,
			"trigger_run_id": triggerRunID,
			"started_at":     now,
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *agentRunRepo) MarkSucceeded(dbc dbctx.Context, id uuid.UUID, outputs datatypes.JSON) (bool, error) {
	if id == uuid.Nil {
		return false, errors.New("missing run id")
	}
	if len(outputs) == 0 {
		outputs = datatypes.JSON([]byte(`{}`))
	}
	now := time.Now()
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.AgentRun{}).
		Where("id = ? AND status IN ?", id, []string{types.RunQueued, types.RunRunning}).
		Updates(map[string]interface{}{
			"status":      types.RunSucceeded,
			"outputs":     outputs,
			"finished_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *agentRunRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, errMsg string) (bool, error) {
	if id == uuid.Nil {
		return false, errors.New("missing run id")
	}
	now := time.Now()
	res := r.tx(dbc).WithContext(dbc.Ctx).
		Model(&types.AgentRun{}).
		Where("id = ? AND status IN ?", id, []string{types.RunQueued, types.RunRunning}).
		Updates(map[string]interface{}{
			"status":      types.RunFailed,
			"error":       errMsg,
			"finished_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *agentRunRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AgentRun, error) {
	if userID == uuid.Nil || limit <= 0 {
		return nil, nil
	}
	var out []*types.AgentRun
	err := r.tx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
