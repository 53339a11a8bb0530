package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/domain/jobs"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// ErrAwaitTimeout reports that a poll loop gave up waiting. The run itself is
// untouched: abandonment is a client-side decision and never marks the run
// failed.
var ErrAwaitTimeout = errors.New("await timed out")

// RunUpdate is a substrate's view of an execution.
type RunUpdate struct {
	Status  string
	Outputs datatypes.JSON
	Error   string
}

// TaskSubstrate is the execution backend behind runs. Trigger hands the work
// off and returns the substrate's correlation id; Retrieve reports progress
// for a previously triggered execution.
type TaskSubstrate interface {
	Trigger(ctx context.Context, kind string, runID uuid.UUID, inputs datatypes.JSON) (string, error)
	Retrieve(ctx context.Context, kind string, triggerRunID string) (*RunUpdate, error)
}

// PollConfig shapes Await's polling loop.
type PollConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

func DefaultPollConfig() PollConfig {
	return PollConfig{Interval: 5 * time.Second, Timeout: 10 * time.Minute}
}

// RunService owns the run lifecycle: create the record, hand off to the
// substrate, and reconcile substrate progress back into the record.
type RunService interface {
	// Start creates a queued run, triggers the substrate, and marks the run
	// running with the substrate's correlation id. A trigger failure marks the
	// run failed (dispatch failure, not execution failure).
	Start(dbc dbctx.Context, userID uuid.UUID, kind string, inputs datatypes.JSON) (*types.AgentRun, error)
	// Refresh pulls the substrate's latest state into the run record and
	// returns the updated run. Terminal runs are returned as-is.
	Refresh(dbc dbctx.Context, runID uuid.UUID) (*types.AgentRun, error)
	// Await polls Refresh until the run is terminal or the configured timeout
	// elapses, returning ErrAwaitTimeout in the latter case.
	Await(dbc dbctx.Context, runID uuid.UUID, cfg PollConfig) (*types.AgentRun, error)
	Get(dbc dbctx.Context, runID uuid.UUID) (*types.AgentRun, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AgentRun, error)
}

type runService struct {
	runs      repos.AgentRunRepo
	substrate TaskSubstrate
	log       *logger.Logger
}

func NewRunService(runs repos.AgentRunRepo, substrate TaskSubstrate, baseLog *logger.Logger) RunService {
	return &runService{
		runs:      runs,
		substrate: substrate,
		log:       baseLog.With("service", "RunService"),
	}
}

func (s *runService) Start(dbc dbctx.Context, userID uuid.UUID, kind string, inputs datatypes.JSON) (*types.AgentRun, error) {
	switch kind {
	case types.RunKindJobFetch, types.RunKindEnrichment, types.RunKindRescore:
	default:
		return nil, fmt.Errorf("unknown run kind %q", kind)
	}

	run, err := s.runs.Create(dbc, &types.AgentRun{
		UserID: userID,
		Kind:   kind,
		Status: types.RunQueued,
		Inputs: inputs,
	})
	if err != nil {
		return nil, err
	}

	triggerID, err := s.substrate.Trigger(dbc.Ctx, kind, run.ID, run.Inputs)
	if err != nil {
		s.log.Error("substrate trigger failed", "run_id", run.ID, "kind", kind, "error", err)
		if _, markErr := s.runs.MarkFailed(dbc, run.ID, fmt.Sprintf("trigger: %v", err)); markErr != nil {
			s.log.Error("failed to mark run failed after trigger error", "run_id", run.ID, "error", markErr)
		}
		return s.runs.GetByID(dbc, run.ID)
	}

	if _, err := s.runs.MarkRunning(dbc, run.ID, triggerID); err != nil {
		return nil, err
	}
	s.log.Info("run started", "run_id", run.ID, "kind", kind, "trigger_run_id", triggerID)
	return s.runs.GetByID(dbc, run.ID)
}

func (s *runService) Refresh(dbc dbctx.Context, runID uuid.UUID) (*types.AgentRun, error) {
	run, err := s.runs.GetByID(dbc, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if jobs.RunTerminal(run.Status) {
		return run, nil
	}
	if run.TriggerRunID == "" {
		// Created but never handed off; nothing to reconcile against.
		return run, nil
	}

	update, err := s.substrate.Retrieve(dbc.Ctx, run.Kind, run.TriggerRunID)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", run.TriggerRunID, err)
	}

	switch update.Status {
	case types.RunSucceeded:
		if _, err := s.runs.MarkSucceeded(dbc, run.ID, update.Outputs); err != nil {
			return nil, err
		}
	case types.RunFailed:
		if _, err := s.runs.MarkFailed(dbc, run.ID, update.Error); err != nil {
			return nil, err
		}
	case types.RunRunning, types.RunQueued:
		return run, nil
	default:
		return nil, fmt.Errorf("substrate reported unknown status %q for run %s", update.Status, run.ID)
	}
	return s.runs.GetByID(dbc, run.ID)
}

func (s *runService) Await(dbc dbctx.Context, runID uuid.UUID, cfg PollConfig) (*types.AgentRun, error) {
	if cfg.Interval <= 0 || cfg.Timeout <= 0 {
		cfg = DefaultPollConfig()
	}
	deadline := time.Now().Add(cfg.Timeout)
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		run, err := s.Refresh(dbc, runID)
		if err != nil {
			return nil, err
		}
		if jobs.RunTerminal(run.Status) {
			return run, nil
		}
		if time.Now().After(deadline) {
			return run, ErrAwaitTimeout
		}
		select {
		case <-dbc.Ctx.Done():
			return run, dbc.Ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *runService) Get(dbc dbctx.Context, runID uuid.UUID) (*types.AgentRun, error) {
	return s.runs.GetByID(dbc, runID)
}

func (s *runService) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.AgentRun, error) {
	return s.runs.ListByUser(dbc, userID, limit)
}
