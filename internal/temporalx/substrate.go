package temporalx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	enums "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"gorm.io/datatypes"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
	"github.com/talentloop/talentloop-backend/internal/services"
	"github.com/talentloop/talentloop-backend/internal/temporalx/fetchrun"
)

// Substrate adapts the Temporal client to the run orchestrator's
// TaskSubstrate port. The workflow id is derived from the run id, so a
// double-trigger of the same run is rejected by the server.
type Substrate struct {
	tc        temporalsdkclient.Client
	taskQueue string
	log       *logger.Logger
}

func NewSubstrate(tc temporalsdkclient.Client, baseLog *logger.Logger) (*Substrate, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	return &Substrate{
		tc:        tc,
		taskQueue: LoadConfig().TaskQueue,
		log:       baseLog.With("component", "TemporalSubstrate"),
	}, nil
}

func (s *Substrate) Trigger(ctx context.Context, kind string, runID uuid.UUID, inputs datatypes.JSON) (string, error) {
	in := fetchrun.RunInput{RunID: runID, UserID: uuid.Nil, Kind: kind}
	if len(inputs) > 0 {
		if err := json.Unmarshal(inputs, &in); err != nil {
			return "", fmt.Errorf("decode run inputs: %w", err)
		}
	}
	in.RunID = runID
	in.Kind = kind

	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    "run-" + runID.String(),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    1,
		},
	}
	wr, err := s.tc.ExecuteWorkflow(ctx, opts, fetchrun.WorkflowName, in)
	if err != nil {
		return "", err
	}
	return wr.GetID(), nil
}

func (s *Substrate) Retrieve(ctx context.Context, kind string, triggerRunID string) (*services.RunUpdate, error) {
	desc, err := s.tc.DescribeWorkflowExecution(ctx, triggerRunID, "")
	if err != nil {
		return nil, err
	}
	info := desc.GetWorkflowExecutionInfo()
	if info == nil {
		return nil, fmt.Errorf("describe %s: no execution info", triggerRunID)
	}

	switch info.GetStatus() {
	case enums.WORKFLOW_EXECUTION_STATUS_RUNNING,
		enums.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return &services.RunUpdate{Status: types.RunRunning}, nil

	case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var out fetchrun.RunOutput
		if err := s.tc.GetWorkflow(ctx, triggerRunID, "").Get(ctx, &out); err != nil {
			return nil, fmt.Errorf("fetch workflow result %s: %w", triggerRunID, err)
		}
		buf, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return &services.RunUpdate{Status: types.RunSucceeded, Outputs: datatypes.JSON(buf)}, nil

	case enums.WORKFLOW_EXECUTION_STATUS_FAILED:
		return s.failureUpdate(ctx, triggerRunID, "workflow failed"), nil
	case enums.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return &services.RunUpdate{Status: types.RunFailed, Error: "workflow timed out"}, nil
	case enums.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return &services.RunUpdate{Status: types.RunFailed, Error: "workflow canceled"}, nil
	case enums.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return &services.RunUpdate{Status: types.RunFailed, Error: "workflow terminated"}, nil
	default:
		return nil, fmt.Errorf("describe %s: unexpected status %s", triggerRunID, info.GetStatus())
	}
}

func (s *Substrate) failureUpdate(ctx context.Context, triggerRunID string, fallback string) *services.RunUpdate {
	update := &services.RunUpdate{Status: types.RunFailed, Error: fallback}
	var out fetchrun.RunOutput
	if err := s.tc.GetWorkflow(ctx, triggerRunID, "").Get(ctx, &out); err != nil {
		update.Error = err.Error()
	}
	return update
}
