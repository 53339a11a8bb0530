package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Agent run statuses. queued -> running -> {succeeded | failed}; terminal
// states are sticky.
const (
	RunQueued    = "queued"
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Agent run kinds.
const (
	RunKindJobFetch   = "job_fetch"
	RunKindEnrichment = "enrichment"
	RunKindRescore    = "rescore"
)

// AgentRun tracks one asynchronous orchestration invocation. Inputs are frozen
// at creation; TriggerRunID correlates to the task-execution substrate once
// the handoff happened.
type AgentRun struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind         string         `gorm:"column:kind;not null;index" json:"kind"`
	Status       string         `gorm:"column:status;not null;default:'queued';index" json:"status"`
	TriggerRunID string         `gorm:"column:trigger_run_id;index" json:"trigger_run_id,omitempty"`
	Inputs       datatypes.JSON `gorm:"column:inputs;type:jsonb;not null" json:"inputs"`
	Outputs      datatypes.JSON `gorm:"column:outputs;type:jsonb" json:"outputs,omitempty"`
	Error        string         `gorm:"column:error" json:"error,omitempty"`
	StartedAt    *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt   *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (AgentRun) TableName() string { return "agent_run" }

// RunTerminal reports whether a run status is terminal.
func RunTerminal(status string) bool {
	return status == RunSucceeded || status == RunFailed
}

// ValidRunTransition reports whether a run status move is allowed.
func ValidRunTransition(from, to string) bool {
	switch from {
	case RunQueued:
		return to == RunRunning || to == RunFailed
	case RunRunning:
		return to == RunSucceeded || to == RunFailed
	default:
		return false
	}
}
