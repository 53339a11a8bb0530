package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/talentloop/talentloop-backend/internal/services"
)

// disabledSubstrate stands in when TEMPORAL_ADDRESS is unset: triggering a run
// fails immediately, so the run lands failed with a clear dispatch error
// instead of hanging queued.
type disabledSubstrate struct{}

func (disabledSubstrate) Trigger(context.Context, string, uuid.UUID, datatypes.JSON) (string, error) {
	return "", fmt.Errorf("task substrate disabled: TEMPORAL_ADDRESS not set")
}

func (disabledSubstrate) Retrieve(context.Context, string, string) (*services.RunUpdate, error) {
	return nil, fmt.Errorf("task substrate disabled: TEMPORAL_ADDRESS not set")
}
