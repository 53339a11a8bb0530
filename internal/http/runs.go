package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/services"
)

type RunsHandler struct {
	runs services.RunService
}

func NewRunsHandler(runs services.RunService) *RunsHandler {
	return &RunsHandler{runs: runs}
}

type startRunRequest struct {
	UserID    uuid.UUID `json:"user_id" binding:"required"`
	Kind      string    `json:"kind" binding:"required"`
	Tightness string    `json:"tightness"`
	BatchSize int       `json:"batch_size"`
}

// POST /api/runs
func (h *RunsHandler) Start(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	inputs, err := json.Marshal(map[string]any{
		"user_id":    req.UserID,
		"tightness":  req.Tightness,
		"batch_size": req.BatchSize,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "encode_inputs_failed", err)
		return
	}
	run, err := h.runs.Start(dbctx.With(c.Request.Context()), req.UserID, req.Kind, datatypes.JSON(inputs))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "run_start_failed", err)
		return
	}
	RespondCreated(c, gin.H{"run": run})
}

// GET /api/runs/:id
func (h *RunsHandler) Get(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.runs.Refresh(dbctx.With(c.Request.Context()), runID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "run_lookup_failed", err)
		return
	}
	if run == nil {
		RespondError(c, http.StatusNotFound, "run_not_found", errors.New("run not found"))
		return
	}
	RespondOK(c, gin.H{"run": run})
}

// GET /api/users/:userID/runs
func (h *RunsHandler) ListByUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	runs, err := h.runs.ListByUser(dbctx.With(c.Request.Context()), userID, intQuery(c, "limit", 50))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "run_list_failed", err)
		return
	}
	RespondOK(c, gin.H{"runs": runs})
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
