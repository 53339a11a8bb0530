package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/services"
)

type RecomputeHandler struct {
	queue     repos.RecomputeRepo
	recompute services.RecomputeService
}

func NewRecomputeHandler(queue repos.RecomputeRepo, recompute services.RecomputeService) *RecomputeHandler {
	return &RecomputeHandler{queue: queue, recompute: recompute}
}

// GET /api/recompute/stats
func (h *RecomputeHandler) Stats(c *gin.Context) {
	dbc := dbctx.With(c.Request.Context())
	stats := gin.H{}
	for _, status := range []string{
		types.RecomputePending, types.RecomputeProcessing,
		types.RecomputeCompleted, types.RecomputeFailed,
	} {
		n, err := h.queue.CountByStatus(dbc, status)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "queue_stats_failed", err)
			return
		}
		stats[status] = n
	}
	RespondOK(c, gin.H{"queue": stats})
}

// GET /api/recompute/items/:id
func (h *RecomputeHandler) GetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_item_id", err)
		return
	}
	item, err := h.queue.GetByID(dbctx.With(c.Request.Context()), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "item_lookup_failed", err)
		return
	}
	if item == nil {
		RespondError(c, http.StatusNotFound, "item_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"item": item})
}

// POST /api/recompute/sweep/:userID
func (h *RecomputeHandler) Sweep(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	created, err := h.recompute.EnqueueStaleArtifacts(dbctx.With(c.Request.Context()), userID, intQuery(c, "limit", 100))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "sweep_failed", err)
		return
	}
	RespondOK(c, gin.H{"queued": len(created), "items": created})
}
