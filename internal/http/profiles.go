package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentloop/talentloop-backend/internal/data/repos"
	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/pkg/dbctx"
	"github.com/talentloop/talentloop-backend/internal/services"
)

type ProfilesHandler struct {
	profiles services.ProfileService
	specs    services.SearchSpecService
	scores   repos.JobScoreRepo
}

func NewProfilesHandler(profiles services.ProfileService, specs services.SearchSpecService, scores repos.JobScoreRepo) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, specs: specs, scores: scores}
}

type registerProfileRequest struct {
	TeamID     uuid.UUID        `json:"team_id" binding:"required"`
	UserID     uuid.UUID        `json:"user_id" binding:"required"`
	Headline   string           `json:"headline"`
	Normalized types.Normalized `json:"normalized" binding:"required"`
}

// POST /api/profiles
func (h *ProfilesHandler) Register(c *gin.Context) {
	var req registerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	created, err := h.profiles.Register(dbctx.With(c.Request.Context()), &types.FreelancerProfile{
		TeamID:   req.TeamID,
		UserID:   req.UserID,
		Headline: req.Headline,
	}, req.Normalized)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "profile_create_failed", err)
		return
	}
	RespondCreated(c, gin.H{"profile": created})
}

// GET /api/profiles/:userID
func (h *ProfilesHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	prof, err := h.profiles.Get(dbctx.With(c.Request.Context()), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "profile_lookup_failed", err)
		return
	}
	if prof == nil {
		RespondError(c, http.StatusNotFound, "profile_not_found", errors.New("profile not found"))
		return
	}
	RespondOK(c, gin.H{"profile": prof})
}

type updateProfileRequest struct {
	FromVersion int              `json:"from_version" binding:"required"`
	Normalized  types.Normalized `json:"normalized" binding:"required"`
}

// PUT /api/profiles/:userID
func (h *ProfilesHandler) Update(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	updated, err := h.profiles.Update(dbctx.With(c.Request.Context()), userID, req.FromVersion, req.Normalized)
	if err != nil {
		if errors.Is(err, repos.ErrVersionConflict) {
			RespondError(c, http.StatusConflict, "version_conflict", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "profile_update_failed", err)
		return
	}
	RespondOK(c, gin.H{"profile": updated})
}

// GET /api/profiles/:userID/spec
func (h *ProfilesHandler) GetSpec(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	spec, err := h.specs.GetOrGenerate(dbctx.With(c.Request.Context()), userID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidGenerationOutput) {
			RespondError(c, http.StatusBadGateway, "spec_generation_failed", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "spec_lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{"spec": spec})
}

// GET /api/profiles/:userID/scores
func (h *ProfilesHandler) ListScores(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	prof, err := h.profiles.Get(dbctx.With(c.Request.Context()), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "profile_lookup_failed", err)
		return
	}
	if prof == nil {
		RespondError(c, http.StatusNotFound, "profile_not_found", errors.New("profile not found"))
		return
	}

	tightness := c.DefaultQuery("tightness", "balanced")
	limit := intQuery(c, "limit", 50)
	scores, err := h.scores.ListLive(dbctx.With(c.Request.Context()), userID, prof.ProfileVersion, tightness, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "score_lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"profile_version": prof.ProfileVersion,
		"tightness":       tightness,
		"scores":          scores,
	})
}
