package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JadeHendricks/mern-devconnector/internal/domain/profile"
	"github.com/JadeHendricks/mern-devconnector/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProfileManager interface {
	GetOwn(ctx context.Context, userID string) (profile.Profile, error)
	List(ctx context.Context) ([]profile.Profile, error)
	GetByUser(ctx context.Context, userID string) (profile.Profile, error)
	Upsert(ctx context.Context, userID string, req profile.UpsertRequest) (profile.Profile, error)
	DeleteAccount(ctx context.Context, userID string) error
	AddExperience(ctx context.Context, userID string, req profile.ExperienceRequest) (profile.Profile, error)
	RemoveExperience(ctx context.Context, userID, entryID string) (profile.Profile, error)
	AddEducation(ctx context.Context, userID string, req profile.EducationRequest) (profile.Profile, error)
	RemoveEducation(ctx context.Context, userID, entryID string) (profile.Profile, error)
	ListRepos(ctx context.Context, username string) ([]json.RawMessage, error)
}

type ProfileHandler struct {
	profiles ProfileManager
}

func NewProfileHandler(profiles ProfileManager) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// callerID reads the id set by the auth middleware. Routes using it are
// always mounted behind RequireAuth, so a miss is answered like a missing
// token.
func callerID(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok || id == "" {
		RespondUnAuthorized(ctx, "unauthorized", "No token, authorization denied")
		return "", false
	}
	return id, true
}

func (h *ProfileHandler) Me(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	p, err := h.profiles.GetOwn(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) List(ctx *gin.Context) {
	out, err := h.profiles.List(ctx.Request.Context())
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, out)
}

func (h *ProfileHandler) GetByUser(ctx *gin.Context) {
	p, err := h.profiles.GetByUser(ctx.Request.Context(), ctx.Param("user_id"))
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			RespondNotFound(ctx, "Profile not found")
			return
		}
		respondServiceError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

// Upsert creates the caller's profile or updates the fields present in the
// body.
func (h *ProfileHandler) Upsert(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req profile.UpsertRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.profiles.Upsert(ctx.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Delete(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	if err := h.profiles.DeleteAccount(ctx.Request.Context(), userID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"msg": "User deleted"})
}

func (h *ProfileHandler) AddExperience(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req profile.ExperienceRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.profiles.AddExperience(ctx.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) RemoveExperience(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	p, err := h.profiles.RemoveExperience(ctx.Request.Context(), userID, ctx.Param("exp_id"))
	if err != nil {
		if errors.Is(err, profile.ErrEntryNotFound) {
			RespondNotFound(ctx, "Experience not found")
			return
		}
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) AddEducation(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req profile.EducationRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := h.profiles.AddEducation(ctx.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) RemoveEducation(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	p, err := h.profiles.RemoveEducation(ctx.Request.Context(), userID, ctx.Param("edu_id"))
	if err != nil {
		if errors.Is(err, profile.ErrEntryNotFound) {
			RespondNotFound(ctx, "Education not found")
			return
		}
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// GitHubRepos returns the user's latest public repositories as GitHub sent
// them.
func (h *ProfileHandler) GitHubRepos(ctx *gin.Context) {
	repos, err := h.profiles.ListRepos(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, repos)
}
