package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JadeHendricks/mern-devconnector/internal/auth"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/profile"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
	"github.com/JadeHendricks/mern-devconnector/internal/github"
	"github.com/JadeHendricks/mern-devconnector/internal/service"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

// RespondNotFound answers 400, which is what existing clients of this API
// expect for a missing profile or entry.
func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, "not_found", message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// respondServiceError maps service and store errors onto the API error body.
// Anything unrecognised is a 500 with a generic message.
func respondServiceError(ctx *gin.Context, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": verr.Fields})
	case errors.Is(err, user.ErrEmailTaken):
		RespondError(ctx, http.StatusBadRequest, "user_exists", "User already exists", nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		RespondError(ctx, http.StatusBadRequest, "invalid_credentials", "Invalid credentials", nil)
	case errors.Is(err, auth.ErrInvalidToken):
		RespondUnAuthorized(ctx, "unauthorized", "Token is not valid")
	case errors.Is(err, profile.ErrNotFound):
		RespondNotFound(ctx, "There is no profile for this user")
	case errors.Is(err, profile.ErrEntryNotFound):
		RespondNotFound(ctx, "Entry not found")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, github.ErrUpstream):
		RespondError(ctx, http.StatusBadRequest, "no_github_profile", "No Github profile found", nil)
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
			"err", err,
		)
		RespondInternal(ctx, "Server Error")
	}
}
