package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Authenticate(token string) (string, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

const tokenHeader = "x-auth-token"

// RequireAuth accepts the token in x-auth-token or as a Bearer credential.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":      "unauthorized",
					"message":   "No token, authorization denied",
					"requestId": c.GetString(CtxRequestID),
				},
			})
			return
		}

		userID, err := m.tokens.Authenticate(raw)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":      "unauthorized",
					"message":   "Token is not valid",
					"requestId": c.GetString(CtxRequestID),
				},
			})
			return
		}

		SetUserID(c, userID)

		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if tok := strings.TrimSpace(c.GetHeader(tokenHeader)); tok != "" {
		return tok
	}

	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// SetUserID stores the authenticated user id on the context.
func SetUserID(c *gin.Context, userID string) {
	c.Set(ctxUserIDKey, userID)
}

// UserIDFromContext returns the id RequireAuth stored, and false on routes
// that are not behind it.
func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
