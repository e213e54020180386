package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tribe-inc/tribe/internal/infrastructure/auth"
	"github.com/tribe-inc/tribe/internal/shared/constants"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
	"github.com/tribe-inc/tribe/internal/shared/utils"
)

type AuthMiddleware struct {
	jwtService *auth.JWTService
	logger     logger.Interface
}

func NewAuthMiddleware(jwtService *auth.JWTService, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     logger,
	}
}

// RequireAuth accepts "Authorization: Bearer <jwt>" and stores the subject
// under constants.ContextKeyUserID. Every failure gets the same response.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader(constants.HeaderAuthorization))
		if token == "" {
			unauthorized(c)
			return
		}

		claims, err := m.jwtService.Verify(token)
		if err != nil {
			m.logger.Warnw("failed to verify token", "error", err, "path", c.Request.URL.Path)
			unauthorized(c)
			return
		}

		c.Set(constants.ContextKeyUserID, claims.UserID())
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context) {
	utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Authentication required"))
	c.Abort()
}

// UserID returns the authenticated subject set by RequireAuth.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(constants.ContextKeyUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
