package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tribe-inc/tribe/internal/shared/constants"
)

// currentUserID returns the subject placed in the context by the auth middleware.
func currentUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}
