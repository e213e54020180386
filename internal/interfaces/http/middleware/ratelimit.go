package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tribe-inc/tribe/internal/infrastructure/ratelimit"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
	"github.com/tribe-inc/tribe/internal/shared/utils"
)

// UserRateLimitMiddleware limits requests per authenticated user. It must
// run after RequireAuth.
type UserRateLimitMiddleware struct {
	limiter ratelimit.RateLimiter
	config  ratelimit.RateLimitConfig
	scope   string
	logger  logger.Interface
}

func NewUserRateLimitMiddleware(
	limiter ratelimit.RateLimiter,
	scope string,
	config ratelimit.RateLimitConfig,
	logger logger.Interface,
) *UserRateLimitMiddleware {
	return &UserRateLimitMiddleware{
		limiter: limiter,
		config:  config,
		scope:   scope,
		logger:  logger,
	}
}

// Limit enforces the configured windows. A nil limiter or a Redis failure
// lets the request through.
func (m *UserRateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || m.limiter == nil {
			c.Next()
			return
		}

		userID, ok := UserID(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := m.scope + ":user:" + userID

		allowed, err := m.limiter.Allow(ctx, key, m.config)
		if err != nil {
			m.logger.Warnw("rate limit check failed, allowing request",
				"error", err,
				"user_id", userID,
			)
			c.Next()
			return
		}

		if m.config.RequestsPerMinute > 0 {
			limit := int64(m.config.RequestsPerMinute)
			remaining, err := m.limiter.GetRemaining(ctx, key, time.Minute, m.config.RequestsPerMinute)
			if err != nil {
				remaining = 0
			}
			c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(remaining, 0), 10))
		}

		if !allowed {
			m.logger.Warnw("rate limit exceeded",
				"user_id", userID,
				"scope", m.scope,
			)
			c.Header("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
			utils.ErrorResponseWithError(c, apperrors.NewRateLimitedError("Too many payment attempts, please try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}
