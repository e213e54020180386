package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tribe-inc/tribe/internal/infrastructure/auth"
	"github.com/tribe-inc/tribe/internal/infrastructure/config"
	"github.com/tribe-inc/tribe/internal/infrastructure/metrics"
	"github.com/tribe-inc/tribe/internal/infrastructure/scheduler"
	"github.com/tribe-inc/tribe/internal/interfaces/http/middleware"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// Container holds the infrastructure components, repositories, use cases,
// handlers and background services, and wires them together.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	// Repositories
	repos *repositories

	// Use cases
	ucs *allUseCases

	// Handlers
	hdlrs *allHandlers

	// Middlewares
	authMiddleware *middleware.AuthMiddleware
	paymentLimiter *middleware.UserRateLimitMiddleware

	jwtSvc *auth.JWTService

	// Metrics
	registry       *prometheus.Registry
	paymentMetrics *metrics.PaymentMetrics
	httpMetrics    *metrics.HTTPMetrics

	// Background services
	paymentScheduler *scheduler.PaymentScheduler
}

// NewContainer creates a Container with all dependencies wired together.
// Redis is only dialed when enabled in config; a failed ping is returned as an error.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	// Section 1: Infrastructure - Redis, Repositories, Auth, Metrics
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Entitlement & Referral - Resolver, Cache
	c.initEntitlement()

	// Section 3: Payment - Processor, Settlement, Scheduler
	c.initPayment()

	// Section 4: Handlers
	c.initHandlers()

	return c, nil
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// GetEngine returns the Gin engine
func (c *Container) GetEngine() *gin.Engine {
	return c.engine
}

// StartPaymentScheduler starts the pending-transaction expiry loop.
func (c *Container) StartPaymentScheduler(ctx context.Context) {
	if c.paymentScheduler != nil {
		c.paymentScheduler.Start(ctx)
	}
}

// Shutdown stops background services and closes the Redis client.
// The database connection is owned by the caller.
func (c *Container) Shutdown() {
	if c.paymentScheduler != nil {
		c.paymentScheduler.Stop()
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}

	c.log.Infow("container shut down")
}
