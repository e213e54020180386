package http

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	entitlementUsecases "github.com/tribe-inc/tribe/internal/application/entitlement/usecases"
	paymentUsecases "github.com/tribe-inc/tribe/internal/application/payment/usecases"
	referralUsecases "github.com/tribe-inc/tribe/internal/application/referral/usecases"
	"github.com/tribe-inc/tribe/internal/infrastructure/auth"
	"github.com/tribe-inc/tribe/internal/infrastructure/cache"
	"github.com/tribe-inc/tribe/internal/infrastructure/config"
	"github.com/tribe-inc/tribe/internal/infrastructure/metrics"
	"github.com/tribe-inc/tribe/internal/infrastructure/payment/yookassa"
	"github.com/tribe-inc/tribe/internal/infrastructure/ratelimit"
	"github.com/tribe-inc/tribe/internal/infrastructure/scheduler"
	"github.com/tribe-inc/tribe/internal/infrastructure/telegram"
	"github.com/tribe-inc/tribe/internal/infrastructure/webhook"
	"github.com/tribe-inc/tribe/internal/interfaces/http/handlers"
	"github.com/tribe-inc/tribe/internal/interfaces/http/middleware"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

const paymentRateLimitScope = "payments"

// ============================================================
// Section 1: Infrastructure - Redis, Repositories, Auth, Metrics
// ============================================================

// initInfrastructure initializes Redis, all repositories, auth services,
// metrics and the early middlewares.
func (c *Container) initInfrastructure() error {
	cfg := c.cfg
	log := c.log

	if cfg.Redis.Enabled {
		client, err := initRedis(cfg, log)
		if err != nil {
			return err
		}
		c.redis = client
	}

	c.repos = newRepositories(c.db, log)
	c.ucs = &allUseCases{}

	c.jwtSvc = auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Audience)
	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, log.Named("auth"))

	c.registry = newRegistry()
	c.paymentMetrics = metrics.NewPaymentMetrics(c.registry)
	c.httpMetrics = metrics.NewHTTPMetrics(c.registry)

	// A nil limiter lets every request through.
	var limiter ratelimit.RateLimiter
	if c.redis != nil {
		limiter = ratelimit.NewRedisRateLimiter(c.redis)
	} else {
		log.Warnw("redis disabled, payment rate limiting is off")
	}
	c.paymentLimiter = middleware.NewUserRateLimitMiddleware(limiter, paymentRateLimitScope, ratelimit.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimit.PaymentsPerMinute,
		RequestsPerHour:   cfg.RateLimit.PaymentsPerHour,
	}, log.Named("ratelimit"))

	return nil
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	log.Infow("Redis connection established successfully", "addr", cfg.Redis.GetAddr())

	return redisClient, nil
}

// ============================================================
// Section 2: Entitlement & Referral - Resolver, Cache
// ============================================================

func (c *Container) initEntitlement() {
	log := c.log

	c.ucs.entitlementResolver = entitlementUsecases.NewResolver(c.repos.communityRepo, c.repos.membershipRepo, log)
	if c.redis != nil {
		c.ucs.entitlementResolver.SetCache(cache.NewRedisEntitlementCache(c.redis, log))
	}

	c.ucs.hasFeatureUC = entitlementUsecases.NewHasFeatureUseCase(c.ucs.entitlementResolver, log)
	c.ucs.listFeaturesUC = entitlementUsecases.NewListFeaturesUseCase(c.ucs.entitlementResolver, log)
	c.ucs.computeDiscountUC = referralUsecases.NewComputeDiscountUseCase(c.repos.referralRepo, log)
}

// ============================================================
// Section 3: Payment - Processor, Settlement, Scheduler
// ============================================================

// initPayment wires checkout creation, both settlement paths and the
// pending-transaction expiry scheduler.
func (c *Container) initPayment() {
	cfg := c.cfg
	log := c.log
	repos := c.repos

	processor := yookassa.NewClient(cfg.Payment.YooKassa, log.Named("yookassa"))

	c.ucs.createSubscriptionPaymentUC = paymentUsecases.NewCreateSubscriptionPaymentUseCase(
		repos.transactionRepo,
		repos.communityRepo,
		processor,
		cfg.Frontend.BaseURL,
		cfg.Payment.YooKassa.Timeout,
		log,
	)
	c.ucs.createSubscriptionPaymentUC.SetMetrics(c.paymentMetrics)

	c.ucs.createPortalPaymentUC = paymentUsecases.NewCreatePortalPaymentUseCase(
		repos.transactionRepo,
		repos.portalPlanRepo,
		repos.profileRepo,
		repos.referralRepo,
		processor,
		cfg.Frontend.BaseURL,
		cfg.Payment.YooKassa.Timeout,
		log,
	)
	c.ucs.createPortalPaymentUC.SetMetrics(c.paymentMetrics)

	c.ucs.getTransactionStatusUC = paymentUsecases.NewGetTransactionStatusUseCase(repos.transactionRepo, log)

	c.ucs.settleWebhookPaymentUC = paymentUsecases.NewSettleWebhookPaymentUseCase(
		repos.transactionRepo,
		repos.membershipRepo,
		repos.communityRepo,
		repos.profileRepo,
		repos.txManager,
		log,
	)

	c.ucs.handleProcessorNotificationUC = paymentUsecases.NewHandleProcessorNotificationUseCase(
		repos.transactionRepo,
		repos.membershipRepo,
		repos.communityRepo,
		repos.profileRepo,
		processor,
		repos.txManager,
		cfg.Payment.YooKassa.Timeout,
		log,
	)

	var notifier paymentUsecases.SettlementNotifier
	if bot := telegram.NewBotService(cfg.Telegram); bot != nil {
		notifier = telegram.NewSettlementNotifier(bot, log.Named("telegram"))
	} else {
		log.Infow("telegram bot token not set, settlement messages disabled")
	}

	for _, effects := range []interface {
		SetCacheInvalidator(paymentUsecases.EntitlementCacheInvalidator)
		SetNotifier(paymentUsecases.SettlementNotifier)
		SetMetrics(paymentUsecases.Metrics)
	}{c.ucs.settleWebhookPaymentUC, c.ucs.handleProcessorNotificationUC} {
		effects.SetMetrics(c.paymentMetrics)
		if notifier != nil {
			effects.SetNotifier(notifier)
		}
		if c.redis != nil {
			effects.SetCacheInvalidator(cache.NewRedisEntitlementCache(c.redis, log))
		}
	}

	c.ucs.expirePendingTransactionsUC = paymentUsecases.NewExpirePendingTransactionsUseCase(
		repos.transactionRepo,
		c.ucs.handleProcessorNotificationUC,
		cfg.Payment.PendingTTL,
		log,
	)
	c.ucs.expirePendingTransactionsUC.SetMetrics(c.paymentMetrics)

	c.paymentScheduler = scheduler.NewPaymentScheduler(
		c.ucs.expirePendingTransactionsUC,
		cfg.Payment.ExpiryInterval,
		log.Named("payment-scheduler"),
	)
}

// ============================================================
// Section 4: Handlers
// ============================================================

func (c *Container) initHandlers() {
	cfg := c.cfg
	log := c.log
	ucs := c.ucs

	c.hdlrs = &allHandlers{
		paymentHandler: handlers.NewPaymentHandler(
			ucs.createSubscriptionPaymentUC,
			ucs.createPortalPaymentUC,
			ucs.getTransactionStatusUC,
			ucs.handleProcessorNotificationUC,
			handlers.WaitConfig{
				Interval:    cfg.Payment.PollInterval,
				MaxAttempts: cfg.Payment.PollMaxAttempts,
				Timeout:     cfg.Payment.WaitTimeout,
			},
			log,
		),
		webhookHandler: handlers.NewWebhookHandler(
			webhook.NewSignatureVerifier(cfg.Webhook.Secret),
			cfg.Webhook.SignatureHeader,
			ucs.settleWebhookPaymentUC,
			log,
		),
		featureHandler:  handlers.NewFeatureHandler(ucs.listFeaturesUC, ucs.hasFeatureUC, log),
		referralHandler: handlers.NewReferralHandler(ucs.computeDiscountUC, log),
		healthHandler:   handlers.NewHealthHandler(c.healthChecks(), log),
	}
}

func (c *Container) healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}
	return checks
}
