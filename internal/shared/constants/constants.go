package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	ContentTypeJSON = "application/json"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"

	// Database table names
	TableTransactions        = "transactions"
	TableMemberships         = "memberships"
	TableCommunities         = "communities"
	TableCommunityModerators = "community_moderators"
	TableSubscriptionTiers   = "subscription_tiers"
	TableProfiles            = "profiles"
	TablePortalPlans         = "portal_plans"
	ViewReferralStats        = "referral_stats"

	DefaultCurrency = "RUB"

	// MaxWebhookBodyBytes bounds the raw webhook body read before verification.
	MaxWebhookBodyBytes = 1 << 20
)
