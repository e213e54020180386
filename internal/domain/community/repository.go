package community

import "context"

// Repository reads communities, their tiers and administrative roles.
// Lookups return nil, nil when the row does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Community, error)
	GetTier(ctx context.Context, tierID string) (*Tier, error)
	GetTierByExternalID(ctx context.Context, externalID int64) (*Tier, error)
	GetRole(ctx context.Context, communityID, userID string) (Role, error)
}
