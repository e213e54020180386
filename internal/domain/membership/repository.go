package membership

import "context"

type Repository interface {
	// Upsert inserts the membership or, when (user, community) already exists,
	// overwrites tier, status, timestamps and external subscription id in a
	// single statement.
	Upsert(ctx context.Context, m *Membership) error

	// GetByUserAndCommunity returns nil, nil when there is no row.
	GetByUserAndCommunity(ctx context.Context, userID, communityID string) (*Membership, error)

	// UpdateStatus changes the stored status of the (user, community) row.
	// It reports false when no row exists.
	UpdateStatus(ctx context.Context, userID, communityID string, status Status) (bool, error)
}
