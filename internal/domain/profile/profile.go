package profile

import "context"

// Profile is a platform user. ID equals the auth token subject.
type Profile struct {
	ID             string
	TelegramUserID *int64
	DisplayName    string
	PortalPlanID   *string
	ReferredBy     *string
}

// Repository reads profiles and writes the portal subscription reference.
// Lookups return nil, nil when the profile does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByTelegramUserID(ctx context.Context, telegramUserID int64) (*Profile, error)

	// SetPortalPlan points the profile at planID in one write. It returns
	// false when the profile does not exist.
	SetPortalPlan(ctx context.Context, userID, planID string) (bool, error)
}
