package migration

import (
	"github.com/tribe-inc/tribe/internal/infrastructure/persistence/models"
)

// ReferralStatsViewSQL derives one row per referred profile. A referred user
// is paying once any of their transactions settled.
const ReferralStatsViewSQL = `CREATE VIEW referral_stats AS
SELECT p.referred_by AS referrer_id,
       p.id AS referred_id,
       EXISTS (
           SELECT 1 FROM transactions t
           WHERE t.user_id = p.id AND t.status IN ('paid', 'succeeded')
       ) AS is_paying
FROM profiles p
WHERE p.referred_by IS NOT NULL`

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.CommunityModel{},
		&models.CommunityModeratorModel{},
		&models.SubscriptionTierModel{},
		&models.ProfileModel{},
		&models.PortalPlanModel{},
		&models.MembershipModel{},
		&models.TransactionModel{},
	}
}
