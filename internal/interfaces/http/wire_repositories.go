package http

import (
	"gorm.io/gorm"

	"github.com/tribe-inc/tribe/internal/infrastructure/repository"
	shareddb "github.com/tribe-inc/tribe/internal/shared/db"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

// repositories holds all repository instances.
type repositories struct {
	transactionRepo *repository.TransactionRepository
	membershipRepo  *repository.MembershipRepository
	communityRepo   *repository.CommunityRepository
	profileRepo     *repository.ProfileRepository
	portalPlanRepo  *repository.PortalPlanRepository
	referralRepo    *repository.ReferralRepository
	txManager       *shareddb.TransactionManager
}

// newRepositories creates all repository instances from the database connection.
func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		transactionRepo: repository.NewTransactionRepository(db, log),
		membershipRepo:  repository.NewMembershipRepository(db),
		communityRepo:   repository.NewCommunityRepository(db),
		profileRepo:     repository.NewProfileRepository(db),
		portalPlanRepo:  repository.NewPortalPlanRepository(db),
		referralRepo:    repository.NewReferralRepository(db),
		txManager:       shareddb.NewTransactionManager(db),
	}
}
