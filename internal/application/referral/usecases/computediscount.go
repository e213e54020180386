package usecases

import (
	"context"
	"fmt"

	"github.com/tribe-inc/tribe/internal/domain/referral"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

type ComputeDiscountUseCase struct {
	referralRepo referral.Repository
	logger       logger.Interface
}

func NewComputeDiscountUseCase(referralRepo referral.Repository, logger logger.Interface) *ComputeDiscountUseCase {
	return &ComputeDiscountUseCase{
		referralRepo: referralRepo,
		logger:       logger,
	}
}

// Execute recomputes the user's referral summary from the stats view.
func (uc *ComputeDiscountUseCase) Execute(ctx context.Context, userID string) (*referral.Summary, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("Authentication required")
	}

	stats, err := uc.referralRepo.ListByReferrer(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to list referral stats", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list referral stats: %w", err)
	}

	summary := referral.Summarize(stats)
	return &summary, nil
}
