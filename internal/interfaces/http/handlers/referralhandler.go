package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tribe-inc/tribe/internal/domain/referral"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
	"github.com/tribe-inc/tribe/internal/shared/utils"
)

type computeDiscountUseCase interface {
	Execute(ctx context.Context, userID string) (*referral.Summary, error)
}

type ReferralHandler struct {
	computeDiscountUC computeDiscountUseCase
	logger            logger.Interface
}

func NewReferralHandler(computeDiscountUC computeDiscountUseCase, logger logger.Interface) *ReferralHandler {
	return &ReferralHandler{
		computeDiscountUC: computeDiscountUC,
		logger:            logger,
	}
}

// GetDiscount handles GET /referrals/discount
func (h *ReferralHandler) GetDiscount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return
	}

	summary, err := h.computeDiscountUC.Execute(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to compute referral discount", "error", err, "user_id", userID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}
