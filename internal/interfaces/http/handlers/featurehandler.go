package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	entitlementUsecases "github.com/tribe-inc/tribe/internal/application/entitlement/usecases"
	apperrors "github.com/tribe-inc/tribe/internal/shared/errors"
	"github.com/tribe-inc/tribe/internal/shared/logger"
	"github.com/tribe-inc/tribe/internal/shared/utils"
)

type listFeaturesUseCase interface {
	Execute(ctx context.Context, query entitlementUsecases.ListFeaturesQuery) (*entitlementUsecases.FeatureAccessDTO, error)
}

type hasFeatureUseCase interface {
	Execute(ctx context.Context, query entitlementUsecases.HasFeatureQuery) (*entitlementUsecases.HasFeatureResult, error)
}

// FeatureHandler answers gated-feature questions for the calling user.
type FeatureHandler struct {
	listFeaturesUC listFeaturesUseCase
	hasFeatureUC   hasFeatureUseCase
	logger         logger.Interface
}

func NewFeatureHandler(listFeaturesUC listFeaturesUseCase, hasFeatureUC hasFeatureUseCase, logger logger.Interface) *FeatureHandler {
	return &FeatureHandler{
		listFeaturesUC: listFeaturesUC,
		hasFeatureUC:   hasFeatureUC,
		logger:         logger,
	}
}

// ListFeatures handles GET /communities/:id/features
func (h *FeatureHandler) ListFeatures(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return
	}

	result, err := h.listFeaturesUC.Execute(c.Request.Context(), entitlementUsecases.ListFeaturesQuery{
		UserID:      userID,
		CommunityID: c.Param("id"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// HasFeature handles GET /communities/:id/features/:feature
func (h *FeatureHandler) HasFeature(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return
	}

	result, err := h.hasFeatureUC.Execute(c.Request.Context(), entitlementUsecases.HasFeatureQuery{
		UserID:      userID,
		CommunityID: c.Param("id"),
		Feature:     c.Param("feature"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
