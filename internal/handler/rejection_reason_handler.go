package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gip-inclusion/dora-api/internal/middleware"
	"github.com/gip-inclusion/dora-api/internal/models"
	appErrors "github.com/gip-inclusion/dora-api/pkg/errors"
	"github.com/gip-inclusion/dora-api/pkg/response"
)

type rejectionReasonService interface {
	Catalogue(ctx context.Context) ([]models.RejectionReason, bool, error)
}

// RejectionReasonHandler serves the rejection reason catalogue.
type RejectionReasonHandler struct {
	service rejectionReasonService
}

// NewRejectionReasonHandler constructs the handler.
func NewRejectionReasonHandler(service rejectionReasonService) *RejectionReasonHandler {
	return &RejectionReasonHandler{service: service}
}

// List godoc
// @Summary List rejection reasons
// @Tags Orientations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /orientations-rejection-reasons [get]
func (h *RejectionReasonHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "rejection reason service not configured"))
		return
	}
	reasons, cacheHit, err := h.service.Catalogue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, reasons, middleware.ExtractMeta(c))
}
