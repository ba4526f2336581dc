package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gip-inclusion/dora-api/internal/dto"
	"github.com/gip-inclusion/dora-api/internal/models"
	appErrors "github.com/gip-inclusion/dora-api/pkg/errors"
	"github.com/gip-inclusion/dora-api/pkg/response"
)

type orientationService interface {
	Create(ctx context.Context, req dto.CreateOrientationRequest, actor *models.JWTClaims) (*models.Orientation, error)
	Get(ctx context.Context, queryID string) (*models.Orientation, error)
	Accept(ctx context.Context, queryID string, req dto.ValidateOrientationRequest) (*models.Orientation, error)
	Reject(ctx context.Context, queryID string, req dto.RejectOrientationRequest) (*models.Orientation, error)
}

type contactService interface {
	ContactBeneficiary(ctx context.Context, queryID string, req dto.ContactBeneficiaryRequest) (*models.SentContactEmail, error)
	ContactPrescriber(ctx context.Context, queryID string, req dto.ContactPrescriberRequest) (*models.SentContactEmail, error)
}

// OrientationHandler exposes the orientation lifecycle and the contact relay.
// Everything after creation is addressed by the capability id in the URL.
type OrientationHandler struct {
	service  orientationService
	contacts contactService
}

// NewOrientationHandler constructs the handler.
func NewOrientationHandler(service orientationService, contacts contactService) *OrientationHandler {
	return &OrientationHandler{service: service, contacts: contacts}
}

// Create godoc
// @Summary Submit an orientation
// @Description Creates a PENDING orientation for the authenticated prescriber and notifies the target structure.
// @Tags Orientations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateOrientationRequest true "Orientation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /orientations [post]
func (h *OrientationHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "orientation service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateOrientationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "demande d’orientation invalide"))
		return
	}
	orientation, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, orientation)
}

// Get godoc
// @Summary Get an orientation
// @Tags Orientations
// @Produce json
// @Param query_id path string true "Orientation capability id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /orientations/{query_id} [get]
func (h *OrientationHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "orientation service not configured"))
		return
	}
	orientation, err := h.service.Get(c.Request.Context(), queryID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orientation)
}

// Validate godoc
// @Summary Accept an orientation
// @Tags Orientations
// @Accept json
// @Param query_id path string true "Orientation capability id"
// @Param payload body dto.ValidateOrientationRequest false "Messages for the prescriber and the beneficiary"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /orientations/{query_id}/validate [post]
func (h *OrientationHandler) Validate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "orientation service not configured"))
		return
	}
	var req dto.ValidateOrientationRequest
	if err := bindOptional(c, &req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "données invalides"))
		return
	}
	if _, err := h.service.Accept(c.Request.Context(), queryID(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reject godoc
// @Summary Reject an orientation
// @Tags Orientations
// @Accept json
// @Param query_id path string true "Orientation capability id"
// @Param payload body dto.RejectOrientationRequest false "Message and rejection reason codes"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /orientations/{query_id}/reject [post]
func (h *OrientationHandler) Reject(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "orientation service not configured"))
		return
	}
	var req dto.RejectOrientationRequest
	if err := bindOptional(c, &req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "données invalides"))
		return
	}
	if _, err := h.service.Reject(c.Request.Context(), queryID(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ContactBeneficiary godoc
// @Summary Send a message to the beneficiary
// @Tags Orientations
// @Accept json
// @Param query_id path string true "Orientation capability id"
// @Param payload body dto.ContactBeneficiaryRequest true "Message and carbon copy flags"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /orientations/{query_id}/contact/beneficiary [post]
func (h *OrientationHandler) ContactBeneficiary(c *gin.Context) {
	if h.contacts == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "contact service not configured"))
		return
	}
	var req dto.ContactBeneficiaryRequest
	if err := bindOptional(c, &req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "données invalides"))
		return
	}
	if _, err := h.contacts.ContactBeneficiary(c.Request.Context(), queryID(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ContactPrescriber godoc
// @Summary Send a message to the prescriber
// @Tags Orientations
// @Accept json
// @Param query_id path string true "Orientation capability id"
// @Param payload body dto.ContactPrescriberRequest true "Message and carbon copy flags"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /orientations/{query_id}/contact/prescriber [post]
func (h *OrientationHandler) ContactPrescriber(c *gin.Context) {
	if h.contacts == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "contact service not configured"))
		return
	}
	var req dto.ContactPrescriberRequest
	if err := bindOptional(c, &req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "données invalides"))
		return
	}
	if _, err := h.contacts.ContactPrescriber(c.Request.Context(), queryID(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Forbidden answers the update and delete verbs: orientations only change through their actions.
func (h *OrientationHandler) Forbidden(c *gin.Context) {
	response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "une orientation ne peut être ni modifiée ni supprimée"))
}

func queryID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("query_id"))
}

// bindOptional binds JSON or form bodies; an empty body leaves req at its zero value.
func bindOptional(c *gin.Context, req interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBind(req)
}
