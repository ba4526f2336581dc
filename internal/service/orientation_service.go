package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gip-inclusion/dora-api/internal/dto"
	"github.com/gip-inclusion/dora-api/internal/models"
	"github.com/gip-inclusion/dora-api/internal/repository"
	appErrors "github.com/gip-inclusion/dora-api/pkg/errors"
)

type orientationStore interface {
	Create(ctx context.Context, orientation *models.Orientation) error
	GetByQueryID(ctx context.Context, queryID string) (*models.Orientation, error)
	Transition(ctx context.Context, params repository.TransitionParams) error
}

type orientationNotifier interface {
	Notify(ctx context.Context, kind NotificationKind, orientation *models.Orientation, data NotificationData)
}

type reasonResolver interface {
	Resolve(ctx context.Context, codes []string) ([]models.RejectionReason, error)
}

// OrientationService drives the orientation lifecycle: PENDING then ACCEPTED or REJECTED, once.
type OrientationService struct {
	repo      orientationStore
	refs      referenceStore
	reasons   reasonResolver
	notifier  orientationNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// OrientationServiceOption configures the service.
type OrientationServiceOption func(*OrientationService)

// WithOrientationClock overrides the clock used for processing dates.
func WithOrientationClock(now func() time.Time) OrientationServiceOption {
	return func(s *OrientationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOrientationService constructs the service.
func NewOrientationService(repo orientationStore, refs referenceStore, reasons reasonResolver, notifier orientationNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, opts ...OrientationServiceOption) *OrientationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &OrientationService{
		repo:      repo,
		refs:      refs,
		reasons:   reasons,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create records a new PENDING orientation on behalf of the authenticated prescriber.
func (s *OrientationService) Create(ctx context.Context, req dto.CreateOrientationRequest, actor *models.JWTClaims) (*models.Orientation, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	req = trimCreateRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "demande d’orientation invalide")
	}

	prescriber, err := s.refs.GetUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "utilisateur inconnu")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de charger le prescripteur")
	}
	structure, err := s.lookupStructure(ctx, req.StructureSlug)
	if err != nil {
		return nil, err
	}

	orientation := &models.Orientation{
		PrescriberID:         prescriber.ID,
		StructureSlug:        structure.Slug,
		BeneficiaryFirstName: req.BeneficiaryFirstName,
		BeneficiaryLastName:  req.BeneficiaryLastName,
		BeneficiaryEmail:     req.BeneficiaryEmail,
		BeneficiaryPhone:     req.BeneficiaryPhone,
		ReferentFirstName:    req.ReferentFirstName,
		ReferentLastName:     req.ReferentLastName,
		ReferentEmail:        req.ReferentEmail,
		ReferentPhone:        req.ReferentPhone,
		Situation:            req.Situation,
		Requirements:         req.Requirements,
		OrientationReasons:   req.OrientationReasons,
		Status:               models.OrientationStatusPending,
		CreationDate:         s.now().UTC(),
		RejectionReasons:     []string{},
		Prescriber:           prescriber,
		Structure:            structure,
	}

	if req.ServiceSlug != "" {
		service, err := s.refs.GetService(ctx, req.ServiceSlug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "service inconnu")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de charger le service")
		}
		if service.StructureSlug != structure.Slug {
			return nil, appErrors.Clone(appErrors.ErrValidation, "le service n’appartient pas à la structure")
		}
		orientation.ServiceSlug = &service.Slug
		orientation.Service = service
	}
	if req.PrescriberStructureSlug != "" {
		prescriberStructure, err := s.lookupStructure(ctx, req.PrescriberStructureSlug)
		if err != nil {
			return nil, err
		}
		orientation.PrescriberStructureSlug = &prescriberStructure.Slug
	}

	queryID, err := newQueryID()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de générer l’identifiant")
	}
	orientation.QueryID = queryID

	if err := s.repo.Create(ctx, orientation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible d’enregistrer l’orientation")
	}
	s.metrics.RecordTransition(models.OrientationStatusPending)
	s.logger.Info("orientation created",
		zap.String("query_id", orientation.QueryID),
		zap.String("structure", orientation.StructureSlug),
		zap.String("prescriber_id", orientation.PrescriberID))

	s.notifier.Notify(ctx, NotificationCreatedStructure, orientation, NotificationData{})
	if referentIsDistinct(orientation) {
		s.notifier.Notify(ctx, NotificationCreatedReferent, orientation, NotificationData{})
	}
	return orientation, nil
}

// Get returns an orientation by its capability id.
func (s *OrientationService) Get(ctx context.Context, queryID string) (*models.Orientation, error) {
	orientation, err := s.load(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if err := loadParties(ctx, s.refs, orientation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de charger l’orientation")
	}
	return orientation, nil
}

// Accept marks a PENDING orientation as accepted and notifies the prescriber,
// plus the beneficiary when the structure left them a message.
func (s *OrientationService) Accept(ctx context.Context, queryID string, req dto.ValidateOrientationRequest) (*models.Orientation, error) {
	orientation, err := s.transition(ctx, queryID, models.OrientationStatusAccepted, nil)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationAcceptedPrescriber, orientation, NotificationData{Message: req.Message})
	if strings.TrimSpace(req.BeneficiaryMessage) != "" && orientation.BeneficiaryEmail != "" {
		s.notifier.Notify(ctx, NotificationAcceptedBeneficiary, orientation, NotificationData{BeneficiaryMessage: req.BeneficiaryMessage})
	}
	return orientation, nil
}

// Reject marks a PENDING orientation as rejected with the known subset of reasons.
func (s *OrientationService) Reject(ctx context.Context, queryID string, req dto.RejectOrientationRequest) (*models.Orientation, error) {
	reasons, err := s.reasons.Resolve(ctx, req.Reasons)
	if err != nil {
		return nil, err
	}
	orientation, err := s.transition(ctx, queryID, models.OrientationStatusRejected, reasons)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, NotificationRejectedPrescriber, orientation, NotificationData{Message: req.Message, Reasons: reasons})
	return orientation, nil
}

func (s *OrientationService) transition(ctx context.Context, queryID string, status models.OrientationStatus, reasons []models.RejectionReason) (*models.Orientation, error) {
	orientation, err := s.load(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if orientation.Status.Terminal() {
		return nil, appErrors.ErrAlreadyProcessed
	}

	processedAt := s.now().UTC()
	if processedAt.Before(orientation.CreationDate) {
		processedAt = orientation.CreationDate
	}
	codes := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		codes = append(codes, reason.Value)
	}
	err = s.repo.Transition(ctx, repository.TransitionParams{
		ID:          orientation.ID,
		Status:      status,
		ProcessedAt: processedAt,
		Reasons:     codes,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de mettre à jour l’orientation")
	}
	orientation.Status = status
	orientation.ProcessingDate = &processedAt
	orientation.RejectionReasons = codes
	s.metrics.RecordTransition(status)
	s.logger.Info("orientation processed", zap.String("query_id", queryID), zap.String("status", string(status)))

	if err := loadParties(ctx, s.refs, orientation); err != nil {
		s.logger.Warn("load orientation parties", zap.String("query_id", queryID), zap.Error(err))
	}
	return orientation, nil
}

func (s *OrientationService) load(ctx context.Context, queryID string) (*models.Orientation, error) {
	orientation, err := s.repo.GetByQueryID(ctx, queryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "orientation introuvable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de charger l’orientation")
	}
	return orientation, nil
}

func (s *OrientationService) lookupStructure(ctx context.Context, slug string) (*models.Structure, error) {
	structure, err := s.refs.GetStructure(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "structure inconnue")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de charger la structure")
	}
	return structure, nil
}

func trimCreateRequest(req dto.CreateOrientationRequest) dto.CreateOrientationRequest {
	req.PrescriberStructureSlug = strings.TrimSpace(req.PrescriberStructureSlug)
	req.StructureSlug = strings.TrimSpace(req.StructureSlug)
	req.ServiceSlug = strings.TrimSpace(req.ServiceSlug)
	req.BeneficiaryFirstName = strings.TrimSpace(req.BeneficiaryFirstName)
	req.BeneficiaryLastName = strings.TrimSpace(req.BeneficiaryLastName)
	req.BeneficiaryEmail = strings.TrimSpace(req.BeneficiaryEmail)
	req.BeneficiaryPhone = strings.TrimSpace(req.BeneficiaryPhone)
	req.ReferentFirstName = strings.TrimSpace(req.ReferentFirstName)
	req.ReferentLastName = strings.TrimSpace(req.ReferentLastName)
	req.ReferentEmail = strings.TrimSpace(req.ReferentEmail)
	req.ReferentPhone = strings.TrimSpace(req.ReferentPhone)
	return req
}

// newQueryID returns a 43 character URL-safe token backed by 32 random bytes.
func newQueryID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
