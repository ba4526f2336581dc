package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/gip-inclusion/dora-api/internal/dto"
	"github.com/gip-inclusion/dora-api/internal/models"
	appErrors "github.com/gip-inclusion/dora-api/pkg/errors"
)

type contactOrientationStore interface {
	GetByQueryID(ctx context.Context, queryID string) (*models.Orientation, error)
}

type contactEmailStore interface {
	Create(ctx context.Context, email *models.SentContactEmail) error
}

type contactSender interface {
	Send(ctx context.Context, kind NotificationKind, orientation *models.Orientation, data NotificationData) error
}

// CarbonCopies is the outcome of the CC rules for one relayed message.
type CarbonCopies struct {
	Addresses []string
	Roles     []models.ContactRecipient
}

// ComputeCarbonCopies applies the CC rules for a message sent to recipient.
// ccParty is the other party (prescriber for the beneficiary, beneficiary for the prescriber).
// The referent is only copied when their address differs from the prescriber's.
func ComputeCarbonCopies(o *models.Orientation, recipient models.ContactRecipient, ccParty, ccReferent bool) CarbonCopies {
	cc := CarbonCopies{Addresses: []string{}, Roles: []models.ContactRecipient{}}
	if ccParty {
		switch recipient {
		case models.ContactRecipientBeneficiary:
			if email := o.PrescriberEmail(); email != "" {
				cc.Addresses = append(cc.Addresses, email)
				cc.Roles = append(cc.Roles, models.ContactRecipientPrescriber)
			}
		case models.ContactRecipientPrescriber:
			if o.BeneficiaryEmail != "" {
				cc.Addresses = append(cc.Addresses, o.BeneficiaryEmail)
				cc.Roles = append(cc.Roles, models.ContactRecipientBeneficiary)
			}
		}
	}
	if ccReferent && referentIsDistinct(o) {
		cc.Addresses = append(cc.Addresses, o.ReferentEmail)
		cc.Roles = append(cc.Roles, models.ContactRecipientReferent)
	}
	return cc
}

// ContactService relays messages between the parties of an orientation and
// keeps the append-only log of what was sent.
type ContactService struct {
	orientations contactOrientationStore
	refs         referenceStore
	emails       contactEmailStore
	sender       contactSender
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewContactService constructs the relay.
func NewContactService(orientations contactOrientationStore, refs referenceStore, emails contactEmailStore, sender contactSender, metrics *MetricsService, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{
		orientations: orientations,
		refs:         refs,
		emails:       emails,
		sender:       sender,
		metrics:      metrics,
		logger:       logger,
	}
}

// ContactBeneficiary emails the beneficiary, optionally copying the prescriber and referent.
func (s *ContactService) ContactBeneficiary(ctx context.Context, queryID string, req dto.ContactBeneficiaryRequest) (*models.SentContactEmail, error) {
	orientation, err := s.load(ctx, queryID)
	if err != nil {
		return nil, err
	}
	if orientation.BeneficiaryEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Adresse email du bénéficiaire inconnue")
	}
	return s.relay(ctx, orientation, models.ContactRecipientBeneficiary, req.Message, req.CCPrescriber.Bool(), req.CCReferent.Bool())
}

// ContactPrescriber emails the prescriber, optionally copying the beneficiary and referent.
func (s *ContactService) ContactPrescriber(ctx context.Context, queryID string, req dto.ContactPrescriberRequest) (*models.SentContactEmail, error) {
	orientation, err := s.load(ctx, queryID)
	if err != nil {
		return nil, err
	}
	return s.relay(ctx, orientation, models.ContactRecipientPrescriber, req.Message, req.CCBeneficiary.Bool(), req.CCReferent.Bool())
}

func (s *ContactService) relay(ctx context.Context, orientation *models.Orientation, recipient models.ContactRecipient, message string, ccParty, ccReferent bool) (*models.SentContactEmail, error) {
	if strings.TrimSpace(message) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Le message est obligatoire")
	}

	cc := ComputeCarbonCopies(orientation, recipient, ccParty, ccReferent)
	kind := NotificationContactBeneficiary
	if recipient == models.ContactRecipientPrescriber {
		kind = NotificationContactPrescriber
	}
	if err := s.sender.Send(ctx, kind, orientation, NotificationData{Message: message, Cc: cc.Addresses}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "échec de l’envoi du message")
	}

	record := &models.SentContactEmail{
		OrientationID: orientation.ID,
		Recipient:     recipient,
		CarbonCopies:  cc.Roles,
	}
	if err := s.emails.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible d’enregistrer l’envoi")
	}
	s.metrics.RecordContactEmail(recipient)
	s.logger.Info("contact message relayed",
		zap.String("query_id", orientation.QueryID),
		zap.String("recipient", string(recipient)),
		zap.Int("carbon_copies", len(cc.Roles)))
	return record, nil
}

func (s *ContactService) load(ctx context.Context, queryID string) (*models.Orientation, error) {
	orientation, err := s.orientations.GetByQueryID(ctx, queryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "orientation introuvable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de charger l’orientation")
	}
	if err := loadParties(ctx, s.refs, orientation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de charger l’orientation")
	}
	return orientation, nil
}
