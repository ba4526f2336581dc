package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gip-inclusion/dora-api/internal/models"
	"github.com/gip-inclusion/dora-api/pkg/jobs"
	"github.com/gip-inclusion/dora-api/pkg/mailer"
)

// NotificationKind names one of the emails sent around an orientation.
type NotificationKind string

const (
	NotificationCreatedStructure    NotificationKind = "created_structure"
	NotificationCreatedReferent     NotificationKind = "created_referent"
	NotificationAcceptedPrescriber  NotificationKind = "accepted_prescriber"
	NotificationAcceptedBeneficiary NotificationKind = "accepted_beneficiary"
	NotificationRejectedPrescriber  NotificationKind = "rejected_prescriber"
	NotificationContactBeneficiary  NotificationKind = "contact_beneficiary"
	NotificationContactPrescriber   NotificationKind = "contact_prescriber"
)

var errNoRecipient = errors.New("notification has no recipient")

// NotificationData carries the per-event inputs that are not on the orientation.
type NotificationData struct {
	Message            string
	BeneficiaryMessage string
	Reasons            []models.RejectionReason
	Cc                 []string
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type htmlRenderer interface {
	ToHTML(text string) (string, error)
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

type notificationTemplate struct {
	subject string
	body    *template.Template
	tag     string
}

// notificationView is what the body templates see.
type notificationView struct {
	BeneficiaryName     string
	PrescriberName      string
	PrescriberEmail     string
	PrescriberStructure string
	StructureName       string
	ServiceName         string
	Situation           string
	Requirements        string
	OrientationReasons  string
	Message             string
	Reasons             []string
	Link                string
}

var notificationTemplates = map[NotificationKind]notificationTemplate{
	NotificationCreatedStructure: {
		subject: "[DORA] Nouvelle demande d’orientation reçue",
		tag:     "orientation-created-structure",
		body: template.Must(template.New("created_structure").Parse(`Bonjour,

{{.PrescriberName}}{{with .PrescriberStructure}} ({{.}}){{end}} vous adresse une demande d’orientation pour {{.BeneficiaryName}}{{with .ServiceName}} vers le service « {{.}} »{{end}}.
{{with .Situation}}
Situation du bénéficiaire :
{{.}}
{{end}}{{with .Requirements}}
Prérequis et critères :
{{.}}
{{end}}{{with .OrientationReasons}}
Motifs de l’orientation :
{{.}}
{{end}}
Consulter et traiter la demande : {{.Link}}

L’équipe DORA
`)),
	},
	NotificationCreatedReferent: {
		subject: "[DORA] Une orientation vous désigne comme référent",
		tag:     "orientation-created-referent",
		body: template.Must(template.New("created_referent").Parse(`Bonjour,

{{.PrescriberName}} a orienté {{.BeneficiaryName}} vers {{.StructureName}}{{with .ServiceName}} (service « {{.}} »){{end}} et vous a indiqué comme référent.

Vous serez informé de la suite donnée à la demande.

L’équipe DORA
`)),
	},
	NotificationAcceptedPrescriber: {
		subject: "[DORA] Votre demande d’orientation a été acceptée",
		tag:     "orientation-accepted-prescriber",
		body: template.Must(template.New("accepted_prescriber").Parse(`Bonjour,

{{.StructureName}} a accepté la demande d’orientation de {{.BeneficiaryName}}{{with .ServiceName}} vers le service « {{.}} »{{end}}.
{{with .Message}}
Message de la structure :
{{.}}
{{end}}
Détail de la demande : {{.Link}}

L’équipe DORA
`)),
	},
	NotificationAcceptedBeneficiary: {
		subject: "[DORA] Votre orientation a été acceptée",
		tag:     "orientation-accepted-beneficiary",
		body: template.Must(template.New("accepted_beneficiary").Parse(`Bonjour {{.BeneficiaryName}},

{{.StructureName}} a accepté votre orientation{{with .ServiceName}} vers le service « {{.}} »{{end}}.

Message de la structure :
{{.Message}}

L’équipe DORA
`)),
	},
	NotificationRejectedPrescriber: {
		subject: "[DORA] Votre demande d’orientation a été refusée",
		tag:     "orientation-rejected-prescriber",
		body: template.Must(template.New("rejected_prescriber").Parse(`Bonjour,

{{.StructureName}} a refusé la demande d’orientation de {{.BeneficiaryName}}{{with .ServiceName}} vers le service « {{.}} »{{end}}.
{{if .Reasons}}
Motifs du refus :
{{range .Reasons}}- {{.}}
{{end}}{{end}}{{with .Message}}
Message de la structure :
{{.}}
{{end}}
Détail de la demande : {{.Link}}

L’équipe DORA
`)),
	},
	NotificationContactBeneficiary: {
		subject: "[DORA] Vous avez reçu un message concernant votre orientation",
		tag:     "orientation-contact-beneficiary",
		body: template.Must(template.New("contact_beneficiary").Parse(`Bonjour {{.BeneficiaryName}},

{{.StructureName}} vous a envoyé un message au sujet de votre orientation :

{{.Message}}

L’équipe DORA
`)),
	},
	NotificationContactPrescriber: {
		subject: "[DORA] Vous avez reçu un message concernant une orientation",
		tag:     "orientation-contact-prescriber",
		body: template.Must(template.New("contact_prescriber").Parse(`Bonjour {{.PrescriberName}},

{{.StructureName}} vous a envoyé un message au sujet de l’orientation de {{.BeneficiaryName}} :

{{.Message}}

Détail de la demande : {{.Link}}

L’équipe DORA
`)),
	},
}

// NotificationService turns orientation events into emails.
type NotificationService struct {
	sender      mailSender
	renderer    htmlRenderer
	queue       jobEnqueuer
	metrics     *MetricsService
	logger      *zap.Logger
	frontendURL string
}

// NewNotificationService constructs the dispatcher. Without a queue every send is synchronous.
func NewNotificationService(sender mailSender, renderer htmlRenderer, frontendURL string, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = mailer.NewRenderer()
	}
	return &NotificationService{
		sender:      sender,
		renderer:    renderer,
		metrics:     metrics,
		logger:      logger,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// UseQueue routes lifecycle notifications through q.
func (s *NotificationService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// Notify delivers a lifecycle notification. Failures are logged and counted but
// never returned: the orientation change it reports is already committed.
func (s *NotificationService) Notify(ctx context.Context, kind NotificationKind, orientation *models.Orientation, data NotificationData) {
	msg, err := s.Build(kind, orientation, data)
	if err != nil {
		if errors.Is(err, errNoRecipient) {
			s.logger.Warn("notification skipped", zap.String("kind", string(kind)), zap.String("query_id", orientation.QueryID))
			return
		}
		s.logger.Error("build notification", zap.String("kind", string(kind)), zap.Error(err))
		s.metrics.RecordNotification(kind, err)
		return
	}

	if s.queue != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: string(kind), Payload: msg}
		err := s.queue.Enqueue(ctx, job)
		if err == nil {
			return
		}
		s.logger.Warn("notification queue unavailable, sending inline", zap.String("kind", string(kind)), zap.Error(err))
	}
	if err := s.deliver(ctx, kind, msg); err != nil {
		s.logger.Error("send notification", zap.String("kind", string(kind)), zap.String("query_id", orientation.QueryID), zap.Error(err))
	}
}

// Send builds and delivers a notification synchronously, returning any failure.
func (s *NotificationService) Send(ctx context.Context, kind NotificationKind, orientation *models.Orientation, data NotificationData) error {
	msg, err := s.Build(kind, orientation, data)
	if err != nil {
		return err
	}
	return s.deliver(ctx, kind, msg)
}

// HandleJob is the queue handler for asynchronous notifications.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.deliver(ctx, NotificationKind(job.Type), msg)
}

// Build renders the message for kind without sending it.
func (s *NotificationService) Build(kind NotificationKind, orientation *models.Orientation, data NotificationData) (mailer.Message, error) {
	tpl, ok := notificationTemplates[kind]
	if !ok {
		return mailer.Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}
	to := recipientFor(kind, orientation)
	if to == "" {
		return mailer.Message{}, errNoRecipient
	}

	view := s.view(kind, orientation, data)
	var body bytes.Buffer
	if err := tpl.body.Execute(&body, view); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s: %w", kind, err)
	}
	html, err := s.renderer.ToHTML(body.String())
	if err != nil {
		return mailer.Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}

	return mailer.Message{
		To:      []string{to},
		Cc:      append([]string(nil), data.Cc...),
		Subject: tpl.subject,
		Text:    body.String(),
		HTML:    html,
		Tags:    []string{tpl.tag},
	}, nil
}

func (s *NotificationService) deliver(ctx context.Context, kind NotificationKind, msg mailer.Message) error {
	err := s.sender.Send(ctx, msg)
	s.metrics.RecordNotification(kind, err)
	if err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	s.logger.Info("notification sent", zap.String("kind", string(kind)), zap.Strings("to", msg.To), zap.Int("cc", len(msg.Cc)))
	return nil
}

func (s *NotificationService) view(kind NotificationKind, o *models.Orientation, data NotificationData) notificationView {
	view := notificationView{
		BeneficiaryName:    o.BeneficiaryFullName(),
		PrescriberEmail:    o.PrescriberEmail(),
		StructureName:      o.StructureSlug,
		Situation:          strings.TrimSpace(o.Situation),
		Requirements:       strings.TrimSpace(o.Requirements),
		OrientationReasons: strings.TrimSpace(o.OrientationReasons),
		Message:            strings.TrimSpace(data.Message),
		Link:               fmt.Sprintf("%s/orientations/%s", s.frontendURL, o.QueryID),
	}
	if kind == NotificationAcceptedBeneficiary {
		view.Message = strings.TrimSpace(data.BeneficiaryMessage)
	}
	if o.Prescriber != nil {
		view.PrescriberName = o.Prescriber.FullName()
	}
	if view.PrescriberName == "" {
		view.PrescriberName = view.PrescriberEmail
	}
	if o.PrescriberStructureSlug != nil {
		view.PrescriberStructure = *o.PrescriberStructureSlug
	}
	if o.Structure != nil && o.Structure.Name != "" {
		view.StructureName = o.Structure.Name
	}
	if o.Service != nil {
		view.ServiceName = o.Service.Name
	}
	for _, reason := range data.Reasons {
		view.Reasons = append(view.Reasons, reason.Label)
	}
	return view
}

func recipientFor(kind NotificationKind, o *models.Orientation) string {
	switch kind {
	case NotificationCreatedStructure:
		if o.Service != nil && o.Service.ContactEmail != "" {
			return o.Service.ContactEmail
		}
		if o.Structure != nil {
			return o.Structure.Email
		}
	case NotificationCreatedReferent:
		return o.ReferentEmail
	case NotificationAcceptedPrescriber, NotificationRejectedPrescriber, NotificationContactPrescriber:
		return o.PrescriberEmail()
	case NotificationAcceptedBeneficiary, NotificationContactBeneficiary:
		return o.BeneficiaryEmail
	}
	return ""
}
