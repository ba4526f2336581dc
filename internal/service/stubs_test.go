package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/gip-inclusion/dora-api/internal/models"
	"github.com/gip-inclusion/dora-api/internal/repository"
	"github.com/gip-inclusion/dora-api/pkg/mailer"
)

type stubOrientationStore struct {
	mu           sync.Mutex
	byQueryID    map[string]*models.Orientation
	created      []*models.Orientation
	transitions  []repository.TransitionParams
	createErr    error
	transitionFn func(params repository.TransitionParams) error
}

func newStubOrientationStore(orientations ...*models.Orientation) *stubOrientationStore {
	store := &stubOrientationStore{byQueryID: map[string]*models.Orientation{}}
	for _, o := range orientations {
		store.byQueryID[o.QueryID] = o
	}
	return store
}

func (s *stubOrientationStore) Create(_ context.Context, o *models.Orientation) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = "or-" + o.QueryID
	}
	s.created = append(s.created, o)
	s.byQueryID[o.QueryID] = o
	return nil
}

func (s *stubOrientationStore) GetByQueryID(_ context.Context, queryID string) (*models.Orientation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byQueryID[queryID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	// Callers get their own copy, as with a real row scan.
	copied := *o
	copied.Prescriber, copied.Structure, copied.Service = nil, nil, nil
	return &copied, nil
}

func (s *stubOrientationStore) Transition(_ context.Context, params repository.TransitionParams) error {
	if s.transitionFn != nil {
		return s.transitionFn(params)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.byQueryID {
		if o.ID != params.ID {
			continue
		}
		if o.Status != models.OrientationStatusPending {
			return sql.ErrNoRows
		}
		o.Status = params.Status
		processed := params.ProcessedAt
		o.ProcessingDate = &processed
		o.RejectionReasons = append([]string(nil), params.Reasons...)
		s.transitions = append(s.transitions, params)
		return nil
	}
	return sql.ErrNoRows
}

type stubReferenceStore struct {
	users      map[string]*models.User
	structures map[string]*models.Structure
	services   map[string]*models.Service
}

func newStubReferenceStore() *stubReferenceStore {
	return &stubReferenceStore{
		users: map[string]*models.User{
			"user-1": {ID: "user-1", Email: "prescripteur@example.org", FirstName: "Paula", LastName: "Martin"},
		},
		structures: map[string]*models.Structure{
			"asso":      {Slug: "asso", Name: "Association Tremplin", Email: "accueil@tremplin.org"},
			"france-tr": {Slug: "france-tr", Name: "France Travail Lyon", Email: "lyon@francetravail.fr"},
		},
		services: map[string]*models.Service{
			"atelier-cv":  {Slug: "atelier-cv", Name: "Atelier CV", StructureSlug: "asso", ContactEmail: "cv@tremplin.org"},
			"permanence":  {Slug: "permanence", Name: "Permanence", StructureSlug: "asso"},
			"autre-offre": {Slug: "autre-offre", Name: "Autre offre", StructureSlug: "france-tr"},
		},
	}
}

func (s *stubReferenceStore) GetUser(_ context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubReferenceStore) GetStructure(_ context.Context, slug string) (*models.Structure, error) {
	if st, ok := s.structures[slug]; ok {
		copied := *st
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubReferenceStore) GetService(_ context.Context, slug string) (*models.Service, error) {
	if svc, ok := s.services[slug]; ok {
		copied := *svc
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type sentNotification struct {
	kind        NotificationKind
	orientation models.Orientation
	data        NotificationData
}

type stubNotifier struct {
	mu      sync.Mutex
	sent    []sentNotification
	sendErr error
}

func (n *stubNotifier) Notify(_ context.Context, kind NotificationKind, o *models.Orientation, data NotificationData) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{kind: kind, orientation: *o, data: data})
}

func (n *stubNotifier) Send(ctx context.Context, kind NotificationKind, o *models.Orientation, data NotificationData) error {
	if n.sendErr != nil {
		return n.sendErr
	}
	n.Notify(ctx, kind, o, data)
	return nil
}

func (n *stubNotifier) kinds() []NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]NotificationKind, 0, len(n.sent))
	for _, s := range n.sent {
		kinds = append(kinds, s.kind)
	}
	return kinds
}

type stubReasonStore struct {
	calls   int
	reasons []models.RejectionReason
	err     error
}

func (s *stubReasonStore) List(context.Context) ([]models.RejectionReason, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.RejectionReason(nil), s.reasons...), nil
}

func defaultReasonStore() *stubReasonStore {
	return &stubReasonStore{reasons: []models.RejectionReason{
		{Value: "autre", Label: "Autre"},
		{Value: "beneficiaire-injoignable", Label: "Le bénéficiaire est injoignable"},
		{Value: "service-complet", Label: "Le service est complet"},
	}}
}

type stubContactEmailStore struct {
	rows []*models.SentContactEmail
	err  error
}

func (s *stubContactEmailStore) Create(_ context.Context, email *models.SentContactEmail) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, email)
	return nil
}

type stubMailSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	err      error
}

func (s *stubMailSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *stubMailSender) sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.messages...)
}
