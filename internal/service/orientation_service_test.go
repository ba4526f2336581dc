package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gip-inclusion/dora-api/internal/dto"
	"github.com/gip-inclusion/dora-api/internal/models"
	"github.com/gip-inclusion/dora-api/internal/repository"
	appErrors "github.com/gip-inclusion/dora-api/pkg/errors"
)

var prescriberClaims = &models.JWTClaims{UserID: "user-1", Email: "prescripteur@example.org"}

func newOrientationServiceUnderTest(store *stubOrientationStore, notifier *stubNotifier, opts ...OrientationServiceOption) *OrientationService {
	reasons := NewRejectionReasonService(defaultReasonStore(), nil, 0, nil)
	return NewOrientationService(store, newStubReferenceStore(), reasons, notifier, nil, nil, nil, opts...)
}

func validCreateRequest() dto.CreateOrientationRequest {
	return dto.CreateOrientationRequest{
		StructureSlug:        "asso",
		ServiceSlug:          "atelier-cv",
		BeneficiaryFirstName: "Ada",
		BeneficiaryLastName:  "Lovelace",
		BeneficiaryEmail:     "ada@example.org",
		Situation:            "Recherche d’emploi",
	}
}

func pendingOrientation(queryID string) *models.Orientation {
	service := "atelier-cv"
	return &models.Orientation{
		ID:                   "or-" + queryID,
		QueryID:              queryID,
		PrescriberID:         "user-1",
		StructureSlug:        "asso",
		ServiceSlug:          &service,
		BeneficiaryFirstName: "Ada",
		BeneficiaryLastName:  "Lovelace",
		BeneficiaryEmail:     "ada@example.org",
		Status:               models.OrientationStatusPending,
		CreationDate:         time.Now().UTC().Add(-time.Hour),
		RejectionReasons:     []string{},
	}
}

func TestOrientationServiceCreateIsPending(t *testing.T) {
	store := newStubOrientationStore()
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(store, notifier)

	orientation, err := svc.Create(context.Background(), validCreateRequest(), prescriberClaims)
	require.NoError(t, err)

	assert.Equal(t, models.OrientationStatusPending, orientation.Status)
	assert.Nil(t, orientation.ProcessingDate)
	assert.Empty(t, orientation.RejectionReasons)
	assert.Len(t, orientation.QueryID, 43)
	assert.Equal(t, "user-1", orientation.PrescriberID)
	require.Len(t, store.created, 1)
	assert.Equal(t, []NotificationKind{NotificationCreatedStructure}, notifier.kinds())
}

func TestOrientationServiceCreateQueryIDsAreUnique(t *testing.T) {
	svc := newOrientationServiceUnderTest(newStubOrientationStore(), &stubNotifier{})

	first, err := svc.Create(context.Background(), validCreateRequest(), prescriberClaims)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), validCreateRequest(), prescriberClaims)
	require.NoError(t, err)
	assert.NotEqual(t, first.QueryID, second.QueryID)
}

func TestOrientationServiceCreateNotifiesDistinctReferent(t *testing.T) {
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(newStubOrientationStore(), notifier)

	req := validCreateRequest()
	req.ReferentEmail = "referent@example.org"
	_, err := svc.Create(context.Background(), req, prescriberClaims)
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotificationCreatedStructure, NotificationCreatedReferent}, notifier.kinds())
}

func TestOrientationServiceCreateSkipsReferentEqualToPrescriber(t *testing.T) {
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(newStubOrientationStore(), notifier)

	req := validCreateRequest()
	req.ReferentEmail = "Prescripteur@Example.org"
	_, err := svc.Create(context.Background(), req, prescriberClaims)
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotificationCreatedStructure}, notifier.kinds())
}

func TestOrientationServiceCreateRequiresAuthentication(t *testing.T) {
	store := newStubOrientationStore()
	svc := newOrientationServiceUnderTest(store, &stubNotifier{})

	_, err := svc.Create(context.Background(), validCreateRequest(), nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.Create(context.Background(), validCreateRequest(), &models.JWTClaims{UserID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Empty(t, store.created)
}

func TestOrientationServiceCreateValidation(t *testing.T) {
	cases := map[string]func(*dto.CreateOrientationRequest){
		"missing first name": func(r *dto.CreateOrientationRequest) { r.BeneficiaryFirstName = "  " },
		"missing structure":  func(r *dto.CreateOrientationRequest) { r.StructureSlug = "" },
		"bad email":          func(r *dto.CreateOrientationRequest) { r.BeneficiaryEmail = "not-an-email" },
		"unknown structure":  func(r *dto.CreateOrientationRequest) { r.StructureSlug = "nowhere" },
		"unknown service":    func(r *dto.CreateOrientationRequest) { r.ServiceSlug = "nothing" },
		"foreign service":    func(r *dto.CreateOrientationRequest) { r.ServiceSlug = "autre-offre" },
		"unknown prescriber structure": func(r *dto.CreateOrientationRequest) {
			r.PrescriberStructureSlug = "nowhere"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store := newStubOrientationStore()
			notifier := &stubNotifier{}
			svc := newOrientationServiceUnderTest(store, notifier)
			req := validCreateRequest()
			mutate(&req)

			_, err := svc.Create(context.Background(), req, prescriberClaims)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Empty(t, store.created)
			assert.Empty(t, notifier.kinds())
		})
	}
}

func TestOrientationServiceCreatePersistError(t *testing.T) {
	store := newStubOrientationStore()
	store.createErr = errors.New("db down")
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(store, notifier)

	_, err := svc.Create(context.Background(), validCreateRequest(), prescriberClaims)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, notifier.kinds())
}

func TestOrientationServiceGet(t *testing.T) {
	store := newStubOrientationStore(pendingOrientation("q-1"))
	svc := newOrientationServiceUnderTest(store, &stubNotifier{})

	orientation, err := svc.Get(context.Background(), "q-1")
	require.NoError(t, err)
	require.NotNil(t, orientation.Prescriber)
	assert.Equal(t, "prescripteur@example.org", orientation.Prescriber.Email)
	require.NotNil(t, orientation.Service)
	assert.Equal(t, "Atelier CV", orientation.Service.Name)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestOrientationServiceAccept(t *testing.T) {
	store := newStubOrientationStore(pendingOrientation("q-1"))
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(store, notifier)

	orientation, err := svc.Accept(context.Background(), "q-1", dto.ValidateOrientationRequest{Message: "Bienvenue"})
	require.NoError(t, err)

	assert.Equal(t, models.OrientationStatusAccepted, orientation.Status)
	require.NotNil(t, orientation.ProcessingDate)
	assert.False(t, orientation.ProcessingDate.Before(orientation.CreationDate))
	assert.Equal(t, []NotificationKind{NotificationAcceptedPrescriber}, notifier.kinds())
	assert.Equal(t, "Bienvenue", notifier.sent[0].data.Message)
}

func TestOrientationServiceAcceptNotifiesBeneficiaryWithMessage(t *testing.T) {
	store := newStubOrientationStore(pendingOrientation("q-1"))
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(store, notifier)

	_, err := svc.Accept(context.Background(), "q-1", dto.ValidateOrientationRequest{BeneficiaryMessage: "RDV lundi 9h"})
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotificationAcceptedPrescriber, NotificationAcceptedBeneficiary}, notifier.kinds())
}

func TestOrientationServiceAcceptSkipsBeneficiaryWithoutEmail(t *testing.T) {
	orientation := pendingOrientation("q-1")
	orientation.BeneficiaryEmail = ""
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(newStubOrientationStore(orientation), notifier)

	_, err := svc.Accept(context.Background(), "q-1", dto.ValidateOrientationRequest{BeneficiaryMessage: "RDV lundi 9h"})
	require.NoError(t, err)
	assert.Equal(t, []NotificationKind{NotificationAcceptedPrescriber}, notifier.kinds())
}

func TestOrientationServiceProcessingDateNeverBeforeCreation(t *testing.T) {
	orientation := pendingOrientation("q-1")
	orientation.CreationDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC) }
	svc := newOrientationServiceUnderTest(newStubOrientationStore(orientation), &stubNotifier{}, WithOrientationClock(clock))

	accepted, err := svc.Accept(context.Background(), "q-1", dto.ValidateOrientationRequest{})
	require.NoError(t, err)
	assert.True(t, accepted.ProcessingDate.Equal(orientation.CreationDate))
}

func TestOrientationServiceRejectDropsUnknownReasons(t *testing.T) {
	store := newStubOrientationStore(pendingOrientation("q-1"))
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(store, notifier)

	orientation, err := svc.Reject(context.Background(), "q-1", dto.RejectOrientationRequest{
		Message: "Désolé",
		Reasons: []string{"service-complet", "inexistant", "autre", "autre"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrientationStatusRejected, orientation.Status)
	assert.ElementsMatch(t, []string{"service-complet", "autre"}, orientation.RejectionReasons)
	require.Len(t, store.transitions, 1)
	assert.ElementsMatch(t, []string{"service-complet", "autre"}, store.transitions[0].Reasons)

	require.Equal(t, []NotificationKind{NotificationRejectedPrescriber}, notifier.kinds())
	sent := notifier.sent[0]
	assert.Equal(t, "Désolé", sent.data.Message)
	assert.Len(t, sent.data.Reasons, 2)
}

func TestOrientationServiceRejectWithOnlyUnknownReasons(t *testing.T) {
	store := newStubOrientationStore(pendingOrientation("q-1"))
	svc := newOrientationServiceUnderTest(store, &stubNotifier{})

	orientation, err := svc.Reject(context.Background(), "q-1", dto.RejectOrientationRequest{Reasons: []string{"nope"}})
	require.NoError(t, err)
	assert.Equal(t, models.OrientationStatusRejected, orientation.Status)
	assert.Empty(t, orientation.RejectionReasons)
}

func TestOrientationServiceSecondTransitionConflicts(t *testing.T) {
	store := newStubOrientationStore(pendingOrientation("q-1"))
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(store, notifier)

	_, err := svc.Accept(context.Background(), "q-1", dto.ValidateOrientationRequest{})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), "q-1", dto.ValidateOrientationRequest{})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyProcessed)
	_, err = svc.Reject(context.Background(), "q-1", dto.RejectOrientationRequest{Reasons: []string{"autre"}})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyProcessed)

	assert.Equal(t, []NotificationKind{NotificationAcceptedPrescriber}, notifier.kinds())
	assert.Len(t, store.transitions, 1)
}

func TestOrientationServiceConcurrentTransitionsOnlyOneWins(t *testing.T) {
	store := newStubOrientationStore(pendingOrientation("q-1"))
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(store, notifier)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Accept(context.Background(), "q-1", dto.ValidateOrientationRequest{})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.Reject(context.Background(), "q-1", dto.RejectOrientationRequest{})
		errs <- err
	}()
	wg.Wait()
	close(errs)

	var conflicts, successes int
	for err := range errs {
		if err == nil {
			successes++
		} else if errors.Is(err, appErrors.ErrAlreadyProcessed) {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, notifier.kinds(), 1)
}

func TestOrientationServiceTransitionErrors(t *testing.T) {
	store := newStubOrientationStore(pendingOrientation("q-1"))
	store.transitionFn = func(repository.TransitionParams) error { return errors.New("deadlock") }
	notifier := &stubNotifier{}
	svc := newOrientationServiceUnderTest(store, notifier)

	_, err := svc.Accept(context.Background(), "q-1", dto.ValidateOrientationRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	_, err = svc.Reject(context.Background(), "missing", dto.RejectOrientationRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, notifier.kinds())
}
