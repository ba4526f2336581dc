package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gip-inclusion/dora-api/internal/models"
)

func TestContactEmailRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewContactEmailRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sent_contact_emails")).
		WithArgs(sqlmock.AnyArg(), "or-1", models.ContactRecipientBeneficiary,
			pq.Array([]string{"PRESCRIBER", "REFERENT"}), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	email := &models.SentContactEmail{
		OrientationID: "or-1",
		Recipient:     models.ContactRecipientBeneficiary,
		CarbonCopies:  []models.ContactRecipient{models.ContactRecipientPrescriber, models.ContactRecipientReferent},
	}
	require.NoError(t, repo.Create(context.Background(), email))
	assert.NotEmpty(t, email.ID)
	assert.False(t, email.DateSent.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
