package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionReasonRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRejectionReasonRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value, label FROM rejection_reasons")).
		WillReturnRows(sqlmock.NewRows([]string{"value", "label"}).
			AddRow("autre", "Autre").
			AddRow("service-complet", "Le service est complet"))

	reasons, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reasons, 2)
	assert.Equal(t, "service-complet", reasons[1].Value)
	require.NoError(t, mock.ExpectationsWereMet())
}
