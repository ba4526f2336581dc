package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gip-inclusion/dora-api/internal/models"
)

// RejectionReasonRepository reads the rejection reason catalogue.
type RejectionReasonRepository struct {
	db *sqlx.DB
}

// NewRejectionReasonRepository constructs the repository.
func NewRejectionReasonRepository(db *sqlx.DB) *RejectionReasonRepository {
	return &RejectionReasonRepository{db: db}
}

// List returns the whole catalogue ordered by value.
func (r *RejectionReasonRepository) List(ctx context.Context) ([]models.RejectionReason, error) {
	const query = `SELECT value, label FROM rejection_reasons ORDER BY value`
	reasons := []models.RejectionReason{}
	if err := r.db.SelectContext(ctx, &reasons, query); err != nil {
		return nil, fmt.Errorf("list rejection reasons: %w", err)
	}
	return reasons, nil
}
