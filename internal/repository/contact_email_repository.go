package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gip-inclusion/dora-api/internal/models"
)

// ContactEmailRepository appends to the sent contact email log. Rows are never updated.
type ContactEmailRepository struct {
	db *sqlx.DB
}

// NewContactEmailRepository constructs the repository.
func NewContactEmailRepository(db *sqlx.DB) *ContactEmailRepository {
	return &ContactEmailRepository{db: db}
}

// Create records one relayed email.
func (r *ContactEmailRepository) Create(ctx context.Context, email *models.SentContactEmail) error {
	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	if email.DateSent.IsZero() {
		email.DateSent = time.Now().UTC()
	}
	ccs := make([]string, 0, len(email.CarbonCopies))
	for _, cc := range email.CarbonCopies {
		ccs = append(ccs, string(cc))
	}
	const query = `INSERT INTO sent_contact_emails (id, orientation_id, recipient, carbon_copies, date_sent)
	VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, email.ID, email.OrientationID, email.Recipient, pq.Array(ccs), email.DateSent); err != nil {
		return fmt.Errorf("create sent contact email: %w", err)
	}
	return nil
}
