package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gip-inclusion/dora-api/internal/models"
)

const orientationColumns = `id, query_id, prescriber_id, prescriber_structure_slug, structure_slug, service_slug,
       beneficiary_first_name, beneficiary_last_name, beneficiary_email, beneficiary_phone,
       referent_first_name, referent_last_name, referent_email, referent_phone,
       situation, requirements, orientation_reasons, status, creation_date, processing_date`

// OrientationRepository persists orientations and their rejection reasons.
type OrientationRepository struct {
	db *sqlx.DB
}

// NewOrientationRepository constructs the repository.
func NewOrientationRepository(db *sqlx.DB) *OrientationRepository {
	return &OrientationRepository{db: db}
}

// Create inserts a new orientation. Status and creation date default to PENDING and now.
func (r *OrientationRepository) Create(ctx context.Context, orientation *models.Orientation) error {
	if orientation.ID == "" {
		orientation.ID = uuid.NewString()
	}
	if orientation.Status == "" {
		orientation.Status = models.OrientationStatusPending
	}
	if orientation.CreationDate.IsZero() {
		orientation.CreationDate = time.Now().UTC()
	}
	const query = `INSERT INTO orientations
	(id, query_id, prescriber_id, prescriber_structure_slug, structure_slug, service_slug,
	 beneficiary_first_name, beneficiary_last_name, beneficiary_email, beneficiary_phone,
	 referent_first_name, referent_last_name, referent_email, referent_phone,
	 situation, requirements, orientation_reasons, status, creation_date, processing_date)
	VALUES (:id, :query_id, :prescriber_id, :prescriber_structure_slug, :structure_slug, :service_slug,
	 :beneficiary_first_name, :beneficiary_last_name, :beneficiary_email, :beneficiary_phone,
	 :referent_first_name, :referent_last_name, :referent_email, :referent_phone,
	 :situation, :requirements, :orientation_reasons, :status, :creation_date, :processing_date)`
	if _, err := r.db.NamedExecContext(ctx, query, orientation); err != nil {
		return fmt.Errorf("create orientation: %w", err)
	}
	return nil
}

// GetByQueryID fetches an orientation by its capability id, with its rejection reasons.
func (r *OrientationRepository) GetByQueryID(ctx context.Context, queryID string) (*models.Orientation, error) {
	query := `SELECT ` + orientationColumns + ` FROM orientations WHERE query_id = $1`
	var orientation models.Orientation
	if err := r.db.GetContext(ctx, &orientation, query, queryID); err != nil {
		return nil, err
	}

	reasons := []string{}
	const reasonsQuery = `SELECT reason FROM orientation_rejection_reasons WHERE orientation_id = $1 ORDER BY reason`
	if err := r.db.SelectContext(ctx, &reasons, reasonsQuery, orientation.ID); err != nil {
		return nil, fmt.Errorf("load rejection reasons: %w", err)
	}
	orientation.RejectionReasons = reasons
	return &orientation, nil
}

// TransitionParams describes a terminal status change.
type TransitionParams struct {
	ID          string
	Status      models.OrientationStatus
	ProcessedAt time.Time
	Reasons     []string
}

// Transition moves a PENDING orientation to a terminal status and links the
// rejection reasons in the same transaction. It returns sql.ErrNoRows when the
// orientation is missing or already processed.
func (r *OrientationRepository) Transition(ctx context.Context, params TransitionParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`UPDATE orientations SET status = $2, processing_date = $3 WHERE id = $1 AND status = '%s'`,
		models.OrientationStatusPending)
	result, err := tx.ExecContext(ctx, query, params.ID, params.Status, params.ProcessedAt)
	if err != nil {
		return fmt.Errorf("update orientation status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check orientation update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const linkQuery = `INSERT INTO orientation_rejection_reasons (orientation_id, reason) VALUES ($1, $2)
	ON CONFLICT DO NOTHING`
	for _, reason := range params.Reasons {
		if _, err = tx.ExecContext(ctx, linkQuery, params.ID, reason); err != nil {
			return fmt.Errorf("link rejection reason %s: %w", reason, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}
