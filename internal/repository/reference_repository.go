package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/gip-inclusion/dora-api/internal/models"
)

// ReferenceRepository reads the users, structures and services owned by the main DORA schema.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// GetUser fetches a user by id.
func (r *ReferenceRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, first_name, last_name FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetStructure fetches a structure by slug.
func (r *ReferenceRepository) GetStructure(ctx context.Context, slug string) (*models.Structure, error) {
	const query = `SELECT slug, name, email FROM structures WHERE slug = $1`
	var structure models.Structure
	if err := r.db.GetContext(ctx, &structure, query, slug); err != nil {
		return nil, err
	}
	return &structure, nil
}

// GetService fetches a service by slug.
func (r *ReferenceRepository) GetService(ctx context.Context, slug string) (*models.Service, error) {
	const query = `SELECT slug, name, structure_slug, contact_email FROM services WHERE slug = $1`
	var service models.Service
	if err := r.db.GetContext(ctx, &service, query, slug); err != nil {
		return nil, err
	}
	return &service, nil
}
