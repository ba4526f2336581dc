package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gip-inclusion/dora-api/internal/models"
)

type referenceStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetStructure(ctx context.Context, slug string) (*models.Structure, error)
	GetService(ctx context.Context, slug string) (*models.Service, error)
}

// loadParties attaches the prescriber, structure and service to o.
// References that no longer exist are left nil.
func loadParties(ctx context.Context, refs referenceStore, o *models.Orientation) error {
	if o.Prescriber == nil && o.PrescriberID != "" {
		user, err := refs.GetUser(ctx, o.PrescriberID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		o.Prescriber = user
	}
	if o.Structure == nil && o.StructureSlug != "" {
		structure, err := refs.GetStructure(ctx, o.StructureSlug)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		o.Structure = structure
	}
	if o.Service == nil && o.ServiceSlug != nil {
		svc, err := refs.GetService(ctx, *o.ServiceSlug)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		o.Service = svc
	}
	return nil
}

// sameEmail compares addresses ignoring case and surrounding space.
func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// referentIsDistinct reports whether the referent has an address of their own.
func referentIsDistinct(o *models.Orientation) bool {
	return strings.TrimSpace(o.ReferentEmail) != "" && !sameEmail(o.ReferentEmail, o.PrescriberEmail())
}
