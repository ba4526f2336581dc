package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gip-inclusion/dora-api/internal/models"
	appErrors "github.com/gip-inclusion/dora-api/pkg/errors"
)

const rejectionReasonsCacheKey = "rejection-reasons"

type rejectionReasonStore interface {
	List(ctx context.Context) ([]models.RejectionReason, error)
}

// RejectionReasonService serves the rejection reason catalogue, cached when Redis is enabled.
type RejectionReasonService struct {
	repo   rejectionReasonStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewRejectionReasonService constructs the service. cache may be nil.
func NewRejectionReasonService(repo rejectionReasonStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *RejectionReasonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RejectionReasonService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns the catalogue.
func (s *RejectionReasonService) List(ctx context.Context) ([]models.RejectionReason, error) {
	reasons, _, err := s.Catalogue(ctx)
	return reasons, err
}

// Catalogue returns the catalogue and whether it was served from cache.
func (s *RejectionReasonService) Catalogue(ctx context.Context) ([]models.RejectionReason, bool, error) {
	var reasons []models.RejectionReason
	if s.cache.Get(ctx, rejectionReasonsCacheKey, &reasons) {
		return reasons, true, nil
	}
	reasons, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "impossible de charger les motifs de refus")
	}
	s.cache.Set(ctx, rejectionReasonsCacheKey, reasons, s.ttl)
	return reasons, false, nil
}

// Resolve keeps the catalogue entries whose value is in codes. Unknown codes are dropped.
func (s *RejectionReasonService) Resolve(ctx context.Context, codes []string) ([]models.RejectionReason, error) {
	if len(codes) == 0 {
		return []models.RejectionReason{}, nil
	}
	catalogue, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		wanted[code] = struct{}{}
	}
	resolved := make([]models.RejectionReason, 0, len(codes))
	for _, reason := range catalogue {
		if _, ok := wanted[reason.Value]; ok {
			resolved = append(resolved, reason)
		}
	}
	if dropped := len(wanted) - len(resolved); dropped > 0 {
		s.logger.Debug("dropped unknown rejection reasons", zap.Int("count", dropped))
	}
	return resolved, nil
}
