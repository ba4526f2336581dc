package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/gip-inclusion/dora-api/pkg/errors"
)

type memoryCacheRepo struct {
	values map[string][]byte
	getErr error
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = map[string][]byte{}
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func TestRejectionReasonServiceServesFromCache(t *testing.T) {
	store := defaultReasonStore()
	cache := NewCacheService(&memoryCacheRepo{}, NewMetricsService(), time.Minute, nil)
	svc := NewRejectionReasonService(store, cache, 0, nil)

	first, cached, err := svc.Catalogue(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	second, cached, err := svc.Catalogue(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.calls)
}

func TestRejectionReasonServiceFallsBackOnCacheError(t *testing.T) {
	store := defaultReasonStore()
	cache := NewCacheService(&memoryCacheRepo{getErr: errors.New("redis down")}, nil, time.Minute, nil)
	svc := NewRejectionReasonService(store, cache, 0, nil)

	reasons, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, reasons, 3)
}

func TestRejectionReasonServiceWithoutCache(t *testing.T) {
	store := defaultReasonStore()
	svc := NewRejectionReasonService(store, nil, 0, nil)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestRejectionReasonServiceResolveIsIntersection(t *testing.T) {
	svc := NewRejectionReasonService(defaultReasonStore(), nil, 0, nil)

	resolved, err := svc.Resolve(context.Background(), []string{"service-complet", "unknown", "autre"})
	require.NoError(t, err)
	values := make([]string, 0, len(resolved))
	for _, r := range resolved {
		values = append(values, r.Value)
	}
	assert.Equal(t, []string{"autre", "service-complet"}, values)

	empty, err := svc.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRejectionReasonServiceStoreError(t *testing.T) {
	svc := NewRejectionReasonService(&stubReasonStore{err: errors.New("db down")}, nil, 0, nil)

	_, err := svc.Resolve(context.Background(), []string{"autre"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
