package providers

import (
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProviderRepository struct {
	active []models.Provider
	calls  int
}

func (r *stubProviderRepository) UpsertProvider(_ context.Context, provider *models.Provider) error {
	r.active = append(r.active, *provider)
	return nil
}

func (r *stubProviderRepository) FindProviderByID(_ context.Context, providerID string) (*models.Provider, error) {
	for _, provider := range r.active {
		if provider.ID == providerID {
			match := provider
			return &match, nil
		}
	}
	return nil, nil
}

func (r *stubProviderRepository) FindActiveProviders(_ context.Context) ([]models.Provider, error) {
	r.calls++
	return r.active, nil
}

type stubRedis struct {
	values  map[string]string
	failGet bool
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: make(map[string]string)}
}

func (s *stubRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = string(raw)
	return nil
}

func (s *stubRedis) Get(_ context.Context, key string) (string, error) {
	if s.failGet {
		return "", errors.New("redis unavailable")
	}
	return s.values[key], nil
}

func (s *stubRedis) Delete(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

func (s *stubRedis) TrySetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	s.values[key] = string(raw)
	return true, nil
}

func TestActiveProvidersPopulatesAndHitsCache(t *testing.T) {
	repository := &stubProviderRepository{active: []models.Provider{{ID: "prov-1", Active: true}}}
	redis := newStubRedis()
	directory := NewProviderDirectory(repository, redis, 5*time.Minute, zap.NewNop())

	first, err := directory.ActiveProviders(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, repository.calls)
	assert.NotEmpty(t, redis.values[constvars.RedisKeyProviderDirectory])

	second, err := directory.ActiveProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repository.calls, "second read must be served from cache")
}

func TestActiveProvidersFallsBackWhenCacheUnavailable(t *testing.T) {
	repository := &stubProviderRepository{active: []models.Provider{{ID: "prov-1", Active: true}}}
	redis := newStubRedis()
	redis.failGet = true
	directory := NewProviderDirectory(repository, redis, 5*time.Minute, zap.NewNop())

	active, err := directory.ActiveProviders(context.Background())

	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 1, repository.calls)
}

func TestActiveProvidersDropsCorruptCacheEntry(t *testing.T) {
	repository := &stubProviderRepository{active: []models.Provider{{ID: "prov-1", Active: true}}}
	redis := newStubRedis()
	redis.values[constvars.RedisKeyProviderDirectory] = "{not json"
	directory := NewProviderDirectory(repository, redis, 5*time.Minute, zap.NewNop())

	active, err := directory.ActiveProviders(context.Background())

	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 1, repository.calls)

	var cached []models.Provider
	require.NoError(t, json.Unmarshal([]byte(redis.values[constvars.RedisKeyProviderDirectory]), &cached))
	assert.Len(t, cached, 1)
}

func TestInvalidateRemovesCacheEntry(t *testing.T) {
	repository := &stubProviderRepository{active: []models.Provider{{ID: "prov-1", Active: true}}}
	redis := newStubRedis()
	directory := NewProviderDirectory(repository, redis, 5*time.Minute, zap.NewNop())

	_, err := directory.ActiveProviders(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, redis.values[constvars.RedisKeyProviderDirectory])

	require.NoError(t, directory.Invalidate(context.Background()))
	assert.Empty(t, redis.values[constvars.RedisKeyProviderDirectory])
}
