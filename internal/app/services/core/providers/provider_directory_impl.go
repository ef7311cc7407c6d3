package providers

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"context"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// providerDirectory is a cache-aside view over the provider collection. A
// broken cache degrades to direct reads, it never fails a routing decision.
type providerDirectory struct {
	Repository contracts.ProviderRepository
	Redis      contracts.RedisRepository
	TTL        time.Duration
	Log        *zap.Logger
}

func NewProviderDirectory(repository contracts.ProviderRepository, redis contracts.RedisRepository, ttl time.Duration, logger *zap.Logger) contracts.ProviderDirectory {
	return &providerDirectory{
		Repository: repository,
		Redis:      redis,
		TTL:        ttl,
		Log:        logger,
	}
}

func (d *providerDirectory) ActiveProviders(ctx context.Context) ([]models.Provider, error) {
	cached, err := d.Redis.Get(ctx, constvars.RedisKeyProviderDirectory)
	if err == nil && cached != "" {
		var active []models.Provider
		if unmarshalErr := json.Unmarshal([]byte(cached), &active); unmarshalErr == nil {
			return active, nil
		}
		d.Log.Warn("ProviderDirectory.ActiveProviders dropping undecodable cache entry",
			zap.String(constvars.LoggingRedisKey, constvars.RedisKeyProviderDirectory),
		)
	}

	active, err := d.Repository.FindActiveProviders(ctx)
	if err != nil {
		return nil, err
	}

	if setErr := d.Redis.Set(ctx, constvars.RedisKeyProviderDirectory, active, d.TTL); setErr != nil {
		d.Log.Warn("ProviderDirectory.ActiveProviders cache refresh failed",
			zap.String(constvars.LoggingRedisKey, constvars.RedisKeyProviderDirectory),
			zap.Error(setErr),
		)
	}
	return active, nil
}

func (d *providerDirectory) Invalidate(ctx context.Context) error {
	return d.Redis.Delete(ctx, constvars.RedisKeyProviderDirectory)
}
