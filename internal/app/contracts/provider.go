package contracts

import (
	"careflow-service/internal/app/models"
	"context"

	"careflow-service/internal/pkg/dto/requests"
	"careflow-service/internal/pkg/dto/responses"
)

// ProviderMatcher ranks candidate providers for a risk assessment.
// Referentially transparent: identical inputs always yield the identical
// output order.
type ProviderMatcher interface {
	Rank(assessment *models.RiskAssessment, candidates []models.Provider) []models.ProviderCandidate
}

type ProviderRepository interface {
	UpsertProvider(ctx context.Context, provider *models.Provider) error
	FindProviderByID(ctx context.Context, providerID string) (*models.Provider, error)
	FindActiveProviders(ctx context.Context) ([]models.Provider, error)
}

// ProviderDirectory is the candidate source for routing, a cache-aside view
// over ProviderRepository.
type ProviderDirectory interface {
	ActiveProviders(ctx context.Context) ([]models.Provider, error)
	Invalidate(ctx context.Context) error
}

type ProviderUsecase interface {
	UpsertProvider(ctx context.Context, providerID string, request *requests.UpsertProviderRequest) (*responses.Provider, error)
	ListProviders(ctx context.Context) ([]responses.Provider, error)
}
