package providers

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"careflow-service/internal/pkg/dto/requests"
	"careflow-service/internal/pkg/dto/responses"
	"careflow-service/internal/pkg/exceptions"
	"careflow-service/internal/pkg/utils"
	"context"

	"go.uber.org/zap"
)

type providerUsecase struct {
	Repository contracts.ProviderRepository
	Directory  contracts.ProviderDirectory
	Clock      contracts.Clock
	Log        *zap.Logger
}

func NewProviderUsecase(repository contracts.ProviderRepository, directory contracts.ProviderDirectory, clock contracts.Clock, logger *zap.Logger) contracts.ProviderUsecase {
	return &providerUsecase{
		Repository: repository,
		Directory:  directory,
		Clock:      clock,
		Log:        logger,
	}
}

func (uc *providerUsecase) UpsertProvider(ctx context.Context, providerID string, request *requests.UpsertProviderRequest) (*responses.Provider, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("ProviderUsecase.UpsertProvider called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProviderIDKey, providerID),
	)

	riskExperience := make([]models.RiskCategory, 0, len(request.RiskExperience))
	for _, category := range request.RiskExperience {
		riskExperience = append(riskExperience, models.RiskCategory(category))
	}

	provider := &models.Provider{
		ID:                   providerID,
		Name:                 request.Name,
		Specializations:      request.Specializations,
		RiskExperience:       riskExperience,
		Rating:               request.Rating,
		NextAvailableSlot:    request.NextAvailableSlot,
		EstimatedWaitMinutes: request.EstimatedWaitMinutes,
		Active:               request.Active,
		UpdatedAt:            uc.Clock.Now(),
	}

	if err := uc.Repository.UpsertProvider(ctx, provider); err != nil {
		return nil, exceptions.ErrMongoDBUpdateDocument(err)
	}

	// Stale cached rankings are tolerable for the TTL; a failed invalidation
	// only shortens nothing, so it is logged and swallowed.
	if err := uc.Directory.Invalidate(ctx); err != nil {
		uc.Log.Warn("ProviderUsecase.UpsertProvider cache invalidation failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProviderIDKey, providerID),
			zap.Error(err),
		)
	}

	response := utils.BuildProviderResponse(provider)
	return &response, nil
}

func (uc *providerUsecase) ListProviders(ctx context.Context) ([]responses.Provider, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("ProviderUsecase.ListProviders called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	active, err := uc.Directory.ActiveProviders(ctx)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}

	listed := make([]responses.Provider, 0, len(active))
	for index := range active {
		listed = append(listed, utils.BuildProviderResponse(&active[index]))
	}
	return listed, nil
}
