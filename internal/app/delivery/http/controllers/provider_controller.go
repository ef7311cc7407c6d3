package controllers

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/pkg/constvars"
	"careflow-service/internal/pkg/dto/requests"
	"careflow-service/internal/pkg/exceptions"
	"careflow-service/internal/pkg/utils"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type ProviderController struct {
	Log             *zap.Logger
	ProviderUsecase contracts.ProviderUsecase
}

func NewProviderController(logger *zap.Logger, providerUsecase contracts.ProviderUsecase) *ProviderController {
	return &ProviderController{
		Log:             logger,
		ProviderUsecase: providerUsecase,
	}
}

func (ctrl *ProviderController) UpsertProvider(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("ProviderController.UpsertProvider requestID not found in context")
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	providerID := chi.URLParam(r, constvars.URLParamProviderID)
	if providerID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(fmt.Errorf("empty path parameter"), constvars.URLParamProviderID))
		return
	}
	ctrl.Log.Info("ProviderController.UpsertProvider called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProviderIDKey, providerID),
	)

	request := new(requests.UpsertProviderRequest)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ctrl.Log.Error("ProviderController.UpsertProvider error decoding JSON",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	if err := utils.ValidateStruct(request); err != nil {
		ctrl.Log.Error("ProviderController.UpsertProvider validation error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ProviderUsecase.UpsertProvider(ctx, providerID, request)
	if err != nil {
		ctrl.Log.Error("ProviderController.UpsertProvider error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProviderIDKey, providerID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("ProviderController.UpsertProvider succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProviderIDKey, providerID),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ProviderUpsertedSuccessMessage, response)
}

func (ctrl *ProviderController) ListProviders(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("ProviderController.ListProviders requestID not found in context")
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}
	ctrl.Log.Info("ProviderController.ListProviders called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ProviderUsecase.ListProviders(ctx)
	if err != nil {
		ctrl.Log.Error("ProviderController.ListProviders error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("ProviderController.ListProviders succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingResponseCountKey, len(response)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ProvidersRetrievedSuccessMessage, response)
}
