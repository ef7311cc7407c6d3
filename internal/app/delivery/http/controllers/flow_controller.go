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

type FlowController struct {
	Log         *zap.Logger
	FlowUsecase contracts.FlowUsecase
}

func NewFlowController(logger *zap.Logger, flowUsecase contracts.FlowUsecase) *FlowController {
	return &FlowController{
		Log:         logger,
		FlowUsecase: flowUsecase,
	}
}

func (ctrl *FlowController) CreateFlow(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("FlowController.CreateFlow requestID not found in context")
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}
	ctrl.Log.Info("FlowController.CreateFlow called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	request := new(requests.CreateFlowRequest)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ctrl.Log.Error("FlowController.CreateFlow error decoding JSON",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	if err := utils.ValidateStruct(request); err != nil {
		ctrl.Log.Error("FlowController.CreateFlow validation error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.FlowUsecase.CreateFlow(ctx, request)
	if err != nil {
		ctrl.Log.Error("FlowController.CreateFlow error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		if err == context.DeadlineExceeded {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("FlowController.CreateFlow succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, response.ID),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.FlowCreatedSuccessMessage, response)
}

func (ctrl *FlowController) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("FlowController.ApplyEvent requestID not found in context")
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	flowID := chi.URLParam(r, constvars.URLParamFlowID)
	if flowID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(fmt.Errorf("empty path parameter"), constvars.URLParamFlowID))
		return
	}
	ctrl.Log.Info("FlowController.ApplyEvent called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
	)

	request := new(requests.FlowEventRequest)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ctrl.Log.Error("FlowController.ApplyEvent error decoding JSON",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	if err := utils.ValidateStruct(request); err != nil {
		ctrl.Log.Error("FlowController.ApplyEvent validation error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.FlowUsecase.ApplyEvent(ctx, flowID, request)
	if err != nil {
		ctrl.Log.Error("FlowController.ApplyEvent error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingFlowIDKey, flowID),
			zap.Error(err),
		)
		if err == context.DeadlineExceeded {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("FlowController.ApplyEvent succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
		zap.String(constvars.LoggingToStatusKey, string(response.Flow.Status)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.FlowEventAppliedSuccessMessage, response)
}

func (ctrl *FlowController) GetFlow(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("FlowController.GetFlow requestID not found in context")
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	flowID := chi.URLParam(r, constvars.URLParamFlowID)
	if flowID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(fmt.Errorf("empty path parameter"), constvars.URLParamFlowID))
		return
	}
	ctrl.Log.Info("FlowController.GetFlow called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
	)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.FlowUsecase.GetFlow(ctx, flowID)
	if err != nil {
		ctrl.Log.Error("FlowController.GetFlow error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingFlowIDKey, flowID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.FlowRetrievedSuccessMessage, response)
}

func (ctrl *FlowController) GetStuckFlows(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("FlowController.GetStuckFlows requestID not found in context")
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}
	ctrl.Log.Info("FlowController.GetStuckFlows called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.FlowUsecase.GetStuckFlows(ctx)
	if err != nil {
		ctrl.Log.Error("FlowController.GetStuckFlows error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.StuckFlowsRetrievedSuccess, response)
}

func (ctrl *FlowController) GetRiskHistory(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("FlowController.GetRiskHistory requestID not found in context")
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	flowID := chi.URLParam(r, constvars.URLParamFlowID)
	if flowID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(fmt.Errorf("empty path parameter"), constvars.URLParamFlowID))
		return
	}
	ctrl.Log.Info("FlowController.GetRiskHistory called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
	)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.FlowUsecase.GetRiskHistory(ctx, flowID)
	if err != nil {
		ctrl.Log.Error("FlowController.GetRiskHistory error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingFlowIDKey, flowID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("FlowController.GetRiskHistory succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
		zap.Int(constvars.LoggingResponseCountKey, len(response)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.RiskHistoryRetrievedSuccess, response)
}

func (ctrl *FlowController) GetTransitions(w http.ResponseWriter, r *http.Request) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("FlowController.GetTransitions requestID not found in context")
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return
	}

	flowID := chi.URLParam(r, constvars.URLParamFlowID)
	if flowID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(fmt.Errorf("empty path parameter"), constvars.URLParamFlowID))
		return
	}
	ctrl.Log.Info("FlowController.GetTransitions called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
	)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.FlowUsecase.GetTransitions(ctx, flowID)
	if err != nil {
		ctrl.Log.Error("FlowController.GetTransitions error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingFlowIDKey, flowID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("FlowController.GetTransitions succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
		zap.Int(constvars.LoggingResponseCountKey, len(response)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.TransitionsRetrievedSuccess, response)
}
