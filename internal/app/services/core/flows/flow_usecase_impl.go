package flows

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"careflow-service/internal/pkg/dto/requests"
	"careflow-service/internal/pkg/dto/responses"
	"careflow-service/internal/pkg/exceptions"
	"careflow-service/internal/pkg/utils"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type flowUsecase struct {
	FlowRepository     contracts.FlowRepository
	RiskRepository     contracts.RiskAssessmentRepository
	PatientRepository  contracts.PatientProfileRepository
	ProviderRepository contracts.ProviderRepository
	ProviderDirectory  contracts.ProviderDirectory
	StateMachine       *FlowStateMachine
	EventPublisher     contracts.EventPublisher
	Clock              contracts.Clock
	Log                *zap.Logger
}

func NewFlowUsecase(
	flowRepository contracts.FlowRepository,
	riskRepository contracts.RiskAssessmentRepository,
	patientRepository contracts.PatientProfileRepository,
	providerRepository contracts.ProviderRepository,
	providerDirectory contracts.ProviderDirectory,
	stateMachine *FlowStateMachine,
	eventPublisher contracts.EventPublisher,
	clock contracts.Clock,
	logger *zap.Logger,
) contracts.FlowUsecase {
	return &flowUsecase{
		FlowRepository:     flowRepository,
		RiskRepository:     riskRepository,
		PatientRepository:  patientRepository,
		ProviderRepository: providerRepository,
		ProviderDirectory:  providerDirectory,
		StateMachine:       stateMachine,
		EventPublisher:     eventPublisher,
		Clock:              clock,
		Log:                logger,
	}
}

func (uc *flowUsecase) CreateFlow(ctx context.Context, request *requests.CreateFlowRequest) (*responses.Flow, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("FlowUsecase.CreateFlow called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, request.PatientID),
		zap.String(constvars.LoggingCategoryIDKey, request.CategoryID),
	)

	existing, err := uc.FlowRepository.FindActiveFlowByPatientAndCategory(ctx, request.PatientID, request.CategoryID)
	if err != nil {
		return nil, uc.mapDomainError(err)
	}
	if existing != nil {
		return nil, exceptions.ErrFlowAlreadyActive(fmt.Errorf("%w: flow %s", models.ErrActiveFlowExists, existing.ID))
	}

	now := uc.Clock.Now()
	flow := &models.Flow{
		ID:             utils.GenerateID(),
		PatientID:      request.PatientID,
		CategoryID:     request.CategoryID,
		Status:         models.FlowStatusCategorySelected,
		Version:        1,
		Active:         true,
		StartedAt:      now,
		LastActivityAt: now,
	}

	if _, err := uc.FlowRepository.CreateFlow(ctx, flow); err != nil {
		return nil, uc.mapDomainError(err)
	}

	uc.Log.Info("FlowUsecase.CreateFlow succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flow.ID),
	)
	response := utils.BuildFlowResponse(flow)
	return &response, nil
}

func (uc *flowUsecase) ApplyEvent(ctx context.Context, flowID string, request *requests.FlowEventRequest) (*responses.ApplyEventResult, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("FlowUsecase.ApplyEvent called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
		zap.String(constvars.LoggingEventTypeKey, request.Type),
	)

	flow, err := uc.FlowRepository.FindFlowByID(ctx, flowID)
	if err != nil {
		return nil, uc.mapDomainError(err)
	}

	event := utils.BuildFlowEventFromRequest(request)
	input, err := uc.gatherApplyInput(ctx, flow, event)
	if err != nil {
		return nil, err
	}

	outcome, err := uc.StateMachine.Apply(flow, event, input)
	if err != nil {
		return nil, uc.mapDomainError(err)
	}

	if err := uc.commitOutcome(ctx, outcome, flow.Version); err != nil {
		return nil, uc.mapDomainError(err)
	}

	uc.publishOutboundEvents(ctx, requestID, outcome.Events)

	uc.Log.Info("FlowUsecase.ApplyEvent succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
		zap.String(constvars.LoggingFromStatusKey, string(flow.Status)),
		zap.String(constvars.LoggingToStatusKey, string(outcome.Flow.Status)),
		zap.Int64(constvars.LoggingFlowVersionKey, outcome.Flow.Version),
	)
	return &responses.ApplyEventResult{
		Flow:   utils.BuildFlowResponse(outcome.Flow),
		Events: outcome.Events,
	}, nil
}

func (uc *flowUsecase) GetFlow(ctx context.Context, flowID string) (*responses.Flow, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("FlowUsecase.GetFlow called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
	)

	flow, err := uc.FlowRepository.FindFlowByID(ctx, flowID)
	if err != nil {
		return nil, uc.mapDomainError(err)
	}
	response := utils.BuildFlowResponse(flow)
	return &response, nil
}

func (uc *flowUsecase) GetRiskHistory(ctx context.Context, flowID string) ([]responses.RiskAssessment, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("FlowUsecase.GetRiskHistory called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
	)

	if _, err := uc.FlowRepository.FindFlowByID(ctx, flowID); err != nil {
		return nil, uc.mapDomainError(err)
	}

	assessments, err := uc.RiskRepository.FindAssessmentsByFlowID(ctx, flowID)
	if err != nil {
		return nil, uc.mapDomainError(err)
	}

	history := make([]responses.RiskAssessment, 0, len(assessments))
	for index := range assessments {
		history = append(history, utils.BuildRiskAssessmentResponse(&assessments[index]))
	}
	return history, nil
}

func (uc *flowUsecase) GetTransitions(ctx context.Context, flowID string) ([]responses.TransitionRecord, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("FlowUsecase.GetTransitions called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlowIDKey, flowID),
	)

	if _, err := uc.FlowRepository.FindFlowByID(ctx, flowID); err != nil {
		return nil, uc.mapDomainError(err)
	}

	records, err := uc.FlowRepository.FindTransitionsByFlowID(ctx, flowID)
	if err != nil {
		return nil, uc.mapDomainError(err)
	}

	trail := make([]responses.TransitionRecord, 0, len(records))
	for index := range records {
		trail = append(trail, utils.BuildTransitionRecordResponse(&records[index]))
	}
	return trail, nil
}

// GetStuckFlows lists flows whose audit trail ran ahead of the flow
// document, for operator inspection and retry.
func (uc *flowUsecase) GetStuckFlows(ctx context.Context) ([]responses.Flow, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("FlowUsecase.GetStuckFlows called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	flows, err := uc.FlowRepository.FindStuckFlows(ctx)
	if err != nil {
		return nil, uc.mapDomainError(err)
	}

	stuck := make([]responses.Flow, 0, len(flows))
	for index := range flows {
		stuck = append(stuck, utils.BuildFlowResponse(&flows[index]))
	}
	uc.Log.Info("FlowUsecase.GetStuckFlows succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingResponseCountKey, len(stuck)),
	)
	return stuck, nil
}

// AbandonInactiveFlows sweeps every non-terminal flow whose last activity is
// older than inactiveFor. Per-flow failures are logged and skipped so one
// contended flow never stalls the sweep; a flow that loses its version race
// here was touched by someone and is no longer inactive anyway.
func (uc *flowUsecase) AbandonInactiveFlows(ctx context.Context, inactiveFor time.Duration) (int, error) {
	cutoff := uc.Clock.Now().Add(-inactiveFor)
	uc.Log.Info("FlowUsecase.AbandonInactiveFlows called",
		zap.Time("cutoff", cutoff),
	)

	stale, err := uc.FlowRepository.FindFlowsInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, uc.mapDomainError(err)
	}

	abandoned := 0
	for index := range stale {
		flow := stale[index]
		event := &models.FlowEvent{
			Type:        models.EventAbandoned,
			TriggeredBy: constvars.AbandonmentSweeperActor,
			Abandoned: &models.AbandonedPayload{
				Reason: fmt.Sprintf("no activity since %s", flow.LastActivityAt.UTC().Format(time.RFC3339)),
			},
		}

		outcome, err := uc.StateMachine.Apply(&flow, event, ApplyInput{})
		if err != nil {
			uc.Log.Warn("FlowUsecase.AbandonInactiveFlows skipping flow",
				zap.String(constvars.LoggingFlowIDKey, flow.ID),
				zap.Error(err),
			)
			continue
		}
		if err := uc.commitOutcome(ctx, outcome, flow.Version); err != nil {
			uc.Log.Warn("FlowUsecase.AbandonInactiveFlows commit failed",
				zap.String(constvars.LoggingFlowIDKey, flow.ID),
				zap.Error(err),
			)
			continue
		}
		abandoned++
	}

	uc.Log.Info("FlowUsecase.AbandonInactiveFlows succeeded",
		zap.Int(constvars.LoggingResponseCountKey, abandoned),
	)
	return abandoned, nil
}

// gatherApplyInput loads the I/O-derived inputs the state machine will need
// for this event type, before any mutation is computed.
func (uc *flowUsecase) gatherApplyInput(ctx context.Context, flow *models.Flow, event *models.FlowEvent) (ApplyInput, error) {
	var input ApplyInput

	switch event.Type {
	case models.EventIntakeSubmitted:
		profile, err := uc.PatientRepository.FindProfileByPatientID(ctx, flow.PatientID)
		if err != nil {
			// Scoring fails open: an unreadable profile reduces the inputs,
			// it does not block the intake transition.
			uc.Log.Warn("FlowUsecase.gatherApplyInput proceeding without patient profile",
				zap.String(constvars.LoggingPatientIDKey, flow.PatientID),
				zap.Error(err),
			)
			profile = nil
		}
		input.Profile = profile

	case models.EventProviderAssigned:
		if event.ProviderAssigned != nil && event.ProviderAssigned.ProviderID != "" {
			provider, err := uc.ProviderRepository.FindProviderByID(ctx, event.ProviderAssigned.ProviderID)
			if err != nil {
				return input, uc.mapDomainError(err)
			}
			if provider == nil {
				return input, exceptions.ErrProviderNotFound(fmt.Errorf("%w: %s", models.ErrProviderNotFound, event.ProviderAssigned.ProviderID))
			}
			return input, nil
		}
		candidates, err := uc.ProviderDirectory.ActiveProviders(ctx)
		if err != nil {
			return input, uc.mapDomainError(err)
		}
		input.Candidates = candidates
	}

	return input, nil
}

// commitOutcome persists one applied event: the assessment (if any), then
// every audit record, then the versioned flow update. Records land before
// the flow document on purpose, so an interrupted write leaves the trail
// ahead of the document instead of a silent gap.
func (uc *flowUsecase) commitOutcome(ctx context.Context, outcome *TransitionOutcome, expectedVersion int64) error {
	if outcome.Assessment != nil {
		if _, err := uc.RiskRepository.CreateAssessment(ctx, outcome.Assessment); err != nil {
			return err
		}
	}
	for index := range outcome.Records {
		if _, err := uc.FlowRepository.AppendTransitionRecord(ctx, &outcome.Records[index]); err != nil {
			return err
		}
	}
	return uc.FlowRepository.UpdateFlowWithVersion(ctx, outcome.Flow, expectedVersion)
}

// publishOutboundEvents forwards events after the transition committed. A
// publish failure is logged, never propagated: the transition already
// happened and the caller still received the events synchronously.
func (uc *flowUsecase) publishOutboundEvents(ctx context.Context, requestID string, events []models.OutboundEvent) {
	for index := range events {
		if err := uc.EventPublisher.Publish(ctx, &events[index]); err != nil {
			uc.Log.Error("FlowUsecase.publishOutboundEvents failed",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingEventTypeKey, string(events[index].Type)),
				zap.String(constvars.LoggingFlowIDKey, events[index].FlowID),
				zap.Error(err),
			)
		}
	}
}

// mapDomainError translates domain sentinels into client-facing errors at
// the usecase boundary. Errors that are already CustomError pass through.
func (uc *flowUsecase) mapDomainError(err error) error {
	var custom *exceptions.CustomError
	if errors.As(err, &custom) {
		return custom
	}

	switch {
	case errors.Is(err, models.ErrFlowNotFound):
		return exceptions.ErrFlowNotFound(err)
	case errors.Is(err, models.ErrFlowTerminal):
		return exceptions.ErrFlowTerminal(err)
	case errors.Is(err, models.ErrInvalidTransition):
		return exceptions.ErrFlowInvalidTransition(err)
	case errors.Is(err, models.ErrConcurrentModification):
		return exceptions.ErrFlowConcurrentModification(err)
	case errors.Is(err, models.ErrActiveFlowExists):
		return exceptions.ErrFlowAlreadyActive(err)
	case errors.Is(err, models.ErrProviderNotFound):
		return exceptions.ErrProviderNotFound(err)
	case errors.Is(err, models.ErrPersistence):
		return exceptions.ErrFlowPersistence(err)
	default:
		return exceptions.ErrServerProcess(err)
	}
}
