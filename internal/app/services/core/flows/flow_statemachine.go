package flows

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"careflow-service/internal/pkg/utils"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// transitionTable is the single source of truth for which event is legal in
// which status. EventAbandoned is handled separately: it is accepted from
// every non-terminal status.
var transitionTable = map[models.FlowStatus]map[models.FlowEventType]models.FlowStatus{
	models.FlowStatusCategorySelected: {
		models.EventIntakeStarted: models.FlowStatusIntakeInProgress,
	},
	models.FlowStatusIntakeInProgress: {
		models.EventIntakeSubmitted: models.FlowStatusIntakeCompleted,
	},
	models.FlowStatusRiskEvaluated: {
		models.EventRiskReviewed:     models.FlowStatusRiskEvaluated,
		models.EventProviderAssigned: models.FlowStatusProviderAssigned,
	},
	models.FlowStatusUrgentEscalated: {
		models.EventRiskReviewed:     models.FlowStatusRiskEvaluated,
		models.EventProviderAssigned: models.FlowStatusProviderAssigned,
	},
	models.FlowStatusProviderAssigned: {
		models.EventConsultationScheduled: models.FlowStatusConsultationScheduled,
	},
	models.FlowStatusConsultationScheduled: {
		models.EventConsultationCompleted: models.FlowStatusConsultationCompleted,
	},
	models.FlowStatusConsultationCompleted: {
		models.EventOrderFulfilled: models.FlowStatusFulfilled,
		models.EventFlowClosed:     models.FlowStatusCompleted,
	},
	models.FlowStatusFulfilled: {
		models.EventFlowClosed: models.FlowStatusCompleted,
	},
}

// ApplyInput carries the I/O-derived inputs a transition may need. The
// usecase loads them up front so the state machine itself stays free of
// repository calls.
type ApplyInput struct {
	Profile    *models.PatientProfile
	Candidates []models.Provider
}

// TransitionOutcome is the full effect of one applied event: the mutated
// flow copy, the audit records to append, the assessment to persist (if the
// event produced one) and the outbound events to forward after commit.
type TransitionOutcome struct {
	Flow       *models.Flow
	Records    []models.TransitionRecord
	Assessment *models.RiskAssessment
	Events     []models.OutboundEvent
}

type FlowStateMachine struct {
	scorer  contracts.RiskScorer
	matcher contracts.ProviderMatcher
	clock   contracts.Clock
	log     *zap.Logger
}

func NewFlowStateMachine(scorer contracts.RiskScorer, matcher contracts.ProviderMatcher, clock contracts.Clock, logger *zap.Logger) *FlowStateMachine {
	return &FlowStateMachine{
		scorer:  scorer,
		matcher: matcher,
		clock:   clock,
		log:     logger,
	}
}

// Apply validates the event against the current status and computes the
// resulting transition(s) without touching storage. The input flow is never
// mutated: on error the caller's copy is exactly what it was.
func (sm *FlowStateMachine) Apply(flow *models.Flow, event *models.FlowEvent, input ApplyInput) (*TransitionOutcome, error) {
	if flow.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: flow %s is %s", models.ErrFlowTerminal, flow.ID, flow.Status)
	}

	if event.Type != models.EventAbandoned {
		if _, known := transitionTable[flow.Status][event.Type]; !known {
			return nil, fmt.Errorf("%w: event %s is not accepted in status %s", models.ErrInvalidTransition, event.Type, flow.Status)
		}
	}
	if err := validatePayloadPairing(event); err != nil {
		return nil, err
	}

	next := *flow
	now := sm.clock.Now()
	next.LastActivityAt = now

	outcome := &TransitionOutcome{Flow: &next}

	var err error
	switch event.Type {
	case models.EventIntakeStarted:
		sm.applySimple(outcome, event, models.FlowStatusIntakeInProgress, models.TransitionPayload{EventType: event.Type}, now)
	case models.EventIntakeSubmitted:
		err = sm.applyIntakeSubmitted(outcome, event, input, now)
	case models.EventRiskReviewed:
		err = sm.applyRiskReviewed(outcome, event, now)
	case models.EventProviderAssigned:
		err = sm.applyProviderAssigned(outcome, event, input, now)
	case models.EventConsultationScheduled:
		err = sm.applyConsultationScheduled(outcome, event, now)
	case models.EventConsultationCompleted:
		err = sm.applyConsultationCompleted(outcome, event, now)
	case models.EventOrderFulfilled:
		err = sm.applyOrderFulfilled(outcome, event, now)
	case models.EventFlowClosed:
		sm.applyFlowClosed(outcome, event, now)
	case models.EventAbandoned:
		sm.applyAbandoned(outcome, event, now)
	default:
		err = fmt.Errorf("%w: unknown event type %s", models.ErrInvalidTransition, event.Type)
	}
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

func (sm *FlowStateMachine) applySimple(outcome *TransitionOutcome, event *models.FlowEvent, to models.FlowStatus, payload models.TransitionPayload, now time.Time) {
	sm.advance(outcome, to, models.TransitionReasonEvent, event.TriggeredBy, payload, now)
}

// applyIntakeSubmitted is the only handler producing two transitions in one
// call: intake completion, then the automatic risk evaluation that either
// settles on risk_evaluated or short-circuits to urgent_escalated.
func (sm *FlowStateMachine) applyIntakeSubmitted(outcome *TransitionOutcome, event *models.FlowEvent, input ApplyInput, now time.Time) error {
	payload := event.IntakeSubmitted
	if err := setWriteOnceRef(&outcome.Flow.FormSubmissionRef, payload.FormSubmissionRef, "formSubmissionRef"); err != nil {
		return err
	}

	sm.advance(outcome, models.FlowStatusIntakeCompleted, models.TransitionReasonEvent, event.TriggeredBy, models.TransitionPayload{
		EventType: event.Type,
		Reference: payload.FormSubmissionRef,
	}, now)

	assessment := sm.scorer.Assess(input.Profile, payload.Answers)
	assessment.ID = utils.GenerateID()
	assessment.SourceFlowID = outcome.Flow.ID
	outcome.Assessment = assessment
	outcome.Flow.RiskAssessment = assessment

	to := models.FlowStatusRiskEvaluated
	reason := models.TransitionReasonRiskEvaluation
	if assessment.HasUrgentFlags() {
		to = models.FlowStatusUrgentEscalated
		reason = models.TransitionReasonUrgentEscalation
		outcome.Events = append(outcome.Events, models.OutboundEvent{
			Type:       models.OutboundUrgentCaseRaised,
			FlowID:     outcome.Flow.ID,
			Assessment: assessment,
			OccurredAt: now,
		})
		sm.log.Warn("FlowStateMachine.Apply urgent escalation",
			zap.String(constvars.LoggingFlowIDKey, outcome.Flow.ID),
			zap.Float64(constvars.LoggingRiskScoreKey, assessment.Score),
			zap.Int(constvars.LoggingUrgentFlagsKey, len(assessment.UrgentFlags)),
		)
	}

	sm.advance(outcome, to, reason, event.TriggeredBy, models.TransitionPayload{
		EventType:    event.Type,
		AssessmentID: assessment.ID,
	}, now)
	return nil
}

func (sm *FlowStateMachine) applyRiskReviewed(outcome *TransitionOutcome, event *models.FlowEvent, now time.Time) error {
	if outcome.Flow.RiskAssessment == nil {
		return fmt.Errorf("%w: flow %s has no assessment to review", models.ErrInvalidTransition, outcome.Flow.ID)
	}

	wasUrgent := outcome.Flow.Status == models.FlowStatusUrgentEscalated

	reassessed := sm.scorer.Reassess(outcome.Flow.RiskAssessment, event.RiskReviewed)
	reassessed.ID = utils.GenerateID()
	outcome.Assessment = reassessed
	outcome.Flow.RiskAssessment = reassessed

	// The reviewed assessment decides where the flow lands: flags still
	// present keep it escalated regardless of the table default.
	to := models.FlowStatusRiskEvaluated
	if reassessed.HasUrgentFlags() {
		to = models.FlowStatusUrgentEscalated
		if !wasUrgent {
			outcome.Events = append(outcome.Events, models.OutboundEvent{
				Type:       models.OutboundUrgentCaseRaised,
				FlowID:     outcome.Flow.ID,
				Assessment: reassessed,
				OccurredAt: now,
			})
		}
	}

	var note string
	if event.RiskReviewed != nil {
		note = event.RiskReviewed.ReviewNote
	}
	sm.advance(outcome, to, models.TransitionReasonClinicianReview, event.TriggeredBy, models.TransitionPayload{
		EventType:    event.Type,
		AssessmentID: reassessed.ID,
		Note:         note,
	}, now)
	return nil
}

func (sm *FlowStateMachine) applyProviderAssigned(outcome *TransitionOutcome, event *models.FlowEvent, input ApplyInput, now time.Time) error {
	if event.ProviderAssigned != nil && event.ProviderAssigned.ProviderID != "" {
		// Clinician-forced assignment: bypasses scoring but is still logged
		// as a manual override on the audit trail.
		outcome.Flow.AssignedProviderID = event.ProviderAssigned.ProviderID
		sm.advance(outcome, models.FlowStatusProviderAssigned, models.TransitionReasonManualOverride, event.TriggeredBy, models.TransitionPayload{
			EventType:  event.Type,
			ProviderID: event.ProviderAssigned.ProviderID,
		}, now)
		return nil
	}

	if outcome.Flow.RiskAssessment == nil {
		return fmt.Errorf("%w: flow %s has no assessment to match against", models.ErrInvalidTransition, outcome.Flow.ID)
	}

	ranked := sm.matcher.Rank(outcome.Flow.RiskAssessment, input.Candidates)
	if len(ranked) == 0 {
		return fmt.Errorf("%w: no active providers available for flow %s", models.ErrProviderNotFound, outcome.Flow.ID)
	}

	top := ranked[0]
	outcome.Flow.AssignedProviderID = top.ProviderID
	outcome.Events = append(outcome.Events, models.OutboundEvent{
		Type:       models.OutboundProviderAssignmentRecommended,
		FlowID:     outcome.Flow.ID,
		Candidates: ranked,
		OccurredAt: now,
	})

	sm.advance(outcome, models.FlowStatusProviderAssigned, models.TransitionReasonEvent, event.TriggeredBy, models.TransitionPayload{
		EventType:        event.Type,
		ProviderID:       top.ProviderID,
		RankedCandidates: ranked,
	}, now)
	return nil
}

func (sm *FlowStateMachine) applyConsultationScheduled(outcome *TransitionOutcome, event *models.FlowEvent, now time.Time) error {
	if err := setWriteOnceRef(&outcome.Flow.ConsultationRef, event.ConsultationScheduled.ConsultationRef, "consultationRef"); err != nil {
		return err
	}
	sm.advance(outcome, models.FlowStatusConsultationScheduled, models.TransitionReasonEvent, event.TriggeredBy, models.TransitionPayload{
		EventType: event.Type,
		Reference: event.ConsultationScheduled.ConsultationRef,
	}, now)
	return nil
}

func (sm *FlowStateMachine) applyConsultationCompleted(outcome *TransitionOutcome, event *models.FlowEvent, now time.Time) error {
	payload := models.TransitionPayload{EventType: event.Type}
	if event.ConsultationCompleted != nil && event.ConsultationCompleted.InvoiceRef != "" {
		if err := setWriteOnceRef(&outcome.Flow.InvoiceRef, event.ConsultationCompleted.InvoiceRef, "invoiceRef"); err != nil {
			return err
		}
		payload.Reference = event.ConsultationCompleted.InvoiceRef
	}
	sm.advance(outcome, models.FlowStatusConsultationCompleted, models.TransitionReasonEvent, event.TriggeredBy, payload, now)
	return nil
}

func (sm *FlowStateMachine) applyOrderFulfilled(outcome *TransitionOutcome, event *models.FlowEvent, now time.Time) error {
	if err := setWriteOnceRef(&outcome.Flow.OrderRef, event.OrderFulfilled.OrderRef, "orderRef"); err != nil {
		return err
	}
	sm.advance(outcome, models.FlowStatusFulfilled, models.TransitionReasonEvent, event.TriggeredBy, models.TransitionPayload{
		EventType: event.Type,
		Reference: event.OrderFulfilled.OrderRef,
	}, now)
	return nil
}

func (sm *FlowStateMachine) applyFlowClosed(outcome *TransitionOutcome, event *models.FlowEvent, now time.Time) {
	payload := models.TransitionPayload{EventType: event.Type}
	if event.FlowClosed != nil && event.FlowClosed.SubscriptionRef != "" {
		outcome.Flow.SubscriptionRef = event.FlowClosed.SubscriptionRef
		payload.Reference = event.FlowClosed.SubscriptionRef
	}
	completedAt := now
	outcome.Flow.CompletedAt = &completedAt
	outcome.Events = append(outcome.Events, models.OutboundEvent{
		Type:       models.OutboundFlowCompleted,
		FlowID:     outcome.Flow.ID,
		OccurredAt: now,
	})
	sm.advance(outcome, models.FlowStatusCompleted, models.TransitionReasonEvent, event.TriggeredBy, payload, now)
}

func (sm *FlowStateMachine) applyAbandoned(outcome *TransitionOutcome, event *models.FlowEvent, now time.Time) {
	reason := models.TransitionReasonEvent
	if event.TriggeredBy == constvars.AbandonmentSweeperActor {
		reason = models.TransitionReasonInactivitySweep
	}
	completedAt := now
	outcome.Flow.CompletedAt = &completedAt
	sm.advance(outcome, models.FlowStatusAbandoned, reason, event.TriggeredBy, models.TransitionPayload{
		EventType: event.Type,
		Note:      event.Abandoned.Reason,
	}, now)
}

// advance moves the flow one status forward, bumps the version and appends
// the matching audit record stamped with the new version.
func (sm *FlowStateMachine) advance(outcome *TransitionOutcome, to models.FlowStatus, reason, triggeredBy string, payload models.TransitionPayload, now time.Time) {
	from := outcome.Flow.Status
	outcome.Flow.Status = to
	outcome.Flow.Active = !to.IsTerminal()
	outcome.Flow.Version++
	outcome.Records = append(outcome.Records, models.TransitionRecord{
		ID:          utils.GenerateID(),
		FlowID:      outcome.Flow.ID,
		FromStatus:  from,
		ToStatus:    to,
		FlowVersion: outcome.Flow.Version,
		Reason:      reason,
		TriggeredBy: triggeredBy,
		OccurredAt:  now,
		Payload:     payload,
	})
}

// validatePayloadPairing rejects an event whose mandatory payload is absent.
// Optional payloads (risk review, provider override, closing refs) may be
// nil.
func validatePayloadPairing(event *models.FlowEvent) error {
	switch event.Type {
	case models.EventIntakeSubmitted:
		if event.IntakeSubmitted == nil || event.IntakeSubmitted.FormSubmissionRef == "" {
			return fmt.Errorf("%w: intake_submitted requires a form submission payload", models.ErrInvalidTransition)
		}
	case models.EventConsultationScheduled:
		if event.ConsultationScheduled == nil || event.ConsultationScheduled.ConsultationRef == "" {
			return fmt.Errorf("%w: consultation_scheduled requires a consultation reference", models.ErrInvalidTransition)
		}
	case models.EventOrderFulfilled:
		if event.OrderFulfilled == nil || event.OrderFulfilled.OrderRef == "" {
			return fmt.Errorf("%w: order_fulfilled requires an order reference", models.ErrInvalidTransition)
		}
	case models.EventAbandoned:
		if event.Abandoned == nil || event.Abandoned.Reason == "" {
			return fmt.Errorf("%w: abandoned requires a reason", models.ErrInvalidTransition)
		}
	}
	return nil
}

func setWriteOnceRef(current *string, incoming, name string) error {
	if *current != "" {
		return fmt.Errorf("%w: %s is already set and write-once", models.ErrInvalidTransition, name)
	}
	*current = incoming
	return nil
}
