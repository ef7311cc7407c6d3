package flows

import (
	"careflow-service/internal/app/models"
	"careflow-service/internal/app/services/core/providers"
	"careflow-service/internal/app/services/core/risk"
	"careflow-service/internal/pkg/constvars"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestMachine() *FlowStateMachine {
	clock := fixedClock{now: testNow}
	return NewFlowStateMachine(
		risk.NewRiskScorer(risk.DefaultScoringTables(), clock, zap.NewNop()),
		providers.NewProviderMatcher(providers.DefaultMatchWeights(), zap.NewNop()),
		clock,
		zap.NewNop(),
	)
}

func baseFlow(status models.FlowStatus) *models.Flow {
	return &models.Flow{
		ID:             "flow-1",
		PatientID:      "patient-1",
		CategoryID:     "category-1",
		Status:         status,
		Version:        3,
		StartedAt:      testNow.Add(-time.Hour),
		LastActivityAt: testNow.Add(-30 * time.Minute),
	}
}

func evaluatedFlow(status models.FlowStatus) *models.Flow {
	flow := baseFlow(status)
	flow.FormSubmissionRef = "form-1"
	flow.RiskAssessment = &models.RiskAssessment{
		ID:           "assessment-1",
		Score:        5.0,
		Category:     models.RiskCategoryMedium,
		SourceFlowID: flow.ID,
		Recommendation: models.Recommendation{
			Urgency:    models.UrgencyWithinWeek,
			Monitoring: []string{"anxiety"},
		},
	}
	if status == models.FlowStatusUrgentEscalated {
		flow.RiskAssessment.UrgentFlags = []models.UrgentFlag{
			{Type: models.UrgentFlagTypeKeywords, MatchedTerms: []string{"self harm"}},
		}
	}
	return flow
}

func calmIntakeEvent() *models.FlowEvent {
	number := 3.0
	return &models.FlowEvent{
		Type:        models.EventIntakeSubmitted,
		TriggeredBy: "patient-1",
		IntakeSubmitted: &models.IntakeSubmittedPayload{
			FormSubmissionRef: "form-1",
			Answers: []models.IntakeAnswer{
				{Key: "pain_rating", Number: &number},
			},
		},
	}
}

func TestApplyRejectsTerminalFlow(t *testing.T) {
	machine := newTestMachine()

	for _, status := range []models.FlowStatus{models.FlowStatusCompleted, models.FlowStatusAbandoned} {
		flow := baseFlow(status)
		_, err := machine.Apply(flow, &models.FlowEvent{Type: models.EventIntakeStarted, TriggeredBy: "patient-1"}, ApplyInput{})
		assert.ErrorIs(t, err, models.ErrFlowTerminal, "status %s", status)
	}
}

func TestApplyRejectsEventNotInTable(t *testing.T) {
	machine := newTestMachine()

	flow := baseFlow(models.FlowStatusCategorySelected)
	event := &models.FlowEvent{
		Type:        models.EventConsultationScheduled,
		TriggeredBy: "scheduler-1",
		ConsultationScheduled: &models.ConsultationScheduledPayload{
			ConsultationRef: "consult-1",
			ScheduledFor:    testNow.Add(time.Hour),
		},
	}

	_, err := machine.Apply(flow, event, ApplyInput{})

	require.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, models.FlowStatusCategorySelected, flow.Status, "rejected event must not mutate the flow")
	assert.Equal(t, int64(3), flow.Version)
}

func TestApplyIntakeStarted(t *testing.T) {
	machine := newTestMachine()

	flow := baseFlow(models.FlowStatusCategorySelected)
	outcome, err := machine.Apply(flow, &models.FlowEvent{Type: models.EventIntakeStarted, TriggeredBy: "patient-1"}, ApplyInput{})

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusIntakeInProgress, outcome.Flow.Status)
	assert.Equal(t, int64(4), outcome.Flow.Version)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, models.FlowStatusCategorySelected, outcome.Records[0].FromStatus)
	assert.Equal(t, models.FlowStatusIntakeInProgress, outcome.Records[0].ToStatus)
	assert.Equal(t, testNow, outcome.Flow.LastActivityAt)
}

func TestApplyIntakeSubmittedAutoAdvances(t *testing.T) {
	machine := newTestMachine()

	flow := baseFlow(models.FlowStatusIntakeInProgress)
	outcome, err := machine.Apply(flow, calmIntakeEvent(), ApplyInput{})

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusRiskEvaluated, outcome.Flow.Status)
	assert.Equal(t, int64(5), outcome.Flow.Version, "intake submission is two transitions")
	assert.Equal(t, "form-1", outcome.Flow.FormSubmissionRef)

	require.Len(t, outcome.Records, 2)
	assert.Equal(t, models.FlowStatusIntakeCompleted, outcome.Records[0].ToStatus)
	assert.Equal(t, int64(4), outcome.Records[0].FlowVersion)
	assert.Equal(t, models.FlowStatusRiskEvaluated, outcome.Records[1].ToStatus)
	assert.Equal(t, int64(5), outcome.Records[1].FlowVersion)
	assert.Equal(t, models.TransitionReasonRiskEvaluation, outcome.Records[1].Reason)

	require.NotNil(t, outcome.Assessment)
	assert.Equal(t, outcome.Assessment.ID, outcome.Records[1].Payload.AssessmentID)
	assert.Equal(t, "flow-1", outcome.Assessment.SourceFlowID)
	assert.Empty(t, outcome.Events)

	assert.Equal(t, models.FlowStatusIntakeInProgress, flow.Status, "input flow stays untouched")
	assert.Equal(t, int64(3), flow.Version)
}

func TestApplyIntakeSubmittedUrgentShortCircuit(t *testing.T) {
	machine := newTestMachine()

	flow := baseFlow(models.FlowStatusIntakeInProgress)
	event := calmIntakeEvent()
	event.IntakeSubmitted.Answers = append(event.IntakeSubmitted.Answers, models.IntakeAnswer{
		Key:  "self_harm_thoughts",
		Text: "sometimes",
	})

	outcome, err := machine.Apply(flow, event, ApplyInput{})

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusUrgentEscalated, outcome.Flow.Status)
	require.Len(t, outcome.Records, 2)
	assert.Equal(t, models.TransitionReasonUrgentEscalation, outcome.Records[1].Reason)

	require.Len(t, outcome.Events, 1)
	assert.Equal(t, models.OutboundUrgentCaseRaised, outcome.Events[0].Type)
	assert.Equal(t, "flow-1", outcome.Events[0].FlowID)
	require.NotNil(t, outcome.Events[0].Assessment)
	assert.NotEmpty(t, outcome.Events[0].Assessment.UrgentFlags)
}

func TestApplyIntakeSubmittedRejectsSecondSubmission(t *testing.T) {
	machine := newTestMachine()

	flow := baseFlow(models.FlowStatusIntakeInProgress)
	flow.FormSubmissionRef = "form-0"

	_, err := machine.Apply(flow, calmIntakeEvent(), ApplyInput{})

	require.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, "form-0", flow.FormSubmissionRef)
}

func TestApplyRiskReviewedClearsEscalation(t *testing.T) {
	machine := newTestMachine()

	flow := evaluatedFlow(models.FlowStatusUrgentEscalated)
	event := &models.FlowEvent{
		Type:        models.EventRiskReviewed,
		TriggeredBy: "clinician-1",
		RiskReviewed: &models.RiskReviewedPayload{
			ReviewNote:   "patient confirmed safe, crisis probe was a misreading",
			ClearUrgency: true,
		},
	}

	outcome, err := machine.Apply(flow, event, ApplyInput{})

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusRiskEvaluated, outcome.Flow.Status)
	require.NotNil(t, outcome.Assessment)
	assert.Empty(t, outcome.Assessment.UrgentFlags)
	assert.Equal(t, "assessment-1", outcome.Assessment.SupersedesAssessmentID)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, models.TransitionReasonClinicianReview, outcome.Records[0].Reason)
	assert.Empty(t, outcome.Events)
}

func TestApplyRiskReviewedKeepsEscalationWhenFlagsRemain(t *testing.T) {
	machine := newTestMachine()

	flow := evaluatedFlow(models.FlowStatusUrgentEscalated)
	event := &models.FlowEvent{
		Type:         models.EventRiskReviewed,
		TriggeredBy:  "clinician-1",
		RiskReviewed: &models.RiskReviewedPayload{ReviewNote: "still concerning"},
	}

	outcome, err := machine.Apply(flow, event, ApplyInput{})

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusUrgentEscalated, outcome.Flow.Status)
	assert.Empty(t, outcome.Events, "an already escalated flow does not re-raise the urgent event")
}

func TestApplyProviderAssignedAuto(t *testing.T) {
	machine := newTestMachine()

	flow := evaluatedFlow(models.FlowStatusRiskEvaluated)
	candidates := []models.Provider{
		{ID: "prov-generalist", Rating: 3.5, EstimatedWaitMinutes: 2000, Active: true},
		{ID: "prov-specialist", Specializations: []string{"anxiety"}, Rating: 4.8, EstimatedWaitMinutes: 60, Active: true},
	}
	event := &models.FlowEvent{Type: models.EventProviderAssigned, TriggeredBy: "router-1"}

	outcome, err := machine.Apply(flow, event, ApplyInput{Candidates: candidates})

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusProviderAssigned, outcome.Flow.Status)
	assert.Equal(t, "prov-specialist", outcome.Flow.AssignedProviderID)

	require.Len(t, outcome.Records, 1)
	assert.Equal(t, models.TransitionReasonEvent, outcome.Records[0].Reason)
	assert.Len(t, outcome.Records[0].Payload.RankedCandidates, 2, "the full ranking lands on the audit trail")

	require.Len(t, outcome.Events, 1)
	assert.Equal(t, models.OutboundProviderAssignmentRecommended, outcome.Events[0].Type)
	assert.Len(t, outcome.Events[0].Candidates, 2)
}

func TestApplyProviderAssignedEmptyDirectory(t *testing.T) {
	machine := newTestMachine()

	flow := evaluatedFlow(models.FlowStatusRiskEvaluated)
	event := &models.FlowEvent{Type: models.EventProviderAssigned, TriggeredBy: "router-1"}

	_, err := machine.Apply(flow, event, ApplyInput{})

	assert.ErrorIs(t, err, models.ErrProviderNotFound)
}

func TestApplyProviderAssignedManualOverride(t *testing.T) {
	machine := newTestMachine()

	flow := evaluatedFlow(models.FlowStatusUrgentEscalated)
	event := &models.FlowEvent{
		Type:             models.EventProviderAssigned,
		TriggeredBy:      "clinician-1",
		ProviderAssigned: &models.ProviderAssignedPayload{ProviderID: "prov-crisis"},
	}

	outcome, err := machine.Apply(flow, event, ApplyInput{})

	require.NoError(t, err)
	assert.Equal(t, "prov-crisis", outcome.Flow.AssignedProviderID)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, models.TransitionReasonManualOverride, outcome.Records[0].Reason)
	assert.Empty(t, outcome.Events)
}

func TestApplyFlowClosedEmitsCompletion(t *testing.T) {
	machine := newTestMachine()

	flow := baseFlow(models.FlowStatusConsultationCompleted)
	event := &models.FlowEvent{
		Type:        models.EventFlowClosed,
		TriggeredBy: "system",
		FlowClosed:  &models.FlowClosedPayload{SubscriptionRef: "sub-1"},
	}

	outcome, err := machine.Apply(flow, event, ApplyInput{})

	require.NoError(t, err)
	assert.Equal(t, models.FlowStatusCompleted, outcome.Flow.Status)
	assert.Equal(t, "sub-1", outcome.Flow.SubscriptionRef)
	require.NotNil(t, outcome.Flow.CompletedAt)
	assert.Equal(t, testNow, *outcome.Flow.CompletedAt)
	require.Len(t, outcome.Events, 1)
	assert.Equal(t, models.OutboundFlowCompleted, outcome.Events[0].Type)
}

func TestApplyAbandonedFromAnyNonTerminal(t *testing.T) {
	machine := newTestMachine()

	nonTerminal := []models.FlowStatus{
		models.FlowStatusCategorySelected,
		models.FlowStatusIntakeInProgress,
		models.FlowStatusIntakeCompleted,
		models.FlowStatusRiskEvaluated,
		models.FlowStatusUrgentEscalated,
		models.FlowStatusProviderAssigned,
		models.FlowStatusConsultationScheduled,
		models.FlowStatusConsultationCompleted,
		models.FlowStatusFulfilled,
	}

	for _, status := range nonTerminal {
		flow := baseFlow(status)
		event := &models.FlowEvent{
			Type:        models.EventAbandoned,
			TriggeredBy: "patient-1",
			Abandoned:   &models.AbandonedPayload{Reason: "patient requested cancellation"},
		}

		outcome, err := machine.Apply(flow, event, ApplyInput{})

		require.NoError(t, err, "status %s", status)
		assert.Equal(t, models.FlowStatusAbandoned, outcome.Flow.Status)
		assert.NotNil(t, outcome.Flow.CompletedAt)
	}
}

func TestApplyAbandonedBySweeperRecordsSweepReason(t *testing.T) {
	machine := newTestMachine()

	flow := baseFlow(models.FlowStatusIntakeInProgress)
	event := &models.FlowEvent{
		Type:        models.EventAbandoned,
		TriggeredBy: constvars.AbandonmentSweeperActor,
		Abandoned:   &models.AbandonedPayload{Reason: "no activity for 72h"},
	}

	outcome, err := machine.Apply(flow, event, ApplyInput{})

	require.NoError(t, err)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, models.TransitionReasonInactivitySweep, outcome.Records[0].Reason)
	assert.Equal(t, "no activity for 72h", outcome.Records[0].Payload.Note)
}
