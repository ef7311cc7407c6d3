package models

import (
	"time"
)

// FlowEventType tags the event union submitted to the state machine.
type FlowEventType string

const (
	EventIntakeStarted         FlowEventType = "intake_started"
	EventIntakeSubmitted       FlowEventType = "intake_submitted"
	EventRiskReviewed          FlowEventType = "risk_reviewed"
	EventProviderAssigned      FlowEventType = "provider_assigned"
	EventConsultationScheduled FlowEventType = "consultation_scheduled"
	EventConsultationCompleted FlowEventType = "consultation_completed"
	EventOrderFulfilled        FlowEventType = "order_fulfilled"
	EventFlowClosed            FlowEventType = "flow_closed"
	EventAbandoned             FlowEventType = "abandoned"
)

// IntakeAnswer is a single entry of the validated answer-set handed over by
// the intake form collector. Either Number or Text is populated; numeric
// 1-10 self-reports arrive in Number.
type IntakeAnswer struct {
	Key    string   `json:"key"`
	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

type IntakeSubmittedPayload struct {
	FormSubmissionRef string         `json:"formSubmissionRef"`
	Answers           []IntakeAnswer `json:"answers"`
}

// RiskReviewedPayload carries an optional clinician override. When present,
// the override factors are appended as clinician_review sources on the
// superseding assessment.
type RiskReviewedPayload struct {
	ReviewNote      string   `json:"reviewNote,omitempty"`
	AdditionalRisks []string `json:"additionalRisks,omitempty"`
	ClearUrgency    bool     `json:"clearUrgency,omitempty"`
}

type ProviderAssignedPayload struct {
	// ProviderID, when set, is a clinician-forced assignment that bypasses
	// match scoring but is still logged with a manual_override reason.
	ProviderID string `json:"providerId,omitempty"`
}

type ConsultationScheduledPayload struct {
	ConsultationRef string    `json:"consultationRef"`
	ScheduledFor    time.Time `json:"scheduledFor"`
}

type ConsultationCompletedPayload struct {
	InvoiceRef string `json:"invoiceRef,omitempty"`
}

type OrderFulfilledPayload struct {
	OrderRef string `json:"orderRef"`
}

type FlowClosedPayload struct {
	SubscriptionRef string `json:"subscriptionRef,omitempty"`
}

type AbandonedPayload struct {
	Reason string `json:"reason"`
}

// FlowEvent is the tagged union accepted by ApplyEvent. Exactly the payload
// matching Type is populated; the state machine rejects mismatches.
type FlowEvent struct {
	Type        FlowEventType `json:"type"`
	TriggeredBy string        `json:"triggeredBy"`

	IntakeSubmitted       *IntakeSubmittedPayload       `json:"intakeSubmitted,omitempty"`
	RiskReviewed          *RiskReviewedPayload          `json:"riskReviewed,omitempty"`
	ProviderAssigned      *ProviderAssignedPayload      `json:"providerAssigned,omitempty"`
	ConsultationScheduled *ConsultationScheduledPayload `json:"consultationScheduled,omitempty"`
	ConsultationCompleted *ConsultationCompletedPayload `json:"consultationCompleted,omitempty"`
	OrderFulfilled        *OrderFulfilledPayload        `json:"orderFulfilled,omitempty"`
	FlowClosed            *FlowClosedPayload            `json:"flowClosed,omitempty"`
	Abandoned             *AbandonedPayload             `json:"abandoned,omitempty"`
}
