package requests

import (
	"time"
)

type CreateFlowRequest struct {
	PatientID  string `json:"patientId" validate:"required"`
	CategoryID string `json:"categoryId" validate:"required"`
}

type IntakeAnswer struct {
	Key    string   `json:"key" validate:"required"`
	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty" validate:"omitempty,gte=0,lte=10"`
}

type IntakeSubmittedPayload struct {
	FormSubmissionRef string         `json:"formSubmissionRef" validate:"required"`
	Answers           []IntakeAnswer `json:"answers" validate:"required,min=1,dive"`
}

type RiskReviewedPayload struct {
	ReviewNote      string   `json:"reviewNote,omitempty"`
	AdditionalRisks []string `json:"additionalRisks,omitempty"`
	ClearUrgency    bool     `json:"clearUrgency,omitempty"`
}

type ProviderAssignedPayload struct {
	ProviderID string `json:"providerId,omitempty"`
}

type ConsultationScheduledPayload struct {
	ConsultationRef string    `json:"consultationRef" validate:"required"`
	ScheduledFor    time.Time `json:"scheduledFor" validate:"required"`
}

type ConsultationCompletedPayload struct {
	InvoiceRef string `json:"invoiceRef,omitempty"`
}

type OrderFulfilledPayload struct {
	OrderRef string `json:"orderRef" validate:"required"`
}

type FlowClosedPayload struct {
	SubscriptionRef string `json:"subscriptionRef,omitempty"`
}

type AbandonedPayload struct {
	Reason string `json:"reason" validate:"required"`
}

// FlowEventRequest mirrors the tagged event union. Exactly one payload
// matching Type must be present; the state machine validates the pairing.
type FlowEventRequest struct {
	Type        string `json:"type" validate:"required,oneof=intake_started intake_submitted risk_reviewed provider_assigned consultation_scheduled consultation_completed order_fulfilled flow_closed abandoned"`
	TriggeredBy string `json:"triggeredBy" validate:"required"`

	IntakeSubmitted       *IntakeSubmittedPayload       `json:"intakeSubmitted,omitempty" validate:"omitempty"`
	RiskReviewed          *RiskReviewedPayload          `json:"riskReviewed,omitempty"`
	ProviderAssigned      *ProviderAssignedPayload      `json:"providerAssigned,omitempty"`
	ConsultationScheduled *ConsultationScheduledPayload `json:"consultationScheduled,omitempty" validate:"omitempty"`
	ConsultationCompleted *ConsultationCompletedPayload `json:"consultationCompleted,omitempty"`
	OrderFulfilled        *OrderFulfilledPayload        `json:"orderFulfilled,omitempty" validate:"omitempty"`
	FlowClosed            *FlowClosedPayload            `json:"flowClosed,omitempty"`
	Abandoned             *AbandonedPayload             `json:"abandoned,omitempty" validate:"omitempty"`
}
