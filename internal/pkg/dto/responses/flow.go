package responses

import (
	"careflow-service/internal/app/models"
	"time"
)

type Flow struct {
	ID                 string                 `json:"id"`
	PatientID          string                 `json:"patientId"`
	CategoryID         string                 `json:"categoryId"`
	Status             models.FlowStatus      `json:"status"`
	Version            int64                  `json:"version"`
	FormSubmissionRef  string                 `json:"formSubmissionRef,omitempty"`
	OrderRef           string                 `json:"orderRef,omitempty"`
	ConsultationRef    string                 `json:"consultationRef,omitempty"`
	InvoiceRef         string                 `json:"invoiceRef,omitempty"`
	SubscriptionRef    string                 `json:"subscriptionRef,omitempty"`
	AssignedProviderID string                 `json:"assignedProviderId,omitempty"`
	RiskAssessment     *models.RiskAssessment `json:"riskAssessment,omitempty"`
	StartedAt          time.Time              `json:"startedAt"`
	LastActivityAt     time.Time              `json:"lastActivityAt"`
	CompletedAt        *time.Time             `json:"completedAt,omitempty"`
}

type RiskAssessment struct {
	ID                     string                `json:"id"`
	Score                  float64               `json:"score"`
	Category               models.RiskCategory   `json:"category"`
	RiskFactors            []models.RiskFactor   `json:"riskFactors"`
	UrgentFlags            []models.UrgentFlag   `json:"urgentFlags,omitempty"`
	Recommendation         models.Recommendation `json:"recommendation"`
	SourceFlowID           string                `json:"sourceFlowId"`
	ComputedAt             time.Time             `json:"computedAt"`
	SupersedesAssessmentID string                `json:"supersedesAssessmentId,omitempty"`
}

type TransitionRecord struct {
	ID          string                   `json:"id"`
	FlowID      string                   `json:"flowId"`
	FromStatus  models.FlowStatus        `json:"fromStatus"`
	ToStatus    models.FlowStatus        `json:"toStatus"`
	FlowVersion int64                    `json:"flowVersion"`
	Reason      string                   `json:"reason"`
	TriggeredBy string                   `json:"triggeredBy"`
	OccurredAt  time.Time                `json:"occurredAt"`
	Payload     models.TransitionPayload `json:"payload,omitempty"`
}

// ApplyEventResult carries the new flow snapshot plus the outbound events
// generated by the transition, delivered synchronously to the caller.
type ApplyEventResult struct {
	Flow   Flow                   `json:"flow"`
	Events []models.OutboundEvent `json:"events,omitempty"`
}
