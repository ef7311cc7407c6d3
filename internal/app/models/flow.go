package models

import (
	"time"
)

// FlowStatus is the canonical stage of one patient journey. It is mutated
// exclusively by the flow state machine.
type FlowStatus string

const (
	FlowStatusCategorySelected      FlowStatus = "category_selected"
	FlowStatusIntakeInProgress      FlowStatus = "intake_in_progress"
	FlowStatusIntakeCompleted       FlowStatus = "intake_completed"
	FlowStatusRiskEvaluated         FlowStatus = "risk_evaluated"
	FlowStatusUrgentEscalated       FlowStatus = "urgent_escalated"
	FlowStatusProviderAssigned      FlowStatus = "provider_assigned"
	FlowStatusConsultationScheduled FlowStatus = "consultation_scheduled"
	FlowStatusConsultationCompleted FlowStatus = "consultation_completed"
	FlowStatusFulfilled             FlowStatus = "fulfilled"
	FlowStatusCompleted             FlowStatus = "completed"
	FlowStatusAbandoned             FlowStatus = "abandoned"
)

// IsTerminal reports whether the status accepts no further events.
// Terminal flows are never deleted; they remain queryable for audit.
func (s FlowStatus) IsTerminal() bool {
	return s == FlowStatusCompleted || s == FlowStatusAbandoned
}

// Flow is one patient journey instance through the
// intake-to-consultation pipeline.
type Flow struct {
	ID         string     `bson:"_id,omitempty" json:"id"`
	PatientID  string     `bson:"patientId" json:"patientId"`
	CategoryID string     `bson:"categoryId" json:"categoryId"`
	Status     FlowStatus `bson:"status" json:"status"`

	// Version backs the optimistic concurrency check: every successful
	// transition increments it, and a transition is rejected when the stored
	// version no longer matches the version read at the start of the call.
	Version int64 `bson:"version" json:"version"`

	// Active mirrors !Status.IsTerminal() and backs the partial unique index
	// that enforces one active flow per (patientId, categoryId). The state
	// machine clears it on every terminal transition.
	Active bool `bson:"active" json:"active"`

	// Back-references populated as the journey progresses. Each is
	// write-once: a second write is rejected as an invalid transition.
	FormSubmissionRef string `bson:"formSubmissionRef,omitempty" json:"formSubmissionRef,omitempty"`
	OrderRef          string `bson:"orderRef,omitempty" json:"orderRef,omitempty"`
	ConsultationRef   string `bson:"consultationRef,omitempty" json:"consultationRef,omitempty"`
	InvoiceRef        string `bson:"invoiceRef,omitempty" json:"invoiceRef,omitempty"`
	SubscriptionRef   string `bson:"subscriptionRef,omitempty" json:"subscriptionRef,omitempty"`

	AssignedProviderID string `bson:"assignedProviderId,omitempty" json:"assignedProviderId,omitempty"`

	// RiskAssessment is the current assessment snapshot. Superseded
	// assessments stay retrievable through the risk history collection.
	RiskAssessment *RiskAssessment `bson:"riskAssessment,omitempty" json:"riskAssessment,omitempty"`

	StartedAt      time.Time  `bson:"startedAt" json:"startedAt"`
	LastActivityAt time.Time  `bson:"lastActivityAt" json:"lastActivityAt"`
	CompletedAt    *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}
