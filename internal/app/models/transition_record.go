package models

import (
	"time"
)

// Transition reasons recorded on the audit trail.
const (
	TransitionReasonEvent            = "event"
	TransitionReasonRiskEvaluation   = "risk_evaluation"
	TransitionReasonUrgentEscalation = "urgent_escalation"
	TransitionReasonManualOverride   = "manual_override"
	TransitionReasonClinicianReview  = "clinician_review"
	TransitionReasonInactivitySweep  = "inactivity_sweep"
)

// TransitionPayload is the event data attached at the transition, e.g. the
// assessment id created by a risk evaluation or the ranked candidate list
// behind a routing decision.
type TransitionPayload struct {
	EventType        FlowEventType       `bson:"eventType,omitempty" json:"eventType,omitempty"`
	AssessmentID     string              `bson:"assessmentId,omitempty" json:"assessmentId,omitempty"`
	ProviderID       string              `bson:"providerId,omitempty" json:"providerId,omitempty"`
	RankedCandidates []ProviderCandidate `bson:"rankedCandidates,omitempty" json:"rankedCandidates,omitempty"`
	Reference        string              `bson:"reference,omitempty" json:"reference,omitempty"`
	Note             string              `bson:"note,omitempty" json:"note,omitempty"`
}

// TransitionRecord is the append-only, immutable audit record of one state
// change. It is written before the flow document update; a flow whose latest
// record is ahead of its document marks an interrupted write for recovery.
type TransitionRecord struct {
	ID          string            `bson:"_id,omitempty" json:"id"`
	FlowID      string            `bson:"flowId" json:"flowId"`
	FromStatus  FlowStatus        `bson:"fromStatus" json:"fromStatus"`
	ToStatus    FlowStatus        `bson:"toStatus" json:"toStatus"`
	FlowVersion int64             `bson:"flowVersion" json:"flowVersion"`
	Reason      string            `bson:"reason" json:"reason"`
	TriggeredBy string            `bson:"triggeredBy" json:"triggeredBy"`
	OccurredAt  time.Time         `bson:"occurredAt" json:"occurredAt"`
	Payload     TransitionPayload `bson:"payload,omitempty" json:"payload,omitempty"`
}
