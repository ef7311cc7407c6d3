package models

import (
	"time"
)

// OutboundEventType tags events handed to the notification/dashboard
// consumer. They are returned synchronously from ApplyEvent; the service
// does not own a message bus, it only forwards them to the configured
// queues afterwards.
type OutboundEventType string

const (
	OutboundUrgentCaseRaised              OutboundEventType = "urgent_case_raised"
	OutboundProviderAssignmentRecommended OutboundEventType = "provider_assignment_recommended"
	OutboundFlowCompleted                 OutboundEventType = "flow_completed"
)

type OutboundEvent struct {
	Type       OutboundEventType   `json:"type"`
	FlowID     string              `json:"flowId"`
	Assessment *RiskAssessment     `json:"assessment,omitempty"`
	Candidates []ProviderCandidate `json:"candidates,omitempty"`
	OccurredAt time.Time           `json:"occurredAt"`
}
