package models

import (
	"time"
)

// Provider is a directory entry of a clinician available for routing.
type Provider struct {
	ID                   string         `bson:"_id,omitempty" json:"id"`
	Name                 string         `bson:"name" json:"name"`
	Specializations      []string       `bson:"specializations" json:"specializations"`
	RiskExperience       []RiskCategory `bson:"riskExperience" json:"riskExperience"`
	Rating               float64        `bson:"rating" json:"rating"`
	NextAvailableSlot    time.Time      `bson:"nextAvailableSlot" json:"nextAvailableSlot"`
	EstimatedWaitMinutes int            `bson:"estimatedWaitMinutes" json:"estimatedWaitMinutes"`
	Active               bool           `bson:"active" json:"active"`
	UpdatedAt            time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// ProviderCandidate is one ranked routing result. It is transient: it is not
// persisted beyond the transition record of the routing decision.
type ProviderCandidate struct {
	ProviderID           string   `bson:"providerId" json:"providerId"`
	MatchScore           float64  `bson:"matchScore" json:"matchScore"`
	Reasons              []string `bson:"reasons" json:"reasons"`
	EstimatedWaitMinutes int      `bson:"estimatedWaitMinutes" json:"estimatedWaitMinutes"`
}
