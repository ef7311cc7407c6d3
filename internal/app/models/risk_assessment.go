package models

import (
	"time"
)

type RiskCategory string

const (
	RiskCategoryLow    RiskCategory = "low"
	RiskCategoryMedium RiskCategory = "medium"
	RiskCategoryHigh   RiskCategory = "high"
)

type RiskFactorSource string

const (
	RiskFactorSourceIntakeForm      RiskFactorSource = "intake_form"
	RiskFactorSourceClinicianReview RiskFactorSource = "clinician_review"
)

// RiskFactor is one named contribution to the aggregate risk score.
type RiskFactor struct {
	Factor      string           `bson:"factor" json:"factor"`
	Weight      float64          `bson:"weight" json:"weight"`
	Description string           `bson:"description" json:"description"`
	Source      RiskFactorSource `bson:"source" json:"source"`
}

type UrgentFlagType string

const (
	UrgentFlagTypeKeywords UrgentFlagType = "urgent_keywords"
)

// UrgentFlag records a crisis-indicator hit. Any urgent flag pre-empts
// normal routing and forces the flow to urgent_escalated.
type UrgentFlag struct {
	Type         UrgentFlagType `bson:"type" json:"type"`
	MatchedTerms []string       `bson:"matchedTerms" json:"matchedTerms"`
}

type UrgencyTier string

const (
	UrgencyImmediate  UrgencyTier = "immediate"
	UrgencyWithin24h  UrgencyTier = "within_24h"
	UrgencyWithinWeek UrgencyTier = "within_week"
	UrgencyRoutine    UrgencyTier = "routine"
)

type PreferredProviderType string

const (
	ProviderTypeCrisisSpecialist    PreferredProviderType = "crisis_specialist"
	ProviderTypeSpecialistPreferred PreferredProviderType = "specialist_preferred"
	ProviderTypeGeneral             PreferredProviderType = "general"
)

// Recommendation is derived from the score, category and urgent flags.
type Recommendation struct {
	Urgency          UrgencyTier           `bson:"urgency" json:"urgency"`
	ProviderType     PreferredProviderType `bson:"providerType" json:"providerType"`
	FollowUpRequired bool                  `bson:"followUpRequired" json:"followUpRequired"`
	Monitoring       []string              `bson:"monitoring,omitempty" json:"monitoring,omitempty"`
}

// RiskAssessment is an immutable, versioned snapshot. A clinician-driven
// re-assessment appends a new record linked through SupersedesAssessmentID;
// the prior record is never mutated.
type RiskAssessment struct {
	ID                     string         `bson:"_id,omitempty" json:"id"`
	Score                  float64        `bson:"score" json:"score"`
	Category               RiskCategory   `bson:"category" json:"category"`
	RiskFactors            []RiskFactor   `bson:"riskFactors" json:"riskFactors"`
	UrgentFlags            []UrgentFlag   `bson:"urgentFlags,omitempty" json:"urgentFlags,omitempty"`
	Recommendation         Recommendation `bson:"recommendation" json:"recommendation"`
	SourceFlowID           string         `bson:"sourceFlowId" json:"sourceFlowId"`
	ComputedAt             time.Time      `bson:"computedAt" json:"computedAt"`
	SupersedesAssessmentID string         `bson:"supersedesAssessmentId,omitempty" json:"supersedesAssessmentId,omitempty"`
}

// HasUrgentFlags reports whether the assessment carries any crisis hit.
func (a *RiskAssessment) HasUrgentFlags() bool {
	return a != nil && len(a.UrgentFlags) > 0
}
