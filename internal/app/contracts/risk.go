package contracts

import (
	"careflow-service/internal/app/models"
)

// RiskScorer computes a risk assessment from the patient profile and the
// validated intake answer-set. Implementations are pure and deterministic
// for a fixed clock: no I/O, safe for concurrent use.
type RiskScorer interface {
	Assess(profile *models.PatientProfile, answers []models.IntakeAnswer) *models.RiskAssessment
	// Reassess derives a superseding assessment from a clinician review.
	// The prior assessment is linked, never mutated.
	Reassess(prior *models.RiskAssessment, review *models.RiskReviewedPayload) *models.RiskAssessment
}
