package contracts

import (
	"careflow-service/internal/app/models"
	"context"
)

// PatientProfileRepository reads the clinical history maintained by the
// surrounding system. Missing profiles are not an error: the scorer runs
// with an empty profile.
type PatientProfileRepository interface {
	FindProfileByPatientID(ctx context.Context, patientID string) (*models.PatientProfile, error)
}
