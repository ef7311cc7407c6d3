package models

import (
	"time"
)

// PatientProfile holds the clinical history inputs consumed by the risk
// scorer. It is maintained by the surrounding system; this service only
// reads it.
type PatientProfile struct {
	PatientID              string    `bson:"_id,omitempty" json:"patientId"`
	StatedConditions       []string  `bson:"statedConditions" json:"statedConditions"`
	MedicationCount        int       `bson:"medicationCount" json:"medicationCount"`
	ChronicConditionCount  int       `bson:"chronicConditionCount" json:"chronicConditionCount"`
	MissedAppointmentCount int       `bson:"missedAppointmentCount" json:"missedAppointmentCount"`
	UpdatedAt              time.Time `bson:"updatedAt" json:"updatedAt"`
}
