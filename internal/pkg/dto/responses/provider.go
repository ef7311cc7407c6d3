package responses

import (
	"time"
)

type Provider struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Specializations      []string  `json:"specializations"`
	RiskExperience       []string  `json:"riskExperience"`
	Rating               float64   `json:"rating"`
	NextAvailableSlot    time.Time `json:"nextAvailableSlot"`
	EstimatedWaitMinutes int       `json:"estimatedWaitMinutes"`
	Active               bool      `json:"active"`
}
