package requests

import (
	"time"
)

type UpsertProviderRequest struct {
	Name                 string    `json:"name" validate:"required"`
	Specializations      []string  `json:"specializations" validate:"required,min=1"`
	RiskExperience       []string  `json:"riskExperience" validate:"omitempty,dive,oneof=low medium high"`
	Rating               float64   `json:"rating" validate:"gte=0,lte=5"`
	NextAvailableSlot    time.Time `json:"nextAvailableSlot" validate:"required"`
	EstimatedWaitMinutes int       `json:"estimatedWaitMinutes" validate:"gte=0"`
	Active               bool      `json:"active"`
}
