package providers

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// MatchWeights are the additive criterion contributions to the [0,1] match
// score.
type MatchWeights struct {
	Specialization float64
	UrgencyWindow  float64
	RiskExperience float64
	Rating         float64

	RatingThreshold float64
}

func DefaultMatchWeights() MatchWeights {
	return MatchWeights{
		Specialization:  0.4,
		UrgencyWindow:   0.3,
		RiskExperience:  0.2,
		Rating:          0.1,
		RatingThreshold: 4.5,
	}
}

// urgencyWindowMinutes maps an urgency tier to the maximum acceptable wait.
// A zero value means unconstrained.
var urgencyWindowMinutes = map[models.UrgencyTier]int{
	models.UrgencyImmediate:  2 * 60,
	models.UrgencyWithin24h:  24 * 60,
	models.UrgencyWithinWeek: 7 * 24 * 60,
}

type providerMatcher struct {
	weights MatchWeights
	log     *zap.Logger
}

// NewProviderMatcher builds the matcher with its weights injected. Ranking
// is pure: identical inputs always yield the identical output order.
func NewProviderMatcher(weights MatchWeights, logger *zap.Logger) contracts.ProviderMatcher {
	return &providerMatcher{
		weights: weights,
		log:     logger,
	}
}

func (m *providerMatcher) Rank(assessment *models.RiskAssessment, candidates []models.Provider) []models.ProviderCandidate {
	ranked := make([]models.ProviderCandidate, 0, len(candidates))

	for _, provider := range candidates {
		score, reasons := m.scoreCandidate(assessment, &provider)
		ranked = append(ranked, models.ProviderCandidate{
			ProviderID:           provider.ID,
			MatchScore:           score,
			Reasons:              reasons,
			EstimatedWaitMinutes: provider.EstimatedWaitMinutes,
		})
	}

	// Candidates failing a criterion are ranked lower, never eliminated:
	// the caller always receives the full ordered list.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].MatchScore != ranked[j].MatchScore {
			return ranked[i].MatchScore > ranked[j].MatchScore
		}
		if ranked[i].EstimatedWaitMinutes != ranked[j].EstimatedWaitMinutes {
			return ranked[i].EstimatedWaitMinutes < ranked[j].EstimatedWaitMinutes
		}
		return ranked[i].ProviderID < ranked[j].ProviderID
	})

	return ranked
}

func (m *providerMatcher) scoreCandidate(assessment *models.RiskAssessment, provider *models.Provider) (float64, []string) {
	var score float64
	var reasons []string

	if m.specializationOverlap(assessment, provider) {
		score += m.weights.Specialization
		reasons = append(reasons, "specialization_match")
	}

	if window, constrained := urgencyWindowMinutes[assessment.Recommendation.Urgency]; !constrained || provider.EstimatedWaitMinutes <= window {
		score += m.weights.UrgencyWindow
		reasons = append(reasons, "within_urgency_window")
	}

	if m.riskExperienceSatisfied(assessment, provider) {
		score += m.weights.RiskExperience
		reasons = append(reasons, "risk_category_experience")
	}

	if provider.Rating >= m.weights.RatingThreshold {
		score += m.weights.Rating
		reasons = append(reasons, "high_satisfaction_rating")
	}

	return score, reasons
}

func (m *providerMatcher) specializationOverlap(assessment *models.RiskAssessment, provider *models.Provider) bool {
	for _, specialization := range provider.Specializations {
		normalized := strings.ToLower(strings.TrimSpace(specialization))
		for _, monitored := range assessment.Recommendation.Monitoring {
			if normalized == strings.ToLower(strings.TrimSpace(monitored)) {
				return true
			}
		}
	}
	return false
}

// riskExperienceSatisfied: low risk is satisfiable by any provider; higher
// categories need documented experience at that category.
func (m *providerMatcher) riskExperienceSatisfied(assessment *models.RiskAssessment, provider *models.Provider) bool {
	if assessment.Category == models.RiskCategoryLow {
		return true
	}
	for _, category := range provider.RiskExperience {
		if category == assessment.Category {
			return true
		}
	}
	return false
}
