package risk

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type riskScorer struct {
	tables ScoringTables
	clock  contracts.Clock
	log    *zap.Logger
}

// NewRiskScorer builds the scorer with its weight tables and clock injected.
// The returned scorer performs no I/O and is safe for concurrent use.
func NewRiskScorer(tables ScoringTables, clock contracts.Clock, logger *zap.Logger) contracts.RiskScorer {
	return &riskScorer{
		tables: tables,
		clock:  clock,
		log:    logger,
	}
}

func (s *riskScorer) Assess(profile *models.PatientProfile, answers []models.IntakeAnswer) *models.RiskAssessment {
	var factors []models.RiskFactor

	// Crisis detection runs first and independently of everything else; it
	// must never be skipped even when the rest of the answer-set is garbage.
	urgentFlags, matchedTerms, unevaluable := s.detectCrisis(answers)
	if len(urgentFlags) > 0 {
		factors = append(factors, models.RiskFactor{
			Factor:      "crisis_indicators",
			Weight:      s.tables.UrgentKeywordWeight,
			Description: fmt.Sprintf("Crisis indicators detected in intake answers: %s", strings.Join(matchedTerms, ", ")),
			Source:      models.RiskFactorSourceIntakeForm,
		})
	}

	severityFactor, malformedCount := s.deriveSeverityFactor(answers)
	factors = append(factors, severityFactor)

	if profile != nil {
		factors = append(factors, s.profileFactors(profile)...)
	}

	// Fail open: answers we could not evaluate are themselves a risk factor,
	// never "no risk found".
	if total := unevaluable + malformedCount; total > 0 {
		s.log.Warn("risk scorer received unevaluable intake answers",
			zap.Int("unevaluable_count", total),
		)
		factors = append(factors, models.RiskFactor{
			Factor:      "unevaluable_intake_data",
			Weight:      s.tables.UnevaluableAnswerWeight,
			Description: fmt.Sprintf("%d intake answer(s) could not be evaluated and were treated cautiously", total),
			Source:      models.RiskFactorSourceIntakeForm,
		})
	}

	score := s.aggregate(factors)
	category := s.categorize(score)

	return &models.RiskAssessment{
		Score:          score,
		Category:       category,
		RiskFactors:    factors,
		UrgentFlags:    urgentFlags,
		Recommendation: s.deriveRecommendation(score, len(urgentFlags) > 0, profile, factors),
		ComputedAt:     s.clock.Now(),
	}
}

func (s *riskScorer) Reassess(prior *models.RiskAssessment, review *models.RiskReviewedPayload) *models.RiskAssessment {
	factors := make([]models.RiskFactor, len(prior.RiskFactors))
	copy(factors, prior.RiskFactors)

	if review != nil {
		for _, named := range review.AdditionalRisks {
			factors = append(factors, models.RiskFactor{
				Factor:      named,
				Weight:      s.tables.ClinicianReviewWeight,
				Description: fmt.Sprintf("Risk raised during clinician review: %s", named),
				Source:      models.RiskFactorSourceClinicianReview,
			})
		}
	}

	urgentFlags := make([]models.UrgentFlag, len(prior.UrgentFlags))
	copy(urgentFlags, prior.UrgentFlags)
	if review != nil && review.ClearUrgency {
		// A clinician explicitly cleared the urgency; the prior flagged
		// assessment stays on record untouched.
		urgentFlags = nil
		filtered := factors[:0]
		for _, factor := range factors {
			if factor.Factor != "crisis_indicators" {
				filtered = append(filtered, factor)
			}
		}
		factors = filtered
	}

	score := s.aggregate(factors)
	category := s.categorize(score)

	return &models.RiskAssessment{
		Score:                  score,
		Category:               category,
		RiskFactors:            factors,
		UrgentFlags:            urgentFlags,
		Recommendation:         s.deriveRecommendation(score, len(urgentFlags) > 0, nil, factors),
		SourceFlowID:           prior.SourceFlowID,
		ComputedAt:             s.clock.Now(),
		SupersedesAssessmentID: prior.ID,
	}
}

// detectCrisis scans every answer for crisis vocabulary and direct crisis
// probes. It returns the flags, the matched terms and the count of answers
// that carried no evaluable content at all.
func (s *riskScorer) detectCrisis(answers []models.IntakeAnswer) ([]models.UrgentFlag, []string, int) {
	var matchedTerms []string
	unevaluable := 0

	for _, answer := range answers {
		if answer.Key == "" || (answer.Text == "" && answer.Number == nil) {
			unevaluable++
			continue
		}

		text := strings.ToLower(strings.TrimSpace(answer.Text))
		key := strings.ToLower(answer.Key)

		for _, term := range s.tables.CrisisTerms {
			if text != "" && strings.Contains(text, term) {
				matchedTerms = append(matchedTerms, term)
			}
		}

		for _, probe := range s.tables.CrisisQuestionKeys {
			if strings.Contains(key, probe) && !s.tables.NegativeAnswers[text] {
				matchedTerms = append(matchedTerms, fmt.Sprintf("%s: %s", answer.Key, answer.Text))
			}
		}
	}

	if len(matchedTerms) == 0 {
		return nil, nil, unevaluable
	}

	sort.Strings(matchedTerms)
	flags := []models.UrgentFlag{
		{Type: models.UrgentFlagTypeKeywords, MatchedTerms: matchedTerms},
	}
	return flags, matchedTerms, unevaluable
}

// deriveSeverityFactor derives symptom severity from the numeric 1-10
// self-reports, averaged; absent those, from text-pattern matching against
// the severity vocabulary. Unparseable readings fall back to mild and are
// counted, never turned into a hard failure.
func (s *riskScorer) deriveSeverityFactor(answers []models.IntakeAnswer) (models.RiskFactor, int) {
	var sum float64
	count := 0
	malformed := 0

	for _, answer := range answers {
		if answer.Number == nil {
			continue
		}
		value := *answer.Number
		if value < 0 || value > 10 {
			malformed++
			continue
		}
		if s.isLowWorse(answer.Key) {
			value = 11 - value
			if value > 10 {
				value = 10
			}
		}
		sum += value
		count++
	}

	if count > 0 {
		average := sum / float64(count)
		switch {
		case average >= s.tables.SevereAverageThreshold:
			return s.severityFactor("severe", s.tables.SevereSeverityWeight, average), malformed
		case average >= s.tables.ModerateAverageThreshold:
			return s.severityFactor("moderate", s.tables.ModerateSeverityWeight, average), malformed
		default:
			return s.severityFactor("mild", s.tables.MildSeverityWeight, average), malformed
		}
	}

	level := "mild"
	weight := s.tables.MildSeverityWeight
	for _, answer := range answers {
		text := strings.ToLower(answer.Text)
		if text == "" {
			continue
		}
		for _, term := range s.tables.SevereTerms {
			if strings.Contains(text, term) {
				return s.severityFactor("severe", s.tables.SevereSeverityWeight, 0), malformed
			}
		}
		for _, term := range s.tables.ModerateTerms {
			if strings.Contains(text, term) {
				level = "moderate"
				weight = s.tables.ModerateSeverityWeight
			}
		}
	}
	return s.severityFactor(level, weight, 0), malformed
}

func (s *riskScorer) severityFactor(level string, weight, average float64) models.RiskFactor {
	description := fmt.Sprintf("Symptom severity assessed as %s", level)
	if average > 0 {
		description = fmt.Sprintf("Symptom severity assessed as %s (self-report average %.1f/10)", level, average)
	}
	return models.RiskFactor{
		Factor:      fmt.Sprintf("%s_symptom_severity", level),
		Weight:      weight,
		Description: description,
		Source:      models.RiskFactorSourceIntakeForm,
	}
}

func (s *riskScorer) profileFactors(profile *models.PatientProfile) []models.RiskFactor {
	var factors []models.RiskFactor

	if profile.MedicationCount >= s.tables.PolypharmacyThreshold {
		factors = append(factors, models.RiskFactor{
			Factor:      "polypharmacy",
			Weight:      s.tables.PolypharmacyWeight,
			Description: fmt.Sprintf("Patient takes %d concurrent medications", profile.MedicationCount),
			Source:      models.RiskFactorSourceIntakeForm,
		})
	}
	if profile.ChronicConditionCount >= s.tables.ChronicConditionThreshold {
		factors = append(factors, models.RiskFactor{
			Factor:      "multiple_chronic_conditions",
			Weight:      s.tables.ChronicConditionWeight,
			Description: fmt.Sprintf("Patient reports %d chronic conditions", profile.ChronicConditionCount),
			Source:      models.RiskFactorSourceIntakeForm,
		})
	}
	if profile.MissedAppointmentCount >= s.tables.MissedAppointmentThreshold {
		factors = append(factors, models.RiskFactor{
			Factor:      "missed_appointments",
			Weight:      s.tables.MissedAppointmentWeight,
			Description: fmt.Sprintf("Patient missed %d recent appointments", profile.MissedAppointmentCount),
			Source:      models.RiskFactorSourceIntakeForm,
		})
	}

	return factors
}

func (s *riskScorer) aggregate(factors []models.RiskFactor) float64 {
	var score float64
	for _, factor := range factors {
		score += factor.Weight
	}
	if score < 0 {
		return 0
	}
	if score > s.tables.MaxScore {
		return s.tables.MaxScore
	}
	return score
}

// categorize buckets a clamped score. Monotonic non-decreasing in the score.
func (s *riskScorer) categorize(score float64) models.RiskCategory {
	switch {
	case score >= s.tables.HighCategoryThreshold:
		return models.RiskCategoryHigh
	case score >= s.tables.MediumCategoryThreshold:
		return models.RiskCategoryMedium
	default:
		return models.RiskCategoryLow
	}
}

func (s *riskScorer) deriveRecommendation(score float64, urgent bool, profile *models.PatientProfile, factors []models.RiskFactor) models.Recommendation {
	monitoring := s.monitoringList(profile, factors)

	if urgent {
		return models.Recommendation{
			Urgency:          models.UrgencyImmediate,
			ProviderType:     models.ProviderTypeCrisisSpecialist,
			FollowUpRequired: true,
			Monitoring:       monitoring,
		}
	}

	switch {
	case score >= s.tables.HighCategoryThreshold:
		return models.Recommendation{
			Urgency:          models.UrgencyWithin24h,
			ProviderType:     models.ProviderTypeSpecialistPreferred,
			FollowUpRequired: true,
			Monitoring:       monitoring,
		}
	case score >= s.tables.MediumCategoryThreshold:
		return models.Recommendation{
			Urgency:          models.UrgencyWithinWeek,
			ProviderType:     models.ProviderTypeGeneral,
			FollowUpRequired: false,
			Monitoring:       monitoring,
		}
	default:
		return models.Recommendation{
			Urgency:          models.UrgencyRoutine,
			ProviderType:     models.ProviderTypeGeneral,
			FollowUpRequired: false,
			Monitoring:       monitoring,
		}
	}
}

// monitoringList carries the patient's stated conditions plus every factor
// heavy enough to warrant follow-up; the provider matcher overlaps it with
// provider specializations.
func (s *riskScorer) monitoringList(profile *models.PatientProfile, factors []models.RiskFactor) []string {
	var monitoring []string
	seen := map[string]bool{}

	if profile != nil {
		for _, condition := range profile.StatedConditions {
			normalized := strings.ToLower(strings.TrimSpace(condition))
			if normalized != "" && !seen[normalized] {
				seen[normalized] = true
				monitoring = append(monitoring, normalized)
			}
		}
	}
	for _, factor := range factors {
		if factor.Weight >= s.tables.MonitoringFactorThreshold && !seen[factor.Factor] {
			seen[factor.Factor] = true
			monitoring = append(monitoring, factor.Factor)
		}
	}
	return monitoring
}

func (s *riskScorer) isLowWorse(key string) bool {
	lowered := strings.ToLower(key)
	for _, fragment := range s.tables.LowIsWorseKeys {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}
