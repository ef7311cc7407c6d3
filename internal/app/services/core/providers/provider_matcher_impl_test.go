package providers

import (
	"careflow-service/internal/app/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMatcher() *providerMatcher {
	matcher := NewProviderMatcher(DefaultMatchWeights(), zap.NewNop())
	return matcher.(*providerMatcher)
}

func highRiskAssessment() *models.RiskAssessment {
	return &models.RiskAssessment{
		Score:    8.5,
		Category: models.RiskCategoryHigh,
		Recommendation: models.Recommendation{
			Urgency:      models.UrgencyWithin24h,
			ProviderType: models.ProviderTypeSpecialistPreferred,
			Monitoring:   []string{"anxiety"},
		},
	}
}

func testProvider(id string) models.Provider {
	return models.Provider{
		ID:                   id,
		Name:                 "Provider " + id,
		Specializations:      []string{"dermatology"},
		Rating:               4.0,
		NextAvailableSlot:    time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
		EstimatedWaitMinutes: 600,
		Active:               true,
	}
}

func TestRankSpecializationAndWindowScoresPointSeven(t *testing.T) {
	matcher := newTestMatcher()

	provider := testProvider("prov-1")
	provider.Specializations = []string{"anxiety"}
	provider.EstimatedWaitMinutes = 600 // inside the 24h window

	ranked := matcher.Rank(highRiskAssessment(), []models.Provider{provider})

	require.Len(t, ranked, 1)
	assert.InDelta(t, 0.7, ranked[0].MatchScore, 1e-9)
	assert.ElementsMatch(t, []string{"specialization_match", "within_urgency_window"}, ranked[0].Reasons)
}

func TestRankAllCriteriaScoresOne(t *testing.T) {
	matcher := newTestMatcher()

	provider := testProvider("prov-1")
	provider.Specializations = []string{"anxiety"}
	provider.RiskExperience = []models.RiskCategory{models.RiskCategoryHigh}
	provider.Rating = 4.8
	provider.EstimatedWaitMinutes = 60

	ranked := matcher.Rank(highRiskAssessment(), []models.Provider{provider})

	require.Len(t, ranked, 1)
	assert.InDelta(t, 1.0, ranked[0].MatchScore, 1e-9)
}

func TestRankDoesNotEliminateCandidatesOutsideWindow(t *testing.T) {
	matcher := newTestMatcher()

	inWindow := testProvider("prov-fast")
	inWindow.EstimatedWaitMinutes = 120
	outOfWindow := testProvider("prov-slow")
	outOfWindow.EstimatedWaitMinutes = 5000 // outside the 24h window

	ranked := matcher.Rank(highRiskAssessment(), []models.Provider{outOfWindow, inWindow})

	require.Len(t, ranked, 2, "ranking must never filter candidates")
	assert.Equal(t, "prov-fast", ranked[0].ProviderID)
	assert.Equal(t, "prov-slow", ranked[1].ProviderID)
	assert.Greater(t, ranked[0].MatchScore, ranked[1].MatchScore)
}

func TestRankLowRiskSatisfiedByAnyProvider(t *testing.T) {
	matcher := newTestMatcher()

	assessment := &models.RiskAssessment{
		Score:    2.0,
		Category: models.RiskCategoryLow,
		Recommendation: models.Recommendation{
			Urgency: models.UrgencyRoutine,
		},
	}
	provider := testProvider("prov-1") // no documented risk experience

	ranked := matcher.Rank(assessment, []models.Provider{provider})

	require.Len(t, ranked, 1)
	assert.Contains(t, ranked[0].Reasons, "risk_category_experience")
}

func TestRankTieBreaksByWaitThenProviderID(t *testing.T) {
	matcher := newTestMatcher()

	slower := testProvider("prov-a")
	slower.EstimatedWaitMinutes = 300
	faster := testProvider("prov-b")
	faster.EstimatedWaitMinutes = 100
	equalWait := testProvider("prov-c")
	equalWait.EstimatedWaitMinutes = 100

	ranked := matcher.Rank(highRiskAssessment(), []models.Provider{slower, equalWait, faster})

	require.Len(t, ranked, 3)
	assert.Equal(t, "prov-b", ranked[0].ProviderID)
	assert.Equal(t, "prov-c", ranked[1].ProviderID)
	assert.Equal(t, "prov-a", ranked[2].ProviderID)
}

func TestRankIsReferentiallyTransparent(t *testing.T) {
	matcher := newTestMatcher()

	candidates := []models.Provider{
		testProvider("prov-a"),
		testProvider("prov-b"),
		testProvider("prov-c"),
	}
	assessment := highRiskAssessment()

	first := matcher.Rank(assessment, candidates)
	second := matcher.Rank(assessment, candidates)

	assert.Equal(t, first, second)
}
