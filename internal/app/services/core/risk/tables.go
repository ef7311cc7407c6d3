package risk

// ScoringTables holds the fixed crisis vocabulary and factor weights used by
// the scorer. The tables are injected through the constructor so tests and
// future clinical tuning never reach for process-wide state.
type ScoringTables struct {
	// CrisisTerms are matched as case-insensitive substrings against every
	// free-text answer.
	CrisisTerms []string
	// CrisisQuestionKeys are answer-key fragments that mark a question as a
	// direct crisis probe; any non-negative answer to one raises a flag.
	CrisisQuestionKeys []string
	// NegativeAnswers are the normalized answers that clear a crisis probe.
	NegativeAnswers map[string]bool

	UrgentKeywordWeight float64

	SevereSeverityWeight   float64
	ModerateSeverityWeight float64
	MildSeverityWeight     float64
	SevereTerms            []string
	ModerateTerms          []string

	// LowIsWorseKeys marks 1-10 self-report scales where a low value means a
	// worse state (mood, sleep, energy); their readings are inverted before
	// averaging.
	LowIsWorseKeys []string

	PolypharmacyThreshold      int
	PolypharmacyWeight         float64
	ChronicConditionThreshold  int
	ChronicConditionWeight     float64
	MissedAppointmentThreshold int
	MissedAppointmentWeight    float64

	// UnevaluableAnswerWeight is added when an answer cannot be evaluated at
	// all. Inability to check crisis keywords fails open toward caution.
	UnevaluableAnswerWeight float64
	ClinicianReviewWeight   float64

	MaxScore                 float64
	HighCategoryThreshold    float64
	MediumCategoryThreshold  float64
	SevereAverageThreshold   float64
	ModerateAverageThreshold float64

	// MonitoringFactorThreshold: factors at or above this weight land on the
	// recommendation's monitoring list.
	MonitoringFactorThreshold float64
}

func DefaultScoringTables() ScoringTables {
	return ScoringTables{
		CrisisTerms: []string{
			"suicide",
			"suicidal",
			"kill myself",
			"end my life",
			"want to die",
			"self harm",
			"self-harm",
			"hurt myself",
			"overdose",
			"no reason to live",
			"end it all",
		},
		CrisisQuestionKeys: []string{
			"self_harm",
			"suicid",
			"crisis",
			"safety_risk",
		},
		NegativeAnswers: map[string]bool{
			"":       true,
			"no":     true,
			"none":   true,
			"never":  true,
			"denied": true,
		},

		UrgentKeywordWeight: 8.0,

		SevereSeverityWeight:   4.0,
		ModerateSeverityWeight: 2.5,
		MildSeverityWeight:     1.0,
		SevereTerms:            []string{"severe", "unbearable", "extreme", "worst"},
		ModerateTerms:          []string{"moderate", "significant", "considerable"},

		LowIsWorseKeys: []string{"mood", "sleep", "energy"},

		PolypharmacyThreshold:      4,
		PolypharmacyWeight:         1.5,
		ChronicConditionThreshold:  2,
		ChronicConditionWeight:     2.0,
		MissedAppointmentThreshold: 2,
		MissedAppointmentWeight:    1.0,

		UnevaluableAnswerWeight: 1.0,
		ClinicianReviewWeight:   2.0,

		MaxScore:                 10.0,
		HighCategoryThreshold:    8.0,
		MediumCategoryThreshold:  4.0,
		SevereAverageThreshold:   7.0,
		ModerateAverageThreshold: 4.0,

		MonitoringFactorThreshold: 2.0,
	}
}
