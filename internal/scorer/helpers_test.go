package scorer

import (
	"time"

	"github.com/sells-group/rfp-scorer/internal/model"
	"github.com/sells-group/rfp-scorer/internal/profile"
)

// fixedAt is the reference instant for deadline arithmetic in tests.
var fixedAt = time.Date(2026, time.March, 1, 18, 0, 0, 0, time.UTC)

func testProfile() *profile.Profile {
	return &profile.Profile{
		Version: "test-1",
		QualificationFilters: profile.QualificationFilters{
			DisqualificationSignals: []string{"construction works", "catering", "vehicle fleet"},
			ClientType: profile.ClientTypeRules{
				QualifyingPatterns:    []string{"municipality", "council"},
				EdgeCasePatterns:      []string{"university"},
				DisqualifyingPatterns: []string{"private company"},
			},
			SubjectMatter: profile.SubjectMatterRules{
				QualifyingPatterns: []string{"climate", "emission"},
			},
			GeographicScope: profile.GeographicScope{
				PrimaryMarkets:  []string{"DE", "SE"},
				AdjacentMarkets: []string{"FR"},
			},
		},
		ScoringDimensions: profile.ScoringDimensions{
			FeatureAlignment: profile.FeatureAlignment{
				Weight: 0.30,
				FunctionalAreas: map[string]profile.FunctionalArea{
					"planning": {
						MaxPoints:        6,
						StrongKeywords:   []string{"action plan", "roadmap tool"},
						ModerateKeywords: []string{"scenario", "target"},
					},
					"inventory": {
						MaxPoints:        4,
						StrongKeywords:   []string{"ghg inventory"},
						ModerateKeywords: []string{"baseline"},
					},
				},
			},
			GeographicFit: profile.GeographicFit{Weight: 0.15, PrimaryScore: 100, AdjacentScore: 60, OtherScore: 20},
			BudgetFit: profile.BudgetFit{
				Weight:           0.15,
				TooSmallEUR:      20000,
				AcceptableMinEUR: 50000,
				SweetSpotMinEUR:  100000,
				SweetSpotMaxEUR:  500000,
			},
			TimelineFeasibility: profile.TimelineFeasibility{Weight: 0.10, MinimumDays: 14, IdealDays: 60},
			CompetitiveLandscape: profile.CompetitiveLandscape{
				Weight: 0.15,
				CompetitorGroups: map[string]profile.CompetitorGroup{
					"rival": {
						Kind:     profile.KindPrimaryCompetitor,
						Keywords: []string{"rival-a", "rival-b", "rival-c", "rival-d", "rival-e", "rival-f"},
					},
					"gis_utility": {
						Kind:     profile.KindDomainMismatch,
						Keywords: []string{"gis layer", "geodata"},
					},
					"legacy": {
						Kind:     profile.KindGenericIncumbent,
						Keywords: []string{"existing system", "data migration"},
					},
				},
				PositiveSignals: []string{"saas", "cloud-based"},
			},
			StrategicValue: profile.StrategicValue{
				Weight:                0.15,
				HighValueIndicators:   []string{"framework agreement", "national agency", "capital"},
				MediumValueIndicators: []string{"pilot", "lighthouse"},
				Multipliers:           profile.DefaultMultipliers(),
				PopulationTiers:       profile.DefaultPopulationTiers(),
				MultiEntityTiers:      profile.DefaultMultiEntityTiers(),
			},
		},
		WinProbabilityThresholds: profile.WinThresholds{
			High:          profile.Threshold{MinScore: 70, Label: "High", Color: "green"},
			Medium:        profile.Threshold{MinScore: 45, Label: "Medium", Color: "yellow"},
			Low:           profile.Threshold{MinScore: 0, Label: "Low", Color: "red"},
			EdgeCase:      profile.Threshold{Label: "Edge Case", Color: "gray"},
			NotApplicable: profile.Threshold{Label: "N/A", Color: "gray"},
		},
		AdvisoryServiceBonus: profile.AdvisoryBonus{
			Triggers:    []string{"advisory", "training", "workshop"},
			BonusPoints: 5,
		},
		RFPTypeDetection: profile.RFPTypeDetection{
			PlatformSignals:   []string{"saas", "platform", "software"},
			ConsultingSignals: []string{"consulting", "study"},
		},
	}
}

func testRules() *rules {
	return compileRules(testProfile())
}

// malmoRecord is a strong climate-platform opportunity used against the
// embedded default profile.
func malmoRecord() model.OpportunityRecord {
	return model.OpportunityRecord{
		Title:         "Climate Action Plan Development and GHG Inventory Platform",
		IssuingEntity: "City of Malmö",
		Description: "The municipality seeks a SaaS platform to develop its climate action plan, " +
			"maintain a greenhouse gas inventory and emissions inventory, and provide monitoring and " +
			"reporting through a public dashboard. The solution must support stakeholder engagement and " +
			"collaboration across departments, link measures to the climate budget and investment planning, " +
			"and track progress against the baseline with KPI indicators.",
		Country:      "SE",
		Budget:       &model.Budget{Amount: 300000, Currency: "EUR"},
		Deadline:     fixedAt.AddDate(0, 0, 120).Format("2006-01-02"),
		SourcePortal: "TED",
		SourceURL:    "https://ted.europa.eu/notice/123",
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
