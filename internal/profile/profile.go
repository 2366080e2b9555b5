// Package profile loads and validates the versioned rule set that drives
// opportunity qualification and scoring.
package profile

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// GroupKind tags a competitor-signal group with the recommendation ladder it follows.
type GroupKind string

const (
	KindPrimaryCompetitor GroupKind = "primary_competitor"
	KindDomainMismatch    GroupKind = "domain_mismatch"
	KindGenericIncumbent  GroupKind = "generic_incumbent"
)

// Valid reports whether k is a known group kind.
func (k GroupKind) Valid() bool {
	switch k {
	case KindPrimaryCompetitor, KindDomainMismatch, KindGenericIncumbent:
		return true
	}
	return false
}

// Profile is a decoded configuration profile. Treat it as read-only once
// Load returns it.
type Profile struct {
	Version                  string               `mapstructure:"version" yaml:"version"`
	QualificationFilters     QualificationFilters `mapstructure:"qualification_filters" yaml:"qualification_filters"`
	ScoringDimensions        ScoringDimensions    `mapstructure:"scoring_dimensions" yaml:"scoring_dimensions"`
	WinProbabilityThresholds WinThresholds        `mapstructure:"win_probability_thresholds" yaml:"win_probability_thresholds"`
	AdvisoryServiceBonus     AdvisoryBonus        `mapstructure:"advisory_service_bonus" yaml:"advisory_service_bonus"`
	RFPTypeDetection         RFPTypeDetection     `mapstructure:"rfp_type_detection" yaml:"rfp_type_detection"`

	// Source is the file the profile was read from, or "embedded".
	Source   string    `mapstructure:"-" yaml:"-"`
	LoadedAt time.Time `mapstructure:"-" yaml:"-"`
}

// QualificationFilters holds the accept/reject gate vocabulary.
type QualificationFilters struct {
	DisqualificationSignals []string           `mapstructure:"disqualification_signals" yaml:"disqualification_signals"`
	ClientType              ClientTypeRules    `mapstructure:"client_type" yaml:"client_type"`
	SubjectMatter           SubjectMatterRules `mapstructure:"subject_matter" yaml:"subject_matter"`
	GeographicScope         GeographicScope    `mapstructure:"geographic_scope" yaml:"geographic_scope"`
}

// ClientTypeRules classifies the issuing entity.
type ClientTypeRules struct {
	QualifyingPatterns    []string `mapstructure:"qualifying_patterns" yaml:"qualifying_patterns"`
	EdgeCasePatterns      []string `mapstructure:"edge_case_patterns" yaml:"edge_case_patterns"`
	DisqualifyingPatterns []string `mapstructure:"disqualifying_patterns" yaml:"disqualifying_patterns"`
}

// SubjectMatterRules lists phrases that make an opportunity relevant at all.
type SubjectMatterRules struct {
	QualifyingPatterns []string `mapstructure:"qualifying_patterns" yaml:"qualifying_patterns"`
}

// GeographicScope lists ISO country codes by market tier.
type GeographicScope struct {
	PrimaryMarkets  []string `mapstructure:"primary_markets" yaml:"primary_markets"`
	AdjacentMarkets []string `mapstructure:"adjacent_markets" yaml:"adjacent_markets"`
}

// ScoringDimensions configures the six weighted dimensions.
type ScoringDimensions struct {
	FeatureAlignment     FeatureAlignment     `mapstructure:"feature_alignment" yaml:"feature_alignment"`
	GeographicFit        GeographicFit        `mapstructure:"geographic_fit" yaml:"geographic_fit"`
	BudgetFit            BudgetFit            `mapstructure:"budget_fit" yaml:"budget_fit"`
	TimelineFeasibility  TimelineFeasibility  `mapstructure:"timeline_feasibility" yaml:"timeline_feasibility"`
	CompetitiveLandscape CompetitiveLandscape `mapstructure:"competitive_landscape" yaml:"competitive_landscape"`
	StrategicValue       StrategicValue       `mapstructure:"strategic_value" yaml:"strategic_value"`
}

// DimensionNames lists the dimensions in reporting order.
var DimensionNames = []string{
	"feature_alignment",
	"geographic_fit",
	"budget_fit",
	"timeline_feasibility",
	"competitive_landscape",
	"strategic_value",
}

// Weights returns the configured weight per dimension name.
func (d ScoringDimensions) Weights() map[string]float64 {
	return map[string]float64{
		"feature_alignment":     d.FeatureAlignment.Weight,
		"geographic_fit":        d.GeographicFit.Weight,
		"budget_fit":            d.BudgetFit.Weight,
		"timeline_feasibility":  d.TimelineFeasibility.Weight,
		"competitive_landscape": d.CompetitiveLandscape.Weight,
		"strategic_value":       d.StrategicValue.Weight,
	}
}

// WeightSum returns the sum of all dimension weights.
func (d ScoringDimensions) WeightSum() float64 {
	var sum float64
	for _, w := range d.Weights() {
		sum += w
	}
	return sum
}

// FeatureAlignment scores keyword coverage per functional area.
type FeatureAlignment struct {
	Weight          float64                   `mapstructure:"weight" yaml:"weight"`
	FunctionalAreas map[string]FunctionalArea `mapstructure:"-" yaml:"functional_areas"`
}

// FunctionalArea is one capability the bidder offers.
type FunctionalArea struct {
	MaxPoints        float64  `mapstructure:"max_points" yaml:"max_points"`
	StrongKeywords   []string `mapstructure:"strong_keywords" yaml:"strong_keywords"`
	ModerateKeywords []string `mapstructure:"moderate_keywords" yaml:"moderate_keywords"`
}

// AreaNames returns the functional area names sorted.
func (f FeatureAlignment) AreaNames() []string {
	return sortedKeys(f.FunctionalAreas)
}

// GeographicFit maps market tiers to fixed scores.
type GeographicFit struct {
	Weight        float64 `mapstructure:"weight" yaml:"weight"`
	PrimaryScore  float64 `mapstructure:"primary_score" yaml:"primary_score"`
	AdjacentScore float64 `mapstructure:"adjacent_score" yaml:"adjacent_score"`
	OtherScore    float64 `mapstructure:"other_score" yaml:"other_score"`
}

// BudgetFit holds EUR thresholds for the budget curve.
type BudgetFit struct {
	Weight           float64 `mapstructure:"weight" yaml:"weight"`
	TooSmallEUR      float64 `mapstructure:"too_small_eur" yaml:"too_small_eur"`
	AcceptableMinEUR float64 `mapstructure:"acceptable_min_eur" yaml:"acceptable_min_eur"`
	SweetSpotMinEUR  float64 `mapstructure:"sweet_spot_min_eur" yaml:"sweet_spot_min_eur"`
	SweetSpotMaxEUR  float64 `mapstructure:"sweet_spot_max_eur" yaml:"sweet_spot_max_eur"`
}

// TimelineFeasibility holds lead-time thresholds in days.
type TimelineFeasibility struct {
	Weight      float64 `mapstructure:"weight" yaml:"weight"`
	MinimumDays int     `mapstructure:"minimum_days_from_now" yaml:"minimum_days_from_now"`
	IdealDays   int     `mapstructure:"ideal_days_from_now" yaml:"ideal_days_from_now"`
}

// CompetitiveLandscape holds competitor-signal groups and positive signals.
type CompetitiveLandscape struct {
	Weight           float64                    `mapstructure:"weight" yaml:"weight"`
	CompetitorGroups map[string]CompetitorGroup `mapstructure:"-" yaml:"competitor_groups"`
	PositiveSignals  []string                   `mapstructure:"positive_signals" yaml:"positive_signals"`
}

// CompetitorGroup is a labelled set of phrases hinting at a competing vendor.
type CompetitorGroup struct {
	Kind     GroupKind `mapstructure:"kind" yaml:"kind"`
	Keywords []string  `mapstructure:"keywords" yaml:"keywords"`
}

// GroupNames returns the competitor group labels sorted.
func (c CompetitiveLandscape) GroupNames() []string {
	return sortedKeys(c.CompetitorGroups)
}

// StrategicValue holds indicator tiers, numeric bonus tiers and scope multipliers.
type StrategicValue struct {
	Weight                float64               `mapstructure:"weight" yaml:"weight"`
	HighValueIndicators   []string              `mapstructure:"high_value_indicators" yaml:"high_value_indicators"`
	MediumValueIndicators []string              `mapstructure:"medium_value_indicators" yaml:"medium_value_indicators"`
	Multipliers           map[string]Multiplier `mapstructure:"-" yaml:"multipliers"`
	PopulationTiers       []Tier                `mapstructure:"population_tiers" yaml:"population_tiers"`
	MultiEntityTiers      []Tier                `mapstructure:"multi_entity_tiers" yaml:"multi_entity_tiers"`
}

// Multiplier scales the strategic base score when any trigger is among the
// matched high-value indicators.
type Multiplier struct {
	Factor   float64  `mapstructure:"factor" yaml:"factor"`
	Triggers []string `mapstructure:"triggers" yaml:"triggers"`
}

// Tier awards Points when an extracted number is at least Min.
type Tier struct {
	Min    float64 `mapstructure:"min" yaml:"min"`
	Points float64 `mapstructure:"points" yaml:"points"`
}

// WinThresholds configures the win-probability ladder and its display labels.
type WinThresholds struct {
	High          Threshold `mapstructure:"high" yaml:"high"`
	Medium        Threshold `mapstructure:"medium" yaml:"medium"`
	Low           Threshold `mapstructure:"low" yaml:"low"`
	EdgeCase      Threshold `mapstructure:"edge_case" yaml:"edge_case"`
	NotApplicable Threshold `mapstructure:"not_applicable" yaml:"not_applicable"`
}

// Threshold is one rung of the ladder.
type Threshold struct {
	MinScore float64 `mapstructure:"min_score" yaml:"min_score"`
	Label    string  `mapstructure:"label" yaml:"label"`
	Color    string  `mapstructure:"color" yaml:"color"`
}

// AdvisoryBonus rewards advisory-service phrasing outside the weighted sum.
type AdvisoryBonus struct {
	Triggers    []string `mapstructure:"triggers" yaml:"triggers"`
	BonusPoints float64  `mapstructure:"bonus_points" yaml:"bonus_points"`
}

// RFPTypeDetection holds the platform and consulting vocabularies.
type RFPTypeDetection struct {
	PlatformSignals   []string `mapstructure:"platform_signals" yaml:"platform_signals"`
	ConsultingSignals []string `mapstructure:"consulting_signals" yaml:"consulting_signals"`
}

// YAML renders the effective profile.
func (p *Profile) YAML() ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, eris.Wrap(err, "profile: marshal yaml")
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
