package profile

import (
	"github.com/spf13/viper"
)

// Built-in vocabularies used when a profile omits rfp_type_detection.
var (
	defaultPlatformSignals = []string{
		"saas", "software", "platform", "digital tool", "cloud-software",
		"web-based", "dashboard", "online-tool", "web-plattform",
		"digitale plattform", "software-lösung", "it-system",
	}
	defaultConsultingSignals = []string{
		"consulting", "beratung", "gutachten", "expertise",
		"advisory", "study", "studie", "analysis only", "assessment only",
		"technical assistance", "fachliche begleitung",
	}
)

// DefaultMultipliers returns the scope multipliers used when a profile
// defines none.
func DefaultMultipliers() map[string]Multiplier {
	return map[string]Multiplier{
		"framework_agreement": {Factor: 1.8, Triggers: []string{"framework agreement", "rahmenvertrag", "rahmenvereinbarung"}},
		"national_scope":      {Factor: 2.0, Triggers: []string{"national government", "national agency"}},
		"multi_municipality":  {Factor: 1.5, Triggers: []string{"multi-municipality"}},
	}
}

// DefaultPopulationTiers returns the population bonus tiers, largest first.
func DefaultPopulationTiers() []Tier {
	return []Tier{{Min: 500_000, Points: 25}, {Min: 100_000, Points: 15}, {Min: 50_000, Points: 8}}
}

// DefaultMultiEntityTiers returns the multi-entity bonus tiers, largest first.
func DefaultMultiEntityTiers() []Tier {
	return []Tier{{Min: 20, Points: 30}, {Min: 5, Points: 20}, {Min: 2, Points: 10}}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("win_probability_thresholds.edge_case.label", "Edge Case")
	v.SetDefault("win_probability_thresholds.edge_case.color", "gray")
	v.SetDefault("win_probability_thresholds.not_applicable.label", "N/A")
	v.SetDefault("win_probability_thresholds.not_applicable.color", "gray")
	v.SetDefault("rfp_type_detection.platform_signals", defaultPlatformSignals)
	v.SetDefault("rfp_type_detection.consulting_signals", defaultConsultingSignals)
}

func applyDefaults(p *Profile) {
	sv := &p.ScoringDimensions.StrategicValue
	if sv.Multipliers == nil {
		sv.Multipliers = DefaultMultipliers()
	}
	if len(sv.PopulationTiers) == 0 {
		sv.PopulationTiers = DefaultPopulationTiers()
	}
	if len(sv.MultiEntityTiers) == 0 {
		sv.MultiEntityTiers = DefaultMultiEntityTiers()
	}
	if p.ScoringDimensions.CompetitiveLandscape.CompetitorGroups == nil {
		p.ScoringDimensions.CompetitiveLandscape.CompetitorGroups = map[string]CompetitorGroup{}
	}
}
