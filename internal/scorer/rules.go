package scorer

import (
	"sort"
	"strings"

	"github.com/sells-group/rfp-scorer/internal/profile"
)

// rules is the matchable form of a profile, built once per engine and never
// mutated afterwards.
type rules struct {
	version string

	disqualifiers       phraseList
	clientQualifying    phraseList
	clientEdge          phraseList
	clientDisqualifying phraseList
	subject             phraseList
	primaryMarkets      map[string]bool
	adjacentMarkets     map[string]bool

	areas       []areaRule
	geo         profile.GeographicFit
	budget      profile.BudgetFit
	timeline    profile.TimelineFeasibility
	groups      []groupRule
	positives   phraseList
	highValue   phraseList
	mediumValue phraseList
	multipliers []multiplierRule
	popTiers    []profile.Tier
	entityTiers []profile.Tier

	weights    weights
	thresholds profile.WinThresholds

	advisory    phraseList
	advisoryCap float64

	platform   phraseList
	consulting phraseList
}

type areaRule struct {
	name     string
	max      float64
	strong   phraseList
	moderate phraseList
}

type groupRule struct {
	label    string
	kind     profile.GroupKind
	keywords phraseList
}

type multiplierRule struct {
	name     string
	factor   float64
	triggers map[string]bool // normalized
}

type weights struct {
	feature, geo, budget, timeline, competitive, strategic float64
}

func compileRules(p *profile.Profile) *rules {
	qf := p.QualificationFilters
	dims := p.ScoringDimensions

	r := &rules{
		version:             p.Version,
		disqualifiers:       compilePhrases(qf.DisqualificationSignals),
		clientQualifying:    compilePhrases(qf.ClientType.QualifyingPatterns),
		clientEdge:          compilePhrases(qf.ClientType.EdgeCasePatterns),
		clientDisqualifying: compilePhrases(qf.ClientType.DisqualifyingPatterns),
		subject:             compilePhrases(qf.SubjectMatter.QualifyingPatterns),
		primaryMarkets:      marketSet(qf.GeographicScope.PrimaryMarkets),
		adjacentMarkets:     marketSet(qf.GeographicScope.AdjacentMarkets),
		geo:                 dims.GeographicFit,
		budget:              dims.BudgetFit,
		timeline:            dims.TimelineFeasibility,
		positives:           compilePhrases(dims.CompetitiveLandscape.PositiveSignals),
		highValue:           compilePhrases(dims.StrategicValue.HighValueIndicators),
		mediumValue:         compilePhrases(dims.StrategicValue.MediumValueIndicators),
		popTiers:            sortTiers(dims.StrategicValue.PopulationTiers),
		entityTiers:         sortTiers(dims.StrategicValue.MultiEntityTiers),
		weights: weights{
			feature:     dims.FeatureAlignment.Weight,
			geo:         dims.GeographicFit.Weight,
			budget:      dims.BudgetFit.Weight,
			timeline:    dims.TimelineFeasibility.Weight,
			competitive: dims.CompetitiveLandscape.Weight,
			strategic:   dims.StrategicValue.Weight,
		},
		thresholds:  p.WinProbabilityThresholds,
		advisory:    compilePhrases(p.AdvisoryServiceBonus.Triggers),
		advisoryCap: p.AdvisoryServiceBonus.BonusPoints,
		platform:    compilePhrases(p.RFPTypeDetection.PlatformSignals),
		consulting:  compilePhrases(p.RFPTypeDetection.ConsultingSignals),
	}

	for _, name := range dims.FeatureAlignment.AreaNames() {
		a := dims.FeatureAlignment.FunctionalAreas[name]
		r.areas = append(r.areas, areaRule{
			name:     name,
			max:      a.MaxPoints,
			strong:   compilePhrases(a.StrongKeywords),
			moderate: compilePhrases(a.ModerateKeywords),
		})
	}

	for _, label := range dims.CompetitiveLandscape.GroupNames() {
		g := dims.CompetitiveLandscape.CompetitorGroups[label]
		r.groups = append(r.groups, groupRule{
			label:    label,
			kind:     g.Kind,
			keywords: compilePhrases(g.Keywords),
		})
	}

	mults := dims.StrategicValue.Multipliers
	names := make([]string, 0, len(mults))
	for name := range mults {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := mults[name]
		triggers := make(map[string]bool, len(m.Triggers))
		for _, t := range compilePhrases(m.Triggers) {
			triggers[t.norm] = true
		}
		r.multipliers = append(r.multipliers, multiplierRule{name: name, factor: m.Factor, triggers: triggers})
	}

	return r
}

func marketSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			set[c] = true
		}
	}
	return set
}

// sortTiers orders tiers by descending threshold so the first hit is the best.
func sortTiers(tiers []profile.Tier) []profile.Tier {
	out := append([]profile.Tier(nil), tiers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Min > out[j].Min })
	return out
}
