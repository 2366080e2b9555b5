package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// weightTolerance is how far the weight sum may drift from 1.0 before a
// warning is reported.
const weightTolerance = 0.01

// Validate checks that the profile is internally consistent. All problems
// are reported together.
func (p *Profile) Validate() error {
	var errs []string

	if strings.TrimSpace(p.Version) == "" {
		errs = append(errs, "version must not be empty")
	}

	dims := p.ScoringDimensions
	weights := dims.Weights()
	for _, name := range DimensionNames {
		if w := weights[name]; w < 0 || math.IsNaN(w) {
			errs = append(errs, fmt.Sprintf("%s.weight must be >= 0", name))
		}
	}
	if dims.WeightSum() <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	// Feature alignment.
	if len(dims.FeatureAlignment.FunctionalAreas) == 0 {
		errs = append(errs, "feature_alignment.functional_areas must not be empty")
	}
	for _, name := range dims.FeatureAlignment.AreaNames() {
		if dims.FeatureAlignment.FunctionalAreas[name].MaxPoints <= 0 {
			errs = append(errs, fmt.Sprintf("functional area %s: max_points must be > 0", name))
		}
	}

	// Geographic fit.
	geo := dims.GeographicFit
	geoNames := []string{"primary_score", "adjacent_score", "other_score"}
	for i, s := range []float64{geo.PrimaryScore, geo.AdjacentScore, geo.OtherScore} {
		if s < 0 || s > 100 {
			errs = append(errs, fmt.Sprintf("geographic_fit.%s must be between 0 and 100", geoNames[i]))
		}
	}

	// Budget thresholds.
	b := dims.BudgetFit
	if b.TooSmallEUR < 0 {
		errs = append(errs, "budget_fit.too_small_eur must be >= 0")
	}
	if !(b.TooSmallEUR <= b.AcceptableMinEUR && b.AcceptableMinEUR <= b.SweetSpotMinEUR && b.SweetSpotMinEUR <= b.SweetSpotMaxEUR) {
		errs = append(errs, "budget_fit thresholds must satisfy too_small <= acceptable_min <= sweet_spot_min <= sweet_spot_max")
	}

	// Timeline.
	tl := dims.TimelineFeasibility
	if tl.MinimumDays < 0 {
		errs = append(errs, "timeline_feasibility.minimum_days_from_now must be >= 0")
	}
	if tl.MinimumDays > tl.IdealDays {
		errs = append(errs, "timeline_feasibility.minimum_days_from_now must be <= ideal_days_from_now")
	}

	// Competitor groups.
	for _, name := range dims.CompetitiveLandscape.GroupNames() {
		g := dims.CompetitiveLandscape.CompetitorGroups[name]
		if !g.Kind.Valid() {
			errs = append(errs, fmt.Sprintf("competitor group %s: unknown kind %q", name, g.Kind))
		}
	}

	// Strategic value.
	sv := dims.StrategicValue
	for _, name := range sortedKeys(sv.Multipliers) {
		m := sv.Multipliers[name]
		if m.Factor < 1 {
			errs = append(errs, fmt.Sprintf("multiplier %s: factor must be >= 1", name))
		}
		if len(m.Triggers) == 0 {
			errs = append(errs, fmt.Sprintf("multiplier %s: triggers must not be empty", name))
		}
	}
	for _, t := range append(append([]Tier{}, sv.PopulationTiers...), sv.MultiEntityTiers...) {
		if t.Min < 0 || t.Points < 0 {
			errs = append(errs, "strategic_value tiers must have non-negative min and points")
			break
		}
	}

	// Win probability ladder.
	th := p.WinProbabilityThresholds
	levels := []struct {
		name string
		t    Threshold
	}{
		{"high", th.High}, {"medium", th.Medium}, {"low", th.Low},
		{"edge_case", th.EdgeCase}, {"not_applicable", th.NotApplicable},
	}
	for _, l := range levels {
		if strings.TrimSpace(l.t.Label) == "" {
			errs = append(errs, fmt.Sprintf("win_probability_thresholds.%s.label must not be empty", l.name))
		}
	}
	if th.High.MinScore > 100 || th.Low.MinScore < 0 {
		errs = append(errs, "win_probability_thresholds must lie between 0 and 100")
	}
	if !(th.High.MinScore > th.Medium.MinScore && th.Medium.MinScore >= th.Low.MinScore) {
		errs = append(errs, "win_probability_thresholds must satisfy high > medium >= low")
	}

	if p.AdvisoryServiceBonus.BonusPoints < 0 {
		errs = append(errs, "advisory_service_bonus.bonus_points must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Wrapf(ErrInvalidProfile, "profile: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Warnings lists non-fatal issues. Weights are expected, not required, to
// sum to 1.0.
func (p *Profile) Warnings() []string {
	var warns []string
	if sum := p.ScoringDimensions.WeightSum(); math.Abs(sum-1) > weightTolerance {
		warns = append(warns, fmt.Sprintf("dimension weights sum to %.3f, expected 1.0", sum))
	}
	qf := p.QualificationFilters
	if len(qf.SubjectMatter.QualifyingPatterns) == 0 {
		warns = append(warns, "subject_matter.qualifying_patterns is empty, every record will be rejected")
	}
	if len(qf.ClientType.QualifyingPatterns) == 0 && len(qf.ClientType.EdgeCasePatterns) == 0 {
		warns = append(warns, "client_type has no qualifying or edge-case patterns, every record will be rejected")
	}
	return warns
}
