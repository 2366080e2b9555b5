package scorer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/rfp-scorer/internal/model"
	"github.com/sells-group/rfp-scorer/internal/profile"
)

// Fixed points on the budget and timeline curves.
const (
	budgetUnknownScore  = 50
	budgetTooSmallScore = 10
	budgetLowScore      = 30
	budgetAboveScore    = 80

	timelineUnknownScore = 60
	timelineShortScore   = 15

	strongKeywordPoints   = 3
	moderateKeywordPoints = 1
	highValuePoints       = 15
	mediumValuePoints     = 8
	advisoryPointsPerHit  = 3
)

var (
	populationRe  = regexp.MustCompile(`(\d[\d,]*)\s*(residents|population|inhabitants|einwohner)`)
	multiEntityRe = regexp.MustCompile(`(\d+)\s+[\p{L}\p{N}_]*\s*(local authorities|municipalities|kommunen|cities|gemeinden|councils|authorities|verwaltungen)`)
)

// scoreFeatureAlignment awards strong/moderate keyword points per area,
// capped at the area maximum, as a percentage of all available points.
func (r *rules) scoreFeatureAlignment(corpus string) (float64, []model.AreaScore) {
	var totalMax, totalEarned float64
	breakdown := make([]model.AreaScore, 0, len(r.areas))
	for _, a := range r.areas {
		strong := nonNil(a.strong.match(corpus))
		moderate := nonNil(a.moderate.match(corpus))
		raw := float64(len(strong)*strongKeywordPoints + len(moderate)*moderateKeywordPoints)
		earned := math.Min(raw, a.max)

		totalMax += a.max
		totalEarned += earned
		breakdown = append(breakdown, model.AreaScore{
			Area:            a.name,
			Score:           earned,
			Max:             a.max,
			StrongMatches:   strong,
			ModerateMatches: moderate,
		})
	}
	if totalMax <= 0 {
		return 0, breakdown
	}
	return totalEarned / totalMax * 100, breakdown
}

func (r *rules) scoreGeographicFit(country string) float64 {
	switch r.marketTier(country) {
	case tierPrimary:
		return r.geo.PrimaryScore
	case tierAdjacent:
		return r.geo.AdjacentScore
	}
	return r.geo.OtherScore
}

// scoreBudgetFit maps an EUR budget onto the tiered curve. A nil budget is
// neutral.
func (r *rules) scoreBudgetFit(budgetEUR *float64) float64 {
	if budgetEUR == nil {
		return budgetUnknownScore
	}
	b := *budgetEUR
	cfg := r.budget
	switch {
	case b < cfg.TooSmallEUR:
		return budgetTooSmallScore
	case b < cfg.AcceptableMinEUR:
		return budgetLowScore
	case b >= cfg.SweetSpotMinEUR && b <= cfg.SweetSpotMaxEUR:
		return 100
	case b > cfg.SweetSpotMaxEUR:
		return budgetAboveScore
	}
	ratio := (b - cfg.AcceptableMinEUR) / (cfg.SweetSpotMinEUR - cfg.AcceptableMinEUR)
	return budgetLowScore + ratio*(100-budgetLowScore)
}

// scoreTimeline maps lead time onto the feasibility curve. A nil daysLeft
// means no usable deadline.
func (r *rules) scoreTimeline(daysLeft *int) float64 {
	if daysLeft == nil {
		return timelineUnknownScore
	}
	d := *daysLeft
	cfg := r.timeline
	switch {
	case d < 0:
		return 0
	case d < cfg.MinimumDays:
		return timelineShortScore
	case d >= cfg.IdealDays:
		return 100
	}
	ratio := float64(d-cfg.MinimumDays) / float64(cfg.IdealDays-cfg.MinimumDays)
	return timelineShortScore + ratio*(100-timelineShortScore)
}

// scoreStrategicValue sums indicator hits and numeric bonuses, then applies
// the largest scope multiplier whose trigger is among the matched
// high-value indicators.
func (r *rules) scoreStrategicValue(corpus string) float64 {
	matchedHigh := make(map[string]bool)
	for _, p := range r.highValue {
		if strings.Contains(corpus, p.norm) {
			matchedHigh[p.norm] = true
		}
	}
	medium := r.mediumValue.match(corpus)

	base := float64(len(matchedHigh))*highValuePoints + float64(len(medium))*mediumValuePoints
	base += tierBonus(r.popTiers, extractNumber(populationRe, corpus))
	base += tierBonus(r.entityTiers, extractNumber(multiEntityRe, corpus))

	multiplier := 1.0
	for _, m := range r.multipliers {
		for trig := range m.triggers {
			if matchedHigh[trig] {
				multiplier = math.Max(multiplier, m.factor)
				break
			}
		}
	}
	return math.Min(100, base*multiplier)
}

// scoreAdvisoryBonus awards points per distinct trigger up to the configured cap.
func (r *rules) scoreAdvisoryBonus(corpus string) float64 {
	found := r.advisory.match(corpus)
	if len(found) == 0 {
		return 0
	}
	return math.Min(r.advisoryCap, float64(len(found))*advisoryPointsPerHit)
}

// extractNumber returns the first number captured by re, or -1.
func extractNumber(re *regexp.Regexp, corpus string) float64 {
	m := re.FindStringSubmatch(corpus)
	if m == nil {
		return -1
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return -1
	}
	return n
}

func tierBonus(tiers []profile.Tier, n float64) float64 {
	if n < 0 {
		return 0
	}
	for _, t := range tiers {
		if n >= t.Min {
			return t.Points
		}
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
