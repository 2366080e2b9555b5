package scorer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sells-group/rfp-scorer/internal/profile"
)

const (
	competitiveBase       = 70
	competitorHitPenalty  = 10
	positiveSignalBonus   = 15
	heavyPrimaryHits      = 5
	moderatePrimaryHits   = 2
	heavyDomainHits       = 2
	recommendationSamples = 3
)

// competitorSignal is one competitor-group phrase found in the corpus.
type competitorSignal struct {
	label  string
	kind   profile.GroupKind
	phrase string
}

func (s competitorSignal) String() string {
	return s.label + ": " + s.phrase
}

// competitiveResult is the output of the competitive-landscape analysis.
type competitiveResult struct {
	score          float64
	signals        []competitorSignal
	positives      []string
	recommendation string
	// maxPrimaryHits is the largest hit count of any primary-competitor group.
	maxPrimaryHits int
}

func (r *rules) analyzeCompetition(corpus string) competitiveResult {
	var res competitiveResult
	for _, g := range r.groups {
		found := g.keywords.match(corpus)
		for _, kw := range found {
			res.signals = append(res.signals, competitorSignal{label: g.label, kind: g.kind, phrase: kw})
		}
		if g.kind == profile.KindPrimaryCompetitor && len(found) > res.maxPrimaryHits {
			res.maxPrimaryHits = len(found)
		}
	}
	res.positives = nonNil(r.positives.match(corpus))

	res.score = clamp(float64(competitiveBase -
		len(res.signals)*competitorHitPenalty +
		len(res.positives)*positiveSignalBonus))
	res.recommendation = r.recommend(res.signals, res.positives)
	return res
}

// recommend builds the bid recommendation from the hits. Primary-competitor
// groups are reported first, then domain-mismatch groups, then incumbency,
// then counterbalancing positives.
func (r *rules) recommend(signals []competitorSignal, positives []string) string {
	if len(signals) == 0 {
		if len(positives) > 0 {
			return "Open competition with positive signals. Strong position to bid."
		}
		return "No competitor signals detected. Neutral competitive landscape."
	}

	byGroup := make(map[string][]string)
	for _, s := range signals {
		byGroup[s.label] = append(byGroup[s.label], s.phrase)
	}

	var parts []string
	for _, g := range r.groups {
		hits := byGroup[g.label]
		if g.kind != profile.KindPrimaryCompetitor || len(hits) == 0 {
			continue
		}
		name := displayLabel(g.label)
		switch {
		case len(hits) >= heavyPrimaryHits:
			parts = append(parts, fmt.Sprintf(
				"Strong %s pattern (%d signals: %s...). Specification likely written with this competitor in mind. Recommend: SKIP unless you can negotiate scope changes or partner.",
				name, len(hits), strings.Join(hits[:recommendationSamples], ", ")))
		case len(hits) >= moderatePrimaryHits:
			parts = append(parts, fmt.Sprintf(
				"Moderate %s signals (%d). Some requirements favor the competitor's approach but may be negotiable. Recommend: BID with clarification questions about mandatory vs. preferred requirements.",
				name, len(hits)))
		default:
			parts = append(parts, fmt.Sprintf(
				"Single %s signal (%s). Likely generic requirement, not competitor-specific. Recommend: BID normally.",
				name, hits[0]))
		}
	}

	for _, g := range r.groups {
		hits := byGroup[g.label]
		if g.kind != profile.KindDomainMismatch || len(hits) == 0 {
			continue
		}
		name := displayLabel(g.label)
		if len(hits) >= heavyDomainHits {
			parts = append(parts, fmt.Sprintf(
				"%s focus (%d signals). Core scope may be outside the product domain. Recommend: SKIP or bid for a sub-scope only.",
				upperFirst(name), len(hits)))
		} else {
			parts = append(parts, fmt.Sprintf(
				"Minor %s mention (%s). Can be addressed with integration approach.", name, hits[0]))
		}
	}

	for _, s := range signals {
		if s.kind == profile.KindGenericIncumbent {
			parts = append(parts, "Incumbent/migration signals detected. May require displacement strategy.")
			break
		}
	}

	if len(positives) > 0 {
		parts = append(parts, fmt.Sprintf("Counterbalancing positive signals: %s.", strings.Join(positives, ", ")))
	}

	if len(parts) == 0 {
		return "Mixed signals. Review manually."
	}
	return strings.Join(parts, " ")
}

func displayLabel(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
