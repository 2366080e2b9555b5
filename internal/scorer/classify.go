package scorer

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sells-group/rfp-scorer/internal/model"
)

const (
	highConfidenceChars   = 2000
	mediumConfidenceChars = 500

	urgentDays      = 7
	closingSoonDays = 21

	// Competitor hits that make a composite score ambiguous.
	multiSignalHits     = 2
	multiSignalMinScore = 30
	// Multi-signal composites at or above this are capped at Medium. Fixed,
	// independent of the configured high threshold.
	multiSignalDowngradeScore = 70

	consultingOnlyFlag = "Consulting-only RFP - no platform requirement detected. May fit as sub-component."
	lowConfidenceFlag  = "Low confidence: score based on brief text only. Full document may score differently."
)

// rfpTypeAdjustment is added to the composite per RFP type.
var rfpTypeAdjustment = map[model.RFPType]float64{
	model.RFPTypeConsultingOnly:         -5,
	model.RFPTypeConsultingWithPlatform: 2,
	model.RFPTypePlatform:               3,
	model.RFPTypeUnknown:                0,
}

// deadlineLayouts are tried in order; the first that parses wins.
var deadlineLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"2 January 2006",
	"January 2, 2006",
}

func (r *rules) detectRFPType(corpus string) model.RFPType {
	platform := r.platform.hasAny(corpus)
	consulting := r.consulting.hasAny(corpus)
	switch {
	case platform && consulting:
		return model.RFPTypeConsultingWithPlatform
	case platform:
		return model.RFPTypePlatform
	case consulting:
		return model.RFPTypeConsultingOnly
	}
	return model.RFPTypeUnknown
}

// assessConfidence grades the amount of source text in characters.
func assessConfidence(rec model.OpportunityRecord) model.Confidence {
	n := utf8.RuneCountInString(rec.Title) +
		utf8.RuneCountInString(rec.Description) +
		utf8.RuneCountInString(rec.FullText)
	switch {
	case n > highConfidenceChars:
		return model.ConfidenceHigh
	case n > mediumConfidenceChars:
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}

// parseDeadline returns the deadline's calendar date, taken in the deadline's
// own offset, at UTC midnight.
func parseDeadline(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// daysLeft returns whole calendar days from at to the deadline, or nil when
// the deadline is missing or unparseable.
func daysLeft(deadline string, at time.Time) *int {
	dl, ok := parseDeadline(deadline)
	if !ok {
		return nil
	}
	u := at.UTC()
	today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	d := int(math.Round(dl.Sub(today).Hours() / 24))
	return &d
}

func deadlineStatus(days *int) model.DeadlineStatus {
	if days == nil {
		return model.DeadlineUnknown
	}
	switch d := *days; {
	case d < 0:
		return model.DeadlineExpired
	case d < urgentDays:
		return model.DeadlineUrgent
	case d < closingSoonDays:
		return model.DeadlineClosingSoon
	}
	return model.DeadlineOpen
}

// classify maps the unrounded composite and qualitative signals onto the
// win-probability states. Priority: heavy primary-competitor presence, then
// multi-signal ambiguity, then the threshold ladder. Between the multi-signal
// floor and the downgrade score, with no edge flags, the ladder applies
// unmodified.
func (r *rules) classify(composite float64, flags []string, comp competitiveResult) model.WinProbability {
	th := r.thresholds
	if comp.maxPrimaryHits >= heavyPrimaryHits {
		return model.WinLow
	}
	if len(comp.signals) >= multiSignalHits && composite >= multiSignalMinScore {
		if len(flags) > 0 {
			return model.WinEdgeCase
		}
		if composite >= multiSignalDowngradeScore {
			return model.WinMedium
		}
	}
	switch {
	case composite >= th.High.MinScore:
		return model.WinHigh
	case composite >= th.Medium.MinScore:
		return model.WinMedium
	}
	return model.WinLow
}

// display returns the configured label and color for a state.
func (r *rules) display(w model.WinProbability) (string, string) {
	th := r.thresholds
	switch w {
	case model.WinHigh:
		return th.High.Label, th.High.Color
	case model.WinMedium:
		return th.Medium.Label, th.Medium.Color
	case model.WinLow:
		return th.Low.Label, th.Low.Color
	case model.WinEdgeCase:
		return th.EdgeCase.Label, th.EdgeCase.Color
	}
	return th.NotApplicable.Label, th.NotApplicable.Color
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
