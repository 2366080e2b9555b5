// Package monitoring summarizes scoring runs, exports Prometheus metrics and
// sends digest alerts for noteworthy opportunities.
package monitoring

import (
	"math"
	"time"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// Snapshot is a point-in-time summary of a set of scoring results.
type Snapshot struct {
	Total                int     `json:"total"`
	Qualified            int     `json:"qualified"`
	Disqualified         int     `json:"disqualified"`
	DisqualificationRate float64 `json:"disqualification_rate"`

	ByState  map[model.WinProbability]int `json:"by_state"`
	ByMarket map[string]int               `json:"by_market"`

	EdgeCases      int `json:"edge_cases"`
	DeadlineAlerts int `json:"deadline_alerts"`

	// Score statistics over qualified results only.
	AvgScore float64 `json:"avg_score"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`

	CollectedAt time.Time `json:"collected_at"`
}

// Summarize builds a Snapshot over results.
func Summarize(results []model.ScoringResult) *Snapshot {
	snap := &Snapshot{
		Total:       len(results),
		ByState:     make(map[model.WinProbability]int),
		ByMarket:    make(map[string]int),
		CollectedAt: time.Now().UTC(),
	}

	var sum float64
	snap.MinScore = math.Inf(1)
	for i := range results {
		r := &results[i]
		snap.ByState[r.WinState]++
		if !r.Qualified {
			snap.Disqualified++
			continue
		}
		snap.Qualified++
		snap.ByMarket[r.Market]++
		if r.WinState == model.WinEdgeCase {
			snap.EdgeCases++
		}
		if needsAttention(r) {
			snap.DeadlineAlerts++
		}
		sum += r.RelevanceScore
		snap.MinScore = math.Min(snap.MinScore, r.RelevanceScore)
		snap.MaxScore = math.Max(snap.MaxScore, r.RelevanceScore)
	}

	if snap.Qualified > 0 {
		snap.AvgScore = math.Round(sum/float64(snap.Qualified)*10) / 10
	} else {
		snap.MinScore = 0
	}
	if snap.Total > 0 {
		snap.DisqualificationRate = float64(snap.Disqualified) / float64(snap.Total)
	}
	return snap
}

// closingSoonAlertDays narrows closing_soon results down to the ones worth a
// reminder.
const closingSoonAlertDays = 21

// needsAttention reports whether a qualified result's deadline is close
// enough to warrant a reminder.
func needsAttention(r *model.ScoringResult) bool {
	if !r.Qualified {
		return false
	}
	switch r.DeadlineStatus {
	case model.DeadlineUrgent:
		return true
	case model.DeadlineClosingSoon:
		return r.DaysLeft != nil && *r.DaysLeft < closingSoonAlertDays
	}
	return false
}
