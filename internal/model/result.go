package model

import (
	"time"
)

// WinProbability is the discrete outcome label of a scoring run.
type WinProbability string

// Canonical win-probability states. Profiles may relabel them for display;
// WinState always carries the canonical value.
const (
	WinHigh          WinProbability = "High"
	WinMedium        WinProbability = "Medium"
	WinLow           WinProbability = "Low"
	WinEdgeCase      WinProbability = "Edge Case"
	WinNotApplicable WinProbability = "N/A"
)

// RFPType classifies what the buyer is actually procuring.
type RFPType string

const (
	RFPTypePlatform               RFPType = "platform"
	RFPTypeConsultingWithPlatform RFPType = "consulting_with_platform"
	RFPTypeConsultingOnly         RFPType = "consulting_only"
	RFPTypeUnknown                RFPType = "unknown"
)

// DeadlineStatus buckets the time left until submission.
type DeadlineStatus string

const (
	DeadlineUnknown     DeadlineStatus = "unknown"
	DeadlineExpired     DeadlineStatus = "expired"
	DeadlineUrgent      DeadlineStatus = "urgent"
	DeadlineClosingSoon DeadlineStatus = "closing_soon"
	DeadlineOpen        DeadlineStatus = "open"
)

// Confidence reflects how much source text the score is based on.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AreaScore is the feature-alignment evidence for one functional area.
type AreaScore struct {
	Area            string   `json:"area" yaml:"area"`
	Score           float64  `json:"score" yaml:"score"`
	Max             float64  `json:"max" yaml:"max"`
	StrongMatches   []string `json:"strong_matches" yaml:"strong_matches"`
	ModerateMatches []string `json:"moderate_matches" yaml:"moderate_matches"`
}

// ProcurementProcess describes the award procedure detected in the notice.
type ProcurementProcess struct {
	Type    string   `json:"type" yaml:"type"`
	Rounds  string   `json:"rounds" yaml:"rounds"`
	Details []string `json:"details" yaml:"details"`
}

// ScoringResult is the complete, immutable outcome of scoring one record.
type ScoringResult struct {
	ID            string `json:"id"`
	Title         string `json:"rfp_title"`
	IssuingEntity string `json:"issuing_entity"`
	Country       string `json:"country"`

	Qualified              bool   `json:"qualified"`
	DisqualificationReason string `json:"disqualification_reason,omitempty"`

	RelevanceScore      float64        `json:"relevance_score"`
	WinState            WinProbability `json:"win_state"`
	WinProbability      string         `json:"win_probability"`
	WinProbabilityColor string         `json:"win_probability_color"`

	FeatureAlignmentScore float64 `json:"feature_alignment_score"`
	GeographicFitScore    float64 `json:"geographic_fit_score"`
	BudgetFitScore        float64 `json:"budget_fit_score"`
	TimelineScore         float64 `json:"timeline_score"`
	CompetitiveScore      float64 `json:"competitive_score"`
	StrategicValueScore   float64 `json:"strategic_value_score"`
	AdvisoryBonus         float64 `json:"advisory_bonus"`
	RFPTypeAdjustment     float64 `json:"rfp_type_adjustment"`

	FeatureBreakdown         []AreaScore `json:"feature_breakdown"`
	CompetitorSignals        []string    `json:"competitor_signals"`
	CompetitorRecommendation string      `json:"competitor_recommendation"`
	PositiveSignals          []string    `json:"positive_signals"`
	EdgeCaseFlags            []string    `json:"edge_case_flags"`

	Confidence     Confidence     `json:"score_confidence"`
	RFPType        RFPType        `json:"rfp_type"`
	Deadline       string         `json:"deadline,omitempty"`
	DeadlineStatus DeadlineStatus `json:"deadline_status"`
	DaysLeft       *int           `json:"days_left,omitempty"`
	BudgetEUR      *float64       `json:"budget_eur,omitempty"`

	Market             string             `json:"market"`
	ProcurementProcess ProcurementProcess `json:"procurement_process"`

	SourceURL     string    `json:"source_url,omitempty"`
	SourcePortal  string    `json:"source_portal,omitempty"`
	ConfigVersion string    `json:"scoring_config_version"`
	ScoredAt      time.Time `json:"scored_at"`
}
