// Package scorer qualifies procurement opportunities and scores their
// relevance against a configuration profile.
package scorer

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-scorer/internal/fx"
	"github.com/sells-group/rfp-scorer/internal/model"
	"github.com/sells-group/rfp-scorer/internal/profile"
)

// Scorer scores one record as of a given instant.
type Scorer interface {
	ScoreAt(rec model.OpportunityRecord, at time.Time) model.ScoringResult
}

// Engine scores records against one immutable profile. It holds no mutable
// state, so a single Engine may be shared by any number of goroutines.
type Engine struct {
	profile *profile.Profile
	rules   *rules
	rates   *fx.Table
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used by Score.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRates sets the currency table used to normalize budgets.
func WithRates(t *fx.Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.rates = t
		}
	}
}

// New validates p and compiles it into an Engine.
func New(p *profile.Profile, opts ...Option) (*Engine, error) {
	if p == nil {
		return nil, eris.New("scorer: nil profile")
	}
	if err := p.Validate(); err != nil {
		return nil, eris.Wrap(err, "scorer: new engine")
	}

	e := &Engine{
		profile: p,
		rules:   compileRules(p),
		rates:   fx.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	zap.L().Debug("scorer: engine ready",
		zap.String("version", p.Version),
		zap.Int("functional_areas", len(e.rules.areas)),
		zap.Int("competitor_groups", len(e.rules.groups)),
	)
	return e, nil
}

// Version returns the profile version stamped on every result.
func (e *Engine) Version() string { return e.rules.version }

// Profile returns the profile the engine was built from. Callers must not modify it.
func (e *Engine) Profile() *profile.Profile { return e.profile }

// Score scores rec as of the engine clock.
func (e *Engine) Score(rec model.OpportunityRecord) model.ScoringResult {
	return e.ScoreAt(rec, e.now())
}

// ScoreAt scores rec with deadline arithmetic relative to at. It never fails:
// unusable dates and budgets fall back to neutral scores and a rejected
// record yields a result with Qualified false.
func (e *Engine) ScoreAt(rec model.OpportunityRecord, at time.Time) model.ScoringResult {
	r := e.rules
	corpus := buildCorpus(rec)
	days := daysLeft(rec.Deadline, at)

	res := model.ScoringResult{
		ID:                 rec.ID(),
		Title:              rec.Title,
		IssuingEntity:      rec.IssuingEntity,
		Country:            rec.Country,
		RFPType:            r.detectRFPType(corpus),
		Confidence:         assessConfidence(rec),
		Deadline:           rec.Deadline,
		DeadlineStatus:     deadlineStatus(days),
		DaysLeft:           days,
		BudgetEUR:          e.budgetEUR(rec.Budget),
		Market:             Market(rec.Country),
		ProcurementProcess: DetectProcurementProcess(rec.Title, rec.Description),
		SourceURL:          rec.SourceURL,
		SourcePortal:       rec.SourcePortal,
		ConfigVersion:      r.version,
		ScoredAt:           at,
		FeatureBreakdown:   []model.AreaScore{},
		CompetitorSignals:  []string{},
		PositiveSignals:    []string{},
		EdgeCaseFlags:      []string{},
	}

	ok, reason, flags := r.qualify(rec, corpus)
	if !ok {
		res.DisqualificationReason = reason
		res.WinState = model.WinNotApplicable
		res.WinProbability, res.WinProbabilityColor = r.display(model.WinNotApplicable)
		return res
	}
	res.Qualified = true

	feature, breakdown := r.scoreFeatureAlignment(corpus)
	geo := r.scoreGeographicFit(rec.Country)
	budget := r.scoreBudgetFit(res.BudgetEUR)
	timeline := r.scoreTimeline(days)
	comp := r.analyzeCompetition(corpus)
	strategic := r.scoreStrategicValue(corpus)
	advisory := r.scoreAdvisoryBonus(corpus)

	adjustment := rfpTypeAdjustment[res.RFPType]
	if res.RFPType == model.RFPTypeConsultingOnly {
		flags = append(flags, consultingOnlyFlag)
	}

	w := r.weights
	composite := clamp(feature)*w.feature +
		clamp(geo)*w.geo +
		clamp(budget)*w.budget +
		clamp(timeline)*w.timeline +
		clamp(comp.score)*w.competitive +
		clamp(strategic)*w.strategic
	composite = clamp(composite + advisory + adjustment)

	if res.Confidence == model.ConfidenceLow {
		flags = append(flags, lowConfidenceFlag)
	}

	res.WinState = r.classify(composite, flags, comp)
	res.WinProbability, res.WinProbabilityColor = r.display(res.WinState)

	res.RelevanceScore = round1(composite)
	res.FeatureAlignmentScore = round1(clamp(feature))
	res.GeographicFitScore = round1(clamp(geo))
	res.BudgetFitScore = round1(clamp(budget))
	res.TimelineScore = round1(clamp(timeline))
	res.CompetitiveScore = round1(clamp(comp.score))
	res.StrategicValueScore = round1(clamp(strategic))
	res.AdvisoryBonus = round1(advisory)
	res.RFPTypeAdjustment = adjustment

	res.FeatureBreakdown = breakdown
	for _, s := range comp.signals {
		res.CompetitorSignals = append(res.CompetitorSignals, s.String())
	}
	res.PositiveSignals = comp.positives
	res.CompetitorRecommendation = comp.recommendation
	if flags != nil {
		res.EdgeCaseFlags = flags
	}
	return res
}

func (e *Engine) budgetEUR(b *model.Budget) *float64 {
	if b == nil {
		return nil
	}
	v, ok := e.rates.ToEUR(b.Amount, b.Currency)
	if !ok {
		return nil
	}
	return &v
}
