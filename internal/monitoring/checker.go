package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/rfp-scorer/internal/config"
	"github.com/sells-group/rfp-scorer/internal/model"
)

// Recorder accumulates results scored since the last drain. Results are
// keyed by record ID so a record re-submitted between checks is reported once.
type Recorder struct {
	mu      sync.Mutex
	order   []string
	results map[string]model.ScoringResult
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{results: make(map[string]model.ScoringResult)}
}

// Record adds results, replacing earlier results for the same record ID.
func (r *Recorder) Record(results ...model.ScoringResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range results {
		if _, ok := r.results[res.ID]; !ok {
			r.order = append(r.order, res.ID)
		}
		r.results[res.ID] = res
	}
}

// Len returns the number of pending results.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Drain returns the pending results in first-seen order and resets the Recorder.
func (r *Recorder) Drain() []model.ScoringResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ScoringResult, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.results[id])
	}
	r.order = nil
	r.results = make(map[string]model.ScoringResult)
	return out
}

// Checker runs periodic digest checks in the background.
type Checker struct {
	recorder *Recorder
	alerter  *Alerter
	cfg      config.MonitoringConfig
}

// NewChecker creates a background digest checker.
func NewChecker(recorder *Recorder, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		recorder: recorder,
		alerter:  alerter,
		cfg:      cfg,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting digest checker", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("digest checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check drains the recorder, evaluates the digest rules and sends any alerts.
// It returns the number of alerts triggered.
func (c *Checker) Check(ctx context.Context) int {
	results := c.recorder.Drain()
	if len(results) == 0 {
		zap.L().Debug("monitoring: nothing scored since last check")
		return 0
	}

	snap := Summarize(results)
	alerts := c.alerter.Evaluate(snap, results)
	if len(alerts) == 0 {
		zap.L().Debug("monitoring: no alerts triggered", zap.Int("records", snap.Total))
		return 0
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	zap.L().Info("monitoring: digest check complete",
		zap.Int("records", snap.Total),
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
	return len(alerts)
}
