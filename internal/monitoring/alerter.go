package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-scorer/internal/config"
	"github.com/sells-group/rfp-scorer/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertHighProbability      AlertType = "high_probability"
	AlertDeadline             AlertType = "deadline_alert"
	AlertDisqualificationRate AlertType = "disqualification_rate"
)

// minRecordsForRate keeps small batches from tripping the rate alert.
const minRecordsForRate = 5

// Opportunity is the digest line for one scored record.
type Opportunity struct {
	ID             string  `json:"id"`
	Title          string  `json:"rfp_title"`
	IssuingEntity  string  `json:"issuing_entity"`
	Country        string  `json:"country"`
	RelevanceScore float64 `json:"relevance_score"`
	WinProbability string  `json:"win_probability"`
	Deadline       string  `json:"deadline,omitempty"`
	DaysLeft       *int    `json:"days_left,omitempty"`
	SourceURL      string  `json:"source_url,omitempty"`
}

// Alert represents a single alert to be sent.
type Alert struct {
	Type          AlertType      `json:"type"`
	Severity      string         `json:"severity"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	Opportunities []Opportunity  `json:"opportunities,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Alerter evaluates scored results against the digest rules and sends
// alerts via webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	retry  retryPolicy
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  defaultRetryPolicy(),
	}
}

// Evaluate checks results and their snapshot and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot, results []model.ScoringResult) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	var high, deadlines []Opportunity
	for i := range results {
		r := &results[i]
		if r.Qualified && r.WinState == model.WinHigh {
			high = append(high, opportunityOf(r))
		}
		if needsAttention(r) {
			deadlines = append(deadlines, opportunityOf(r))
		}
	}

	if len(high) > 0 {
		sort.SliceStable(high, func(i, j int) bool { return high[i].RelevanceScore > high[j].RelevanceScore })
		alerts = append(alerts, Alert{
			Type:          AlertHighProbability,
			Severity:      "info",
			Message:       fmt.Sprintf("%d new high-probability opportunit%s", len(high), plural(len(high))),
			Details:       map[string]any{"count": len(high), "qualified": snap.Qualified},
			Opportunities: high,
			Timestamp:     now,
		})
	}

	if len(deadlines) > 0 {
		sort.SliceStable(deadlines, func(i, j int) bool { return daysOf(deadlines[i]) < daysOf(deadlines[j]) })
		alerts = append(alerts, Alert{
			Type:          AlertDeadline,
			Severity:      "high",
			Message:       fmt.Sprintf("%d qualified opportunit%s closing soon", len(deadlines), plural(len(deadlines))),
			Details:       map[string]any{"count": len(deadlines)},
			Opportunities: deadlines,
			Timestamp:     now,
		})
	}

	threshold := a.cfg.DisqualificationRateThreshold
	if threshold > 0 && snap.Total >= minRecordsForRate && snap.DisqualificationRate > threshold {
		alerts = append(alerts, Alert{
			Type:     AlertDisqualificationRate,
			Severity: "warning",
			Message: fmt.Sprintf(
				"Disqualification rate %.1f%% exceeds threshold %.1f%% (%d of %d records)",
				snap.DisqualificationRate*100, threshold*100, snap.Disqualified, snap.Total,
			),
			Details: map[string]any{
				"disqualification_rate": snap.DisqualificationRate,
				"threshold":             threshold,
				"disqualified":          snap.Disqualified,
				"total":                 snap.Total,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := a.retry.deliver(ctx, alert.Type, func(ctx context.Context) error {
			return a.sendWebhook(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return &webhookStatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func opportunityOf(r *model.ScoringResult) Opportunity {
	return Opportunity{
		ID:             r.ID,
		Title:          r.Title,
		IssuingEntity:  r.IssuingEntity,
		Country:        r.Country,
		RelevanceScore: r.RelevanceScore,
		WinProbability: r.WinProbability,
		Deadline:       r.Deadline,
		DaysLeft:       r.DaysLeft,
		SourceURL:      r.SourceURL,
	}
}

func daysOf(o Opportunity) int {
	if o.DaysLeft == nil {
		return math.MaxInt
	}
	return *o.DaysLeft
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
