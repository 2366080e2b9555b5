package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-scorer/internal/model"
	"github.com/sells-group/rfp-scorer/internal/monitoring"
	"github.com/sells-group/rfp-scorer/internal/records"
	"github.com/sells-group/rfp-scorer/internal/scorer"
)

var scoreCmd = newScoreCmd()

func newScoreCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "score",
		Short: "Qualify and score a file of opportunities",
		Long: `Score procurement opportunities read from a JSON, CSV or XLSX file.

Every record is run through the qualification filter; qualified records get a
0-100 relevance score and a win-probability label. Rows missing a title,
issuing entity, description or country are skipped and reported.

Examples:
  # Score a CSV export with the default profile
  score --input tenders.csv

  # Use a custom profile and keep only strong matches
  score --input tenders.json --profile climate.yaml --min-score 60

  # Export qualified results to CSV as of a fixed date
  score --input tenders.xlsx --qualified-only --format csv --output scored.csv --at 2026-03-01

  # Print and deliver digest alerts for the batch
  score --input tenders.json --alerts`,
		RunE: runScore,
	}

	f := c.Flags()
	f.String("input", "", "input file (.json, .csv, .tsv or .xlsx)")
	f.String("profile", "", "scoring profile path (overrides config, default: embedded profile)")
	f.String("format", "table", "output format: table, csv or json")
	f.String("output", "", "output file path (default: stdout)")
	f.String("at", "", "evaluation date YYYY-MM-DD (default: today, UTC)")
	f.Float64("min-score", 0, "only output results scoring at least this much")
	f.Bool("qualified-only", false, "omit disqualified records from the output")
	f.Int("concurrency", 0, "number of records scored in parallel (default from config)")
	f.Bool("alerts", false, "evaluate digest alerts for the batch and send them to the configured webhook")
	_ = c.MarkFlagRequired("input")
	return c
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

// scoreOptions carries the parsed score flags.
type scoreOptions struct {
	input         string
	profilePath   string
	format        string
	output        string
	at            time.Time
	minScore      float64
	qualifiedOnly bool
	concurrency   int
	alerts        bool
}

func parseScoreOptions(cmd *cobra.Command) (*scoreOptions, error) {
	f := cmd.Flags()
	o := &scoreOptions{}
	o.input, _ = f.GetString("input")
	o.profilePath, _ = f.GetString("profile")
	o.format, _ = f.GetString("format")
	o.output, _ = f.GetString("output")
	o.minScore, _ = f.GetFloat64("min-score")
	o.qualifiedOnly, _ = f.GetBool("qualified-only")
	o.concurrency, _ = f.GetInt("concurrency")
	o.alerts, _ = f.GetBool("alerts")

	switch o.format {
	case "table", "csv", "json":
	default:
		return nil, eris.Errorf("score: --format must be table, csv or json (got %q)", o.format)
	}
	if o.minScore < 0 || o.minScore > 100 {
		return nil, eris.Errorf("score: --min-score must be between 0 and 100 (got %g)", o.minScore)
	}

	at, _ := f.GetString("at")
	if at == "" {
		o.at = time.Now().UTC()
	} else {
		t, err := time.Parse(time.DateOnly, at)
		if err != nil {
			return nil, eris.Wrapf(err, "score: --at must be YYYY-MM-DD (got %q)", at)
		}
		o.at = t
	}

	if o.concurrency <= 0 && cfg != nil {
		o.concurrency = cfg.Batch.Concurrency
	}
	return o, nil
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("score"); err != nil {
		return err
	}

	opts, err := parseScoreOptions(cmd)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "score"))

	engine, err := loadEngine(resolveProfilePath(opts.profilePath))
	if err != nil {
		return eris.Wrap(err, "score: load profile")
	}

	batch, err := records.ReadFile(ctx, opts.input)
	if err != nil {
		return err
	}

	log.Info("starting scoring",
		zap.String("profile_version", engine.Version()),
		zap.Int("records", len(batch.Records)),
		zap.Int("skipped", len(batch.Skipped)),
		zap.Int("concurrency", opts.concurrency),
		zap.Time("at", opts.at),
	)

	start := time.Now()
	results, err := scorer.ScoreAll(ctx, engine, batch.Records, opts.at, opts.concurrency)
	if err != nil {
		return eris.Wrap(err, "score: scoring")
	}
	log.Info("scoring complete",
		zap.Int("total", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)

	out := filterResults(results, opts.minScore, opts.qualifiedOnly)
	if err := outputScoreResults(out, opts.format, opts.output); err != nil {
		return err
	}

	snap := monitoring.Summarize(results)
	// Keep stdout clean for machine-readable formats.
	summaryW := io.Writer(os.Stdout)
	if opts.output == "" && opts.format != "table" {
		summaryW = os.Stderr
	}
	printScoreSummary(summaryW, snap, batch.Skipped)

	if opts.alerts {
		alerter := monitoring.NewAlerter(cfg.Monitoring)
		alerts := alerter.Evaluate(snap, results)
		printAlerts(summaryW, alerts)
		if sent := alerter.SendAlerts(ctx, alerts); sent > 0 {
			log.Info("digest alerts sent", zap.Int("sent", sent))
		}
	}

	return nil
}

// filterResults applies --min-score and --qualified-only and orders the
// remainder by descending score. Disqualified results sort last.
func filterResults(results []model.ScoringResult, minScore float64, qualifiedOnly bool) []model.ScoringResult {
	out := make([]model.ScoringResult, 0, len(results))
	for _, r := range results {
		if qualifiedOnly && !r.Qualified {
			continue
		}
		if minScore > 0 && r.RelevanceScore < minScore {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Qualified != out[j].Qualified {
			return out[i].Qualified
		}
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out
}

func printScoreSummary(w io.Writer, snap *monitoring.Snapshot, skipped []records.Skipped) {
	if snap.Total == 0 {
		fmt.Fprintln(w, "No results.")
		printSkipped(w, skipped)
		return
	}
	fmt.Fprintf(w, "\n--- Summary ---\n")
	fmt.Fprintf(w, "Total scored:  %d\n", snap.Total)
	fmt.Fprintf(w, "Qualified:     %d (%.1f%%)\n", snap.Qualified, float64(snap.Qualified)/float64(snap.Total)*100)
	for _, state := range []model.WinProbability{model.WinHigh, model.WinMedium, model.WinLow, model.WinEdgeCase, model.WinNotApplicable} {
		if n := snap.ByState[state]; n > 0 {
			fmt.Fprintf(w, "  %-11s %d\n", string(state)+":", n)
		}
	}
	if snap.Qualified > 0 {
		fmt.Fprintf(w, "Score range:   %.1f - %.1f\n", snap.MinScore, snap.MaxScore)
		fmt.Fprintf(w, "Average score: %.1f\n", snap.AvgScore)
	}
	if snap.DeadlineAlerts > 0 {
		fmt.Fprintf(w, "Closing soon:  %d\n", snap.DeadlineAlerts)
	}
	printSkipped(w, skipped)
}

func printSkipped(w io.Writer, skipped []records.Skipped) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "Skipped rows:  %d\n", len(skipped))
	for _, s := range skipped {
		fmt.Fprintf(w, "  row %d %q: %s\n", s.Row, s.Title, s.Reason)
	}
}

func printAlerts(w io.Writer, alerts []monitoring.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "\nNo alerts.")
		return
	}
	fmt.Fprintf(w, "\n--- Alerts ---\n")
	for _, a := range alerts {
		fmt.Fprintf(w, "[%s] %s\n", a.Severity, a.Message)
		for _, o := range a.Opportunities {
			fmt.Fprintf(w, "  %5.1f  %s (%s)\n", o.RelevanceScore, o.Title, o.IssuingEntity)
		}
	}
}

func outputScoreResults(results []model.ScoringResult, format, outputPath string) error {
	var w io.Writer
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer f.Close() //nolint:errcheck
		w = f
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return writeScoreCSV(w, results)
	case "json":
		return writeScoreJSON(w, results)
	case "table":
		writeScoreTable(w, results)
		return nil
	default:
		return eris.Errorf("score: unsupported format %q", format)
	}
}

var csvHeader = []string{
	"id", "rfp_title", "issuing_entity", "country", "market", "qualified", "disqualification_reason",
	"relevance_score", "win_probability", "feature_alignment", "geographic_fit", "budget_fit",
	"timeline", "competitive", "strategic_value", "advisory_bonus", "rfp_type", "score_confidence",
	"deadline", "deadline_status", "days_left", "budget_eur", "edge_case_flags", "source_url",
}

func writeScoreCSV(w io.Writer, results []model.ScoringResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}

	for _, r := range results {
		row := []string{
			r.ID,
			r.Title,
			r.IssuingEntity,
			r.Country,
			r.Market,
			strconv.FormatBool(r.Qualified),
			r.DisqualificationReason,
			formatScore(r.RelevanceScore),
			r.WinProbability,
			formatScore(r.FeatureAlignmentScore),
			formatScore(r.GeographicFitScore),
			formatScore(r.BudgetFitScore),
			formatScore(r.TimelineScore),
			formatScore(r.CompetitiveScore),
			formatScore(r.StrategicValueScore),
			formatScore(r.AdvisoryBonus),
			string(r.RFPType),
			string(r.Confidence),
			r.Deadline,
			string(r.DeadlineStatus),
			formatDays(r.DaysLeft),
			formatEUR(r.BudgetEUR),
			strings.Join(r.EdgeCaseFlags, "; "),
			r.SourceURL,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "score: flush CSV")
}

func writeScoreJSON(w io.Writer, results []model.ScoringResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return eris.Wrap(err, "score: write JSON")
	}
	return nil
}

func writeScoreTable(w io.Writer, results []model.ScoringResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Score", "Win", "Title", "Entity", "Country", "Budget EUR", "Deadline", "Notes"})

	for _, r := range results {
		notes := r.DisqualificationReason
		if r.Qualified && len(r.EdgeCaseFlags) > 0 {
			notes = strings.Join(r.EdgeCaseFlags, "; ")
		}
		t.AppendRow(table.Row{
			formatScore(r.RelevanceScore),
			r.WinProbability,
			truncate(r.Title, 50),
			truncate(r.IssuingEntity, 30),
			r.Country,
			formatEUR(r.BudgetEUR),
			deadlineCell(r),
			truncate(notes, 60),
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d results", len(results))})
	t.Render()
}

func deadlineCell(r model.ScoringResult) string {
	if r.Deadline == "" {
		return "-"
	}
	if r.DaysLeft == nil {
		return r.Deadline
	}
	return fmt.Sprintf("%s (%dd)", r.Deadline, *r.DaysLeft)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatDays(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}

func formatEUR(v *float64) string {
	if v == nil {
		return ""
	}
	return formatMoney(int64(*v + 0.5))
}

func formatMoney(amount int64) string {
	if amount == 0 {
		return "0"
	}
	s := strconv.FormatInt(amount, 10)
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
