package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-scorer/internal/config"
	"github.com/sells-group/rfp-scorer/internal/model"
	"github.com/sells-group/rfp-scorer/internal/monitoring"
	"github.com/sells-group/rfp-scorer/internal/records"
)

func useConfig(t *testing.T) {
	t.Helper()
	orig := cfg
	cfg = &config.Config{}
	cfg.Batch.Concurrency = 4
	t.Cleanup(func() { cfg = orig })
}

func scored(title string, qualified bool, score float64) model.ScoringResult {
	state := model.WinMedium
	if !qualified {
		state = model.WinNotApplicable
	}
	return model.ScoringResult{
		ID:             "rfp-" + strings.ToLower(title),
		Title:          title,
		IssuingEntity:  "City of Lund",
		Country:        "SE",
		Qualified:      qualified,
		RelevanceScore: score,
		WinState:       state,
		WinProbability: string(state),
	}
}

func TestFilterResults(t *testing.T) {
	results := []model.ScoringResult{
		scored("low", true, 32.5),
		scored("rejected", false, 0),
		scored("high", true, 81.0),
		scored("mid", true, 55.0),
	}

	tests := []struct {
		name          string
		minScore      float64
		qualifiedOnly bool
		want          []string
	}{
		{"all sorted", 0, false, []string{"high", "mid", "low", "rejected"}},
		{"qualified only", 0, true, []string{"high", "mid", "low"}},
		{"min score", 50, false, []string{"high", "mid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range filterResults(results, tt.minScore, tt.qualifiedOnly) {
				got = append(got, r.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteScoreCSV(t *testing.T) {
	days := 12
	eur := 300000.0
	r := scored("Plan", true, 64.26)
	r.DaysLeft = &days
	r.BudgetEUR = &eur
	r.EdgeCaseFlags = []string{"a", "b"}

	var buf bytes.Buffer
	require.NoError(t, writeScoreCSV(&buf, []model.ScoringResult{r}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	require.Len(t, rows[1], len(csvHeader))

	row := make(map[string]string)
	for i, h := range csvHeader {
		row[h] = rows[1][i]
	}
	assert.Equal(t, "Plan", row["rfp_title"])
	assert.Equal(t, "true", row["qualified"])
	assert.Equal(t, "64.3", row["relevance_score"])
	assert.Equal(t, "12", row["days_left"])
	assert.Equal(t, "300,000", row["budget_eur"])
	assert.Equal(t, "a; b", row["edge_case_flags"])
}

func TestWriteScoreTable(t *testing.T) {
	var buf bytes.Buffer
	writeScoreTable(&buf, []model.ScoringResult{scored("Climate dashboard", true, 71.4), scored("Catering", false, 0)})

	out := buf.String()
	assert.Contains(t, out, "Climate dashboard")
	assert.Contains(t, out, "71.4")
	assert.Contains(t, out, "2 results")
	assert.NotContains(t, out, "2 RESULTS")
	assert.Contains(t, out, "TITLE")
}

func TestWriteScoreJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeScoreJSON(&buf, []model.ScoringResult{scored("a", true, 50), scored("b", false, 0)}))

	var got []model.ScoringResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Title)
}

func TestPrintScoreSummary(t *testing.T) {
	results := []model.ScoringResult{scored("a", true, 40), scored("b", true, 60), scored("c", false, 0)}
	var buf bytes.Buffer
	printScoreSummary(&buf, monitoring.Summarize(results), []records.Skipped{{Row: 4, Title: "x", Reason: "missing required fields: country"}})

	out := buf.String()
	assert.Contains(t, out, "Total scored:  3")
	assert.Contains(t, out, "Qualified:     2 (66.7%)")
	assert.Contains(t, out, "Score range:   40.0 - 60.0")
	assert.Contains(t, out, "Average score: 50.0")
	assert.Contains(t, out, "Skipped rows:  1")
	assert.Contains(t, out, `row 4 "x": missing required fields: country`)
}

func TestPrintScoreSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	printScoreSummary(&buf, monitoring.Summarize(nil), nil)
	assert.Equal(t, "No results.\n", buf.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "0", formatMoney(0))
	assert.Equal(t, "1,234,567", formatMoney(1234567))
	assert.Equal(t, "999", formatMoney(999))
	assert.Equal(t, "", formatEUR(nil))
	assert.Equal(t, "", formatDays(nil))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Wärmepl...", truncate("Wärmeplanung Stadt", 10))
}

func TestParseScoreOptions(t *testing.T) {
	useConfig(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"defaults", []string{"--input", "x.json"}, ""},
		{"bad format", []string{"--input", "x.json", "--format", "xml"}, "--format must be table, csv or json"},
		{"bad at", []string{"--input", "x.json", "--at", "01.03.2026"}, "--at must be YYYY-MM-DD"},
		{"bad min score", []string{"--input", "x.json", "--min-score", "101"}, "--min-score must be between 0 and 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newScoreCmd()
			require.NoError(t, c.ParseFlags(tt.args))
			o, err := parseScoreOptions(c)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "table", o.format)
			assert.Equal(t, 4, o.concurrency)
			assert.False(t, o.at.IsZero())
		})
	}
}

func TestRunScore_JSONFile(t *testing.T) {
	useConfig(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "tenders.json")
	doc := "[" + cateringRecord + "," + climateRecord + `,{"title": "No country", "issuing_entity": "City", "description": "Climate"}]`
	require.NoError(t, os.WriteFile(input, []byte(doc), 0o644))
	output := filepath.Join(dir, "scored.json")

	c := newScoreCmd()
	c.SetArgs([]string{"--input", input, "--format", "json", "--output", output, "--at", "2026-03-01"})
	require.NoError(t, c.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var got []model.ScoringResult
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.True(t, got[0].Qualified)
	assert.Equal(t, "Climate Action Plan and GHG Inventory Platform", got[0].Title)
	assert.False(t, got[1].Qualified)
}

func TestRunScore_QualifiedOnlyCSV(t *testing.T) {
	useConfig(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "tenders.json")
	require.NoError(t, os.WriteFile(input, []byte("["+climateRecord+","+cateringRecord+"]"), 0o644))
	output := filepath.Join(dir, "scored.csv")

	c := newScoreCmd()
	c.SetArgs([]string{"--input", input, "--format", "csv", "--output", output, "--qualified-only", "--at", "2026-03-01"})
	require.NoError(t, c.Execute())

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunScore_MissingInput(t *testing.T) {
	useConfig(t)

	c := newScoreCmd()
	c.SetArgs([]string{"--input", filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, c.Execute())
}
