package scorer

import (
	"strings"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// countryMarkets groups ISO country codes into sales regions.
var countryMarkets = map[string]string{
	"US": "North America", "CA": "North America",
	"GB": "UK + Ireland", "IE": "UK + Ireland",
	"DE": "DACH", "AT": "DACH", "CH": "DACH",
	"BE": "Benelux", "NL": "Benelux", "LU": "Benelux",
	"SE": "Nordics", "DK": "Nordics", "NO": "Nordics", "FI": "Nordics",
	"FR": "Adjacent", "ES": "Adjacent", "IT": "Adjacent", "PT": "Adjacent",
	"AU": "Adjacent", "NZ": "Adjacent",
	"INT": "International",
}

// Market returns the sales region for an ISO country code. Unlisted codes
// fall into "Adjacent"; an empty code is "Unknown".
func Market(country string) string {
	code := strings.ToUpper(strings.TrimSpace(country))
	if code == "" {
		return "Unknown"
	}
	if m, ok := countryMarkets[code]; ok {
		return m
	}
	return "Adjacent"
}

// procedureRule detects one award procedure. Rules are checked in order and
// the first match wins.
type procedureRule struct {
	kind    string
	rounds  string
	detail  string
	phrases []string
}

var procedureRules = []procedureRule{
	{
		kind:    "Negotiated Procedure",
		rounds:  "Multiple rounds likely",
		detail:  "Negotiation phase expected after initial submission",
		phrases: []string{"negotiated procedure", "verhandlungsverfahren", "procédure négociée", "negotiated"},
	},
	{
		kind:    "Competitive Dialogue",
		rounds:  "Multiple rounds",
		detail:  "Structured dialogue rounds before final tender",
		phrases: []string{"competitive dialogue", "wettbewerblicher dialog", "dialogue compétitif"},
	},
	{
		kind:    "Restricted Procedure",
		rounds:  "Two stages",
		detail:  "Stage 1: Pre-qualification; Stage 2: Invited tender",
		phrases: []string{"restricted procedure", "nichtoffenes verfahren", "procédure restreinte", "restricted"},
	},
	{
		kind:    "Open Procedure",
		rounds:  "Single submission",
		phrases: []string{"open procedure", "offenes verfahren", "procédure ouverte"},
	},
	{
		kind:    "Framework Agreement",
		rounds:  "Multiple call-offs",
		detail:  "Framework with potential mini-competitions",
		phrases: []string{"framework agreement", "rahmenvereinbarung", "rahmenvertrag", "accord-cadre"},
	},
}

var (
	multiStagePhrases   = []string{"two-stage", "zweistufig", "two phase", "zwei phasen", "multi-stage", "mehrstufig"}
	prequalPhrases      = []string{"shortlist", "pre-qualification", "präqualifikation", "prequalification", "eignungsprüfung"}
	presentationPhrases = []string{"presentation", "präsentation", "demo", "demonstration", "pitch"}
	awardPhrases        = []string{"best price", "preis-leistung", "zuschlagskriterien", "award criteria"}
)

// DetectProcurementProcess classifies the award procedure from the title and
// description.
func DetectProcurementProcess(title, description string) model.ProcurementProcess {
	text := normalize(title + " " + description)
	proc := model.ProcurementProcess{Type: "Standard", Rounds: "Single submission", Details: []string{}}

	for _, rule := range procedureRules {
		if containsAny(text, rule.phrases) {
			proc.Type = rule.kind
			proc.Rounds = rule.rounds
			if rule.detail != "" {
				proc.Details = append(proc.Details, rule.detail)
			}
			break
		}
	}

	if containsAny(text, multiStagePhrases) {
		proc.Rounds = "Multi-stage"
		proc.Details = append(proc.Details, "Multiple evaluation stages")
	}
	if containsAny(text, prequalPhrases) && !strings.Contains(strings.Join(proc.Details, " "), "Pre-qualification") {
		proc.Details = append(proc.Details, "Pre-qualification or shortlisting step")
	}
	if containsAny(text, presentationPhrases) {
		proc.Details = append(proc.Details, "Presentation or demo may be required")
	}
	if containsAny(text, awardPhrases) {
		proc.Details = append(proc.Details, "Evaluated on price-quality criteria")
	}
	return proc
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
