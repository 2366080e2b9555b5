package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/rfp-scorer/internal/model"
)

func TestMarket(t *testing.T) {
	tests := []struct {
		country string
		want    string
	}{
		{"SE", "Nordics"},
		{"de", "DACH"},
		{" nl ", "Benelux"},
		{"GB", "UK + Ireland"},
		{"US", "North America"},
		{"INT", "International"},
		{"JP", "Adjacent"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.Equal(t, tt.want, Market(tt.country))
		})
	}
}

func TestDetectProcurementProcess(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        model.ProcurementProcess
	}{
		{
			name:  "no procedure named",
			title: "Climate software",
			want:  model.ProcurementProcess{Type: "Standard", Rounds: "Single submission", Details: []string{}},
		},
		{
			name:  "open procedure",
			title: "Open procedure for climate platform",
			want:  model.ProcurementProcess{Type: "Open Procedure", Rounds: "Single submission", Details: []string{}},
		},
		{
			name:        "negotiated with presentation",
			title:       "Negotiated procedure",
			description: "Bidders give a presentation of the tool.",
			want: model.ProcurementProcess{
				Type:   "Negotiated Procedure",
				Rounds: "Multiple rounds likely",
				Details: []string{
					"Negotiation phase expected after initial submission",
					"Presentation or demo may be required",
				},
			},
		},
		{
			name:        "restricted suppresses duplicate prequalification",
			title:       "Restricted procedure",
			description: "Pre-qualification of candidates.",
			want: model.ProcurementProcess{
				Type:    "Restricted Procedure",
				Rounds:  "Two stages",
				Details: []string{"Stage 1: Pre-qualification; Stage 2: Invited tender"},
			},
		},
		{
			name:        "german framework with stages and award criteria",
			title:       "Rahmenvertrag Klimaschutz",
			description: "Zweistufig, Zuschlagskriterien siehe Anlage.",
			want: model.ProcurementProcess{
				Type:   "Framework Agreement",
				Rounds: "Multi-stage",
				Details: []string{
					"Framework with potential mini-competitions",
					"Multiple evaluation stages",
					"Evaluated on price-quality criteria",
				},
			},
		},
		{
			name:        "shortlist without named procedure",
			title:       "Climate dashboard",
			description: "A shortlist of vendors will be invited.",
			want: model.ProcurementProcess{
				Type:    "Standard",
				Rounds:  "Single submission",
				Details: []string{"Pre-qualification or shortlisting step"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProcurementProcess(tt.title, tt.description))
		})
	}
}
