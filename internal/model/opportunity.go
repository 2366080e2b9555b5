// Package model defines the opportunity records consumed by the scoring engine
// and the results it produces.
package model

import (
	"strings"

	"github.com/google/uuid"
)

// recordNamespace seeds name-based record IDs.
var recordNamespace = uuid.MustParse("6f1d3c52-8a4e-4b8f-9d0e-2c7a5b1e9f34")

// Budget is an optional contract value as published by the issuing entity.
type Budget struct {
	Amount   float64 `json:"amount" yaml:"amount"`
	Currency string  `json:"currency,omitempty" yaml:"currency,omitempty"`
	Period   string  `json:"period,omitempty" yaml:"period,omitempty"` // e.g. "total", "annual"
}

// OpportunityRecord is one normalized procurement opportunity.
// Title, IssuingEntity, Description and Country are required; every other
// field is optional and treated as absent when empty.
type OpportunityRecord struct {
	Title         string   `json:"title" yaml:"title"`
	IssuingEntity string   `json:"issuing_entity" yaml:"issuing_entity"`
	Description   string   `json:"description" yaml:"description"`
	Country       string   `json:"country" yaml:"country"`
	Budget        *Budget  `json:"budget,omitempty" yaml:"budget,omitempty"`
	Deadline      string   `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	FullText      string   `json:"full_text,omitempty" yaml:"full_text,omitempty"`
	SourcePortal  string   `json:"source_portal,omitempty" yaml:"source_portal,omitempty"`
	SourceURL     string   `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	CPVCodes      []string `json:"cpv_codes,omitempty" yaml:"cpv_codes,omitempty"`
}

// ID returns a portal-independent identifier derived from the normalized
// title and issuing entity, so the same tender listed on two portals maps
// to one ID.
func (r OpportunityRecord) ID() string {
	raw := strings.ToLower(strings.TrimSpace(r.Title)) + "|" + strings.ToLower(strings.TrimSpace(r.IssuingEntity))
	id := uuid.NewSHA1(recordNamespace, []byte(raw))
	return "rfp-" + strings.ReplaceAll(id.String(), "-", "")[:12]
}

// MissingFields lists the required fields that are blank.
func (r OpportunityRecord) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(r.IssuingEntity) == "" {
		missing = append(missing, "issuing_entity")
	}
	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(r.Country) == "" {
		missing = append(missing, "country")
	}
	return missing
}

// Valid reports whether all required fields are present.
func (r OpportunityRecord) Valid() bool {
	return len(r.MissingFields()) == 0
}
