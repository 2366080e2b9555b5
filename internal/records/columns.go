package records

import (
	"strconv"
	"strings"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// Canonical column names.
const (
	colTitle        = "title"
	colEntity       = "issuing_entity"
	colDescription  = "description"
	colCountry      = "country"
	colBudget       = "budget"
	colBudgetEUR    = "budget_eur"
	colCurrency     = "currency"
	colPeriod       = "budget_period"
	colDeadline     = "deadline"
	colFullText     = "full_text"
	colSourcePortal = "source_portal"
	colSourceURL    = "source_url"
	colCPV          = "cpv_codes"
)

// columnAliases maps normalized header spellings onto canonical columns.
var columnAliases = map[string]string{
	"title": colTitle, "rfp_title": colTitle, "name": colTitle, "tender_title": colTitle,
	"issuing_entity": colEntity, "entity": colEntity, "buyer": colEntity, "authority": colEntity,
	"contracting_authority": colEntity, "organisation": colEntity, "organization": colEntity,
	"description": colDescription, "summary": colDescription,
	"country": colCountry, "country_code": colCountry,
	"budget": colBudget, "budget_amount": colBudget, "estimated_value": colBudget, "value": colBudget,
	"budget_eur": colBudgetEUR,
	"currency": colCurrency, "budget_currency": colCurrency,
	"budget_period": colPeriod, "period": colPeriod,
	"deadline": colDeadline, "closing_date": colDeadline, "submission_deadline": colDeadline,
	"full_text": colFullText, "text": colFullText,
	"source_portal": colSourcePortal, "portal": colSourcePortal,
	"source_url": colSourceURL, "url": colSourceURL, "link": colSourceURL,
	"cpv_codes": colCPV, "cpv": colCPV,
}

// columnMap locates canonical columns in a header row.
type columnMap map[string]int

func mapColumns(header []string) columnMap {
	m := make(columnMap, len(header))
	for i, h := range header {
		canon, ok := columnAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := m[canon]; !dup {
			m[canon] = i
		}
	}
	return m
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// missing lists the required columns absent from the header.
func (m columnMap) missing() []string {
	var out []string
	for _, c := range []string{colTitle, colEntity, colDescription, colCountry} {
		if _, ok := m[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func (m columnMap) get(row []string, col string) string {
	i, ok := m[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// record builds an OpportunityRecord from a data row. A budget_eur column
// takes precedence over a free-text budget column.
func (m columnMap) record(row []string) model.OpportunityRecord {
	rec := model.OpportunityRecord{
		Title:         m.get(row, colTitle),
		IssuingEntity: m.get(row, colEntity),
		Description:   m.get(row, colDescription),
		Country:       m.get(row, colCountry),
		Deadline:      m.get(row, colDeadline),
		FullText:      m.get(row, colFullText),
		SourcePortal:  m.get(row, colSourcePortal),
		SourceURL:     m.get(row, colSourceURL),
		CPVCodes:      splitList(m.get(row, colCPV)),
	}

	if v, err := strconv.ParseFloat(m.get(row, colBudgetEUR), 64); err == nil && v > 0 {
		rec.Budget = &model.Budget{Amount: v, Currency: "EUR"}
	} else if b, ok := ParseBudget(m.get(row, colBudget), m.get(row, colCurrency)); ok {
		rec.Budget = b
	}
	if rec.Budget != nil {
		rec.Budget.Period = m.get(row, colPeriod)
	}
	return rec
}

// splitList splits a cell holding several values separated by ';', '|' or ','.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
