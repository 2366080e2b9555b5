package records

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// currencyHints are checked in order; the first hit wins. Dollar variants
// with a country prefix come before the bare "$".
var currencyHints = []struct {
	code  string
	hints []string
}{
	{"GBP", []string{"£", "gbp", "pound"}},
	{"CHF", []string{"chf", "sfr"}},
	{"SEK", []string{"sek"}},
	{"DKK", []string{"dkk"}},
	{"NOK", []string{"nok"}},
	{"PLN", []string{"pln", "zł"}},
	{"CZK", []string{"czk", "kč"}},
	{"CAD", []string{"cad", "c$"}},
	{"AUD", []string{"aud", "a$"}},
	{"NZD", []string{"nzd", "nz$"}},
	{"USD", []string{"usd", "us$", "$", "dollar"}},
	{"EUR", []string{"€", "eur", "euro"}},
}

// amountRe matches grouped numbers (1,234,567.89 / 1.234.567,89 /
// 1 234 567) and plain ones, with an optional magnitude suffix.
var amountRe = regexp.MustCompile(`(?i)(\d{1,3}(?:[ \x{00A0}'.,]\d{3})+(?:[.,]\d+)?|\d+(?:[.,]\d+)?)\s*(millionen|million|mio|mrd|mn|m|billion|bn|tsd|k)?\b`)

var magnitudes = map[string]float64{
	"k": 1e3, "tsd": 1e3,
	"m": 1e6, "mn": 1e6, "mio": 1e6, "million": 1e6, "millionen": 1e6,
	"bn": 1e9, "billion": 1e9, "mrd": 1e9,
}

// ParseBudget extracts an amount and currency from free text such as
// "EUR 250.000", "£1.2m" or "100,000 - 150,000 USD". Ranges resolve to their
// upper bound. defaultCurrency applies when the text names none; an empty
// default means EUR. It reports false when the text holds no positive amount.
func ParseBudget(text, defaultCurrency string) (*model.Budget, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	var best float64
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		v, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		if mult, ok := magnitudes[strings.ToLower(m[2])]; ok {
			v *= mult
		}
		if v > best {
			best = v
		}
	}
	if best <= 0 {
		return nil, false
	}
	return &model.Budget{Amount: best, Currency: detectCurrency(text, defaultCurrency)}, true
}

func detectCurrency(text, fallback string) string {
	lower := strings.ToLower(text)
	for _, c := range currencyHints {
		for _, h := range c.hints {
			if strings.Contains(lower, h) {
				return c.code
			}
		}
	}
	if fallback = strings.ToUpper(strings.TrimSpace(fallback)); fallback != "" {
		return fallback
	}
	return "EUR"
}

// parseNumber reads a number whose thousands and decimal separators may be
// either '.' or ','. With both present the last one is the decimal point; a
// single separator followed by exactly three digits is a thousands mark.
func parseNumber(tok string) (float64, bool) {
	tok = strings.NewReplacer(" ", "", "\u00a0", "", "'", "").Replace(tok)

	dot := strings.LastIndex(tok, ".")
	comma := strings.LastIndex(tok, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if dot > comma {
			tok = strings.ReplaceAll(tok, ",", "")
		} else {
			tok = strings.ReplaceAll(tok, ".", "")
			tok = strings.Replace(tok, ",", ".", 1)
		}
	case dot >= 0:
		tok = resolveSeparator(tok, ".")
	case comma >= 0:
		tok = resolveSeparator(tok, ",")
	}

	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func resolveSeparator(tok, sep string) string {
	if strings.Count(tok, sep) > 1 || len(tok)-strings.LastIndex(tok, sep)-1 == 3 {
		return strings.ReplaceAll(tok, sep, "")
	}
	return strings.Replace(tok, sep, ".", 1)
}
