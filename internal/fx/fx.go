// Package fx converts published budgets into EUR using a fixed rate table.
package fx

import (
	"math"
	"sort"
	"strings"
)

// defaultRates are approximate conversion factors to EUR.
var defaultRates = map[string]float64{
	"EUR": 1.0,
	"USD": 0.92,
	"GBP": 1.17,
	"CHF": 1.05,
	"SEK": 0.088,
	"DKK": 0.134,
	"NOK": 0.087,
	"CAD": 0.68,
	"AUD": 0.60,
	"NZD": 0.55,
	"PLN": 0.23,
	"CZK": 0.040,
}

// Table is a read-only currency to EUR lookup. The zero value is not
// usable; build one with NewTable.
type Table struct {
	rates map[string]float64
}

// NewTable returns the built-in table with overrides applied. Override keys
// are case-insensitive; non-positive or non-finite rates are ignored.
func NewTable(overrides map[string]float64) *Table {
	rates := make(map[string]float64, len(defaultRates)+len(overrides))
	for k, v := range defaultRates {
		rates[k] = v
	}
	for k, v := range overrides {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		rates[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return &Table{rates: rates}
}

// Default returns the built-in table.
func Default() *Table {
	return NewTable(nil)
}

// Rate returns the EUR factor for currency and whether the currency is known.
// An empty currency is EUR. Unknown currencies report a factor of 1.
func (t *Table) Rate(currency string) (float64, bool) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		return 1.0, true
	}
	r, ok := t.rates[code]
	if !ok {
		return 1.0, false
	}
	return r, true
}

// ToEUR converts amount in currency to EUR. The second return value is false
// when the amount is unusable (negative, NaN or infinite).
func (t *Table) ToEUR(amount float64, currency string) (float64, bool) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false
	}
	r, _ := t.Rate(currency)
	return amount * r, true
}

// Currencies lists the known currency codes in sorted order.
func (t *Table) Currencies() []string {
	codes := make([]string, 0, len(t.rates))
	for k := range t.rates {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}
