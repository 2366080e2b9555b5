package scorer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// normalize lower-cases s and puts it in NFC so composed and decomposed
// umlauts match. A Caser is not safe for concurrent use, so one is built
// per call.
func normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// buildCorpus joins the record's text fields into one normalized string.
func buildCorpus(rec model.OpportunityRecord) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{rec.Title, rec.IssuingEntity, rec.Description, rec.FullText} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return normalize(strings.Join(parts, " "))
}

// phrase is a configured vocabulary entry with its matchable form.
type phrase struct {
	raw  string
	norm string
}

// phraseList is an ordered, deduplicated vocabulary.
type phraseList []phrase

// compilePhrases normalizes phrases, dropping blanks and duplicates while
// keeping the first spelling for reporting.
func compilePhrases(raw []string) phraseList {
	seen := make(map[string]bool, len(raw))
	out := make(phraseList, 0, len(raw))
	for _, r := range raw {
		n := normalize(strings.TrimSpace(r))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, phrase{raw: strings.TrimSpace(r), norm: n})
	}
	return out
}

// match returns the phrases found in corpus, in vocabulary order.
func (l phraseList) match(corpus string) []string {
	var found []string
	for _, p := range l {
		if strings.Contains(corpus, p.norm) {
			found = append(found, p.raw)
		}
	}
	return found
}

// hasAny reports whether at least one phrase occurs in corpus.
func (l phraseList) hasAny(corpus string) bool {
	for _, p := range l {
		if strings.Contains(corpus, p.norm) {
			return true
		}
	}
	return false
}
