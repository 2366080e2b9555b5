package scorer

import (
	"fmt"
	"strings"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// qualify runs the accept/reject gate. Checks run in a fixed order and stop
// at the first rejection; a rejection carries no edge flags.
func (r *rules) qualify(rec model.OpportunityRecord, corpus string) (bool, string, []string) {
	var flags []string

	disqual := r.disqualifiers.match(corpus)
	if len(disqual) >= 2 {
		return false, "Disqualification signals: " + strings.Join(disqual, ", "), nil
	}

	clientQual := r.clientQualifying.match(corpus)
	clientEdge := r.clientEdge.match(corpus)
	clientDisqual := r.clientDisqualifying.match(corpus)
	if len(clientDisqual) > 0 && len(clientQual) == 0 {
		return false, "Client type disqualified: " + strings.Join(clientDisqual, ", "), nil
	}
	if len(clientQual) == 0 && len(clientEdge) == 0 {
		return false, "No qualifying client type detected", nil
	}
	if len(clientEdge) > 0 && len(clientQual) == 0 {
		flags = append(flags, "Edge case client type: "+strings.Join(clientEdge, ", "))
	}

	if !r.subject.hasAny(corpus) {
		return false, "No qualifying subject matter detected", nil
	}

	if tier := r.marketTier(rec.Country); tier == tierOther {
		flags = append(flags, fmt.Sprintf("Non-target market: %s", rec.Country))
	}

	// A lone disqualification signal only warns.
	if len(disqual) == 1 {
		flags = append(flags, "Minor disqualification signal: "+disqual[0])
	}

	return true, "", flags
}

type marketTier int

const (
	tierOther marketTier = iota
	tierAdjacent
	tierPrimary
)

func (r *rules) marketTier(country string) marketTier {
	code := strings.ToUpper(strings.TrimSpace(country))
	switch {
	case r.primaryMarkets[code]:
		return tierPrimary
	case r.adjacentMarkets[code]:
		return tierAdjacent
	}
	return tierOther
}
