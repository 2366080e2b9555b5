package records

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// jsonRecord is the wire shape of one record. Budget may be an object
// ({"amount", "currency", "period"}), a bare number or free text; budget_eur
// is accepted from exported score files.
type jsonRecord struct {
	Title         string          `json:"title"`
	RFPTitle      string          `json:"rfp_title"`
	IssuingEntity string          `json:"issuing_entity"`
	Description   string          `json:"description"`
	Country       string          `json:"country"`
	Budget        json.RawMessage `json:"budget"`
	BudgetEUR     *float64        `json:"budget_eur"`
	Currency      string          `json:"currency"`
	Deadline      string          `json:"deadline"`
	FullText      string          `json:"full_text"`
	SourcePortal  string          `json:"source_portal"`
	SourceURL     string          `json:"source_url"`
	CPVCodes      []string        `json:"cpv_codes"`
}

func (j jsonRecord) record() model.OpportunityRecord {
	rec := model.OpportunityRecord{
		Title:         j.Title,
		IssuingEntity: j.IssuingEntity,
		Description:   j.Description,
		Country:       j.Country,
		Deadline:      j.Deadline,
		FullText:      j.FullText,
		SourcePortal:  j.SourcePortal,
		SourceURL:     j.SourceURL,
		CPVCodes:      j.CPVCodes,
		Budget:        decodeBudget(j.Budget, j.Currency),
	}
	if rec.Title == "" {
		rec.Title = j.RFPTitle
	}
	if rec.Budget == nil && j.BudgetEUR != nil && *j.BudgetEUR > 0 {
		rec.Budget = &model.Budget{Amount: *j.BudgetEUR, Currency: "EUR"}
	}
	return rec
}

func decodeBudget(raw json.RawMessage, currency string) *model.Budget {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	switch raw[0] {
	case '{':
		var b model.Budget
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil
		}
		if b.Currency == "" {
			b.Currency = currency
		}
		return &b
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		b, ok := ParseBudget(s, currency)
		if !ok {
			return nil
		}
		return b
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil
	}
	return &model.Budget{Amount: v, Currency: strings.ToUpper(currency)}
}

// DecodeRecords reads a JSON array of records, or a single record object.
// Array elements are streamed one at a time and numbered from 1. Elements
// lacking the minimum fields are reported in Skipped; malformed JSON is an
// error.
func DecodeRecords(ctx context.Context, r io.Reader) (*Batch, error) {
	br := bufio.NewReader(r)
	first, err := firstByte(br)
	if err != nil {
		return nil, err
	}

	b := &Batch{}
	dec := json.NewDecoder(br)
	switch first {
	case '{':
		var j jsonRecord
		if err := dec.Decode(&j); err != nil {
			return nil, eris.Wrap(err, "records: decode json object")
		}
		b.add(1, j.record())
		return b, nil
	case '[':
		if _, err := dec.Token(); err != nil {
			return nil, eris.Wrap(err, "records: read json array")
		}
	default:
		return nil, eris.Errorf("records: expected json array or object, got %q", first)
	}

	for row := 1; dec.More(); row++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "records: decode json array")
		}
		var j jsonRecord
		if err := dec.Decode(&j); err != nil {
			return nil, eris.Wrapf(err, "records: decode json element %d", row)
		}
		b.add(row, j.record())
	}
	if _, err := dec.Token(); err != nil {
		return nil, eris.Wrap(err, "records: read json array end")
	}
	return b, nil
}

// firstByte returns the first non-space byte without consuming it.
func firstByte(br *bufio.Reader) (byte, error) {
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			return 0, eris.New("records: empty json input")
		}
		if err != nil {
			return 0, eris.Wrap(err, "records: read json input")
		}
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, eris.Wrap(err, "records: read json input")
		}
		return c, nil
	}
}
