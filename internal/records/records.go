// Package records reads opportunity records from JSON, CSV and XLSX sources
// and normalizes them for scoring.
package records

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// Format identifies an input encoding.
type Format string

// Supported input formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Skipped describes an input row that was not turned into a record.
type Skipped struct {
	Row    int    `json:"row"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

// Batch is the outcome of reading one input.
type Batch struct {
	Records []model.OpportunityRecord
	Skipped []Skipped
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".csv", ".tsv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("records: unsupported file extension %q", ext)
	}
}

// ReadFile reads every record in path.
func ReadFile(ctx context.Context, path string) (*Batch, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		b, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, err
		}
		logBatch(path, b)
		return b, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "records: open %s", filepath.Base(path))
	}
	defer f.Close() //nolint:errcheck

	b, err := Read(ctx, f, format)
	if err != nil {
		return nil, eris.Wrapf(err, "records: read %s", filepath.Base(path))
	}
	logBatch(path, b)
	return b, nil
}

// Read reads every record in r.
func Read(ctx context.Context, r io.Reader, format Format) (*Batch, error) {
	switch format {
	case FormatJSON:
		return DecodeRecords(ctx, r)
	case FormatCSV:
		return ReadCSV(ctx, r)
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "records: read xlsx body")
		}
		return ReadXLSXBytes(data, XLSXOptions{})
	default:
		return nil, eris.Errorf("records: unsupported format %q", format)
	}
}

// add normalizes rec and appends it, or records it as skipped when it lacks
// the minimum fields.
func (b *Batch) add(row int, rec model.OpportunityRecord) {
	rec = normalizeRecord(rec)
	if missing := rec.MissingFields(); len(missing) > 0 {
		b.skip(row, rec.Title, "missing required fields: "+strings.Join(missing, ", "))
		return
	}
	b.Records = append(b.Records, rec)
}

func (b *Batch) skip(row int, title, reason string) {
	zap.L().Warn("records: skipping row",
		zap.Int("row", row),
		zap.String("title", title),
		zap.String("reason", reason),
	)
	b.Skipped = append(b.Skipped, Skipped{Row: row, Title: title, Reason: reason})
}

func normalizeRecord(rec model.OpportunityRecord) model.OpportunityRecord {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.IssuingEntity = strings.TrimSpace(rec.IssuingEntity)
	rec.Country = strings.ToUpper(strings.TrimSpace(rec.Country))
	rec.Deadline = strings.TrimSpace(rec.Deadline)
	rec.SourcePortal = strings.TrimSpace(rec.SourcePortal)
	rec.SourceURL = strings.TrimSpace(rec.SourceURL)
	rec.Description = cleanText(rec.Description)
	rec.FullText = cleanText(rec.FullText)
	if rec.Budget != nil {
		b := *rec.Budget
		b.Currency = strings.ToUpper(strings.TrimSpace(b.Currency))
		rec.Budget = &b
	}
	return rec
}

func logBatch(path string, b *Batch) {
	zap.L().Info("records: loaded",
		zap.String("path", path),
		zap.Int("records", len(b.Records)),
		zap.Int("skipped", len(b.Skipped)),
	)
}
