package records

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune            // default ','
	HasHeader  bool            // if true, first row is sent to HeaderCh instead of the row channel
	HeaderCh   chan<- []string // optional: receives the header row
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads CSV rows and sends them to a channel.
// Caller must consume the returned row channel. Both channels are closed when
// processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			if first && opts.HasHeader {
				first = false
				if opts.HeaderCh != nil {
					select {
					case opts.HeaderCh <- record:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
						return
					}
				}
				continue
			}
			first = false

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV reads records from CSV with a header row. The delimiter is sniffed
// from the header line (',', ';' or tab). Row numbers in Skipped are 1-based
// data rows.
func ReadCSV(ctx context.Context, r io.Reader) (*Batch, error) {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(4096)

	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, br, CSVOptions{
		Delimiter:  sniffDelimiter(peek),
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
	})

	b := &Batch{}
	var cols columnMap
	row := 0
	for fields := range rowCh {
		if cols == nil {
			cols = mapColumns(<-headerCh)
			if missing := cols.missing(); len(missing) > 0 {
				drain(rowCh)
				<-errCh
				return nil, eris.Errorf("records: csv header missing columns: %s", strings.Join(missing, ", "))
			}
		}
		row++
		if isBlank(fields) {
			continue
		}
		b.add(row, cols.record(fields))
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "records: read csv")
	}
	return b, nil
}

// sniffDelimiter picks the separator that occurs most in the first line.
func sniffDelimiter(peek []byte) rune {
	line := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		line = peek[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func drain[T any](ch <-chan T) {
	for range ch { //nolint:revive // drain
	}
}
