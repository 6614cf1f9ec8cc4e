// Package csvstream implements addresskit's streaming delimited-file driver
// (spec §4.5, component C5): a bounded-memory reader over G-NAF's
// pipe-separated and comma-separated constituent files that pauses after
// each byte-bounded chunk until the caller's chunk callback completes. That
// pause is the pipeline's sole backpressure mechanism (spec §9): the parser
// is a synchronous loop whose body calls the sink directly, so at most one
// chunk is ever in flight.
package csvstream

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
)

// DefaultChunkBytes is the default chunk boundary: bytes of source consumed
// per chunk before the driver invokes the chunk callback and pauses for it
// to return (spec §4.5, §6.3 ADDRESSKIT_LOADING_CHUNK_SIZE default 10 MB).
const DefaultChunkBytes = 10 * 1 << 20

// Record is one parsed row, keyed by the header column names of the file
// being streamed.
type Record map[string]string

// ChunkFunc is invoked once per chunk with the rows parsed so far. The
// driver does not read further source bytes until ChunkFunc returns — this
// is the pause/resume backpressure contract. A returned error aborts the
// stream.
type ChunkFunc func(ctx context.Context, rows []Record) error

// Summary reports what a Stream call observed.
type Summary struct {
	RowsParsed       int64
	RowErrors        int64
	ExpectedRows     int64
	RowCountMismatch bool
}

// Driver parses one delimited file at a time. The zero value uses comma as
// the delimiter and DefaultChunkBytes; set Delimiter and ChunkBytes to
// override (pipe-separated authority/master files use Delimiter = '|').
type Driver struct {
	Delimiter rune
	ChunkBytes int64
}

// Stream parses r as a delimited file with a header row, invoking onChunk
// once per ChunkBytes of source consumed (and once more at EOF for any
// remainder). expectedRows, when non-zero, is compared against the final
// row count; a mismatch is logged but never fails the stream (spec §4.5,
// §7 kind 3 — mapping/parsing issues are never fatal at this layer).
func (d *Driver) Stream(ctx context.Context, r io.Reader, expectedRows int64, onChunk ChunkFunc) (Summary, error) {
	delim := d.Delimiter
	if delim == 0 {
		delim = ','
	}
	chunkBytes := d.ChunkBytes
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}

	counting := &countingReader{r: r}
	cr := csv.NewReader(counting)
	cr.Comma = delim
	cr.ReuseRecord = false
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	var chunk []Record
	chunkStartOffset := counting.n

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := onChunk(ctx, chunk); err != nil {
			return err
		}
		chunk = nil
		chunkStartOffset = counting.n
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.RowErrors++
			slog.WarnContext(ctx, "csvstream: skipping unparseable row", "row", summary.RowsParsed+summary.RowErrors, "error", err)
			continue
		}

		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(fields) {
				rec[col] = fields[i]
			}
		}
		chunk = append(chunk, rec)
		summary.RowsParsed++

		if counting.n-chunkStartOffset >= chunkBytes {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}
	if err := flush(); err != nil {
		return summary, err
	}

	summary.ExpectedRows = expectedRows
	if expectedRows > 0 && expectedRows != summary.RowsParsed {
		summary.RowCountMismatch = true
		slog.WarnContext(ctx, "csvstream: row count mismatch",
			"expected", expectedRows, "parsed", summary.RowsParsed)
	}
	return summary, nil
}

// countingReader tracks cumulative bytes read, used to detect chunk
// boundaries independent of the CSV reader's internal buffering.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
