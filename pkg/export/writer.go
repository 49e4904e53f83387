package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// InventoryReader provides access to one resource collection's rows for
// export.
type InventoryReader interface {
	// Header returns the CSV header row.
	Header() []string
	// Rows returns the data rows, one per resource.
	Rows() [][]string
}

// WriteToCSV writes the reader's rows in CSV form. The delimiter is
// configurable because several downstream consumers of these extracts
// expect pipe-delimited files.
func WriteToCSV(w io.Writer, reader InventoryReader, delimiter rune, includeHeader bool) error {
	csvWriter := csv.NewWriter(w)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}

	if includeHeader {
		if err := csvWriter.Write(reader.Header()); err != nil {
			return fmt.Errorf("error writing csv header: %w", err)
		}
	}
	for _, row := range reader.Rows() {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("error writing csv record: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("error flushing csv: %w", err)
	}
	return nil
}

// WriteToJSON writes the reader's rows as an array of objects keyed by the
// header fields.
func WriteToJSON(w io.Writer, reader InventoryReader) error {
	header := reader.Header()
	var out []map[string]string
	for _, row := range reader.Rows() {
		entry := make(map[string]string, len(header))
		for i, field := range header {
			if i < len(row) {
				entry[field] = row[i]
			}
		}
		out = append(out, entry)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("error writing json: %w", err)
	}
	return nil
}

// MaybeGzip wraps w in a gzip writer when enabled. The returned close func
// must be called to flush the compressed stream; it is a no-op when gzip is
// off.
func MaybeGzip(w io.Writer, enabled bool) (io.Writer, func() error) {
	if !enabled {
		return w, func() error { return nil }
	}
	gz := gzip.NewWriter(w)
	return gz, gz.Close
}
