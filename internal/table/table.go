// Package table reads tabular track sources (CSV, XLSX) into an in-memory
// header + rows form. Column semantics are not interpreted here; that is the
// schema layer's job. Sources are re-read per request by design, so a caller
// can never observe a stale slice after changing its row restriction.
package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for source files whose extension is not
// recognized as a readable tabular format.
var ErrUnsupportedFormat = errors.New("unsupported source format")

// Table is one fully decoded tabular source: a header row plus data rows.
type Table struct {
	header []string
	rows   [][]string
}

// Header returns the raw header cells in column order.
func (t *Table) Header() []string { return t.header }

// NumRows returns the number of data rows (the header excluded).
func (t *Table) NumRows() int { return len(t.rows) }

// Column returns the raw cell text of one column across all data rows.
// Rows shorter than the header yield empty cells.
func (t *Table) Column(idx int) ([]string, error) {
	if idx < 0 || idx >= len(t.header) {
		return nil, fmt.Errorf("column index %d outside header of %d columns", idx, len(t.header))
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, nil
}

// FileType returns the normalized extension for path ("csv", "xlsx") or
// ErrUnsupportedFormat.
func FileType(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv", "xlsx":
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Open reads the source at path into a Table. The encoding name applies to
// text formats only (see decoderFor); XLSX carries its own encoding.
func Open(path, encoding string) (*Table, error) {
	ft, err := FileType(path)
	if err != nil {
		return nil, err
	}
	switch ft {
	case "csv":
		return openCSV(path, encoding)
	default:
		return openXLSX(path)
	}
}
