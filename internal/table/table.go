// Package table holds the in-memory representation of an uploaded tabular
// dataset and its CSV/XLSX codecs.
package table

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a parsed tabular input: the first input row becomes Headers and
// every subsequent row a string slice in Rows. Rows may be ragged; Cell
// compensates.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the trimmed value at (row, col), or "" when the row is
// shorter than the header or the indexes are out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// ColumnIndex returns the position of a header by exact name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// ParseCSV parses raw CSV bytes into a Table. The first record is the
// header row.
func ParseCSV(raw []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "table: parse csv")
	}

	if len(records) == 0 {
		return nil, eris.New("table: csv has no header row")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	return &Table{
		Headers: headers,
		Rows:    records[1:],
	}, nil
}

// RenderCSV writes the table back out as CSV, appending extraHeaders to the
// header row and, for each data row, the corresponding extraRows entry.
// extraRows must be index-aligned with t.Rows.
func (t *Table) RenderCSV(extraHeaders []string, extraRows [][]string) (string, error) {
	if len(extraRows) != 0 && len(extraRows) != len(t.Rows) {
		return "", eris.Errorf("table: extra rows length %d does not match table rows %d", len(extraRows), len(t.Rows))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(append(append([]string{}, t.Headers...), extraHeaders...)); err != nil {
		return "", eris.Wrap(err, "table: write header")
	}

	for i, row := range t.Rows {
		// Pad ragged rows to the header width so appended columns line up.
		out := make([]string, len(t.Headers), len(t.Headers)+len(extraHeaders))
		copy(out, row)
		if len(extraRows) != 0 {
			out = append(out, extraRows[i]...)
		}
		if err := w.Write(out); err != nil {
			return "", eris.Wrap(err, "table: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "table: flush csv")
	}

	return buf.String(), nil
}
