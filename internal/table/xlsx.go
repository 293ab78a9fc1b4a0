package table

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ParseXLSX parses raw XLSX bytes into a Table using the first sheet. The
// first row is the header, matching the CSV contract.
func ParseXLSX(raw []byte) (*Table, error) {
	f, err := xlsx.OpenBinary(raw)
	if err != nil {
		return nil, eris.Wrap(err, "table: open xlsx")
	}

	if len(f.Sheets) == 0 {
		return nil, eris.New("table: xlsx has no sheets")
	}
	sheet := f.Sheets[0]

	if len(sheet.Rows) == 0 {
		return nil, eris.New("table: xlsx has no header row")
	}

	t := &Table{Headers: rowToStrings(sheet.Rows[0])}
	for _, row := range sheet.Rows[1:] {
		t.Rows = append(t.Rows, rowToStrings(row))
	}

	return t, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
