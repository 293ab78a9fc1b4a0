// Package schema heuristically identifies company-name and location columns
// in arbitrary tabular uploads.
package schema

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/table"
)

// companyKeywords are tested in priority order; the first keyword with any
// matching column wins, and the first matching column for that keyword is
// chosen.
var companyKeywords = []string{
	"company", "company_name", "name", "business_name",
	"organization", "org", "firm", "entity",
}

// locationKeywords follow the same priority rule.
var locationKeywords = []string{
	"location", "address", "city", "state", "country",
	"headquarters", "hq", "region", "place",
}

// stateLikeKeywords identify columns usable as the state half of a
// synthesized location.
var stateLikeKeywords = []string{"state", "province", "region"}

// Columns is the detection outcome. Empty CompanyName means no company
// column was found. Combined marks a synthetic location built from separate
// city and state columns; Location is then empty.
type Columns struct {
	CompanyName string `json:"company_name"`
	Location    string `json:"location,omitempty"`
	Combined    bool   `json:"combined_location,omitempty"`
}

// Detect inspects headers and data to find the company-name column and, if
// possible, a location column.
func Detect(t *table.Table) Columns {
	cols := Columns{
		CompanyName: matchKeyword(t.Headers, companyKeywords),
	}

	// Fallback: first column with at least one non-empty value.
	if cols.CompanyName == "" {
		for i, h := range t.Headers {
			if columnHasData(t, i) {
				cols.CompanyName = h
				break
			}
		}
	}

	cols.Location = matchKeyword(t.Headers, locationKeywords)

	// No single location column: synthesize one from city + state columns.
	if cols.Location == "" {
		if cityColumn(t.Headers) >= 0 && stateColumn(t.Headers) >= 0 {
			cols.Combined = true
		}
	}

	zap.L().Debug("schema: detected columns",
		zap.String("company_name", cols.CompanyName),
		zap.String("location", cols.Location),
		zap.Bool("combined", cols.Combined),
	)

	return cols
}

// Validate parses raw bytes as CSV and checks the table is enrichable.
// Every rejection carries a distinct human-readable message.
func Validate(raw []byte) (*table.Table, Columns, error) {
	t, err := table.ParseCSV(raw)
	if err != nil {
		return nil, Columns{}, eris.Wrap(err, "schema: could not parse file as CSV")
	}
	return ValidateTable(t)
}

// ValidateTable checks an already parsed table, so XLSX uploads share the
// same rules.
func ValidateTable(t *table.Table) (*table.Table, Columns, error) {
	if len(t.Headers) == 0 {
		return nil, Columns{}, eris.New("schema: file has no columns")
	}
	if len(t.Rows) == 0 {
		return nil, Columns{}, eris.New("schema: file has no data rows")
	}

	cols := Detect(t)
	if cols.CompanyName == "" {
		return nil, Columns{}, eris.New("schema: could not detect a company name column")
	}

	if !columnHasData(t, t.ColumnIndex(cols.CompanyName)) {
		return nil, Columns{}, eris.Errorf("schema: no company names found in column %q", cols.CompanyName)
	}

	return t, cols, nil
}

// LocationString assembles the location for one row. A plain detected
// column yields its trimmed value; a combined detection joins the row's
// city-like and state-like values with ", ". Returns "" when nothing is
// present.
func LocationString(t *table.Table, cols Columns, row int) string {
	if cols.Combined {
		var parts []string
		if ci := cityColumn(t.Headers); ci >= 0 {
			if v := t.Cell(row, ci); v != "" {
				parts = append(parts, v)
			}
		}
		if si := stateColumn(t.Headers); si >= 0 {
			if v := t.Cell(row, si); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	}

	if cols.Location == "" {
		return ""
	}
	return t.Cell(row, t.ColumnIndex(cols.Location))
}

// matchKeyword returns the first column whose name contains the first
// keyword that matches any column, case-insensitively.
func matchKeyword(headers []string, keywords []string) string {
	for _, kw := range keywords {
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h), kw) {
				return h
			}
		}
	}
	return ""
}

func cityColumn(headers []string) int {
	for i, h := range headers {
		if strings.Contains(strings.ToLower(h), "city") {
			return i
		}
	}
	return -1
}

func stateColumn(headers []string) int {
	for i, h := range headers {
		lower := strings.ToLower(h)
		for _, kw := range stateLikeKeywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return -1
}

func columnHasData(t *table.Table, col int) bool {
	if col < 0 {
		return false
	}
	for i := range t.Rows {
		if t.Cell(i, col) != "" {
			return true
		}
	}
	return false
}
