package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-enrich/internal/table"
)

func TestDetect_CompanyKeywordPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers []string
		want    string
	}{
		{"company wins over name", []string{"name", "company"}, "company"},
		{"first matching column for keyword", []string{"parent_company", "company"}, "parent_company"},
		{"organization", []string{"id", "organization"}, "organization"},
		{"entity last resort keyword", []string{"id", "entity"}, "entity"},
		{"case insensitive", []string{"ID", "Company Name"}, "Company Name"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tbl := &table.Table{Headers: tt.headers, Rows: [][]string{{"x", "y"}}}
			assert.Equal(t, tt.want, Detect(tbl).CompanyName)
		})
	}
}

func TestDetect_CompanyFallbackFirstNonEmptyColumn(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{
		Headers: []string{"col_a", "col_b"},
		Rows: [][]string{
			{"", "Acme"},
			{"", "Globex"},
		},
	}

	cols := Detect(tbl)
	assert.Equal(t, "col_b", cols.CompanyName)
}

func TestDetect_LocationKeyword(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{
		Headers: []string{"company", "headquarters"},
		Rows:    [][]string{{"Acme", "Austin, TX"}},
	}

	cols := Detect(tbl)
	assert.Equal(t, "headquarters", cols.Location)
	assert.False(t, cols.Combined)
}

func TestDetect_CombinedCityState(t *testing.T) {
	t.Parallel()

	// "city" is itself a location keyword, so combined detection needs
	// headers where no single keyword matches first. It only triggers when
	// the location keyword scan found nothing.
	tbl := &table.Table{
		Headers: []string{"company", "town_city", "province_code"},
		Rows:    [][]string{{"Acme", "Austin", "TX"}},
	}

	cols := Detect(tbl)
	// "town_city" contains "city", which is a plain location keyword.
	assert.Equal(t, "town_city", cols.Location)
	assert.False(t, cols.Combined)
}

func TestDetect_NoLocation(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{
		Headers: []string{"company", "revenue"},
		Rows:    [][]string{{"Acme", "1M"}},
	}

	cols := Detect(tbl)
	assert.Empty(t, cols.Location)
	assert.False(t, cols.Combined)
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantMsg string
	}{
		{"unparseable", "a,\"broken\nb", "could not parse"},
		{"no rows", "company,city\n", "no data rows"},
		{"no company column", "alpha,beta\nx,y\n", "could not detect a company name column"},
		{"empty company column", "company,city\n,Austin\n,Dallas\n", "no company names found"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Validate([]byte(tt.raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_Success(t *testing.T) {
	t.Parallel()

	tbl, cols, err := Validate([]byte("company,location\nAcme,\"Austin, TX\"\n"))

	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Equal(t, "company", cols.CompanyName)
	assert.Equal(t, "location", cols.Location)
}

func TestValidateTable_NoColumns(t *testing.T) {
	t.Parallel()

	_, _, err := ValidateTable(&table.Table{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}

func TestLocationString_PlainColumn(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{
		Headers: []string{"company", "location"},
		Rows: [][]string{
			{"Acme", " Austin, TX "},
			{"Globex", ""},
		},
	}
	cols := Columns{CompanyName: "company", Location: "location"}

	assert.Equal(t, "Austin, TX", LocationString(tbl, cols, 0))
	assert.Equal(t, "", LocationString(tbl, cols, 1))
}

func TestLocationString_Combined(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{
		Headers: []string{"company", "billing_city", "billing_state"},
		Rows: [][]string{
			{"Acme", "Austin", "TX"},
			{"Globex", "Springfield", ""},
			{"Initech", "", "CA"},
			{"Umbrella", "", ""},
		},
	}
	cols := Columns{CompanyName: "company", Combined: true}

	assert.Equal(t, "Austin, TX", LocationString(tbl, cols, 0))
	assert.Equal(t, "Springfield", LocationString(tbl, cols, 1))
	assert.Equal(t, "CA", LocationString(tbl, cols, 2))
	assert.Equal(t, "", LocationString(tbl, cols, 3))
}

func TestLocationString_NoDetection(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{Headers: []string{"company"}, Rows: [][]string{{"Acme"}}}
	assert.Equal(t, "", LocationString(tbl, Columns{CompanyName: "company"}, 0))
}

// Rendering the enriched output and re-detecting must still find the
// original company column: the appended result headers carry none of the
// detection keywords at higher priority.
func TestDetect_RoundTripAfterRender(t *testing.T) {
	t.Parallel()

	tbl := &table.Table{
		Headers: []string{"company", "location"},
		Rows:    [][]string{{"Acme", "Austin, TX"}},
	}

	out, err := tbl.RenderCSV(
		[]string{"primary_domain", "confidence_score", "verification_status", "processing_time_ms"},
		[][]string{{"acme.com", "0.9", "verified", "120"}},
	)
	require.NoError(t, err)

	again, cols, err := Validate([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "company", cols.CompanyName)
	assert.Equal(t, "location", cols.Location)
	assert.Equal(t, 6, len(again.Headers))
}
