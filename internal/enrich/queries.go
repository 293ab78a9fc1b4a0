// Package enrich implements the company domain enrichment workflow: query
// generation, search aggregation, AI adjudication, and reachability
// verification.
package enrich

import (
	"fmt"
	"strings"

	"github.com/sells-group/domain-enrich/internal/model"
)

// legalSuffixes are stripped from the end of company names before searching.
// Order matters: each suffix is tested once against the current tail, so
// "Acme Co Inc" normalizes to "Acme".
var legalSuffixes = []string{"Inc", "Corp", "Corporation", "LLC", "Ltd", "Limited", "Co", "Company"}

// NormalizeCompanyName strips trailing legal-entity suffixes when they
// appear as the final whitespace-delimited token.
func NormalizeCompanyName(name string) string {
	normalized := strings.TrimSpace(name)
	for _, suffix := range legalSuffixes {
		normalized = strings.TrimSuffix(normalized, " "+suffix)
	}
	return strings.TrimSpace(normalized)
}

// GenerateQueries builds the search query variations for a company. Blank
// queries are dropped and duplicates removed; first-seen order is kept but
// carries no downstream meaning.
func GenerateQueries(companyName string, addr model.Address) []string {
	normalized := NormalizeCompanyName(companyName)

	candidates := []string{
		fmt.Sprintf("%q official website", normalized),
		fmt.Sprintf("%q %s %s website", normalized, addr.City, addr.State),
		fmt.Sprintf("%q headquarters website", normalized),
		fmt.Sprintf("%q corporate site", normalized),
		fmt.Sprintf("%s %s company website", normalized, addr.City),
		fmt.Sprintf("%q official domain", companyName),
	}

	seen := make(map[string]bool, len(candidates))
	var queries []string
	for _, q := range candidates {
		q = strings.Join(strings.Fields(q), " ")
		if q == "" || q == `""` || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}

	return queries
}
