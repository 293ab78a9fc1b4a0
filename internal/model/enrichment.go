// Package model defines the core value types for domain enrichment.
package model

import (
	"strings"
	"time"
)

// VerificationStatus describes the outcome of the domain reachability probe.
type VerificationStatus string

const (
	// VerificationVerified means the domain answered over HTTPS.
	VerificationVerified VerificationStatus = "verified"
	// VerificationHTTPOnly means HTTPS failed but plain HTTP answered.
	VerificationHTTPOnly VerificationStatus = "http_only"
	// VerificationInaccessible means the domain answered with an error status.
	VerificationInaccessible VerificationStatus = "inaccessible"
	// VerificationUnreachable means neither probe got a response.
	VerificationUnreachable VerificationStatus = "unreachable"
	// VerificationNoDomain means no primary domain was identified.
	VerificationNoDomain VerificationStatus = "no_domain_found"
)

// Row-level statuses produced by batch processing in addition to the
// verification statuses above.
const (
	RowStatusEmptyInput      = "empty_input"
	RowStatusProcessingError = "processing_error"
	RowStatusError           = "error"
)

// Address locates a company for search-query generation and adjudication.
// City and State are always set; ParseLocation substitutes "Unknown" when
// the input gives nothing usable.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country"`
}

// EnrichmentRequest asks for the primary domain of one company.
type EnrichmentRequest struct {
	CompanyName string  `json:"company_name"`
	Address     Address `json:"address"`
}

// ResultMetadata carries diagnostic detail about how a result was produced.
type ResultMetadata struct {
	NormalizedName     string `json:"company_name_normalized"`
	Model              string `json:"ai_model_used"`
	SearchResultsCount int    `json:"search_results_count"`
	Reasoning          string `json:"reasoning"`
}

// EnrichmentResult is the full outcome of one enrichment request. It is
// assembled once by the engine and never mutated afterwards.
type EnrichmentResult struct {
	PrimaryDomain     string             `json:"primary_domain,omitempty"`
	ConfidenceScore   float64            `json:"confidence_score"`
	SearchQueriesUsed []string           `json:"search_queries_used"`
	DomainsConsidered []string           `json:"domains_considered"`
	Verification      VerificationStatus `json:"verification_status"`
	ProcessingTimeMS  int64              `json:"processing_time_ms"`
	Metadata          ResultMetadata     `json:"metadata"`
}

// RowResult is the compact view of an EnrichmentResult exposed to batch
// callers: one per input row, index-aligned with the input table.
type RowResult struct {
	PrimaryDomain    string  `json:"primary_domain,omitempty"`
	ConfidenceScore  float64 `json:"confidence_score"`
	Status           string  `json:"verification_status"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
}

// Narrow reduces a full result to the batch view.
func (r EnrichmentResult) Narrow() RowResult {
	return RowResult{
		PrimaryDomain:    r.PrimaryDomain,
		ConfidenceScore:  r.ConfidenceScore,
		Status:           string(r.Verification),
		ProcessingTimeMS: r.ProcessingTimeMS,
	}
}

// JobStatus represents the lifecycle state of a batch job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobSnapshot is a point-in-time, internally consistent view of a job:
// len(Results) always equals Progress.
type JobSnapshot struct {
	ID          string      `json:"job_id"`
	Status      JobStatus   `json:"status"`
	Progress    int         `json:"progress"`
	Total       int         `json:"total"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Results     []RowResult `json:"results,omitempty"`
	Errors      []string    `json:"errors"`
}

// ParseLocation splits a free-form location string ("Austin, TX" or
// "Zurich, Switzerland") into an Address. Missing parts default to
// "Unknown" and the country defaults to "US".
func ParseLocation(location string) Address {
	addr := Address{City: "Unknown", State: "Unknown", Country: "US"}

	var parts []string
	for _, p := range strings.Split(location, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch {
	case len(parts) >= 2:
		addr.City = parts[0]
		addr.State = parts[1]
		if len(parts) > 2 {
			addr.Country = parts[2]
		}
	case len(parts) == 1:
		addr.City = parts[0]
	}

	return addr
}
