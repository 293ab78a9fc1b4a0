package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/pkg/openrouter"
	"github.com/sells-group/domain-enrich/pkg/searxng"
)

// noResultsReasoning is the fixed reasoning for the adjudicator-skip path.
const noResultsReasoning = "No search results available"

// Engine runs the full enrichment workflow for one company. Every external
// failure degrades into result fields; Enrich never returns an error.
type Engine struct {
	search      searxng.Client
	adjudicator Adjudicator
	verifier    Verifier
	searchLimit int
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithVerifier overrides the default HTTP-probe verifier.
func WithVerifier(v Verifier) EngineOption {
	return func(e *Engine) {
		e.verifier = v
	}
}

// WithSearchLimit caps results per individual search query.
func WithSearchLimit(limit int) EngineOption {
	return func(e *Engine) {
		e.searchLimit = limit
	}
}

// NewEngine creates an enrichment engine.
func NewEngine(search searxng.Client, adjudicator Adjudicator, opts ...EngineOption) *Engine {
	e := &Engine{
		search:      search,
		adjudicator: adjudicator,
		verifier:    NewVerifier(),
		searchLimit: 10,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich finds the primary domain for a company: generate queries, gather
// hits, adjudicate, verify. One pass, no cross-step retries.
func (e *Engine) Enrich(ctx context.Context, req model.EnrichmentRequest) model.EnrichmentResult {
	start := time.Now()

	log := zap.L().With(zap.String("company", req.CompanyName))
	log.Info("enrich: processing request")

	queries := GenerateQueries(req.CompanyName, req.Address)
	log.Debug("enrich: generated queries", zap.Int("count", len(queries)))

	var hits []searxng.Result
	for _, q := range queries {
		results, err := e.search.Search(ctx, q, e.searchLimit)
		if err != nil {
			// Gateway errors are equivalent to no evidence for this query.
			log.Warn("enrich: search query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		hits = append(hits, results...)
	}
	log.Debug("enrich: collected search results", zap.Int("count", len(hits)))

	verdict := e.adjudicate(ctx, req, hits, log)

	verification := model.VerificationNoDomain
	if verdict.PrimaryDomain != "" {
		verification = e.verifier.Verify(ctx, verdict.PrimaryDomain)
	}

	return model.EnrichmentResult{
		PrimaryDomain:     verdict.PrimaryDomain,
		ConfidenceScore:   verdict.ConfidenceScore,
		SearchQueriesUsed: queries,
		DomainsConsidered: verdict.AlternativeDomains,
		Verification:      verification,
		ProcessingTimeMS:  time.Since(start).Milliseconds(),
		Metadata: model.ResultMetadata{
			NormalizedName:     NormalizeCompanyName(req.CompanyName),
			Model:              e.adjudicator.Model(),
			SearchResultsCount: len(hits),
			Reasoning:          verdict.Reasoning,
		},
	}
}

// adjudicate wraps the adjudicator call with the cost-control short-circuit
// and failure degradation. It always returns a usable verdict.
func (e *Engine) adjudicate(ctx context.Context, req model.EnrichmentRequest, hits []searxng.Result, log *zap.Logger) *Adjudication {
	if len(hits) == 0 {
		return &Adjudication{Reasoning: noResultsReasoning}
	}

	verdict, err := e.adjudicator.Adjudicate(ctx, req, hits)
	if err == nil {
		return verdict
	}

	log.Error("enrich: adjudication failed", zap.Error(err))

	var statusErr *openrouter.StatusError
	switch {
	case errors.Is(err, ErrUnparseable):
		return &Adjudication{Reasoning: "Failed to parse AI response"}
	case errors.As(err, &statusErr):
		return &Adjudication{Reasoning: fmt.Sprintf("AI API error: %d", statusErr.StatusCode)}
	default:
		return &Adjudication{Reasoning: fmt.Sprintf("Error: %s", err.Error())}
	}
}
