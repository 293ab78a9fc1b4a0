package enrich

import (
	"context"
	"sync/atomic"

	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/pkg/searxng"
)

// stubSearch returns canned results per query, or a fixed set for all.
type stubSearch struct {
	results []searxng.Result
	err     error
	calls   atomic.Int32
	panics  bool
}

func (s *stubSearch) Search(_ context.Context, _ string, limit int) ([]searxng.Result, error) {
	s.calls.Add(1)
	if s.panics {
		panic("search exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) > limit {
		return s.results[:limit], nil
	}
	return s.results, nil
}

// stubAdjudicator returns a fixed verdict or error and counts invocations.
type stubAdjudicator struct {
	verdict *Adjudication
	err     error
	calls   atomic.Int32
	gotHits []searxng.Result
}

func (s *stubAdjudicator) Adjudicate(_ context.Context, _ model.EnrichmentRequest, hits []searxng.Result) (*Adjudication, error) {
	s.calls.Add(1)
	s.gotHits = hits
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

func (s *stubAdjudicator) Model() string { return "stub/model-1" }

// stubVerifier returns a fixed status and records the probed domain.
type stubVerifier struct {
	status model.VerificationStatus
	calls  atomic.Int32
	domain string
}

func (s *stubVerifier) Verify(_ context.Context, domain string) model.VerificationStatus {
	s.calls.Add(1)
	s.domain = domain
	return s.status
}
