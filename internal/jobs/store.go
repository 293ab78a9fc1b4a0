// Package jobs tracks batch enrichment jobs: an in-memory store with
// atomic snapshots and a background runner that drives each job to
// completion.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/internal/schema"
	"github.com/sells-group/domain-enrich/internal/table"
)

// DefaultRetention is how long a job and its cached output live after
// creation.
const DefaultRetention = 24 * time.Hour

// job is the store-internal mutable record. All access goes through the
// store mutex; the invariant len(results) == progress holds at all times.
type job struct {
	id          string
	status      model.JobStatus
	progress    int
	total       int
	createdAt   time.Time
	completedAt *time.Time
	input       *table.Table
	cols        schema.Columns
	results     []model.RowResult
	errors      []string
	output      string
	done        chan struct{}
}

// Store is the in-memory job table shared by the runner and the status
// polling path. A process restart loses everything by design.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*job
	retention time.Duration
}

// NewStore creates a job store. retention <= 0 selects DefaultRetention.
func NewStore(retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		jobs:      make(map[string]*job),
		retention: retention,
	}
}

// Create registers a new pending job for the given table and returns its id.
func (s *Store) Create(t *table.Table, cols schema.Columns) string {
	j := &job{
		id:        uuid.NewString(),
		status:    model.JobStatusPending,
		total:     len(t.Rows),
		createdAt: time.Now(),
		input:     t,
		cols:      cols,
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()

	zap.L().Info("jobs: created job",
		zap.String("job_id", j.id),
		zap.Int("total_rows", j.total),
	)
	return j.id
}

// Snapshot returns a point-in-time consistent view of a job. The results
// slice is copied so callers never observe a partially appended list.
func (s *Store) Snapshot(id string) (model.JobSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return model.JobSnapshot{}, false
	}

	snap := model.JobSnapshot{
		ID:        j.id,
		Status:    j.status,
		Progress:  j.progress,
		Total:     j.total,
		CreatedAt: j.createdAt,
		Results:   append([]model.RowResult(nil), j.results...),
		Errors:    append([]string(nil), j.errors...),
	}
	if j.completedAt != nil {
		t := *j.completedAt
		snap.CompletedAt = &t
	}
	return snap, true
}

// Output returns the rendered artifact for a completed job.
func (s *Store) Output(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok || j.status != model.JobStatusCompleted {
		return "", false
	}
	return j.output, true
}

// Done exposes a channel closed when the job reaches a terminal status, so
// callers can await completion without polling.
func (s *Store) Done(id string) (<-chan struct{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return j.done, true
}

// Evict drops jobs older than the retention window, including their cached
// output artifacts, regardless of status. Returns the number evicted.
func (s *Store) Evict() int {
	cutoff := time.Now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted int
	for id, j := range s.jobs {
		if j.createdAt.Before(cutoff) {
			delete(s.jobs, id)
			evicted++
			zap.L().Info("jobs: evicted expired job", zap.String("job_id", id))
		}
	}
	return evicted
}

// StartSweeper runs the retention sweep on a timer until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Evict(); n > 0 {
					zap.L().Info("jobs: retention sweep", zap.Int("evicted", n))
				}
			}
		}
	}()
}

// --- runner-side mutations ---

// inputFor returns the job's table and detected columns.
func (s *Store) inputFor(id string) (*table.Table, schema.Columns, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, schema.Columns{}, false
	}
	return j.input, j.cols, true
}

func (s *Store) setProcessing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok && j.status == model.JobStatusPending {
		j.status = model.JobStatusProcessing
	}
}

// appendResult appends one row result and increments progress atomically.
func (s *Store) appendResult(id string, r model.RowResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok {
		j.results = append(j.results, r)
		j.progress++
	}
}

func (s *Store) appendError(id, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok {
		j.errors = append(j.errors, msg)
	}
}

func (s *Store) markCompleted(id, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok && j.status == model.JobStatusProcessing {
		now := time.Now()
		j.status = model.JobStatusCompleted
		j.completedAt = &now
		j.output = output
		close(j.done)
	}
}

func (s *Store) markFailed(id, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[id]; ok && j.status != model.JobStatusCompleted && j.status != model.JobStatusFailed {
		j.status = model.JobStatusFailed
		j.errors = append(j.errors, msg)
		close(j.done)
	}
}

// results returns the accumulated row results in input order.
func (s *Store) resultsFor(id string) []model.RowResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if j, ok := s.jobs[id]; ok {
		return append([]model.RowResult(nil), j.results...)
	}
	return nil
}
