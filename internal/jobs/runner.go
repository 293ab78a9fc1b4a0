package jobs

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/internal/schema"
	"github.com/sells-group/domain-enrich/internal/table"
)

// outputHeaders are appended to the original columns in the rendered
// artifact, one value per input row, same order.
var outputHeaders = []string{"primary_domain", "confidence_score", "verification_status", "processing_time_ms"}

// Enricher processes one row. Satisfied by *enrich.RowEnricher.
type Enricher interface {
	EnrichRow(ctx context.Context, companyName, location string) model.RowResult
}

// Runner drives a job over every row of its table, updating store progress
// as it goes and rendering the final artifact.
type Runner struct {
	store    *Store
	enricher Enricher
	workers  int
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithWorkers enables bounded row concurrency. Results are still committed
// in input order, so observable progress semantics are unchanged.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 1 {
			r.workers = n
		}
	}
}

// NewRunner creates a batch runner. Rows are processed sequentially unless
// WithWorkers raises the limit.
func NewRunner(store *Store, enricher Enricher, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    store,
		enricher: enricher,
		workers:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start spawns the single background task for a job. It must be called at
// most once per job id; the submitter is never blocked.
func (r *Runner) Start(ctx context.Context, jobID string) {
	go r.run(ctx, jobID)
}

func (r *Runner) run(ctx context.Context, jobID string) {
	log := zap.L().With(zap.String("job_id", jobID))

	t, cols, ok := r.store.inputFor(jobID)
	if !ok {
		log.Error("jobs: job not found")
		return
	}

	defer func() {
		// A fault outside the per-row envelope (e.g. rendering) fails the
		// job rather than crashing the process.
		if rec := recover(); rec != nil {
			log.Error("jobs: job failed", zap.Any("panic", rec))
			r.store.markFailed(jobID, fmt.Sprintf("job failed: %v", rec))
		}
	}()

	r.store.setProcessing(jobID)
	log.Info("jobs: processing started", zap.Int("rows", len(t.Rows)))

	if r.workers > 1 {
		r.runParallel(ctx, jobID, t, cols, log)
	} else {
		nameIdx := t.ColumnIndex(cols.CompanyName)
		for i := range t.Rows {
			r.store.appendResult(jobID, r.processRow(ctx, jobID, t, cols, nameIdx, i, log))
		}
	}

	output, err := t.RenderCSV(outputHeaders, renderRows(r.store.resultsFor(jobID)))
	if err != nil {
		log.Error("jobs: render output failed", zap.Error(err))
		r.store.markFailed(jobID, fmt.Sprintf("render output: %s", err.Error()))
		return
	}

	r.store.markCompleted(jobID, output)
	log.Info("jobs: processing complete", zap.Int("rows", len(t.Rows)))
}

// runParallel fans rows out over a bounded worker pool. Finished results
// are committed strictly in input order: each worker parks its result until
// the contiguous prefix before it is committed.
func (r *Runner) runParallel(ctx context.Context, jobID string, t *table.Table, cols schema.Columns, log *zap.Logger) {
	nameIdx := t.ColumnIndex(cols.CompanyName)

	var mu sync.Mutex
	pending := make(map[int]model.RowResult)
	next := 0

	commit := func(idx int, res model.RowResult) {
		mu.Lock()
		defer mu.Unlock()
		pending[idx] = res
		for {
			res, ok := pending[next]
			if !ok {
				return
			}
			delete(pending, next)
			r.store.appendResult(jobID, res)
			next++
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range t.Rows {
		i := i
		g.Go(func() error {
			commit(i, r.processRow(gCtx, jobID, t, cols, nameIdx, i, log))
			return nil
		})
	}

	_ = g.Wait()
}

// processRow enriches a single row. Empty company cells short-circuit to a
// placeholder so row alignment is preserved; a panic escaping the enricher
// is absorbed into a processing_error row plus a job-level error.
func (r *Runner) processRow(ctx context.Context, jobID string, t *table.Table, cols schema.Columns, nameIdx, row int, log *zap.Logger) (res model.RowResult) {
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("Error processing row %d: %v", row+1, rec)
			log.Error("jobs: row processing failed", zap.Int("row", row), zap.Any("panic", rec))
			r.store.appendError(jobID, msg)
			res = model.RowResult{Status: model.RowStatusProcessingError}
		}
	}()

	name := t.Cell(row, nameIdx)
	if name == "" {
		return model.RowResult{Status: model.RowStatusEmptyInput}
	}

	location := schema.LocationString(t, cols, row)
	res = r.enricher.EnrichRow(ctx, name, location)

	log.Debug("jobs: row processed",
		zap.Int("row", row),
		zap.String("company", name),
		zap.String("domain", res.PrimaryDomain),
	)
	return res
}

// renderRows converts row results into the appended output columns.
func renderRows(results []model.RowResult) [][]string {
	out := make([][]string, len(results))
	for i, r := range results {
		out[i] = []string{
			r.PrimaryDomain,
			strconv.FormatFloat(r.ConfidenceScore, 'f', 2, 64),
			r.Status,
			strconv.FormatInt(r.ProcessingTimeMS, 10),
		}
	}
	return out
}
