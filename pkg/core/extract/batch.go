package extract

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tdnet_xbrl/pkg/core/observability"
)

// Default batch limits.
const (
	DefaultWorkers         = 4
	DefaultDocumentTimeout = 30 * time.Second
)

// Extractor is implemented by Orchestrator; tests substitute mocks.
type Extractor interface {
	Extract(ctx context.Context, in Input) (*Record, error)
}

// BatchResult is the outcome for one input, at the input's position.
type BatchResult struct {
	DocumentID string
	Record     *Record
	Err        error
	Elapsed    time.Duration
}

// BatchSummary counts outcomes of a run.
type BatchSummary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
}

// Batch runs an Extractor over many documents with bounded parallelism.
type Batch struct {
	extractor Extractor
	workers   int
	timeout   time.Duration
	log       *observability.Logger
	progress  func(done, total int)
}

// NewBatch creates a batch runner. Non-positive workers or timeout use the
// defaults.
func NewBatch(extractor Extractor, workers int, timeout time.Duration, log *observability.Logger) *Batch {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultDocumentTimeout
	}
	if log == nil {
		log = observability.Nop()
	}
	return &Batch{extractor: extractor, workers: workers, timeout: timeout, log: log}
}

// OnProgress registers a callback invoked after each document finishes.
// It may be called from several goroutines at once.
func (b *Batch) OnProgress(fn func(done, total int)) {
	b.progress = fn
}

// Run extracts every document. One document failing never cancels the others;
// its error is reported in its BatchResult. Run itself only fails when ctx is
// cancelled, in which case the partial results are still returned.
func (b *Batch) Run(ctx context.Context, docs []Input) ([]BatchResult, BatchSummary, error) {
	runID := uuid.New().String()
	log := b.log.With("run_id", runID)
	log.Info().Int("documents", len(docs)).Int("workers", b.workers).Msg("batch started")

	results := make([]BatchResult, len(docs))
	var finished atomic.Int64

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, in := range docs {
		if ctx.Err() != nil {
			results[i] = BatchResult{DocumentID: in.DocumentID(), Err: ctx.Err()}
			continue
		}
		i, in := i, in
		g.Go(func() error {
			start := time.Now()
			rec, err := b.runOne(ctx, in)
			results[i] = BatchResult{
				DocumentID: in.DocumentID(),
				Record:     rec,
				Err:        err,
				Elapsed:    time.Since(start),
			}
			if err != nil {
				log.Warn().Err(err).Str("document", in.DocumentID()).Msg("document failed")
			}
			if b.progress != nil {
				b.progress(int(finished.Add(1)), len(docs))
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := BatchSummary{RunID: runID, Total: len(docs)}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	log.Info().Int("succeeded", summary.Succeeded).Int("failed", summary.Failed).Msg("batch finished")

	if err := ctx.Err(); err != nil {
		return results, summary, fmt.Errorf("batch %s interrupted: %w", runID, err)
	}
	return results, summary, nil
}

// runOne bounds a single extraction by the per-document timeout. The
// extraction goroutine observes the same context and stops at its next
// check.
func (b *Batch) runOne(ctx context.Context, in Input) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type outcome struct {
		rec *Record
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		rec, err := b.extractor.Extract(ctx, in)
		done <- outcome{rec, err}
	}()

	select {
	case o := <-done:
		return o.rec, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", in.DocumentID(), ctx.Err())
	}
}
