package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/radar-basedata-etl/internal/basedata"
	"github.com/couchcryptid/radar-basedata-etl/internal/domain"
	"github.com/couchcryptid/radar-basedata-etl/internal/observability"
)

// BatchExtractor reads up to batchSize unprocessed files from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawFile, error)
}

// Transformer decodes a raw file into a volume record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawFile) (domain.VolumeRecord, error)
}

// BatchLoader writes multiple volume records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.VolumeRecord) error
}

// Options tunes the ETL loop.
type Options struct {
	BatchSize int
	// Workers bounds concurrent Transform calls within a batch.
	Workers int
	// IdleWait is how long to wait before rescanning an empty source.
	// Non-positive values use DefaultIdleWait.
	IdleWait time.Duration
	// Clock drives idle waits. Defaults to the real clock.
	Clock clockwork.Clock
}

// DefaultIdleWait is the rescan delay used when Options.IdleWait is unset.
const DefaultIdleWait = 500 * time.Millisecond

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	opts        Options
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	opts.BatchSize = max(opts.BatchSize, 1)
	opts.Workers = max(opts.Workers, 1)
	if opts.IdleWait <= 0 {
		opts.IdleWait = DefaultIdleWait
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once the source has been scanned successfully,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not scanned the input yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.opts.BatchSize, "workers", p.opts.Workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.opts.BatchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}
	p.ready.Store(true)

	if len(rawBatch) == 0 {
		return p.idle(ctx)
	}

	p.metrics.FilesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	if !p.transformAndLoad(ctx, rawBatch, backoff) {
		return false
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

type result struct {
	record domain.VolumeRecord
	err    error
}

// transform decodes the batch with at most Workers files in flight. Results
// keep batch order.
func (p *Pipeline) transform(ctx context.Context, rawBatch []domain.RawFile) []result {
	results := make([]result, len(rawBatch))
	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, raw := range rawBatch {
		g.Go(func() error {
			rec, err := p.transformer.Transform(ctx, raw)
			results[i] = result{record: rec, err: err}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors
	return results
}

// transformAndLoad decodes each file in the batch, loads the successes and
// commits every outcome. Returns false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawFile, backoff *time.Duration) bool {
	results := p.transform(ctx, rawBatch)
	if ctx.Err() != nil {
		// Decodes cut short by shutdown are not failures; leave them uncommitted.
		return false
	}

	outBatch := make([]domain.VolumeRecord, 0, len(rawBatch))
	successfulRaws := make([]domain.RawFile, 0, len(rawBatch))
	for i, raw := range rawBatch {
		if err := results[i].err; err != nil {
			kind := basedata.ErrorKind(err)
			p.logger.Warn("decode failed, skipping file", "error", err, "file", raw.Name, "kind", kind)
			p.metrics.DecodeErrors.WithLabelValues(kind).Inc()
			p.commit(ctx, raw, domain.Outcome{Err: err})
			continue
		}
		outBatch = append(outBatch, results[i].record)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(outBatch) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
		return p.backoffOrStop(ctx, backoff)
	}

	p.metrics.VolumesProduced.Add(float64(len(outBatch)))

	for i, raw := range successfulRaws {
		p.commit(ctx, raw, domain.Outcome{Volume: &outBatch[i]})
	}
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// idle waits IdleWait before the next scan. Returns false if the context was
// cancelled meanwhile.
func (p *Pipeline) idle(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.opts.Clock.After(p.opts.IdleWait):
		return true
	}
}

// commit records the file outcome if a commit function is available.
func (p *Pipeline) commit(ctx context.Context, raw domain.RawFile, outcome domain.Outcome) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx, outcome); err != nil {
		p.logger.Warn("commit outcome failed", "error", err, "file", raw.Name, "status", outcome.Status())
	}
}
