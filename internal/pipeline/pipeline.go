package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geoscore/bfg-harvest/internal/domain"
	"github.com/geoscore/bfg-harvest/internal/observability"
)

// Extractor reads the next raw harvest request from the source. It blocks
// until a message arrives, the context is cancelled, or the source fails.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawRequest, error)
}

// Harvester executes one validated request against files on disk.
type Harvester interface {
	Harvest(ctx context.Context, req domain.Request) ([]domain.HarvestedRecord, error)
}

// Loader writes harvested records to the destination.
type Loader interface {
	Load(ctx context.Context, records []domain.HarvestedRecord) error
}

// Pipeline orchestrates the request-harvest-publish loop.
type Pipeline struct {
	extractor Extractor
	harvester Harvester
	loader    Loader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, h Harvester, l Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		harvester: h,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil if the pipeline has handled at least one
// request, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not handled any requests yet")
	}
	return nil
}

// Run executes the harvest loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processNext(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processNext handles one extract-harvest-publish cycle. Returns false if
// the pipeline should stop.
func (p *Pipeline) processNext(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract request failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.RequestsConsumed.Inc()
	*backoff = 200 * time.Millisecond

	start := time.Now()

	req, err := domain.ParseRequest(raw)
	if err != nil {
		p.logger.Warn("invalid harvest request, skipping",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.metrics.HarvestErrors.WithLabelValues("invalid_request").Inc()
		p.commitOffset(ctx, raw)
		p.ready.Store(true)
		return true
	}

	records, err := p.harvester.Harvest(ctx, req)
	if err != nil {
		p.logger.Warn("harvest failed, skipping request",
			"error", err,
			"harvester", req.HarvesterName,
			"files", len(req.Filenames),
		)
		p.metrics.HarvestErrors.WithLabelValues(failureReason(err)).Inc()
		p.commitOffset(ctx, raw)
		p.ready.Store(true)
		return true
	}

	if err := p.loader.Load(ctx, records); err != nil {
		p.logger.Error("publish records failed", "error", err, "records", len(records))
		// Offset stays uncommitted so the request redelivers after restart.
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.RecordsProduced.Add(float64(len(records)))
	p.metrics.FilesPerRequest.Observe(float64(len(req.Filenames)))
	p.metrics.RecordsPerRequest.Observe(float64(len(records)))
	p.metrics.HarvestDuration.Observe(time.Since(start).Seconds())

	p.commitOffset(ctx, raw)
	p.ready.Store(true)
	return true
}

// failureReason buckets harvest errors for the error counter.
func failureReason(err error) string {
	var (
		missingErr *domain.MissingVariableError
		shapeErr   *domain.GridShapeMismatchError
		cfgErr     *domain.ConfigurationError
	)
	switch {
	case errors.Is(err, domain.ErrNoTimeSteps),
		errors.As(err, &missingErr), errors.As(err, &shapeErr), errors.As(err, &cfgErr):
		return "read_failure"
	case errors.Is(err, domain.ErrNoValidData):
		return "compute_failure"
	default:
		return "invalid_request"
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawRequest) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
