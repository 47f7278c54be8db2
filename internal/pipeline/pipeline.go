package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	"github.com/couchcryptid/storm-hydrology-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

var (
	// ErrQueueFull is returned by Publish when the buffer has no room.
	ErrQueueFull = errors.New("change feed queue is full")
	// ErrStopped is returned by Publish once Drain has begun.
	ErrStopped = errors.New("change feed is stopped")
)

// Loader writes a batch of change events to the feed.
type Loader interface {
	Publish(ctx context.Context, events ...domain.ChangeEvent) error
}

// Pipeline relays committed change events to a Loader off the request path.
// Publish enqueues; Run delivers queued events in batches, retrying failed
// batches with exponential backoff until they succeed or Run is cancelled.
type Pipeline struct {
	queue         chan domain.ChangeEvent
	loader        Loader
	logger        *slog.Logger
	metrics       *observability.Metrics
	batchSize     int
	flushInterval time.Duration

	// pending is the batch Run was holding when it stopped. Owned by Run,
	// then by Drain.
	pending  []domain.ChangeEvent
	draining chan struct{}
}

// New creates a Pipeline buffering up to queueSize events.
func New(loader Loader, logger *slog.Logger, metrics *observability.Metrics, batchSize, queueSize int, flushInterval time.Duration) *Pipeline {
	return &Pipeline{
		queue:         make(chan domain.ChangeEvent, queueSize),
		loader:        loader,
		logger:        logger,
		metrics:       metrics,
		batchSize:     max(batchSize, 1),
		flushInterval: flushInterval,
		draining:      make(chan struct{}),
	}
}

// Publish enqueues events without blocking. It implements hydrology.ChangePublisher.
func (p *Pipeline) Publish(_ context.Context, events ...domain.ChangeEvent) error {
	select {
	case <-p.draining:
		return ErrStopped
	default:
	}
	for i, event := range events {
		select {
		case p.queue <- event:
		default:
			p.metrics.ChangeFeedDelivered.WithLabelValues("dropped").Add(float64(len(events) - i))
			p.metrics.ChangeFeedQueueDepth.Set(float64(len(p.queue)))
			return ErrQueueFull
		}
	}
	p.metrics.ChangeFeedQueueDepth.Set(float64(len(p.queue)))
	return nil
}

// Run delivers queued events until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("change feed started", "batch_size", p.batchSize, "queue_size", cap(p.queue))
	p.metrics.ChangeFeedRunning.Set(1)
	defer p.metrics.ChangeFeedRunning.Set(0)

	backoff := initialBackoff
	for {
		if len(p.pending) == 0 && !p.collect(ctx) {
			p.logger.Info("change feed stopping", "reason", ctx.Err(), "pending", len(p.pending))
			return nil
		}

		if err := p.deliver(ctx, p.pending); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("change feed stopping", "reason", ctx.Err(), "pending", len(p.pending))
				return nil
			}
			p.logger.Error("deliver change events failed", "error", err, "batch_size", len(p.pending), "backoff", backoff)
			p.metrics.ChangeFeedDelivered.WithLabelValues("retried").Add(float64(len(p.pending)))
			if !retry.SleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}

		p.pending = nil
		backoff = initialBackoff
	}
}

// collect blocks for the first queued event, then gathers more until the
// batch is full or the flush interval passes. Returns false if the context
// was cancelled; any partial batch is left in pending.
func (p *Pipeline) collect(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case event := <-p.queue:
		p.pending = append(make([]domain.ChangeEvent, 0, p.batchSize), event)
	}

	timer := time.NewTimer(p.flushInterval)
	defer timer.Stop()

	for len(p.pending) < p.batchSize {
		select {
		case event := <-p.queue:
			p.pending = append(p.pending, event)
		case <-timer.C:
			return true
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (p *Pipeline) deliver(ctx context.Context, batch []domain.ChangeEvent) error {
	start := time.Now()
	if err := p.loader.Publish(ctx, batch...); err != nil {
		return err
	}
	p.metrics.ChangeFeedBatchSize.Observe(float64(len(batch)))
	p.metrics.ChangeFeedFlushSeconds.Observe(time.Since(start).Seconds())
	p.metrics.ChangeFeedDelivered.WithLabelValues("delivered").Add(float64(len(batch)))
	p.metrics.ChangeFeedQueueDepth.Set(float64(len(p.queue)))
	return nil
}

// Drain stops accepting events and makes one delivery attempt for everything
// still buffered. Call it after Run has returned.
func (p *Pipeline) Drain(ctx context.Context) error {
	close(p.draining)

	remaining := p.pending
	p.pending = nil
	for empty := false; !empty; {
		select {
		case event := <-p.queue:
			remaining = append(remaining, event)
		default:
			empty = true
		}
	}
	if len(remaining) == 0 {
		return nil
	}

	p.logger.Info("draining change feed", "events", len(remaining))
	for len(remaining) > 0 {
		n := min(p.batchSize, len(remaining))
		if err := p.deliver(ctx, remaining[:n]); err != nil {
			p.metrics.ChangeFeedDelivered.WithLabelValues("dropped").Add(float64(len(remaining)))
			return fmt.Errorf("drain change feed: %d events undelivered: %w", len(remaining), err)
		}
		remaining = remaining[n:]
	}
	return nil
}
