package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/repository"
	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
)

// ErrPermanent marks a handler failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so the processor fails the event without scheduling a retry.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// EventHandler processes one claimed outbox event.
type EventHandler interface {
	Handle(ctx context.Context, event *model.OutboxEvent) error
}

type EventHandlerFunc func(ctx context.Context, event *model.OutboxEvent) error

func (f EventHandlerFunc) Handle(ctx context.Context, event *model.OutboxEvent) error {
	return f(ctx, event)
}

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxRetries bounds the number of polls an event may fail before it is marked failed.
	MaxRetries int
	// Lease hides a claimed event from other processors while it is handled.
	Lease time.Duration
}

type OutboxProcessor struct {
	repo     repository.OutboxRepository
	handlers map[string]EventHandler
	config   OutboxProcessorConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	handlers map[string]EventHandler,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	// Config validation instead of defaults
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		panic("MaxRetries must be greater than 0")
	}
	if config.Lease <= 0 {
		panic("Lease must be greater than 0")
	}

	return &OutboxProcessor{
		repo:     repo,
		handlers: handlers,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch claims and handles one batch of due events.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize, p.config.Lease)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_pending_events", "error").Inc()
		return fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_pending_events", "success").Inc()

	for _, event := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}

	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	handler, ok := p.handlers[event.EventType]
	if !ok {
		return p.fail(ctx, event, Permanent(fmt.Errorf("no handler for event type %q", event.EventType)))
	}

	err := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		err := handler.Handle(ctx, event)
		if err != nil && !errors.Is(err, ErrPermanent) {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		return err
	})
	if err != nil {
		return p.fail(ctx, event, err)
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("mark_processed", "error").Inc()
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// fail schedules the next attempt with exponential backoff, or gives up once the
// event is permanent or out of retries.
func (p *OutboxProcessor) fail(ctx context.Context, event *model.OutboxEvent, cause error) error {
	var retryAt *time.Time
	if !errors.Is(cause, ErrPermanent) && event.RetryCount+1 < p.config.MaxRetries {
		next := p.now().Add(p.config.RetryDelay << uint(event.RetryCount+1))
		retryAt = &next
	}
	if retryAt == nil {
		p.metrics.OutboxEventsFailed.Inc()
	}

	if err := p.repo.MarkFailed(ctx, event.ID, cause.Error(), retryAt); err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("mark_failed", "error").Inc()
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return cause
}

// retry runs fn up to attempts times, sleeping delay between tries. Permanent errors
// and context cancellation stop it early.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || errors.Is(err, ErrPermanent) {
			return err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(delay):
			}
		}
	}
	return err
}
