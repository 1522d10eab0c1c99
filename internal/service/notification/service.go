package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/service/event"
	"github.com/jwalitptl/recruit-api/pkg/circuitbreaker"
	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/messaging"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
	"github.com/jwalitptl/recruit-api/pkg/worker"
)

var (
	ErrNoChannels           = errors.New("job has no channels")
	ErrChannelNotConfigured = errors.New("channel not configured")
)

type Renderer interface {
	Render(intent model.NotificationIntent, channel model.Channel) (*model.RenderedMessage, error)
}

type EmailSender interface {
	Send(ctx context.Context, to string, content *model.EmailContent) error
}

type TextSender interface {
	Send(ctx context.Context, phone, text string) error
}

// PushPublisher hands push payloads to the fan-out broker.
type PushPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type Senders struct {
	Email    EmailSender
	WhatsApp TextSender
	Push     PushPublisher
}

// DispatchResult reports per-channel outcomes of one job.
type DispatchResult struct {
	Sent   []model.Channel
	Failed map[model.Channel]error
}

// Dispatcher renders a job for each of its channels and sends it. Delivery outcomes
// never feed back into confirmation state.
type Dispatcher struct {
	renderer Renderer
	senders  Senders
	breakers map[model.Channel]*circuitbreaker.CircuitBreaker
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewDispatcher(renderer Renderer, senders Senders, logger *logger.Logger, metrics *metrics.Metrics) *Dispatcher {
	breakers := make(map[model.Channel]*circuitbreaker.CircuitBreaker, 3)
	for _, ch := range []model.Channel{model.ChannelEmail, model.ChannelWhatsApp, model.ChannelPush} {
		breakers[ch] = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{Name: "notification-" + string(ch)})
	}
	return &Dispatcher{
		renderer: renderer,
		senders:  senders,
		breakers: breakers,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch delivers job on every channel it lists. Render and configuration failures
// are permanent; a send failure is returned so the caller can retry.
func (d *Dispatcher) Dispatch(ctx context.Context, job *model.DispatchJob) (*DispatchResult, error) {
	result := &DispatchResult{Failed: make(map[model.Channel]error)}
	if len(job.Channels) == 0 {
		return result, worker.Permanent(ErrNoChannels)
	}

	var transient, permanent []error
	for _, ch := range job.Channels {
		msg, err := d.renderer.Render(job.Intent, ch)
		if err != nil {
			result.Failed[ch] = err
			permanent = append(permanent, fmt.Errorf("%s: %w", ch, err))
			d.count(ch, "invalid")
			continue
		}

		if err := d.send(ctx, ch, job.Recipient, msg); err != nil {
			result.Failed[ch] = err
			if errors.Is(err, ErrChannelNotConfigured) {
				permanent = append(permanent, fmt.Errorf("%s: %w", ch, err))
				d.count(ch, "skipped")
			} else {
				transient = append(transient, fmt.Errorf("%s: %w", ch, err))
				d.count(ch, "error")
			}
			continue
		}

		result.Sent = append(result.Sent, ch)
		d.count(ch, "sent")
	}

	if len(transient) > 0 {
		return result, errors.Join(transient...)
	}
	if len(permanent) > 0 {
		if len(result.Sent) == 0 {
			return result, worker.Permanent(errors.Join(permanent...))
		}
		d.logger.Warn("notification partially delivered",
			"user_id", job.Recipient.UserID.String(),
			"kind", string(job.Intent.Kind),
			"error", errors.Join(permanent...).Error(),
		)
	}
	return result, nil
}

// Handle adapts the dispatcher to the outbox processor.
func (d *Dispatcher) Handle(ctx context.Context, evt *model.OutboxEvent) error {
	job, err := event.DecodeDispatchJob(evt)
	if err != nil {
		return worker.Permanent(err)
	}
	_, err = d.Dispatch(ctx, job)
	return err
}

func (d *Dispatcher) send(ctx context.Context, ch model.Channel, to model.Recipient, msg *model.RenderedMessage) error {
	var fn func() error
	switch ch {
	case model.ChannelEmail:
		if d.senders.Email == nil {
			return ErrChannelNotConfigured
		}
		fn = func() error { return d.senders.Email.Send(ctx, to.Email, msg.Email) }
	case model.ChannelWhatsApp:
		if d.senders.WhatsApp == nil {
			return ErrChannelNotConfigured
		}
		fn = func() error { return d.senders.WhatsApp.Send(ctx, to.Phone, msg.WhatsApp) }
	case model.ChannelPush:
		if d.senders.Push == nil {
			return ErrChannelNotConfigured
		}
		envelope := model.PushEnvelope{UserID: to.UserID, Payload: *msg.Push}
		fn = func() error { return d.senders.Push.Publish(ctx, messaging.ChannelPush, envelope) }
	default:
		return ErrChannelNotConfigured
	}
	return d.breakers[ch].Execute(fn)
}

func (d *Dispatcher) count(ch model.Channel, status string) {
	if d.metrics != nil {
		d.metrics.NotificationsSent.WithLabelValues(string(ch), status).Inc()
	}
}
