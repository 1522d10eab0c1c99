package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/messaging"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
)

const defaultConcurrency = 32

type envelope struct {
	UserID  uuid.UUID       `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// Subscriber consumes push envelopes from the broker and runs OnPush in the
// recipient's context. Envelopes are handled concurrently and in no particular order.
type Subscriber struct {
	broker      messaging.Broker
	contexts    ContextProvider
	origin      *url.URL
	concurrency int
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

func NewSubscriber(broker messaging.Broker, contexts ContextProvider, origin *url.URL, concurrency int, logger *logger.Logger, metrics *metrics.Metrics) *Subscriber {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Subscriber{
		broker:      broker,
		contexts:    contexts,
		origin:      origin,
		concurrency: concurrency,
		logger:      logger.With("component", "push_subscriber"),
		metrics:     metrics,
	}
}

// Agent returns the delivery agent for one recipient.
func (s *Subscriber) Agent(userID uuid.UUID) *Agent {
	clients, platform := s.contexts.Context(userID)
	return NewAgent(clients, platform, s.origin, s.logger.With("user_id", userID.String()), s.metrics)
}

// Run blocks until ctx is cancelled or the subscription ends, then waits for
// in-flight events.
func (s *Subscriber) Run(ctx context.Context) error {
	msgs, err := s.broker.Subscribe(ctx, messaging.ChannelPush)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", messaging.ChannelPush, err)
	}

	s.logger.Info("push subscriber started")

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for msg := range msgs {
		msg := msg
		g.Go(func() error {
			s.handle(ctx, msg)
			return nil
		})
	}

	_ = g.Wait()
	s.logger.Info("push subscriber stopped")
	return nil
}

func (s *Subscriber) handle(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.UserID == uuid.Nil {
		s.logger.Warn("dropping push envelope without recipient")
		return
	}

	if err := s.Agent(env.UserID).OnPush(ctx, env.Payload); err != nil {
		s.logger.Error(err, "push delivery failed", "user_id", env.UserID.String())
	}
}
