package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/pkg/circuitbreaker"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes confirmation decisions to a Kafka topic keyed by subject id,
// so every decision for one record lands on the same partition.
type Producer struct {
	writer  messageWriter
	topic   string
	breaker *circuitbreaker.CircuitBreaker
	logger  zerolog.Logger
}

func NewProducer(brokers []string, topic string, logger zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newProducer(writer, topic, logger)
}

func newProducer(w messageWriter, topic string, logger zerolog.Logger) *Producer {
	return &Producer{
		writer:  w,
		topic:   topic,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{Name: "kafka-" + topic}),
		logger:  logger.With().Str("component", "kafka_producer").Logger(),
	}
}

func (p *Producer) PublishDecision(ctx context.Context, evt *model.DecisionEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: p.topic,
		Key:   []byte(evt.SubjectID.String()),
		Value: data,
		Time:  evt.RespondedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(model.EventTypeConfirmationDecided)},
			{Key: "purpose", Value: []byte(evt.Purpose)},
		},
	}

	err = p.breaker.Execute(func() error {
		return p.writer.WriteMessages(ctx, message)
	})
	if err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.Debug().
		Str("topic", p.topic).
		Str("subject_id", evt.SubjectID.String()).
		Msg("Published decision event")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
