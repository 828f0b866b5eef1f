// Package events publishes finished location captures to Kafka.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// TypeLocationCaptured is the event type header of every published capture.
const TypeLocationCaptured = "location.captured"

// LocationCaptured is the payload written for a finished dialog.
type LocationCaptured struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	ChannelID      string        `json:"channel_id"`
	Place          *models.Place `json:"place"`
	CapturedAt     time.Time     `json:"captured_at"`
}

// NewLocationCaptured stamps a capture with a fresh event id.
func NewLocationCaptured(conversationID, channelID string, place *models.Place, at time.Time) LocationCaptured {
	return LocationCaptured{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		ChannelID:      channelID,
		Place:          place,
		CapturedAt:     at,
	}
}

// Publisher hands captures to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event LocationCaptured) error
	Close() error
}

// KafkaPublisher writes captures to a Kafka topic keyed by conversation id.
type KafkaPublisher struct {
	writer  messageWriter
	metrics *metrics.Metrics
	log     *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewKafkaPublisher creates a producer for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, m *metrics.Metrics, log *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaPublisher{writer: w, metrics: m, log: log}
}

// Publish serializes and writes one capture.
func (p *KafkaPublisher) Publish(ctx context.Context, event LocationCaptured) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		p.metrics.EventsPublished.WithLabelValues("error").Inc()
		return err
	}

	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to publish capture event: %w", err)
	}

	p.metrics.EventsPublished.WithLabelValues("ok").Inc()
	p.log.DebugContext(ctx, "Capture event published", "event_id", event.ID, "conversation_id", event.ConversationID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func serializeToMessage(event LocationCaptured) (kafkago.Message, error) {
	data, err := sonic.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize capture event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ConversationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(TypeLocationCaptured)},
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "captured_at", Value: []byte(event.CapturedAt.Format(time.RFC3339))},
		},
	}, nil
}

// Discard drops every event. It is used when Kafka is disabled.
type Discard struct{}

func (Discard) Publish(context.Context, LocationCaptured) error { return nil }

func (Discard) Close() error { return nil }
