// Package kafka publishes completed soil detections to an analytics topic.
// The sink is optional and strictly best-effort: a broker outage must never
// slow down or fail a detection.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/quietcreek/soil-intel-service/internal/soil"
)

// Publisher produces detection events to a Kafka topic.
// It implements soil.DetectionPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the detections topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		Async:        true,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishDetection serializes and publishes one detection event.
func (p *Publisher) PublishDetection(ctx context.Context, ev soil.DetectionEvent) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a DetectionEvent into a Kafka message. The
// key is the coordinate rounded to ~100 m so nearby detections land in the
// same partition.
func serializeToMessage(ev soil.DetectionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize detection event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%.3f,%.3f", ev.Lat, ev.Lon)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(ev.Result.Source)},
			{Key: "detected_at", Value: []byte(ev.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
