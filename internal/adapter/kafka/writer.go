package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/parcel-delay-service/internal/config"
	"github.com/couchcryptid/parcel-delay-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// AlertWriter publishes delay alerts to a Kafka topic.
// It implements pipeline.AlertPublisher.
type AlertWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAlertWriter creates a Kafka producer for the configured alert topic.
func NewAlertWriter(cfg *config.Config, logger *slog.Logger) *AlertWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAlertTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &AlertWriter{writer: w, logger: logger}
}

// PublishAlerts serializes and publishes alerts in a single WriteMessages
// call. Alerts for the same parcel share a partition.
func (w *AlertWriter) PublishAlerts(ctx context.Context, alerts []domain.DelayAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(alerts))
	for i := range alerts {
		msg, err := serializeToMessage(alerts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write alerts: %w", err)
	}
	w.logger.Debug("delay alerts published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *AlertWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DelayAlert into a Kafka message keyed by
// tracking ID.
func serializeToMessage(alert domain.DelayAlert) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize delay alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.TrackingID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_kind", Value: []byte(alert.Kind)},
			{Key: "created_at", Value: []byte(alert.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
