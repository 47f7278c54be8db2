package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-hydrology-service/internal/config"
	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces record change events to a Kafka topic.
// It implements hydrology.ChangePublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured change topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
		WriteTimeout: 5 * time.Second,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes the events in a single WriteMessages call. Events are keyed
// by record so changes to one record stay ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, events ...domain.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d change events: %w", len(msgs), err)
	}
	p.logger.Debug("change events published", "count", len(msgs), "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// recordKey identifies the record an event is about, e.g. "idf_table/7/12".
func recordKey(event domain.ChangeEvent) string {
	return string(event.Kind) + "/" + strconv.FormatInt(event.ProjectID, 10) + "/" + strconv.FormatInt(event.RecordID, 10)
}

// serializeToMessage marshals a ChangeEvent into a Kafka message.
func serializeToMessage(event domain.ChangeEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize change event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(recordKey(event)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
