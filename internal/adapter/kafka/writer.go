// Package kafka publishes newly ingested article records to an optional
// sink topic for downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-monitor/internal/config"
	"github.com/couchcryptid/disaster-monitor/internal/domain"
)

// Writer produces record messages to the sink topic. It implements
// pipeline.FeedPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the records in a single
// WriteMessages call, keyed by URL so replays land on the same partition.
func (w *Writer) PublishBatch(ctx context.Context, records []domain.ArticleRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an ArticleRecord into a Kafka message.
func serializeToMessage(record domain.ArticleRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(record.URL),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "disaster_event", Value: []byte(record.DisasterEvent)},
			{Key: "ingested_at", Value: []byte(record.IngestedAt.Format(time.RFC3339))},
		},
	}, nil
}
