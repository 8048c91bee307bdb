package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/geoscore/bfg-harvest/internal/config"
	"github.com/geoscore/bfg-harvest/internal/domain"
)

// Writer produces harvested records to the record topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured record topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaRecordTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes and publishes the records of one harvest request in a
// single WriteMessages call.
func (w *Writer) Load(ctx context.Context, records []domain.HarvestedRecord) error {
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

// serializeToMessage marshals a HarvestedRecord into a Kafka message. The
// key groups all statistics of one variable and region on one partition.
func serializeToMessage(rec domain.HarvestedRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize harvested record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Variable + ":" + rec.Region.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "statistic", Value: []byte(rec.Statistic)},
			{Key: "median_time", Value: []byte(rec.MedianTime.Format(time.RFC3339))},
		},
	}, nil
}
