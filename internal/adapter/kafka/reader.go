package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/geoscore/bfg-harvest/internal/config"
	"github.com/geoscore/bfg-harvest/internal/domain"
)

// Reader consumes harvest requests from the request topic as part of a
// consumer group. It implements pipeline.Extractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured request topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaRequestTopic,
		GroupID: cfg.KafkaGroupID,
	})
	return &Reader{reader: r, logger: logger}
}

// Extract blocks until the next request message arrives. The returned
// request commits its own offset once the pipeline has handled it.
func (r *Reader) Extract(ctx context.Context) (domain.RawRequest, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return domain.RawRequest{}, err
	}
	return r.mapMessage(msg), nil
}

func (r *Reader) mapMessage(msg kafkago.Message) domain.RawRequest {
	return domain.RawRequest{
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
