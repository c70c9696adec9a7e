package repository

import (
	"context"
	"time"

	"MacroPull/internal/domain/models"
	pkgkafka "MacroPull/pkg/kafka"
)

// BatchProducer is the subset of pkg/kafka.Producer used for publication.
type BatchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// DatasetSummary is the closing message of a published run.
type DatasetSummary struct {
	RunID       string    `json:"run_id"`
	Month       string    `json:"month"`
	GeneratedAt time.Time `json:"generated_at"`
	Order       []string  `json:"order"`
	Unavailable []string  `json:"unavailable"`
}

// SeriesMessage carries one series of a run.
type SeriesMessage struct {
	RunID  string               `json:"run_id"`
	Month  string               `json:"month"`
	Series *models.SeriesResult `json:"series"`
}

// KafkaDatasetPublisher writes one message per series keyed by series name,
// then a summary keyed by "summary", in a single batch.
type KafkaDatasetPublisher struct {
	producer BatchProducer
	topic    string
}

// NewKafkaDatasetPublisher creates Kafka publisher.
func NewKafkaDatasetPublisher(producer BatchProducer, topic string) *KafkaDatasetPublisher {
	return &KafkaDatasetPublisher{producer: producer, topic: topic}
}

func (p *KafkaDatasetPublisher) Publish(ctx context.Context, d *models.Dataset) error {
	if d == nil {
		return nil
	}
	headers := func(kind string) map[string]string {
		return map[string]string{"run_id": d.RunID, "month": d.Window.Label, "kind": kind}
	}

	msgs := make([]pkgkafka.Message, 0, len(d.Order)+1)
	for _, name := range d.Order {
		msgs = append(msgs, pkgkafka.Message{
			Key:     []byte(name),
			Value:   SeriesMessage{RunID: d.RunID, Month: d.Window.Label, Series: d.Series[name]},
			Headers: headers("series"),
		})
	}
	unavailable := d.Unavailable()
	if unavailable == nil {
		unavailable = []string{}
	}
	msgs = append(msgs, pkgkafka.Message{
		Key: []byte("summary"),
		Value: DatasetSummary{
			RunID:       d.RunID,
			Month:       d.Window.Label,
			GeneratedAt: d.GeneratedAt,
			Order:       d.Order,
			Unavailable: unavailable,
		},
		Headers: headers("summary"),
	})

	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaDatasetPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
