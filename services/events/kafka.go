package events

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/kipkoec77/Edureach/core"
)

// KafkaPublisher writes events as JSON messages keyed by Event.Key.
type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ core.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...core.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs, err := messages(events)
	if err != nil {
		return err
	}
	return errors.Wrap(p.writer.WriteMessages(ctx, msgs...), "writing events")
}

func messages(events []core.Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return nil, errors.Wrapf(err, "marshalling %s event", e.Type)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(e.Key),
			Value:   value,
			Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
		})
	}
	return msgs, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
