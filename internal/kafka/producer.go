package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "tixmint.sale-events"

type Config struct {
	Brokers []string
	Topic   string
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer streams committed sale events. Messages of one ticket share a key
// so they stay ordered within a partition.
type Producer struct {
	w writer
}

func NewProducer(cfg Config) *Producer {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, events []domain.Event) error {
	const op = "kafka.Producer.Publish"

	if len(events) == 0 {
		return nil
	}

	msgs, err := toMessages(events)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (p *Producer) Close() error {
	return p.w.Close()
}

func toMessages(events []domain.Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))

	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(messageKey(e)),
			Value: b,
			Headers: []kafka.Header{
				{Key: "kind", Value: []byte(e.Kind)},
			},
			Time: e.CreatedAt,
		})
	}

	return msgs, nil
}

func messageKey(e domain.Event) string {
	if e.Kind == domain.EventFundsTransfer {
		return "account:" + string(e.From)
	}

	return "ticket:" + strconv.FormatUint(e.TokenID, 10)
}
