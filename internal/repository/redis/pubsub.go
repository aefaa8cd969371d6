package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/redis/go-redis/v9"
)

// EventsPubSub fans committed sale events out to other instances and watchers.
type EventsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewEventsPubSub(rdb *redis.Client) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		channel: ChannelSaleEvents(),
	}
}

func (p *EventsPubSub) Publish(ctx context.Context, events []domain.Event) error {
	const op = "redis.EventsPubSub.Publish"

	pipe := p.rdb.Pipeline()
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		pipe.Publish(ctx, p.channel, b)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Subscribe delivers events until ctx is done. Malformed payloads are skipped.
func (p *EventsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, e domain.Event)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var e domain.Event
			if err := json.Unmarshal([]byte(m.Payload), &e); err == nil && e.Kind != "" {
				handler(ctx, e)
			}
		}
	}
}
