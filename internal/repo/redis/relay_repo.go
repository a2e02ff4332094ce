package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// RelayRepo moves raw realtime envelopes between API nodes over a pub/sub channel.
type RelayRepo struct {
	client  *goredis.Client
	channel string
}

func NewRelayRepo(client *goredis.Client, channel string) *RelayRepo {
	if channel == "" {
		channel = "realtime:relay"
	}
	return &RelayRepo{client: client, channel: channel}
}

func (r *RelayRepo) Publish(ctx context.Context, payload []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish relay envelope: %w", err)
	}
	return nil
}

// Subscribe blocks until ctx is done, invoking handle for every payload received.
// ready is closed once the subscription is confirmed by the server.
func (r *RelayRepo) Subscribe(ctx context.Context, ready chan<- struct{}, handle func([]byte)) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	sub := r.client.Subscribe(ctx, r.channel)
	defer func() {
		_ = sub.Close()
	}()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe relay channel: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handle([]byte(msg.Payload))
		}
	}
}
