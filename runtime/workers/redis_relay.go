package workers

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/observability"
	"crm-realtime/runtime"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisRelayWorker delivers what any process published on the group channels
// into the registry of this process.
type RedisRelayWorker struct {
	client   *redis.Client
	registry contract.IRegistry
	metrics  *observability.Counters
	log      *slog.Logger
}

func NewRedisRelayWorker(client *redis.Client, registry contract.IRegistry, metrics *observability.Counters, log *slog.Logger) *RedisRelayWorker {
	return &RedisRelayWorker{client: client, registry: registry, metrics: metrics, log: log}
}

func (w *RedisRelayWorker) Run(ctx context.Context) error {
	pubsub := w.client.PSubscribe(ctx, runtime.ChannelPrefix+"*")
	defer func() { _ = pubsub.Close() }()

	// Receive waits for the subscription confirmation, so a down server fails here and gets restarted.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	w.log.Info("Relaying redis channels", "pattern", runtime.ChannelPrefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis channel closed")
			}
			group, valid := runtime.GroupFromChannel(msg.Channel)
			if !valid {
				w.log.Debug("Unknown channel", "channel", msg.Channel)
				continue
			}
			delivered := w.registry.Publish(ctx, group, []byte(msg.Payload))
			w.metrics.Delivered(group, delivered)
		}
	}
}
