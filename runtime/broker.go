package runtime

import (
	"context"
	"crm-realtime/contract"
	"crm-realtime/domain"
	"crm-realtime/observability"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const ChannelPrefix = "crm-realtime:group:"

// LocalBroker delivers straight into the registry of this process.
type LocalBroker struct {
	registry contract.IRegistry
	metrics  *observability.Counters
}

func NewLocalBroker(registry contract.IRegistry, metrics *observability.Counters) *LocalBroker {
	return &LocalBroker{registry: registry, metrics: metrics}
}

func (b LocalBroker) Publish(ctx context.Context, group domain.GroupName, payload []byte) error {
	delivered := b.registry.Publish(ctx, group, payload)
	b.metrics.Delivered(group, delivered)
	return nil
}

// RedisBroker shares groups between processes through one pub/sub channel per group.
// A RedisRelayWorker on every process delivers what it receives into its own registry.
type RedisBroker struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisBroker(client *redis.Client, log *slog.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log}
}

func (b RedisBroker) Publish(ctx context.Context, group domain.GroupName, payload []byte) error {
	receivers, err := b.client.Publish(ctx, Channel(group), payload).Result()
	if err != nil {
		return fmt.Errorf("redis publish on %s: %w", group, err)
	}
	b.log.Debug("Published to redis", "group", group, "receivers", receivers)
	return nil
}

func Channel(group domain.GroupName) string {
	return ChannelPrefix + string(group)
}

// GroupFromChannel is the reverse of Channel.
func GroupFromChannel(channel string) (domain.GroupName, bool) {
	name, ok := strings.CutPrefix(channel, ChannelPrefix)
	if !ok || name == "" {
		return "", false
	}
	return domain.GroupName(name), true
}
