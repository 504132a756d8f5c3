package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"material_lending/lending"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueKey = "lending:notify:queue"
	DefaultChannel  = "lending:notify:events"
)

// pusher is the slice of *redis.Client the notifier needs.
type pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier appends each message to a list consumed by the mail worker and
// publishes it for live dashboards.
type RedisNotifier struct {
	rdb     pusher
	queue   string
	channel string
}

func NewRedisNotifier(rdb pusher, queue, channel string) *RedisNotifier {
	if queue == "" {
		queue = DefaultQueueKey
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{rdb: rdb, queue: queue, channel: channel}
}

var _ lending.Notifier = (*RedisNotifier)(nil)

func (n *RedisNotifier) OrderPlaced(ctx context.Context, op lending.OrderPlaced) error {
	b, err := json.Marshal(NewMessage(op))
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.rdb.RPush(ctx, n.queue, b).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	// 没有订阅者不算失败
	if err := n.rdb.Publish(ctx, n.channel, b).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
