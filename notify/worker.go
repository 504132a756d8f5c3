package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultDeadLetterKey = "lending:notify:failed"

type popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type sender interface {
	Send(msg Message) error
}

// Worker drains the notification queue into the mailer. Messages that fail to
// decode or send are moved to the dead-letter list.
type Worker struct {
	rdb        popper
	mail       sender
	log        *zap.Logger
	queue      string
	deadLetter string
	wait       time.Duration
	backoff    time.Duration
}

func NewWorker(rdb popper, mail sender, log *zap.Logger, queue string) *Worker {
	if queue == "" {
		queue = DefaultQueueKey
	}
	return &Worker{rdb: rdb, mail: mail, log: log, queue: queue, deadLetter: DefaultDeadLetterKey, wait: 5 * time.Second, backoff: time.Second}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := w.Once(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("notify worker", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.backoff):
			}
		}
	}
}

// Once handles at most one queued message, reporting whether one was found.
func (w *Worker) Once(ctx context.Context) (bool, error) {
	res, err := w.rdb.BLPop(ctx, w.wait, w.queue).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// res = [key, value]
	if len(res) != 2 {
		return false, nil
	}
	raw := res[1]

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		w.log.Warn("drop undecodable notification", zap.Error(err))
		return true, w.bury(ctx, raw)
	}
	if err := w.mail.Send(msg); err != nil {
		w.log.Warn("order mail failed", zap.Uint("request_id", msg.RequestID), zap.Error(err))
		return true, w.bury(ctx, raw)
	}
	w.log.Info("order mail sent", zap.Uint("request_id", msg.RequestID), zap.Strings("to", msg.Recipients))
	return true, nil
}

// bury moves raw to the dead-letter list. The message is already off the queue,
// so when that push fails the payload is kept in the error log.
func (w *Worker) bury(ctx context.Context, raw string) error {
	if err := w.rdb.RPush(ctx, w.deadLetter, raw).Err(); err != nil {
		w.log.Error("dead-letter push failed, message lost from redis",
			zap.String("list", w.deadLetter), zap.String("payload", raw), zap.Error(err))
		return fmt.Errorf("dead-letter notification: %w", err)
	}
	return nil
}
