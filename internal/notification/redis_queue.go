package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// RedisQueue is a FIFO list of JSON-encoded notifications.
type RedisQueue struct {
	client redis.Cmdable
	key    string
}

// NewRedisQueue builds a queue stored under key.
func NewRedisQueue(client redis.Cmdable, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue pushes n to the head of the list.
func (q *RedisQueue) Enqueue(ctx context.Context, n domain.Notification) error {
	if err := validate(n); err != nil {
		return err
	}
	payload, err := encode(n)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Dequeue blocks up to timeout for the oldest notification. It returns nil
// without error when the wait times out.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Notification, error) {
	result, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP replies with [key, value].
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(result))
	}
	return decode([]byte(result[1]))
}

func encode(n domain.Notification) ([]byte, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return payload, nil
}

func decode(raw []byte) (*domain.Notification, error) {
	var n domain.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	if err := validate(n); err != nil {
		return nil, err
	}
	return &n, nil
}
