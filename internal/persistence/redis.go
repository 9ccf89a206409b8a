package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
)

const redisPingTimeout = 3 * time.Second

// Redis wraps the go-redis client shared by the notification queue and the
// escalation lock. Every key it hands out carries the configured prefix.
type Redis struct {
	Client *redis.Client
	prefix string
	// reachable records the startup ping.
	reachable bool
}

// NewRedis connects to Redis using the provided configuration. An unreachable
// server is not an error; callers check Reachable and degrade.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := &Redis{Client: client, prefix: cfg.KeyPrefix}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		logger.Warn("unable to reach redis; queue and escalation lock disabled",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		r.reachable = true
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.String("key_prefix", cfg.KeyPrefix))
	}
	return r
}

// Reachable reports whether the startup ping succeeded.
func (r *Redis) Reachable() bool {
	return r != nil && r.reachable
}

// Key namespaces name under the configured prefix.
func (r *Redis) Key(name string) string {
	if r == nil {
		return name
	}
	return r.prefix + name
}

// Locker returns the lock manager used to serialise escalation passes.
func (r *Redis) Locker() *Locker {
	return NewLocker(r.Client, r.Key("lock:"))
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
