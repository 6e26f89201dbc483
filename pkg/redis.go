package pkg

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes kitchen events on Redis pub/sub channels named
// after the topic.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(ctx context.Context, url string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPublisher{rdb: rdb}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	return p.rdb.Publish(ctx, topic, msg).Err()
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
