package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	slotKeyPrefix     = "folio:slot:"
	slotChangedPrefix = "folio:slot:changed:"
)

func slotKey(key string) string {
	return slotKeyPrefix + key
}

func slotChangedChannel(key string) string {
	return slotChangedPrefix + key
}

var _ Slot = (*RedisSlot)(nil)

// RedisSlot stores each slot as a plain string key and announces writes on a
// pub/sub channel next to it.
type RedisSlot struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlot connects to the server at redisURL. Values expire ttl after their
// last write; zero keeps them forever.
func NewRedisSlot(redisURL string, ttl time.Duration) (*RedisSlot, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisSlot{client: client, ttl: ttl}, nil
}

// NewRedisSlotWithClient wraps an existing client.
func NewRedisSlotWithClient(client *redis.Client, ttl time.Duration) *RedisSlot {
	return &RedisSlot{client: client, ttl: ttl}
}

func (r *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	res := r.client.Get(ctx, slotKey(key))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, ErrSlotEmpty
		}
		return nil, res.Err()
	}

	return res.Bytes()
}

func (r *RedisSlot) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if err := p.Set(ctx, slotKey(key), value, r.ttl).Err(); err != nil {
			return err
		}

		return p.Publish(ctx, slotChangedChannel(key), len(value)).Err()
	})

	return err
}

func (r *RedisSlot) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	pubsub := r.client.Subscribe(ctx, slotChangedChannel(key))

	// wait for the subscription confirmation so no write after Watch is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	messages := pubsub.Channel()

	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				logrus.Debugf("closing slot subscription %s: %v", key, err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				notify(out)
			}
		}
	}()

	return out, nil
}

func (r *RedisSlot) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, slotKey(key)).Err()
}

// Ping checks if Redis is reachable.
func (r *RedisSlot) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisSlot) Close() error {
	return r.client.Close()
}
