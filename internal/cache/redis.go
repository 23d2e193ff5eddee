package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pandamarket/panda/internal/api"
)

// Redis is a Store shared by every client instance pointed at the same
// server and prefix. Last writer wins.
type Redis struct {
	client *redis.Client
	prefix string
}

// RedisConfig contains connection options for the Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix is prepended to both keys (default: "panda:session:").
	KeyPrefix string
}

// NewRedisFromConfig connects and pings the server.
func NewRedisFromConfig(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: failed to connect: %w", err)
	}
	return NewRedis(client, cfg.KeyPrefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = "panda:session:"
	}
	return &Redis{client: client, prefix: keyPrefix}
}

func (r *Redis) Load(ctx context.Context) (Entry, error) {
	vals, err := r.client.MGet(ctx, r.prefix+keyUser, r.prefix+keyLoggedOut).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("redis: failed to load session: %w", err)
	}
	return decodeEntry(asString(vals[0]), asString(vals[1]))
}

func (r *Redis) PutUser(ctx context.Context, user *api.User) error {
	if user == nil {
		return errors.New("cache: nil user")
	}
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.prefix+keyUser, raw, 0)
		p.Del(ctx, r.prefix+keyLoggedOut)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: failed to store user: %w", err)
	}
	return nil
}

func (r *Redis) PutLoggedOut(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.prefix+keyLoggedOut, "true", 0)
		p.Del(ctx, r.prefix+keyUser)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: failed to store tombstone: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
