package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "retailagent:thread:"

// redisClient is the subset of *redis.Client the store needs.
type redisClient interface {
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration
	MaxMessages int
}

// Redis stores each thread as a list of JSON-encoded messages with a sliding
// expiry.
type Redis struct {
	client      redisClient
	ttl         time.Duration
	maxMessages int
}

func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisWithClient(client, cfg.TTL, cfg.MaxMessages), nil
}

func NewRedisWithClient(client redisClient, ttl time.Duration, maxMessages int) *Redis {
	return &Redis{client: client, ttl: ttl, maxMessages: maxMessages}
}

func (r *Redis) Load(ctx context.Context, threadID string) ([]*schema.Message, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrThreadIDRequired
	}
	raw, err := r.client.LRange(ctx, redisKeyPrefix+threadID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load thread %q: %w", threadID, err)
	}
	history := make([]*schema.Message, 0, len(raw))
	for _, item := range raw {
		var msg schema.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode thread %q message: %w", threadID, err)
		}
		history = append(history, &msg)
	}
	return trim(history, r.maxMessages), nil
}

func (r *Redis) Append(ctx context.Context, threadID string, msgs ...*schema.Message) error {
	if strings.TrimSpace(threadID) == "" {
		return ErrThreadIDRequired
	}
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		encoded, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode thread %q message: %w", threadID, err)
		}
		values = append(values, string(encoded))
	}

	key := redisKeyPrefix + threadID
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if r.maxMessages > 0 {
			pipe.LTrim(ctx, key, int64(-r.maxMessages), -1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append thread %q: %w", threadID, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
