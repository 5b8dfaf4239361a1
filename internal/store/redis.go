package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms"
)

// RedisStore keeps each thread as a Redis list that expires after TTL of
// inactivity. A sorted set scored by last append time indexes the threads.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
	Index  string
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		TTL:    ttl,
		Prefix: "finmate:thread:",
		Index:  "finmate:threads",
	}
}

func (r *RedisStore) key(threadID string) string {
	return r.Prefix + threadID
}

func (r *RedisStore) Append(ctx context.Context, threadID string, msgs ...llms.MessageContent) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		payload, err := encodeMessage(msg)
		if err != nil {
			return err
		}
		values = append(values, payload)
	}

	key := r.key(threadID)
	pipe := r.Client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if r.TTL > 0 {
		pipe.Expire(ctx, key, r.TTL)
	}
	pipe.ZAdd(ctx, r.Index, redis.Z{Score: float64(time.Now().UnixMicro()), Member: threadID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, threadID string) ([]llms.MessageContent, error) {
	items, err := r.Client.LRange(ctx, r.key(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load: %w", err)
	}
	history := make([]llms.MessageContent, 0, len(items))
	for _, item := range items {
		msg, err := decodeMessage([]byte(item))
		if err != nil {
			return nil, err
		}
		history = append(history, msg)
	}
	return history, nil
}

// Threads drops index entries whose list has expired.
func (r *RedisStore) Threads(ctx context.Context) ([]string, error) {
	index := r.Index
	ids, err := r.Client.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis threads: %w", err)
	}
	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := r.Client.Exists(ctx, r.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis threads: %w", err)
		}
		if n == 0 {
			r.Client.ZRem(ctx, index, id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

func (r *RedisStore) Close() error {
	return r.Client.Close()
}
