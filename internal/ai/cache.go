package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// VectorCache stores embeddings keyed by the embedded text. Lookups are
// batched so one search costs one round trip each way.
type VectorCache interface {
	// GetMany returns one entry per text; a nil entry is a miss.
	GetMany(ctx context.Context, texts []string) ([][]float32, error)
	SetMany(ctx context.Context, texts []string, vecs [][]float32) error
}

type noopCache struct{}

func (noopCache) GetMany(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}
func (noopCache) SetMany(context.Context, []string, [][]float32) error { return nil }

// RedisCache is a VectorCache backed by Redis. Keys carry the embedding model
// and a digest of the text, so an edited book is re-embedded.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

const defaultVectorTTL = 7 * 24 * time.Hour

// NewRedisCache creates a cache for vectors produced by model.
func NewRedisCache(client *redis.Client, model string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultVectorTTL
	}
	return &RedisCache{
		client: client,
		prefix: "library:embedding:" + model + ":",
		ttl:    ttl,
	}
}

func (c *RedisCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:16])
}

// GetMany reads every key with a single MGET. Entries that fail to decode
// count as misses and are overwritten on the next SetMany.
func (c *RedisCache) GetMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return out, err
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var vec []float32
		if err := jsoniter.UnmarshalFromString(raw, &vec); err != nil {
			continue
		}
		out[i] = vec
	}
	return out, nil
}

// SetMany writes all vectors in one pipeline.
func (c *RedisCache) SetMany(ctx context.Context, texts []string, vecs [][]float32) error {
	if len(texts) != len(vecs) {
		return fmt.Errorf("embedding cache: %d texts for %d vectors", len(texts), len(vecs))
	}
	if len(texts) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, t := range texts {
			data, err := jsoniter.Marshal(vecs[i])
			if err != nil {
				return fmt.Errorf("embedding cache: failed to marshal: %w", err)
			}
			pipe.Set(ctx, c.key(t), data, c.ttl)
		}
		return nil
	})
	return err
}

func redisOptions(addr, password string, db int) *redis.Options {
	return &redis.Options{
		Addr:                  addr,
		Password:              password,
		DB:                    db,
		DialTimeout:           time.Second,
		ReadTimeout:           500 * time.Millisecond,
		WriteTimeout:          500 * time.Millisecond,
		MaxRetries:            1,
		ContextTimeoutEnabled: true,
	}
}

// NewRedisClient connects and pings the server. Commands honor context
// deadlines so a stalled server cannot hold a request.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(redisOptions(addr, password, db))
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
