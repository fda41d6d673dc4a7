package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"thinkr-backend/internal/logger"
	"thinkr-backend/internal/models"
	"thinkr-backend/internal/rag"
)

const cacheKeyPrefix = "retrieval:"

// Cache stores retrieval results by key. A miss returns found=false and no error.
type Cache interface {
	Get(ctx context.Context, key string) (docs []models.Document, found bool, err error)
	Set(ctx context.Context, key string, docs []models.Document) error
	// Purge drops every cached retrieval result and reports how many were removed.
	Purge(ctx context.Context) (int, error)
}

// RedisCache keeps retrieval results in Redis as JSON.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.Document, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, false, fmt.Errorf("decode cached documents: %w", err)
	}
	return docs, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, docs []models.Document) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Purge scans for retrieval keys and unlinks them in batches.
func (c *RedisCache) Purge(ctx context.Context) (int, error) {
	removed := 0
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 500).Iterator()
	batch := make([]string, 0, 500)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}

// MemoryCache is the in-process fallback when no Redis is configured.
type MemoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]models.Document, bool, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	docs, ok := v.([]models.Document)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cached value type %T", v)
	}
	return append([]models.Document(nil), docs...), true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, docs []models.Document) error {
	c.items.SetDefault(key, append([]models.Document(nil), docs...))
	return nil
}

func (c *MemoryCache) Purge(ctx context.Context) (int, error) {
	n := c.items.ItemCount()
	c.items.Flush()
	return n, nil
}

// CachedRetriever serves repeated search queries from a cache. Cache failures
// are logged and never fail the search; retriever errors are never cached.
type CachedRetriever struct {
	next  rag.Retriever
	cache Cache
	log   logger.ILogger
}

func NewCachedRetriever(next rag.Retriever, cache Cache, log logger.ILogger) *CachedRetriever {
	return &CachedRetriever{next: next, cache: cache, log: log}
}

func (r *CachedRetriever) SimilaritySearch(ctx context.Context, query string) ([]models.Document, error) {
	key := CacheKey(query)

	docs, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Warn("retrieval-cache", "cache read failed", map[string]interface{}{"error": err.Error()})
	} else if found {
		return docs, nil
	}

	docs, err = r.next.SimilaritySearch(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, docs); err != nil {
		r.log.Warn("retrieval-cache", "cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return docs, nil
}

// CacheKey derives a fixed-length key from a search query.
func CacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
