package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is an optional Redis-backed byte cache for fetched background-music
// tracks. Music URLs repeat across requests and the bytes behind them are
// immutable, so caching them keeps the pipeline stateless while skipping
// repeat downloads. A nil *Cache is valid and means "no cache".
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

const musicTTL = 24 * time.Hour

// New connects to Redis and verifies the connection. Callers treat a
// connection failure as "run without a cache".
func New(redisURL string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client, ttl: musicTTL}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func musicKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "music:" + hex.EncodeToString(sum[:])
}

// GetMusic returns cached bytes for a music URL, or (nil, false) on any
// miss or error. Cache errors are never fatal — the caller just fetches.
func (c *Cache) GetMusic(ctx context.Context, url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, musicKey(url)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[Cache] music get failed: %v", err)
		return nil, false
	}
	return data, true
}

// PutMusic stores fetched music bytes. Best-effort.
func (c *Cache) PutMusic(ctx context.Context, url string, data []byte) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, musicKey(url), data, c.ttl).Err(); err != nil {
		log.Printf("[Cache] music put failed: %v", err)
	}
}
