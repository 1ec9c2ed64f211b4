package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/HadesClient/hades-web/internal/pkg/config"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// Cache is a thin key/value wrapper around a Redis (or Dragonfly) client.
type Cache struct {
	client *redis.Client
}

// New connects to the cache server. A failed ping is logged, not fatal:
// callers fall back to the database on cache errors.
func New(cfg *config.Config) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.CacheHost, cfg.CachePort),
		Password: cfg.CachePassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}

	return &Cache{client: client}
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Client exposes the underlying client for components that need raw access.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Set stores a value in the cache with the given key and expiration time
func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// Delete removes a value from the cache by key
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// limiterDatabase keeps rate limiter counters apart from cached values in DB 0.
const limiterDatabase = 1

// NewLimiterStorage returns a fiber.Storage on the same server for the
// rate limiter middleware.
func NewLimiterStorage(cfg *config.Config) *redisstorage.Storage {
	return redisstorage.New(redisstorage.Config{
		Host:     cfg.CacheHost,
		Port:     cfg.CachePort,
		Password: cfg.CachePassword,
		Database: limiterDatabase,
		Reset:    false,
	})
}
