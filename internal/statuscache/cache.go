// Package statuscache mirrors the session status string into Redis so
// operational tooling can watch a session without scraping logs. The mirror
// is write-only from this service and purely observational: a failed write
// never affects the session.
package statuscache

import (
	"context"
	"fmt"
	"time"

	"admissions-intake/internal/common/config"
	"admissions-intake/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Cache publishes session status strings to Redis under a session-scoped key
// with a bounded TTL.
type Cache struct {
	client    *redis.Client
	sessionID string
	ttl       time.Duration
	log       logger.Logger
}

// New creates a status cache for one session.
func New(cfg config.RedisConfig, sessionID string, log logger.Logger) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ttl := time.Duration(cfg.StatusTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Cache{
		client:    rdb,
		sessionID: sessionID,
		ttl:       ttl,
		log:       log,
	}
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client, sessionID string, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{client: client, sessionID: sessionID, ttl: ttl, log: log}
}

// Key returns the Redis key the status mirror writes to.
func (c *Cache) Key() string {
	return fmt.Sprintf("intake:session:%s:status", c.sessionID)
}

// Observe is registered as a session status observer. Failures are logged
// and swallowed.
func (c *Cache) Observe(status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, c.Key(), status, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("Failed to mirror session status to redis", map[string]interface{}{
			"session_id": c.sessionID,
		})
	}
}

// Ping tests the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
