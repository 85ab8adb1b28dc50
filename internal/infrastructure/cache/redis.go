package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Store is a cache-aside front for preference and quiet-hours lookups.
// It mirrors the donor's CacheStore shape (Get/Set/Delete over a
// structured key) but drops its multi-store registry, DB-persisted
// statistics, compression, and encryption layers: this service needs
// one Redis-backed store in front of two small read-mostly lookups,
// not a pluggable cache subsystem.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// Config holds Redis configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewStore creates a new Redis-backed store. Returns nil when no
// address is configured; callers must check Configured() and fall
// through to the repository directly when it reports false.
func NewStore(cfg Config, log zerolog.Logger) *Store {
	if cfg.Addr == "" {
		return nil
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Store{client: client, ttl: ttl, log: log.With().Str("component", "cache_store").Logger()}
}

func (s *Store) Configured() bool {
	return s != nil && s.client != nil
}

// Key is a structured cache key, following the donor's
// prefix/namespace/id convention without the tag/param machinery this
// service has no use for.
type Key struct {
	Namespace string
	ID        string
}

// Build renders a Key into a flat Redis key string.
func (k Key) Build() string {
	return fmt.Sprintf("notification:%s:%s", k.Namespace, k.ID)
}

// Hash derives a short stable suffix for composite ids, following the
// donor's HashKey convention.
func Hash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])[:16]
}

// GetJSON fetches and unmarshals a cached value. It reports (false,
// nil) on a clean miss so callers can fall through to the repository
// without treating a miss as an error.
func (s *Store) GetJSON(ctx context.Context, key Key, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key.Build()).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache value unmarshal failed: %w", err)
	}
	return true, nil
}

// SetJSON marshals and stores a value under key with the store's
// default TTL. Errors are returned, not swallowed, so callers can
// decide whether a cache-write failure should be logged or ignored.
func (s *Store) SetJSON(ctx context.Context, key Key, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache value marshal failed: %w", err)
	}
	if err := s.client.Set(ctx, key.Build(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Invalidate removes a cached value, used after preference or
// quiet-hours updates so stale reads never outlive the TTL unnecessarily.
func (s *Store) Invalidate(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.Build()).Err(); err != nil {
		return fmt.Errorf("cache invalidate failed: %w", err)
	}
	return nil
}

// Ping checks connectivity to Redis, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
