// internal/cache/leaderboard.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emre-k/studyhall/internal/models"
)

// Leaderboard caches leaderboard snapshots in Redis so the bot's frequent
// leaderboard polls don't hit postgres every time. A nil *Leaderboard is a
// valid no-op cache; every method tolerates it.
type Leaderboard struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect initializes a Redis-backed cache from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - LEADERBOARD_TTL (optional duration, default 30s)
func Connect(ctx context.Context) (*Leaderboard, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	ttl := 30 * time.Second
	if raw := os.Getenv("LEADERBOARD_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse LEADERBOARD_TTL: %w", err)
		}
		ttl = d
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Leaderboard{rdb: rdb, ttl: ttl}, nil
}

func key(lobbyID string) string {
	return "leaderboard:" + lobbyID
}

// Get returns the cached snapshot for the lobby, or ok=false on a miss.
// Redis faults degrade to a miss; the caller falls through to the store.
func (c *Leaderboard) Get(ctx context.Context, lobbyID string) ([]models.Standing, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key(lobbyID)).Bytes()
	if err != nil {
		return nil, false
	}
	var standings []models.Standing
	if err := json.Unmarshal(data, &standings); err != nil {
		return nil, false
	}
	return standings, true
}

// Set stores a snapshot under the configured TTL.
func (c *Leaderboard) Set(ctx context.Context, lobbyID string, standings []models.Standing) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(standings)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	return c.rdb.Set(ctx, key(lobbyID), data, c.ttl).Err()
}

// Invalidate drops the snapshot after a mutating operation.
func (c *Leaderboard) Invalidate(ctx context.Context, lobbyID string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, key(lobbyID)).Err()
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
