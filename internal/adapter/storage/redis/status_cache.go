package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"funding-ledger/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// StatusCache implements ports.RoundStatusCache using Redis. Values are the
// JSON-encoded derived round state; staleness is bounded by the caller's TTL.
type StatusCache struct {
	client *goredis.Client
	prefix string
}

// NewStatusCache creates a new Redis-backed round status cache.
func NewStatusCache(client *goredis.Client) *StatusCache {
	return &StatusCache{
		client: client,
		prefix: "roundstatus:",
	}
}

// Get retrieves the cached derived state of a round.
// Returns nil, nil if the key does not exist.
func (c *StatusCache) Get(ctx context.Context, roundID uuid.UUID) (*ports.CachedRoundState, error) {
	val, err := c.client.Get(ctx, c.prefix+roundID.String()).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis status get: %w", err)
	}

	var state ports.CachedRoundState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("decode cached round state: %w", err)
	}
	return &state, nil
}

// Set stores the derived state of a round with TTL.
func (c *StatusCache) Set(ctx context.Context, roundID uuid.UUID, state ports.CachedRoundState, ttl time.Duration) error {
	val, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode round state: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+roundID.String(), val, ttl).Err(); err != nil {
		return fmt.Errorf("redis status set: %w", err)
	}
	return nil
}

// Invalidate drops the cached state after a write to the contribution log.
func (c *StatusCache) Invalidate(ctx context.Context, roundID uuid.UUID) error {
	if err := c.client.Del(ctx, c.prefix+roundID.String()).Err(); err != nil {
		return fmt.Errorf("redis status del: %w", err)
	}
	return nil
}
