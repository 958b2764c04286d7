package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainstats "github.com/pantrykit/pantry-ui-api/internal/domain/stats"
	"github.com/redis/go-redis/v9"
)

const defaultSnapshotKey = "stats:latest"

// SnapshotCache persists the most recent good statistics snapshot so plain
// request/response reads can be served between poll refreshes, and so a
// restarted process has a last-known value before its first fetch lands.
// The snapshot is always written wholesale, never patched.
type SnapshotCache struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewSnapshotCache creates a SnapshotCache. A non-positive TTL stores the
// snapshot without expiry.
func NewSnapshotCache(client redis.UniversalClient, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		client: client,
		key:    defaultSnapshotKey,
		ttl:    ttl,
	}
}

// Store replaces the cached snapshot.
func (c *SnapshotCache) Store(ctx context.Context, snap domainstats.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.key, data, ttl).Err()
}

// Load returns the cached snapshot and whether one was present.
func (c *SnapshotCache) Load(ctx context.Context) (domainstats.Snapshot, bool, error) {
	data, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainstats.Snapshot{}, false, nil
		}
		return domainstats.Snapshot{}, false, fmt.Errorf("redis get: %w", err)
	}

	var snap domainstats.Snapshot
	if unmarshalErr := json.Unmarshal([]byte(data), &snap); unmarshalErr != nil {
		return domainstats.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", unmarshalErr)
	}
	return snap, true, nil
}
