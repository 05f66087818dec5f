package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iconforge/iconforge/internal/model"
)

const (
	// communityKeyPrefix is the Redis key prefix for community samples,
	// keyed by requested limit.
	communityKeyPrefix = "community:sample:"
	// communityTTL keeps the sampled feed stable briefly without pinning
	// it long enough to feel static.
	communityTTL = 30 * time.Second
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetCommunitySample retrieves a cached community sample for a limit.
// Returns (nil, ErrCacheMiss) when absent; corrupted entries are treated
// as misses.
func (c *Cache) GetCommunitySample(ctx context.Context, limit int) ([]*model.Icon, error) {
	key := communityKeyPrefix + strconv.Itoa(limit)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var icons []*model.Icon
	if err := json.Unmarshal(data, &icons); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}

	return icons, nil
}

// SetCommunitySample caches a community sample for a limit.
func (c *Cache) SetCommunitySample(ctx context.Context, limit int, icons []*model.Icon) error {
	key := communityKeyPrefix + strconv.Itoa(limit)

	data, err := json.Marshal(icons)
	if err != nil {
		return fmt.Errorf("marshal community sample: %w", err)
	}

	return c.client.Set(ctx, key, data, communityTTL).Err()
}
