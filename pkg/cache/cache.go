// Package cache holds the redis-backed availability cache. Entries carry a
// mandatory TTL so a missed invalidation self-corrects within one expiry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parkly/pkg/metrics"
	"parkly/pkg/model"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// AvailabilityKey builds the cache key for a facility's availability snapshot.
func AvailabilityKey(facilityID string) string {
	return fmt.Sprintf("availability:%s", facilityID)
}

// GetAvailability returns the cached snapshot for the facility, or nil on a
// miss. An unreadable entry counts as a miss so the caller recomputes.
func (s *Store) GetAvailability(ctx context.Context, facilityID string) (*model.Availability, error) {
	val, err := s.rdb.Get(ctx, AvailabilityKey(facilityID)).Result()
	if err == redis.Nil {
		metrics.IncCacheMiss()
		return nil, nil
	}
	if err != nil {
		metrics.IncCacheMiss()
		return nil, err
	}

	var availability model.Availability
	if err := json.Unmarshal([]byte(val), &availability); err != nil {
		metrics.IncCacheMiss()
		return nil, nil
	}

	metrics.IncCacheHit()
	return &availability, nil
}

// SetAvailability stores the snapshot under the facility key with the TTL.
func (s *Store) SetAvailability(ctx context.Context, availability *model.Availability) error {
	data, err := json.Marshal(availability)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, AvailabilityKey(availability.FacilityID), data, s.ttl).Err()
}

// InvalidateAvailability drops the facility's entry after a state change.
func (s *Store) InvalidateAvailability(ctx context.Context, facilityID string) error {
	metrics.IncCacheInvalidation()
	return s.rdb.Del(ctx, AvailabilityKey(facilityID)).Err()
}
