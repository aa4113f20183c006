package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const quoteCacheTTL = 60 * time.Second

// QuoteCache keeps recent availability answers in redis. Quotes are
// advisory reads, so bounded staleness is acceptable: entries expire on
// a short TTL, and every write path bumps a per-room-type version that
// is part of the cache key, so a write is visible to the very next
// read. All cache failures degrade to a direct ledger read, never to an
// error.
type QuoteCache struct {
	redis *redis.Client
	log   *zap.Logger
}

func NewQuoteCache(client *redis.Client) *QuoteCache {
	return &QuoteCache{redis: client, log: zap.L().Named("quotecache")}
}

func (c *QuoteCache) versionKey(roomTypeID uint) string {
	return fmt.Sprintf("avail:ver:%d", roomTypeID)
}

func (c *QuoteCache) version(ctx context.Context, roomTypeID uint) string {
	if c == nil || c.redis == nil {
		return "0"
	}
	version, err := c.redis.Get(ctx, c.versionKey(roomTypeID)).Result()
	if err != nil {
		return "0"
	}
	return version
}

func (c *QuoteCache) checkKey(ctx context.Context, roomTypeID uint, checkIn, checkOut string, units, adults, children int) string {
	return fmt.Sprintf("avail:check:%d:%s:%s:%s:%d:%d:%d",
		roomTypeID, c.version(ctx, roomTypeID), checkIn, checkOut, units, adults, children)
}

// GetCheck returns a cached availability answer, or nil on any miss.
func (c *QuoteCache) GetCheck(ctx context.Context, roomTypeID uint, checkIn, checkOut string, units, adults, children int) *AvailabilityCheck {
	if c == nil || c.redis == nil {
		return nil
	}
	payload, err := c.redis.Get(ctx, c.checkKey(ctx, roomTypeID, checkIn, checkOut, units, adults, children)).Bytes()
	if err != nil {
		return nil
	}
	var check AvailabilityCheck
	if err := json.Unmarshal(payload, &check); err != nil {
		c.log.Debug("dropping undecodable cache entry", zap.Error(err))
		return nil
	}
	return &check
}

// SetCheck stores an availability answer, best effort.
func (c *QuoteCache) SetCheck(ctx context.Context, roomTypeID uint, checkIn, checkOut string, units, adults, children int, check *AvailabilityCheck) {
	if c == nil || c.redis == nil {
		return
	}
	payload, err := json.Marshal(check)
	if err != nil {
		return
	}
	key := c.checkKey(ctx, roomTypeID, checkIn, checkOut, units, adults, children)
	if err := c.redis.Set(ctx, key, payload, quoteCacheTTL).Err(); err != nil {
		c.log.Debug("cache set failed", zap.Error(err))
	}
}

// Bump invalidates every cached answer for a room type by advancing its
// version. Called on every write path: commit, cancel, bulk revision.
func (c *QuoteCache) Bump(ctx context.Context, roomTypeID uint) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, c.versionKey(roomTypeID)).Err(); err != nil {
		c.log.Debug("cache version bump failed", zap.Error(err))
	}
}
