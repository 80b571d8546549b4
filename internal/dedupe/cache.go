// Package dedupe provides a bounded TTL anti-replay index: a redis-backed
// cache keyed by a digest of a submission's (blockData, nonce, path) triple,
// so a miner cannot force the CPU-bound validation pipeline to re-run an
// already-classified submission. This is an index of submission digests,
// not of blocks or shares — it never grows unbounded and never answers "was
// this block ever found" on its own.
//
// It also backs the abuse-protection IP/address blacklist and whitelist,
// grounded on the same key-prefix/set pattern the pool's Redis client used
// for miner blacklisting.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/zeebo/blake3"

	"github.com/tos-network/powvalidator/internal/util"
)

const (
	keyPrefix    = "powvalidator:"
	keySeenSet   = keyPrefix + "seen:"
	keyBlacklist = keyPrefix + "blacklist"
	keyWhitelist = keyPrefix + "whitelist"
)

// Cache wraps a redis client used for anti-replay dedupe and abuse-list
// persistence.
type Cache struct {
	client *redis.Client
	ctx    context.Context
}

// NewCache connects to a redis instance at addr.
func NewCache(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("dedupe: redis connection failed: %w", err)
	}

	util.Info("Connected to dedupe cache at ", addr)
	return &Cache{client: client, ctx: ctx}, nil
}

// Close releases the underlying redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Key derives the cache key for a submission from its raw hex fields. It
// uses blake3 purely as a fast, well-distributed index hash — this is never
// the protocol hash and never touches a verdict.
func Key(blockData, nonce, path string) string {
	h := blake3.New()
	h.Write([]byte(blockData))
	h.Write([]byte(nonce))
	h.Write([]byte(path))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Seen records key as seen and reports whether it had already been
// recorded, atomically, so two concurrent submissions of the same triple
// cannot both be treated as novel. A cache that is down or errors is
// treated as "not seen" — dedupe is an optimization, never a source of
// truth, and must never change a verdict.
func (c *Cache) Seen(key string, ttl time.Duration) bool {
	if c == nil {
		return false
	}
	ok, err := c.client.SetNX(c.ctx, keySeenSet+key, 1, ttl).Result()
	if err != nil {
		util.Warnf("dedupe cache unavailable, skipping replay check: %v", err)
		return false
	}
	return !ok
}

// AddToBlacklist adds address to the blacklist set.
func (c *Cache) AddToBlacklist(address string) error {
	if c == nil {
		return nil
	}
	return c.client.SAdd(c.ctx, keyBlacklist, address).Err()
}

// RemoveFromBlacklist removes address from the blacklist set.
func (c *Cache) RemoveFromBlacklist(address string) error {
	if c == nil {
		return nil
	}
	return c.client.SRem(c.ctx, keyBlacklist, address).Err()
}

// GetBlacklist returns all blacklisted entries.
func (c *Cache) GetBlacklist() ([]string, error) {
	if c == nil {
		return nil, nil
	}
	return c.client.SMembers(c.ctx, keyBlacklist).Result()
}

// AddToWhitelist adds ip to the whitelist set.
func (c *Cache) AddToWhitelist(ip string) error {
	if c == nil {
		return nil
	}
	return c.client.SAdd(c.ctx, keyWhitelist, ip).Err()
}

// RemoveFromWhitelist removes ip from the whitelist set.
func (c *Cache) RemoveFromWhitelist(ip string) error {
	if c == nil {
		return nil
	}
	return c.client.SRem(c.ctx, keyWhitelist, ip).Err()
}

// GetWhitelist returns all whitelisted entries.
func (c *Cache) GetWhitelist() ([]string, error) {
	if c == nil {
		return nil, nil
	}
	return c.client.SMembers(c.ctx, keyWhitelist).Result()
}
