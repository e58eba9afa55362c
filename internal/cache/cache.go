package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/backend/pkg/logger"
)

const (
	listPrefix      = "list:"
	userListsPrefix = "lists:"
	searchPrefix    = "search:"
)

// ListKey holds the viewer-independent aggregate of one list.
func ListKey(listID uuid.UUID) string {
	return listPrefix + listID.String()
}

// UserListsKey holds the ordered ids of every list visible to a user.
func UserListsKey(userID uuid.UUID) string {
	return userListsPrefix + userID.String()
}

func SearchKey(query string) string {
	return searchPrefix + strings.ToLower(strings.TrimSpace(query))
}

// ListInvalidation returns the keys made stale by a mutation of one list:
// the list itself plus the list-of-lists entry of every affected user.
func ListInvalidation(listID uuid.UUID, users ...uuid.UUID) []string {
	keys := make([]string, 0, len(users)+1)
	keys = append(keys, ListKey(listID))
	seen := make(map[uuid.UUID]struct{}, len(users))
	for _, u := range users {
		if u == uuid.Nil {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		keys = append(keys, UserListsKey(u))
	}
	return keys
}

type Stats struct {
	Hits          int64
	Misses        int64
	Invalidations int64
}

// Cache stores JSON values in a Store. Backend failures are logged and
// treated as misses so callers always fall through to the database.
//
// Fills read from the database race with invalidations: a load that began
// before a write commits may finish after the write cleared its keys. Loaders
// take a Generation before querying and store through Fill, which discards
// the value when any invalidation ran in between.
type Cache struct {
	store Store
	ttl   time.Duration

	fillMu     sync.Mutex
	generation atomic.Uint64

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64
}

func New(store Store, ttl time.Duration) *Cache {
	if store == nil {
		store = NopStore{}
	}
	return &Cache{store: store, ttl: ttl}
}

func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("cache_get_failed", map[string]interface{}{"key": key, "error": err.Error()})
		c.misses.Add(1)
		return false
	}
	if !ok {
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn("cache_decode_failed", map[string]interface{}{"key": key, "error": err.Error()})
		_ = c.store.Delete(ctx, key)
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	return true
}

// SetJSON stores v under key; ttl <= 0 uses the cache default.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warn("cache_encode_failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		logger.Warn("cache_set_failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Generation identifies the invalidation epoch. Take it before loading the
// value that will be passed to Fill.
func (c *Cache) Generation() uint64 {
	return c.generation.Load()
}

// Fill stores v unless an invalidation happened after gen was taken. It
// reports whether the value was stored.
func (c *Cache) Fill(ctx context.Context, key string, v any, gen uint64) bool {
	c.fillMu.Lock()
	defer c.fillMu.Unlock()
	if c.generation.Load() != gen {
		return false
	}
	c.SetJSON(ctx, key, v, 0)
	return true
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	c.fillMu.Lock()
	defer c.fillMu.Unlock()
	c.generation.Add(1)
	c.invalidations.Add(int64(len(keys)))
	if err := c.store.Delete(ctx, keys...); err != nil {
		logger.Error("cache_invalidate_failed", err, map[string]interface{}{"keys": keys})
	}
}

// ForgetUser drops the list-of-lists entry of a user who signed out.
func (c *Cache) ForgetUser(ctx context.Context, userID uuid.UUID) {
	c.Invalidate(ctx, UserListsKey(userID))
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
	}
}
