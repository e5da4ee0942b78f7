package soil

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quietcreek/soil-intel-service/internal/domain"
	"github.com/quietcreek/soil-intel-service/internal/geo"
	"github.com/quietcreek/soil-intel-service/internal/store"
)

const (
	cacheKey          = "soilgrids_cache"
	cacheTTL          = 7 * 24 * time.Hour
	cacheMaxEntries   = 20
	cacheRadiusMeters = 500.0
)

// cacheEntry is one cached soil profile, keyed by where it was fetched.
type cacheEntry struct {
	Profile     domain.SoilProfile `json:"profile"`
	Lat         float64            `json:"lat"`
	Lon         float64            `json:"lon"`
	TimestampMs int64              `json:"timestampMs"`
}

// CacheInfo summarizes the cache state for the admin endpoint.
type CacheInfo struct {
	Entries  int   `json:"entries"`
	Capacity int   `json:"capacity"`
	OldestMs int64 `json:"oldestMs,omitempty"`
	NewestMs int64 `json:"newestMs,omitempty"`
}

// GeoCache is a distance- and TTL-bounded spatial cache of soil profiles.
// It is not an exact-match cache: a lookup returns the first non-expired
// entry within 500 m of the requested point, since soil composition varies
// slowly at that scale. State is persisted through the key-value store;
// storage failures and corrupted payloads degrade to an empty cache.
type GeoCache struct {
	mu      sync.Mutex
	entries []cacheEntry
	kv      store.KeyValueStore
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewGeoCache loads any persisted entries and returns the cache.
func NewGeoCache(kv store.KeyValueStore, clock clockwork.Clock, logger *slog.Logger) *GeoCache {
	c := &GeoCache{kv: kv, clock: clock, logger: logger}

	raw, ok, err := kv.Get(cacheKey)
	if err != nil {
		logger.Warn("soil cache load failed, starting empty", "error", err)
		return c
	}
	if ok {
		if err := json.Unmarshal(raw, &c.entries); err != nil {
			logger.Warn("soil cache corrupted, starting empty", "error", err)
			c.entries = nil
		}
	}
	return c
}

// Find returns the first fresh entry within the cache radius.
func (c *GeoCache) Find(lat, lon float64) (domain.SoilProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for _, e := range c.entries {
		if now.Sub(time.UnixMilli(e.TimestampMs)) > cacheTTL {
			continue
		}
		if geo.HaversineMeters(lat, lon, e.Lat, e.Lon) <= cacheRadiusMeters {
			return e.Profile, true
		}
	}
	return domain.SoilProfile{}, false
}

// Add stores a freshly fetched profile and prunes expired and surplus
// entries, keeping the newest 20.
func (c *GeoCache) Add(lat, lon float64, profile domain.SoilProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.entries = append(c.entries, cacheEntry{
		Profile:     profile,
		Lat:         lat,
		Lon:         lon,
		TimestampMs: now.UnixMilli(),
	})

	kept := c.entries[:0]
	for _, e := range c.entries {
		if now.Sub(time.UnixMilli(e.TimestampMs)) <= cacheTTL {
			kept = append(kept, e)
		}
	}
	if len(kept) > cacheMaxEntries {
		kept = kept[len(kept)-cacheMaxEntries:]
	}
	c.entries = kept

	c.persistLocked()
}

// Clear drops all entries and the persisted copy.
func (c *GeoCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	if err := c.kv.Delete(cacheKey); err != nil {
		c.logger.Warn("soil cache clear failed", "error", err)
	}
}

// Info reports entry count and age bounds.
func (c *GeoCache) Info() CacheInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := CacheInfo{Entries: len(c.entries), Capacity: cacheMaxEntries}
	for _, e := range c.entries {
		if info.OldestMs == 0 || e.TimestampMs < info.OldestMs {
			info.OldestMs = e.TimestampMs
		}
		if e.TimestampMs > info.NewestMs {
			info.NewestMs = e.TimestampMs
		}
	}
	return info
}

// persistLocked writes the entries through the store. The cache contract is
// best-effort: a storage error is logged and deliberately discarded.
func (c *GeoCache) persistLocked() {
	raw, err := json.Marshal(c.entries)
	if err != nil {
		c.logger.Warn("soil cache marshal failed", "error", err)
		return
	}
	if err := c.kv.Set(cacheKey, raw); err != nil {
		c.logger.Warn("soil cache persist failed", "error", err)
	}
}
