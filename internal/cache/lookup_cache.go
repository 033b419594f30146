package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/observer"
	"gitlab.com/timkado/api/wa-automations/internal/storage"
)

const (
	unitPrefix    = "unit:"
	channelPrefix = "units_with_channel:"
	barberPrefix  = "barber:"
	servicePrefix = "service:"
)

// LookupCache holds units and catalog names between runs. Settings, candidates
// and delivery logs are never cached.
type LookupCache struct {
	store  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewLookupCache creates a cache whose entries expire after ttl.
// A zero ttl disables caching.
func NewLookupCache(ttl, cleanupInterval time.Duration) *LookupCache {
	if ttl <= 0 {
		return &LookupCache{}
	}
	return &LookupCache{store: gocache.New(ttl, cleanupInterval)}
}

func (c *LookupCache) get(kind, key string) (interface{}, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	v, ok := c.store.Get(key)
	if ok {
		c.hits.Add(1)
		observer.IncCacheLookup(kind, "hit")
	} else {
		c.misses.Add(1)
		observer.IncCacheLookup(kind, "miss")
	}
	return v, ok
}

func (c *LookupCache) set(key string, v interface{}) {
	if c == nil || c.store == nil {
		return
	}
	c.store.SetDefault(key, v)
}

// Stats returns hit and miss counters since creation
func (c *LookupCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Flush drops every entry
func (c *LookupCache) Flush() {
	if c != nil && c.store != nil {
		c.store.Flush()
	}
}

// cachedUnitRepo decorates a UnitRepo
type cachedUnitRepo struct {
	inner storage.UnitRepo
	cache *LookupCache
}

// NewCachedUnitRepo wraps inner so unit lookups are served from c when fresh
func NewCachedUnitRepo(inner storage.UnitRepo, c *LookupCache) storage.UnitRepo {
	return &cachedUnitRepo{inner: inner, cache: c}
}

func (r *cachedUnitRepo) FindByID(ctx context.Context, unitID string) (*model.Unit, error) {
	if v, ok := r.cache.get("unit", unitPrefix+unitID); ok {
		u := v.(model.Unit)
		return &u, nil
	}
	unit, err := r.inner.FindByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	r.cache.set(unitPrefix+unitID, *unit)
	return unit, nil
}

func (r *cachedUnitRepo) FindWithChannelByCompany(ctx context.Context, companyID string) ([]model.Unit, error) {
	if v, ok := r.cache.get("units_with_channel", channelPrefix+companyID); ok {
		return append([]model.Unit(nil), v.([]model.Unit)...), nil
	}
	units, err := r.inner.FindWithChannelByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	r.cache.set(channelPrefix+companyID, append([]model.Unit(nil), units...))
	return units, nil
}

// cachedCatalogRepo decorates a CatalogRepo with per-id name caching
type cachedCatalogRepo struct {
	inner storage.CatalogRepo
	cache *LookupCache
}

// NewCachedCatalogRepo wraps inner so only ids missing from c hit the database
func NewCachedCatalogRepo(inner storage.CatalogRepo, c *LookupCache) storage.CatalogRepo {
	return &cachedCatalogRepo{inner: inner, cache: c}
}

func (r *cachedCatalogRepo) BarberNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.names(ctx, "barber", barberPrefix, ids, r.inner.BarberNames)
}

func (r *cachedCatalogRepo) ServiceNames(ctx context.Context, ids []string) (map[string]string, error) {
	return r.names(ctx, "service", servicePrefix, ids, r.inner.ServiceNames)
}

func (r *cachedCatalogRepo) names(ctx context.Context, kind, prefix string, ids []string,
	load func(context.Context, []string) (map[string]string, error)) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	var missing []string
	for _, id := range ids {
		if v, ok := r.cache.get(kind, prefix+id); ok {
			names[id] = v.(string)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return names, nil
	}

	loaded, err := load(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, name := range loaded {
		names[id] = name
		r.cache.set(prefix+id, name)
	}
	return names, nil
}
