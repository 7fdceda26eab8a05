package plan

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"tileview/internal/nav"
	"tileview/internal/view"
)

// Key is the viewport state a plan depends on.
type Key struct {
	Focus    nav.ContinuousMapCoordinate
	Overdraw int
	Bounds   view.Rect
	ZLayer   int
	Tile     view.Size
}

// KeyOf captures the planning state of v.
func KeyOf(v view.Viewport) Key {
	return Key{
		Focus:    v.Focus(),
		Overdraw: v.PixelOverdraw(),
		Bounds:   v.PixelBounds(),
		ZLayer:   v.ZLayer(),
		Tile:     v.TileSize(),
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%g,%g|%d|%d,%d,%d,%d|%d|%dx%d",
		k.Focus.X, k.Focus.Y, k.Overdraw,
		k.Bounds.X, k.Bounds.Y, k.Bounds.Width, k.Bounds.Height,
		k.ZLayer, k.Tile.Width, k.Tile.Height)
}

type cached struct {
	key   Key
	plans []QueryPlan
}

// CachingPlanner remembers the last result of the wrapped planner and
// returns it unchanged while the viewport state stays the same. The
// returned slice is shared between calls and must not be modified.
type CachingPlanner struct {
	inner Planner
	last  atomic.Pointer[cached]
}

func NewCachingPlanner(inner Planner) *CachingPlanner {
	return &CachingPlanner{inner: inner}
}

func (c *CachingPlanner) Plan(v view.Viewport) []QueryPlan {
	k := KeyOf(v)
	if e := c.last.Load(); e != nil && e.key == k {
		return e.plans
	}
	plans := c.inner.Plan(v)
	c.last.Store(&cached{key: k, plans: plans})
	return plans
}

// Invalidate drops the remembered result.
func (c *CachingPlanner) Invalidate() {
	c.last.Store(nil)
}

// SharedCacheConfig sizes a SharedCache.
type SharedCacheConfig struct {
	MaxEntries int64
	TTL        time.Duration
}

// SharedCache is a process-wide plan cache. Sessions looking at the same
// map from the same place reuse one another's plans.
type SharedCache struct {
	cache *ristretto.Cache[string, []QueryPlan]
	ttl   time.Duration
}

func NewSharedCache(cfg SharedCacheConfig) (*SharedCache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 4096
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	cache, err := ristretto.NewCache[string, []QueryPlan](&ristretto.Config[string, []QueryPlan]{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
		// cost is counted in plan sets, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("plan cache: %w", err)
	}
	return &SharedCache{cache: cache, ttl: cfg.TTL}, nil
}

// Scoped returns a Planner that consults the shared cache under scope
// (usually the map name) before delegating to inner.
func (s *SharedCache) Scoped(scope string, inner Planner) Planner {
	return &sharedPlanner{cache: s, scope: scope, inner: inner}
}

func (s *SharedCache) Close() {
	s.cache.Close()
}

type sharedPlanner struct {
	cache *SharedCache
	scope string
	inner Planner
}

func (p *sharedPlanner) Plan(v view.Viewport) []QueryPlan {
	key := p.scope + "|" + KeyOf(v).String()
	if plans, ok := p.cache.cache.Get(key); ok {
		return plans
	}
	plans := p.inner.Plan(v)
	p.cache.cache.SetWithTTL(key, plans, 1, p.cache.ttl)
	return plans
}
