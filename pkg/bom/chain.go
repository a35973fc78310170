package bom

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/matzehuels/depmanifest/pkg/cache"
	"github.com/matzehuels/depmanifest/pkg/integrations"
	"github.com/matzehuels/depmanifest/pkg/manifest"
	"github.com/matzehuels/depmanifest/pkg/observability"
)

// ChainLoader tries loaders in order. A loader reporting
// [integrations.ErrNotFound] passes the platform to the next one; any
// other error stops the chain.
type ChainLoader struct {
	loaders []Loader
}

// NewChainLoader returns a loader trying each non-nil loader in order.
func NewChainLoader(loaders ...Loader) *ChainLoader {
	var ls []Loader
	for _, l := range loaders {
		if l != nil {
			ls = append(ls, l)
		}
	}
	return &ChainLoader{loaders: ls}
}

// Source implements [Sourcer], listing every loader in order.
func (c *ChainLoader) Source() string {
	names := make([]string, len(c.loaders))
	for i, l := range c.loaders {
		names[i] = SourceOf(l)
	}
	return strings.Join(names, ",")
}

// Load implements [Loader].
func (c *ChainLoader) Load(ctx context.Context, coord manifest.Coordinate, version string) (map[string]string, error) {
	var notFound []error
	for _, l := range c.loaders {
		table, err := l.Load(ctx, coord, version)
		if err == nil {
			return table, nil
		}
		if !errors.Is(err, integrations.ErrNotFound) {
			return nil, err
		}
		notFound = append(notFound, err)
	}
	if len(notFound) == 0 {
		return nil, integrations.ErrNotFound
	}
	return nil, errors.Join(notFound...)
}

// CachedLoader memoizes version tables in a [cache.Cache] under
// [cache.Keyer.BOMKey]. Released BOMs never change, so long TTLs are safe.
type CachedLoader struct {
	inner Loader
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewCachedLoader wraps inner. A nil keyer uses the default layout.
func NewCachedLoader(inner Loader, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *CachedLoader {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedLoader{inner: inner, cache: c, keyer: keyer, ttl: ttl}
}

// Source implements [Sourcer] with the wrapped loader's origin.
func (l *CachedLoader) Source() string { return SourceOf(l.inner) }

// Load implements [Loader].
func (l *CachedLoader) Load(ctx context.Context, coord manifest.Coordinate, version string) (map[string]string, error) {
	key := l.keyer.BOMKey(coord.String(), version)
	hooks := observability.Cache()

	if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		var table map[string]string
		if json.Unmarshal(data, &table) == nil {
			hooks.OnCacheHit(ctx, "bom")
			return table, nil
		}
	}
	hooks.OnCacheMiss(ctx, "bom")

	table, err := l.inner.Load(ctx, coord, version)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(table); err == nil && l.cache.Set(ctx, key, data, l.ttl) == nil {
		hooks.OnCacheSet(ctx, "bom", len(data))
	}
	return table, nil
}
