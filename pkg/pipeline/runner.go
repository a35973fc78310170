package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depmanifest/pkg/bom"
	"github.com/matzehuels/depmanifest/pkg/cache"
	"github.com/matzehuels/depmanifest/pkg/manifest"
	"github.com/matzehuels/depmanifest/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner holds no per-run state. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Local and Remote load BOM tables for platforms declared without one.
	// Offline runs only consult Local. Either may be nil.
	Local  bom.Loader
	Remote bom.Loader

	// TTL applies to cached results and BOM tables.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultCacheTTL,
	}
}

// Resolve runs the parse → expand → BOM → resolve pipeline with caching.
func (r *Runner) Resolve(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	in, err := readInputs(opts)
	if err != nil {
		return nil, err
	}

	cacheKey := r.Keyer.ResolveKey(r.keyOpts(opts, in))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "resolve")
				cached.CacheInfo.ResolveHit = true
				r.Logger.Debug("resolution cache hit", "manifest", opts.ManifestFilename)
				return &cached, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "resolve")
	}

	start := time.Now()
	result, err := r.run(ctx, opts, in)
	observability.Resolve().OnResolveComplete(ctx, opts.ManifestFilename, len(dependencies(result)), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("resolved dependencies",
		"manifest", opts.ManifestFilename,
		"entries", result.Stats.Entries,
		"dependencies", result.Stats.Dependencies,
		"duration", time.Since(start))

	if data, err := json.Marshal(result); err == nil && r.Cache.Set(ctx, cacheKey, data, r.TTL) == nil {
		observability.Cache().OnCacheSet(ctx, "resolve", len(data))
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, opts Options, in inputs) (*Result, error) {
	result := &Result{}

	// Stage 1: Parse and expand catalog aliases
	parseStart := time.Now()
	observability.Resolve().OnParseStart(ctx, opts.ManifestFilename)
	doc, err := parse(opts, in)
	result.Stats.ParseTime = time.Since(parseStart)
	observability.Resolve().OnParseComplete(ctx, opts.ManifestFilename, len(entries(doc)), result.Stats.ParseTime, err)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Project = doc.Project
	result.ManifestType = doc.Type
	result.Stats.Entries = len(doc.Entries)

	r.Logger.Debug("parsed manifest",
		"type", doc.Type,
		"entries", len(doc.Entries),
		"duration", result.Stats.ParseTime)

	// Malformed entries and competing platforms fail before any BOM is fetched.
	if err := manifest.Validate(doc.Entries); err != nil {
		return nil, err
	}
	if _, err := manifest.ActivePlatform(doc.Entries); err != nil {
		return nil, err
	}

	// Stage 2: Load BOM tables
	bomStart := time.Now()
	resolved, err := bom.Apply(ctx, r.loader(opts), doc.Entries)
	if err != nil {
		return nil, err
	}
	result.Stats.BOMTime = time.Since(bomStart)
	for _, e := range resolved {
		if e.Active() {
			result.Platform = &Platform{Coordinate: e.Coordinate, Version: e.Version, Managed: len(e.Versions)}
			break
		}
	}

	// Stage 3: Resolve and filter
	resolveStart := time.Now()
	deps, err := manifest.Resolve(resolved)
	if err != nil {
		return nil, err
	}
	result.Dependencies = manifest.Filter(deps, opts.roles...)
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.Dependencies = len(result.Dependencies)
	return result, nil
}

// loader composes the BOM loaders for one run. It returns nil when no
// loader is available, so platforms without a table fail with BOM_NOT_FOUND.
func (r *Runner) loader(opts Options) bom.Loader {
	var loaders []bom.Loader
	if r.Local != nil {
		loaders = append(loaders, r.Local)
	}
	if r.Remote != nil && !opts.Offline {
		loaders = append(loaders, r.Remote)
	}
	if len(loaders) == 0 {
		return nil
	}
	return bom.NewCachedLoader(bom.NewChainLoader(loaders...), r.Cache, r.Keyer, r.TTL)
}

func (r *Runner) keyOpts(opts Options, in inputs) cache.ResolveKeyOpts {
	k := cache.ResolveKeyOpts{
		ManifestHash: cache.Hash(in.manifest),
		Filename:     opts.ManifestFilename,
		Offline:      opts.Offline,
		Overrides:    maps.Clone(opts.Configurations),
		Dir:          in.dir,
	}
	if r.Local != nil {
		k.Sources = append(k.Sources, bom.SourceOf(r.Local))
	}
	if r.Remote != nil && !opts.Offline {
		k.Sources = append(k.Sources, bom.SourceOf(r.Remote))
	}
	if in.catalog != nil {
		k.CatalogHash = cache.Hash(in.catalog)
	}
	for _, role := range opts.roles {
		k.Roles = append(k.Roles, role.String())
	}
	slices.Sort(k.Roles)
	return k
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func entries(doc *manifest.Document) []manifest.Entry {
	if doc == nil {
		return nil
	}
	return doc.Entries
}

func dependencies(result *Result) []manifest.Resolved {
	if result == nil {
		return nil
	}
	return result.Dependencies
}
