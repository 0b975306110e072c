// Package loader serves full definition bodies, fronted by an LRU cache
// so repeated reads of popular definitions skip the store.
package loader

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/randalmurphal/agentry/internal/definition"
	"github.com/randalmurphal/agentry/internal/errors"
	"github.com/randalmurphal/agentry/internal/index"
	"github.com/randalmurphal/agentry/internal/store"
)

// Loader resolves definition names to full definitions.
type Loader struct {
	index  *index.Index
	store  store.Store
	cache  *cache
	group  singleflight.Group
	logger *slog.Logger
}

// Options configures a Loader.
type Options struct {
	// Capacity is the LRU cache capacity. Zero means DefaultCapacity.
	Capacity int
	// Logger receives load diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// New creates a Loader over the given index and store.
func New(ix *index.Index, st store.Store, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		index:  ix,
		store:  st,
		cache:  newCache(opts.Capacity),
		logger: logger,
	}
}

// Get returns the definition for name. Unknown names fail with NotFound
// before any store access; store failures on known names are retryable
// LoadErrors and leave the cache untouched.
func (l *Loader) Get(ctx context.Context, name string) (*definition.Definition, error) {
	meta, err := l.index.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errors.ErrNotFound(name)
	}

	if def := l.cache.get(name); def != nil {
		return def, nil
	}

	// Coalesce concurrent misses for the same name into one store read.
	result, err, _ := l.group.Do(name, func() (any, error) {
		if def := l.cache.peek(name); def != nil {
			return def, nil
		}

		def, err := l.store.Read(ctx, meta.Path)
		if err != nil {
			l.logger.Warn("definition load failed", "name", name, "path", meta.Path, "error", err)
			return nil, errors.ErrLoadFailed(name, err)
		}

		l.cache.set(name, def)
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*definition.Definition), nil
}

// Stats returns a snapshot of the cache counters.
func (l *Loader) Stats() Stats {
	return l.cache.stats()
}

// Clear empties the cache. Subsequent reads reload from the store.
func (l *Loader) Clear() {
	l.cache.clear()
	l.logger.Info("definition cache cleared")
}

// CachedNames returns the cached definition names, most recent first.
func (l *Loader) CachedNames() []string {
	return l.cache.keys()
}
