package stopsearch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/remiges-tech/stopsearch/internal/logger"
	"github.com/remiges-tech/stopsearch/sources"
)

// Observer receives catalog load outcomes, e.g. to export metrics.
type Observer interface {
	CatalogLoaded(stops, buckets int, elapsed time.Duration)
	CatalogLoadFailed(err error)
}

// snapshot is a fully built catalog and its index. It is never mutated after
// it has been published.
type snapshot struct {
	catalog *Catalog
	index   PrefixIndex
}

// Cache owns the catalog and prefix index of one source. The first Load reads
// the source and builds both; concurrent first callers share that single
// build, and every later Load is a lock-free pointer read. A failed build is
// not remembered, so the next Load tries again.
type Cache struct {
	source   sources.Source
	observer Observer
	logger   *slog.Logger

	group    singleflight.Group
	snapshot atomic.Pointer[snapshot]
}

// NewCache creates a cache over source. The source is not read until the
// first Load. observer may be nil.
func NewCache(source sources.Source, observer Observer) *Cache {
	return &Cache{
		source:   source,
		observer: observer,
		logger:   logger.WithComponent("stop-catalog"),
	}
}

// Load returns the catalog and its prefix index, building them on first use.
// Errors wrap ErrDataUnavailable.
func (c *Cache) Load(ctx context.Context) (*Catalog, PrefixIndex, error) {
	if s := c.snapshot.Load(); s != nil {
		return s.catalog, s.index, nil
	}

	// The build must not be cut short because the request that happened to
	// start it went away; other callers may be waiting on it.
	buildCtx := context.WithoutCancel(ctx)

	v, err, _ := c.group.Do("catalog", func() (interface{}, error) {
		if s := c.snapshot.Load(); s != nil {
			return s, nil
		}
		return c.build(buildCtx)
	})
	if err != nil {
		return nil, nil, err
	}

	s := v.(*snapshot)
	return s.catalog, s.index, nil
}

// Loaded reports whether the catalog has been built.
func (c *Cache) Loaded() bool {
	return c.snapshot.Load() != nil
}

func (c *Cache) build(ctx context.Context) (*snapshot, error) {
	start := time.Now()
	c.logger.Info("loading stop catalog")

	records, err := c.source.Load(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		c.logger.Error("stop catalog load failed", "error", err)
		if c.observer != nil {
			c.observer.CatalogLoadFailed(err)
		}
		return nil, err
	}

	catalog := NewCatalog(records, c.logger)
	s := &snapshot{
		catalog: catalog,
		index:   BuildIndex(catalog),
	}
	c.snapshot.Store(s)

	elapsed := time.Since(start)
	c.logger.Info("stop catalog loaded",
		"stops", catalog.Len(),
		"prefix_buckets", len(s.index),
		"elapsed", elapsed,
	)
	if c.observer != nil {
		c.observer.CatalogLoaded(catalog.Len(), len(s.index), elapsed)
	}

	return s, nil
}
