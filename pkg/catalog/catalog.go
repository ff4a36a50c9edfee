package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"motonomad-hq/gateway/pkg/gateway"
)

// ModelLister fetches the models offered by the gateway.
// *gateway.Client implements it.
type ModelLister interface {
	GetAvailableModels(ctx context.Context) ([]gateway.ModelInfo, error)
}

// Catalog caches the gateway's model list. Reads within MaxAge are served
// from memory; older or missing data is fetched on demand.
type Catalog struct {
	lister ModelLister
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time

	// onUpdate is called with the model count after each successful fetch
	onUpdate func(int)

	// fetchMu serializes fetches so concurrent misses share one request
	fetchMu sync.Mutex

	mu        sync.RWMutex
	models    []gateway.ModelInfo
	byID      map[string]gateway.ModelInfo
	fetchedAt time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUpdateHook registers fn to be called with the model count after each
// successful fetch. The metrics collector's SetCatalogSize fits here.
func WithUpdateHook(fn func(int)) Option {
	return func(c *Catalog) {
		c.onUpdate = fn
	}
}

// New creates a catalog over lister. A zero maxAge means fetched data never
// goes stale and only Refresh replaces it.
func New(lister ModelLister, maxAge time.Duration, opts ...Option) *Catalog {
	c := &Catalog{
		lister: lister,
		maxAge: maxAge,
		logger: slog.Default(),
		now:    time.Now,
		byID:   make(map[string]gateway.ModelInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "catalog")
	return c
}

// Models returns all cached models sorted by id, fetching them first if the
// cache is empty or stale.
func (c *Catalog) Models(ctx context.Context) ([]gateway.ModelInfo, error) {
	if models, ok := c.fresh(); ok {
		return models, nil
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// Another caller may have refreshed while we waited.
	if models, ok := c.fresh(); ok {
		return models, nil
	}
	if err := c.fetch(ctx); err != nil {
		return nil, err
	}
	models, _ := c.fresh()
	return models, nil
}

// Lookup returns the model with the given id.
func (c *Catalog) Lookup(ctx context.Context, id string) (gateway.ModelInfo, bool, error) {
	if _, err := c.Models(ctx); err != nil {
		return gateway.ModelInfo{}, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byID[id]
	return m, ok, nil
}

// Search returns cached models whose id or name contains query, ignoring case.
func (c *Catalog) Search(ctx context.Context, query string) ([]gateway.ModelInfo, error) {
	models, err := c.Models(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models, nil
	}

	var out []gateway.ModelInfo
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.ID), q) || strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Refresh fetches the model list unconditionally. On failure the previous
// list is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	return c.fetch(ctx)
}

// FetchedAt returns when the cached list was last fetched.
func (c *Catalog) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// Size returns the number of cached models.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

func (c *Catalog) fresh() ([]gateway.ModelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.fetchedAt.IsZero() {
		return nil, false
	}
	if c.maxAge > 0 && c.now().Sub(c.fetchedAt) > c.maxAge {
		return nil, false
	}
	return slices.Clone(c.models), true
}

// fetch must be called with fetchMu held.
func (c *Catalog) fetch(ctx context.Context) error {
	start := c.now()
	models, err := c.lister.GetAvailableModels(ctx)
	if err != nil {
		c.logger.Warn("model catalog refresh failed", "error", err)
		return fmt.Errorf("failed to fetch model catalog: %w", err)
	}

	sorted := slices.Clone(models)
	slices.SortFunc(sorted, func(a, b gateway.ModelInfo) int {
		return strings.Compare(a.ID, b.ID)
	})

	byID := make(map[string]gateway.ModelInfo, len(sorted))
	for _, m := range sorted {
		byID[m.ID] = m
	}

	c.mu.Lock()
	c.models = sorted
	c.byID = byID
	c.fetchedAt = c.now()
	c.mu.Unlock()

	c.logger.Debug("model catalog refreshed",
		"models", len(sorted),
		"duration", c.now().Sub(start),
	)

	if c.onUpdate != nil {
		c.onUpdate(len(sorted))
	}
	return nil
}
