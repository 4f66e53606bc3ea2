// Package catalog holds the in-memory product id to product name mapping used to
// enrich trades, the snapshots taken from it and the seed readers that populate it.
package catalog

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/trade-enrichment/internal/metrics"
	"github.com/Checker-Finance/trade-enrichment/pkg/model"
)

// DefaultProductName is returned by lookups for ids that are not in the catalog.
const DefaultProductName = "Missing Product Name"

// Notifier receives successful catalog mutations in commit order, outside the catalog lock.
// Calls are serialized.
type Notifier interface {
	ProductChanged(change model.ProductChange)
}

// Catalog is a concurrency-safe product id -> name mapping.
// Each mutation performs its presence check and its write under a single lock.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]string
	seq      uint64

	// held from commit until the notifier returns
	notifyMu sync.Mutex

	logger   *zap.Logger
	notifier Notifier
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithNotifier registers a receiver for successful mutations.
func WithNotifier(n Notifier) Option {
	return func(c *Catalog) { c.notifier = n }
}

// New creates an empty catalog.
func New(logger *zap.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		products: make(map[string]string),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed copies products into the catalog, overwriting existing ids.
// It is meant to run once before the catalog is shared.
func (c *Catalog) Seed(products map[string]string) {
	c.mu.Lock()
	for id, name := range products {
		c.products[id] = name
	}
	n := len(c.products)
	c.mu.Unlock()

	metrics.SetCatalogSize(n)
	c.logger.Info("catalog.seeded", zap.Int("count", n))
}

// Lookup returns the name mapped to id, or DefaultProductName when id is absent.
func (c *Catalog) Lookup(id string) string {
	c.mu.RLock()
	name, ok := c.products[id]
	c.mu.RUnlock()

	if ok {
		return name
	}
	logMissing(c.logger, id)
	return DefaultProductName
}

// Add inserts id -> name only when id is absent.
func (c *Catalog) Add(id, name string) bool {
	c.mu.Lock()
	if _, exists := c.products[id]; exists {
		c.mu.Unlock()
		metrics.IncCatalogMutation(model.ProductAdded, false)
		c.logger.Warn("catalog.add_rejected: product id already present", zap.String("product_id", id))
		return false
	}
	c.products[id] = name
	n := len(c.products)
	change := c.commit(model.ProductAdded, id, name)
	c.mu.Unlock()

	metrics.IncCatalogMutation(model.ProductAdded, true)
	metrics.SetCatalogSize(n)
	c.notify(change)
	return true
}

// Change replaces the name of an existing id.
func (c *Catalog) Change(id, name string) bool {
	c.mu.Lock()
	if _, exists := c.products[id]; !exists {
		c.mu.Unlock()
		metrics.IncCatalogMutation(model.ProductChanged, false)
		c.logger.Warn("catalog.change_rejected: product id not found for replacement", zap.String("product_id", id))
		return false
	}
	c.products[id] = name
	change := c.commit(model.ProductChanged, id, name)
	c.mu.Unlock()

	metrics.IncCatalogMutation(model.ProductChanged, true)
	c.notify(change)
	return true
}

// Remove deletes id when present.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	if _, exists := c.products[id]; !exists {
		c.mu.Unlock()
		metrics.IncCatalogMutation(model.ProductRemoved, false)
		c.logger.Warn("catalog.remove_rejected: product id not found for removal", zap.String("product_id", id))
		return false
	}
	delete(c.products, id)
	n := len(c.products)
	change := c.commit(model.ProductRemoved, id, "")
	c.mu.Unlock()

	metrics.IncCatalogMutation(model.ProductRemoved, true)
	metrics.SetCatalogSize(n)
	c.notify(change)
	return true
}

// Snapshot returns a copy of the current contents. Sortability is computed over the copy.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	products := make(map[string]string, len(c.products))
	for id, name := range c.products {
		products[id] = name
	}
	c.mu.RUnlock()

	return newSnapshot(products)
}

// Len returns the number of products currently held.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// commit stamps a successful mutation with the next sequence number. It must be called
// with mu held. When a notifier is set it also takes notifyMu, which notify releases, so
// changes reach the notifier in commit order while lookups proceed.
func (c *Catalog) commit(op, id, name string) model.ProductChange {
	c.seq++
	if c.notifier != nil {
		c.notifyMu.Lock()
	}
	return model.ProductChange{
		Seq:         c.seq,
		Op:          op,
		ProductID:   id,
		ProductName: name,
		OccurredAt:  time.Now().UTC(),
	}
}

func (c *Catalog) notify(change model.ProductChange) {
	if c.notifier == nil {
		return
	}
	defer c.notifyMu.Unlock()
	c.notifier.ProductChanged(change)
}

func logMissing(logger *zap.Logger, id string) {
	metrics.IncMissingProduct()
	logger.Error("catalog.product_missing: missing product mapping", zap.String("product_id", id))
}
