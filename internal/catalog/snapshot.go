package catalog

import (
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// Snapshot is a point-in-time copy of the catalog. It is never mutated after creation.
type Snapshot struct {
	products map[string]string
	sortable bool
}

// Entry is a single product of a snapshot.
type Entry struct {
	ID   string
	Name string
}

// NewSnapshot builds a snapshot over a private copy of products.
func NewSnapshot(products map[string]string) Snapshot {
	cp := make(map[string]string, len(products))
	for id, name := range products {
		cp[id] = name
	}
	return newSnapshot(cp)
}

// newSnapshot takes ownership of products.
func newSnapshot(products map[string]string) Snapshot {
	return Snapshot{products: products, sortable: numericIDs(products)}
}

// Sortable reports whether every id parses as a signed 32-bit base-10 integer.
func (s Snapshot) Sortable() bool { return s.sortable }

func (s Snapshot) Len() int { return len(s.products) }

// Name returns the product name for id and whether it was present.
func (s Snapshot) Name(id string) (string, bool) {
	name, ok := s.products[id]
	return name, ok
}

// Products returns a copy of the mapping.
func (s Snapshot) Products() map[string]string {
	cp := make(map[string]string, len(s.products))
	for id, name := range s.products {
		cp[id] = name
	}
	return cp
}

// Entries returns the products ordered by numeric id when the snapshot is sortable,
// and by byte-wise id comparison otherwise.
func (s Snapshot) Entries() []Entry {
	entries := make([]Entry, 0, len(s.products))
	for id, name := range s.products {
		entries = append(entries, Entry{ID: id, Name: name})
	}

	if !s.sortable {
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
		return entries
	}

	keys := make(map[string]int64, len(entries))
	for _, e := range entries {
		keys[e.ID], _ = strconv.ParseInt(e.ID, 10, 32)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := keys[entries[i].ID], keys[entries[j].ID]
		if a != b {
			return a < b
		}
		// "7" and "07" are numerically equal
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func numericIDs(products map[string]string) bool {
	for id := range products {
		if _, err := strconv.ParseInt(id, 10, 32); err != nil {
			return false
		}
	}
	return true
}

// Resolver resolves product names against one snapshot for the lifetime of a single
// enrichment stream. Each distinct missing id is logged once. Not safe for concurrent use.
type Resolver struct {
	snap     Snapshot
	logger   *zap.Logger
	reported map[string]struct{}
	misses   int
}

// NewResolver creates a resolver bound to snap.
func NewResolver(snap Snapshot, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		snap:     snap,
		logger:   logger,
		reported: make(map[string]struct{}),
	}
}

// Lookup returns the product name for id, or DefaultProductName.
func (r *Resolver) Lookup(id string) string {
	if name, ok := r.snap.Name(id); ok {
		return name
	}
	r.misses++
	if _, seen := r.reported[id]; !seen {
		r.reported[id] = struct{}{}
		logMissing(r.logger, id)
	}
	return DefaultProductName
}

// MissingIDs returns the distinct ids that resolved to DefaultProductName, sorted.
func (r *Resolver) MissingIDs() []string {
	ids := make([]string, 0, len(r.reported))
	for id := range r.reported {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Misses counts every lookup that fell back to DefaultProductName.
func (r *Resolver) Misses() int { return r.misses }
