/*
adapter.go - Schema-drift adapter

PURPOSE:
  The backing schema has historically drifted: ordering and filter columns get
  renamed or dropped between environments. Queries must degrade gracefully
  rather than fail, so every non-critical filter and sort routes through this
  adapter, which probes the live schema before applying anything.

BEHAVIOR:
  - HasColumn:             does the table currently carry this column?
  - OrderByFirstExisting:  order by the FIRST candidate column that exists;
                           leave the query unordered if none do
  - FilterIfPresent:       apply an equality filter only if the column exists

CACHING:
  Introspection results are cached per table for the process lifetime, so the
  schema is probed once per table rather than once per request. Failed probes
  are not cached; a table that appears later is picked up on the next probe.

SEE ALSO:
  - query.go: the Query values being decorated
*/
package tabular

import (
	"context"
	"sync"
)

// SchemaCache wraps a Service with cached column introspection and the
// conditional filter/order operations built on top of it.
type SchemaCache struct {
	svc  Service
	mu   sync.RWMutex
	cols map[string]map[string]bool
}

// NewSchemaCache creates an adapter over the given service.
func NewSchemaCache(svc Service) *SchemaCache {
	return &SchemaCache{
		svc:  svc,
		cols: make(map[string]map[string]bool),
	}
}

// Columns returns the cached column set for a table. On any introspection
// failure it returns an empty set and caches nothing, mirroring the
// tolerance contract: a probe failure must never abort a request.
func (c *SchemaCache) Columns(ctx context.Context, table string) map[string]bool {
	c.mu.RLock()
	cached, ok := c.cols[table]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	names, err := c.svc.Columns(ctx, table)
	if err != nil || len(names) == 0 {
		return map[string]bool{}
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}

	c.mu.Lock()
	c.cols[table] = set
	c.mu.Unlock()
	return set
}

// HasColumn reports whether the table currently carries the column.
func (c *SchemaCache) HasColumn(ctx context.Context, table, column string) bool {
	return c.Columns(ctx, table)[column]
}

// OrderByFirstExisting applies ordering by the first candidate column that
// exists on the query's table. If none exist the query is returned unordered,
// and "latest row" selection downstream becomes arbitrary.
func (c *SchemaCache) OrderByFirstExisting(ctx context.Context, q Query, candidates []string, desc bool) Query {
	cols := c.Columns(ctx, q.Table)
	for _, candidate := range candidates {
		if cols[candidate] {
			return q.Order(candidate, desc)
		}
	}
	return q
}

// FilterIfPresent applies an equality filter only if the column exists on the
// query's table; otherwise the query passes through unchanged.
func (c *SchemaCache) FilterIfPresent(ctx context.Context, q Query, column string, value any) Query {
	if c.Columns(ctx, q.Table)[column] {
		return q.Eq(column, value)
	}
	return q
}
