// Package store provides Service implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hawk/hedge-engine/tabular"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory tabular.Service backed by plain row slices.
// It also supports fault injection so the engine's degradation paths
// (unstable tables, retry-on-failure) can be exercised without a database.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]tabular.Row

	failAll      map[string]error
	failFiltered map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		tables:       make(map[string][]tabular.Row),
		failAll:      make(map[string]error),
		failFiltered: make(map[string]error),
	}
}

// Seed replaces a table's rows.
func (m *Memory) Seed(table string, rows []tabular.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = rows
}

// FailTable makes every query against the table fail with err.
func (m *Memory) FailTable(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll[table] = err
}

// FailFilteredQueries makes queries that carry filters or ordering fail,
// while bare "select with limit" queries still succeed. This models the
// historically-unstable event table where optimistic filters break.
func (m *Memory) FailFilteredQueries(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFiltered[table] = err
}

// Columns returns the key set of the first row, sorted. Empty tables have no
// discoverable columns, matching a sample-based prober's view of the world.
func (m *Memory) Columns(_ context.Context, table string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q not found", table)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Execute runs a query against the in-memory rows.
func (m *Memory) Execute(_ context.Context, q tabular.Query) (tabular.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.failAll[q.Table]; ok {
		return tabular.Result{}, err
	}
	if err, ok := m.failFiltered[q.Table]; ok {
		if len(q.Conds) > 0 || len(q.AnyOf) > 0 || len(q.OrderBy) > 0 {
			return tabular.Result{}, err
		}
	}

	var out []tabular.Row
	for _, row := range m.tables[q.Table] {
		if matches(row, q) {
			out = append(out, row)
		}
	}

	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.OrderBy {
				c := compare(out[i][o.Column], out[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.LimitN > 0 && len(out) > q.LimitN {
		out = out[:q.LimitN]
	}
	return tabular.Result{Data: out}, nil
}

func matches(row tabular.Row, q tabular.Query) bool {
	for _, c := range q.Conds {
		switch c.Op {
		case tabular.OpEq:
			if !equal(row[c.Column], c.Value) {
				return false
			}
		case tabular.OpIn:
			found := false
			for _, v := range c.Values {
				if equal(row[c.Column], v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	if len(q.AnyOf) > 0 {
		any := false
		for _, d := range q.AnyOf {
			if equal(row[d.Column], d.Value) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compare(a, b any) int {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
