/*
adapter_test.go - Schema-drift adapter tests

Tests for:
- Conditional ordering by the first live candidate column
- Conditional filtering on probed columns
- Introspection caching and failure tolerance
*/
package tabular

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// probeService is a minimal Service with scripted column sets.
type probeService struct {
	columns map[string][]string
	err     error
	probes  int
}

func (s *probeService) Columns(_ context.Context, table string) ([]string, error) {
	s.probes++
	if s.err != nil {
		return nil, s.err
	}
	return s.columns[table], nil
}

func (s *probeService) Execute(_ context.Context, _ Query) (Result, error) {
	return Result{}, nil
}

func TestOrderByFirstExisting(t *testing.T) {
	svc := &probeService{columns: map[string][]string{
		"allocation_engine": {"entity_id", "created_at", "updated_at"},
	}}
	cache := NewSchemaCache(svc)
	ctx := context.Background()

	q := cache.OrderByFirstExisting(ctx, NewQuery("allocation_engine"),
		[]string{"created_date", "created_at", "updated_at"}, true)

	// created_date does not exist; created_at is the first live candidate.
	assert.Equal(t, []Order{{Column: "created_at", Desc: true}}, q.OrderBy)
}

func TestOrderByFirstExisting_NoCandidateLeavesUnordered(t *testing.T) {
	svc := &probeService{columns: map[string][]string{
		"allocation_engine": {"entity_id"},
	}}
	cache := NewSchemaCache(svc)

	q := cache.OrderByFirstExisting(context.Background(), NewQuery("allocation_engine"),
		[]string{"created_date", "created_at"}, true)

	assert.Empty(t, q.OrderBy)
}

func TestFilterIfPresent(t *testing.T) {
	svc := &probeService{columns: map[string][]string{
		"hedge_business_events": {"entity_id", "nav_type"},
	}}
	cache := NewSchemaCache(svc)
	ctx := context.Background()

	q := cache.FilterIfPresent(ctx, NewQuery("hedge_business_events"), "nav_type", "COI")
	assert.Len(t, q.Conds, 1)

	q = cache.FilterIfPresent(ctx, NewQuery("hedge_business_events"), "event_status", "Live")
	assert.Empty(t, q.Conds)
}

func TestColumns_CachedPerTable(t *testing.T) {
	svc := &probeService{columns: map[string][]string{
		"entity_master": {"entity_id"},
	}}
	cache := NewSchemaCache(svc)
	ctx := context.Background()

	cache.HasColumn(ctx, "entity_master", "entity_id")
	cache.HasColumn(ctx, "entity_master", "entity_name")
	cache.HasColumn(ctx, "entity_master", "currency_code")

	assert.Equal(t, 1, svc.probes)
}

func TestColumns_FailedProbeIsNotCached(t *testing.T) {
	svc := &probeService{err: errors.New("table missing")}
	cache := NewSchemaCache(svc)
	ctx := context.Background()

	// A failing probe yields an empty set and must not abort anything.
	assert.False(t, cache.HasColumn(ctx, "entity_master", "entity_id"))

	// Once the table appears, the next probe picks it up.
	svc.err = nil
	svc.columns = map[string][]string{"entity_master": {"entity_id"}}
	assert.True(t, cache.HasColumn(ctx, "entity_master", "entity_id"))
}
