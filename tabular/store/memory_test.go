/*
memory_test.go - In-memory table service tests

Tests for:
- Filter, disjunction, ordering, and limit semantics
- Sample-based column discovery
- Fault injection modes
*/
package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawk/hedge-engine/tabular"
)

func TestMemory_ExecuteFiltersAndOrders(t *testing.T) {
	mem := NewMemory()
	mem.Seed("allocation_engine", []tabular.Row{
		{"entity_id": "E1", "currency_code": "HKD", "created_date": "2025-01-01"},
		{"entity_id": "E2", "currency_code": "HKD", "created_date": "2025-03-01"},
		{"entity_id": "E3", "currency_code": "SGD", "created_date": "2025-02-01"},
	})

	q := tabular.NewQuery("allocation_engine").
		Eq("currency_code", "HKD").
		Order("created_date", true).
		Limit(1)
	res, err := mem.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "E2", tabular.Str(res.Data[0], "entity_id"))
}

func TestMemory_InAndAnyOf(t *testing.T) {
	mem := NewMemory()
	mem.Seed("currency_rates", []tabular.Row{
		{"currency_pair": "HKDSGD"},
		{"currency_pair": "SGDHKD"},
		{"currency_pair": "USDSGD"},
	})

	res, err := mem.Execute(context.Background(), tabular.NewQuery("currency_rates").Any(
		tabular.Disjunct{Column: "currency_pair", Value: "HKDSGD"},
		tabular.Disjunct{Column: "currency_pair", Value: "SGDHKD"},
	))
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)

	// Empty IN matches nothing.
	res, err = mem.Execute(context.Background(), tabular.NewQuery("currency_rates").In("currency_pair"))
	require.NoError(t, err)
	assert.Empty(t, res.Data)
}

func TestMemory_ColumnsFromFirstRow(t *testing.T) {
	mem := NewMemory()
	mem.Seed("entity_master", []tabular.Row{
		{"entity_id": "E1", "currency_code": "HKD"},
	})

	cols, err := mem.Columns(context.Background(), "entity_master")
	require.NoError(t, err)
	assert.Equal(t, []string{"currency_code", "entity_id"}, cols)

	_, err = mem.Columns(context.Background(), "missing")
	assert.Error(t, err)

	mem.Seed("empty", []tabular.Row{})
	cols, err = mem.Columns(context.Background(), "empty")
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMemory_FaultInjection(t *testing.T) {
	mem := NewMemory()
	mem.Seed("hedge_business_events", []tabular.Row{{"event_id": "EV1"}})

	boom := errors.New("boom")
	mem.FailFilteredQueries("hedge_business_events", boom)

	// Filtered queries fail, bare limited ones survive.
	_, err := mem.Execute(context.Background(),
		tabular.NewQuery("hedge_business_events").Eq("event_id", "EV1"))
	assert.ErrorIs(t, err, boom)

	res, err := mem.Execute(context.Background(),
		tabular.NewQuery("hedge_business_events").Limit(10))
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)

	mem.FailTable("hedge_business_events", boom)
	_, err = mem.Execute(context.Background(),
		tabular.NewQuery("hedge_business_events").Limit(10))
	assert.ErrorIs(t, err, boom)
}
