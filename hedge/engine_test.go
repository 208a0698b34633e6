/*
engine_test.go - Engine pipeline tests over the in-memory table service

Tests for:
- Full evaluation against seeded tables
- The recovered data-retrieval error payload
- The hedge-event bare retry
- Currency-classification join semantics (inner vs left-outer)
- Proxy-currency rate fan-out
*/
package hedge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawk/hedge-engine/tabular"
	"github.com/hawk/hedge-engine/tabular/store"
)

func newTestEngine(svc tabular.Service) *Engine {
	return New(svc, Config{DefaultUSDPBThreshold: 150_000, QueryConcurrency: 4}, zerolog.Nop())
}

func seedHKDBook(mem *store.Memory) {
	mem.Seed(TableEntityMaster, []tabular.Row{
		{"entity_id": "E1", "entity_name": "HK Branch", "currency_code": "HKD"},
	})
	mem.Seed(TablePositionNav, []tabular.Row{
		{"entity_id": "E1", "nav_type": "COI", "currency_code": "HKD", "current_position": 1_000_000.0},
	})
	mem.Seed(TableCurrencyConfig, []tabular.Row{
		{"currency_code": "HKD", "currency_type": "Matched", "proxy_currency": ""},
	})
	mem.Seed(TableAllocationEngine, []tabular.Row{
		{
			"entity_id": "E1", "currency_code": "HKD",
			"available_amount_for_hedging": 930_000.0, "hedged_position": 0.0,
			"car_amount_distribution": 50_000.0, "manual_overlay_amount": 0.0,
			"buffer_amount": 20_000.0, "created_date": "2025-06-02",
		},
	})
	mem.Seed(TableHedgeEvents, []tabular.Row{})
}

func TestEvaluate_Success(t *testing.T) {
	mem := store.NewMemory()
	seedHKDBook(mem)
	engine := newTestEngine(mem)

	resp, err := engine.Evaluate(context.Background(), Instruction{
		InstructionType:  InstructionInception,
		OrderID:          "ORD_001",
		SubOrderID:       "SUB_001",
		ExposureCurrency: "HKD",
		HedgeAmountOrder: 5_000_000,
		HedgeMethod:      MethodCOH,
		NavType:          "COI",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, resp.Status)
	require.Len(t, resp.CompleteData.EntityGroups, 1)
	require.Len(t, resp.CompleteData.EntityGroups[0].Positions, 1)

	state := resp.CompleteData.EntityGroups[0].Positions[0].HedgingState
	assert.Equal(t, 930_000.0, state.CalculatedAvailableAmount)
	assert.Equal(t, StatusAvailable, state.HedgingStatus)

	// The instruction is echoed and its inert fields never filtered anything.
	assert.Equal(t, "ORD_001", resp.Payload.OrderID)
	assert.NotNil(t, resp.DataCompleteness)
	assert.NotNil(t, resp.ValidationResults)
}

func TestEvaluate_RetrievalFailureIsRecovered(t *testing.T) {
	mem := store.NewMemory()
	seedHKDBook(mem)
	mem.FailTable(TableEntityMaster, errors.New("connection reset"))
	engine := newTestEngine(mem)

	resp, err := engine.Evaluate(context.Background(), Instruction{ExposureCurrency: "HKD"})
	require.NoError(t, err)

	assert.Equal(t, StatusError, resp.Status)
	assert.True(t, strings.HasPrefix(resp.Message, "Complete data retrieval failed:"))
	assert.Contains(t, resp.Error, "connection reset")
	// The payload keeps its full shape with empty collections.
	assert.NotNil(t, resp.CompleteData)
	assert.Empty(t, resp.CompleteData.EntityGroups)
	assert.NotNil(t, resp.CompleteData.Stage1BData.CurrentAllocations)
	assert.Nil(t, resp.ValidationResults)
	assert.Nil(t, resp.DataCompleteness)
}

func TestEvaluate_HedgeEventRetryWithoutFilters(t *testing.T) {
	mem := store.NewMemory()
	seedHKDBook(mem)
	mem.Seed(TableHedgeEvents, []tabular.Row{
		{"entity_id": "E1", "notional_amount": 250_000.0},
		{"entity_id": "OTHER", "notional_amount": 40_000.0},
	})
	// The optimistic filtered query fails; the bare limited query succeeds.
	mem.FailFilteredQueries(TableHedgeEvents, errors.New("column entity_id does not exist"))
	engine := newTestEngine(mem)

	resp, err := engine.Evaluate(context.Background(), Instruction{ExposureCurrency: "HKD"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, resp.Status)

	// The bare query returns everything; scoping is lost but the request lives.
	events := resp.CompleteData.Stage1BData.ActiveHedgeEvents
	assert.Len(t, events["E1"], 1)
	assert.Len(t, events["OTHER"], 1)
}

func TestEvaluate_CurrencyTypeInnerJoin(t *testing.T) {
	mem := store.NewMemory()
	seedHKDBook(mem)
	engine := newTestEngine(mem)

	// Matched entities exist, so a Matched request keeps them.
	resp, err := engine.Evaluate(context.Background(), Instruction{
		ExposureCurrency: "HKD", CurrencyType: "Matched",
	})
	require.NoError(t, err)
	require.Len(t, resp.CompleteData.EntityGroups, 1)
	assert.Equal(t, "Matched", resp.CompleteData.EntityGroups[0].CurrencyType)

	// A Mismatched request empties the entity list; positions still group,
	// but entity metadata is gone.
	resp, err = engine.Evaluate(context.Background(), Instruction{
		ExposureCurrency: "HKD", CurrencyType: "Mismatched",
	})
	require.NoError(t, err)
	require.Len(t, resp.CompleteData.EntityGroups, 1)
	assert.Empty(t, resp.CompleteData.EntityGroups[0].EntityName)
}

func TestEvaluate_ProxyRateFanOut(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed(TableEntityMaster, []tabular.Row{
		{"entity_id": "E1", "entity_name": "TW Branch", "currency_code": "TWD"},
	})
	mem.Seed(TablePositionNav, []tabular.Row{
		{"entity_id": "E1", "nav_type": "COI", "currency_code": "TWD", "current_position": 100.0},
	})
	mem.Seed(TableCurrencyConfig, []tabular.Row{
		{"currency_code": "TWD", "currency_type": "Mismatched_with_Proxy", "proxy_currency": "USD"},
		{"currency_code": "TWD", "currency_type": "Mismatched_with_Proxy", "proxy_currency": "CNH"},
		// A proxy equal to the exposure currency is not fanned out.
		{"currency_code": "TWD", "currency_type": "Mismatched_with_Proxy", "proxy_currency": "TWD"},
	})
	mem.Seed(TableCurrencyRates, []tabular.Row{
		{"currency_pair": "TWDSGD", "rate": 0.042},
		{"currency_pair": "USDSGD", "rate": 1.28},
		{"currency_pair": "SGDCNH", "rate": 5.62},
		{"currency_pair": "EURSGD", "rate": 1.45},
	})
	engine := newTestEngine(mem)

	resp, err := engine.Evaluate(context.Background(), Instruction{ExposureCurrency: "TWD"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, resp.Status)

	// Primary rates: the exposure currency against the base leg.
	require.Len(t, resp.CompleteData.CurrencyRates, 1)
	assert.Equal(t, "TWDSGD", tabular.Str(resp.CompleteData.CurrencyRates[0], "currency_pair"))

	// Proxy rates: one query per discovered proxy, both pair directions.
	pairs := make([]string, 0, len(resp.CompleteData.AdditionalRates))
	for _, row := range resp.CompleteData.AdditionalRates {
		pairs = append(pairs, tabular.Str(row, "currency_pair"))
	}
	assert.ElementsMatch(t, []string{"USDSGD", "SGDCNH"}, pairs)
}

func TestEvaluate_ThresholdFallback(t *testing.T) {
	mem := store.NewMemory()
	seedHKDBook(mem)
	mem.Seed(TableUSDPBDeposit, []tabular.Row{
		{"account_id": "A1", "total_usd_deposits": 200_000.0},
	})
	engine := newTestEngine(mem)

	// No threshold_configuration table seeded: the injected default applies
	// and the summary reports it as unconfigured.
	resp, err := engine.Evaluate(context.Background(), Instruction{ExposureCurrency: "HKD"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, resp.Status)

	summary := resp.CompleteData.Stage1AConfig.ThresholdConfig
	assert.False(t, summary.Configured)
	assert.Equal(t, 150_000.0, summary.USDPBThreshold)
	assert.Equal(t, "FAIL", summary.USDPBCheck.Status)
	assert.Equal(t, 50_000.0, summary.USDPBCheck.ExcessAmount)

	// A configured row overrides the default.
	mem.Seed(TableThresholdConfig, []tabular.Row{
		{"threshold_type": USDPBThresholdType, "warning_level": 250_000.0, "active_flag": "Y"},
	})
	resp, err = engine.Evaluate(context.Background(), Instruction{ExposureCurrency: "HKD"})
	require.NoError(t, err)

	summary = resp.CompleteData.Stage1AConfig.ThresholdConfig
	assert.True(t, summary.Configured)
	assert.Equal(t, 250_000.0, summary.USDPBThreshold)
	assert.Equal(t, "PASS", summary.USDPBCheck.Status)
}
