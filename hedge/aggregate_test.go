/*
aggregate_test.go - In-memory join, grouping, and USD-PB check tests

Tests for:
- Entity grouping and first-seen position order
- Positions without an entity identifier being dropped
- First-wins dedup for per-entity single-value lookups
- Waterfall Opening/Closing partitioning
- USD-PB threshold check boundary behavior
*/
package hedge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawk/hedge-engine/tabular"
)

func TestAssemble_GroupsPositionsByEntity(t *testing.T) {
	raw := &rawData{
		entities: []tabular.Row{
			{"entity_id": "E1", "entity_name": "Alpha", "currency_code": "HKD"},
			{"entity_id": "E2", "entity_name": "Beta", "currency_code": "HKD"},
		},
		positions: []tabular.Row{
			{"entity_id": "E1", "nav_type": "COI", "current_position": 100.0},
			{"entity_id": "E2", "nav_type": "RE", "current_position": 200.0},
			{"entity_id": "E1", "nav_type": "RE", "current_position": 300.0},
		},
	}

	data := assemble(raw)

	require.Len(t, data.EntityGroups, 2)
	assert.Equal(t, "E1", data.EntityGroups[0].EntityID)
	assert.Equal(t, "Alpha", data.EntityGroups[0].EntityName)
	assert.Len(t, data.EntityGroups[0].Positions, 2)
	assert.Equal(t, "E2", data.EntityGroups[1].EntityID)
	assert.Len(t, data.EntityGroups[1].Positions, 1)
}

func TestAssemble_DropsPositionsWithoutEntityID(t *testing.T) {
	raw := &rawData{
		positions: []tabular.Row{
			{"nav_type": "COI", "current_position": 100.0},
			{"entity_id": "", "nav_type": "RE", "current_position": 200.0},
			{"entity_id": "E1", "nav_type": "COI", "current_position": 300.0},
		},
	}

	data := assemble(raw)

	require.Len(t, data.EntityGroups, 1)
	assert.Equal(t, "E1", data.EntityGroups[0].EntityID)
	assert.Len(t, data.EntityGroups[0].Positions, 1)
}

func TestAssemble_FirstWinsLookups(t *testing.T) {
	// GIVEN: two CAR rows and two framework rows for the same entity, already
	// ordered most-recent-first by the query
	raw := &rawData{
		positions: []tabular.Row{
			{"entity_id": "E1", "nav_type": "COI", "current_position": 100.0},
		},
		carMaster: []tabular.Row{
			{"entity_id": "E1", "car_amount": 99.0, "reporting_date": "2025-06-30"},
			{"entity_id": "E1", "car_amount": 11.0, "reporting_date": "2025-03-31"},
		},
		framework: []tabular.Row{
			{"entity_id": "E1", "framework_type": "Net_Investment"},
			{"entity_id": "E1", "framework_type": "Cash_Flow"},
		},
	}

	data := assemble(raw)

	pos := data.EntityGroups[0].Positions[0]
	assert.Equal(t, 99.0, tabular.Float(pos.CarData, "car_amount"))
	assert.Equal(t, "Net_Investment", pos.HedgingState.FrameworkType)
}

func TestAssemble_LatestAllocationIsHeadOfList(t *testing.T) {
	raw := &rawData{
		positions: []tabular.Row{
			{"entity_id": "E1", "nav_type": "COI", "current_position": 1000.0},
		},
		allocations: []tabular.Row{
			{"entity_id": "E1", "hedged_position": 400.0, "created_date": "2025-06-10"},
			{"entity_id": "E1", "hedged_position": 100.0, "created_date": "2025-05-10"},
		},
	}

	data := assemble(raw)

	pos := data.EntityGroups[0].Positions[0]
	assert.Equal(t, 400.0, pos.HedgingState.AlreadyHedgedAmount)
	// The full history is still attached.
	assert.Len(t, pos.AllocationData, 2)
}

func TestSplitWaterfall(t *testing.T) {
	rules := splitWaterfall([]tabular.Row{
		{"waterfall_type": "Opening", "priority_level": 1},
		{"waterfall_type": "Closing", "priority_level": 1},
		{"waterfall_type": "Opening", "priority_level": 2},
		{"waterfall_type": "Other", "priority_level": 9},
	})

	assert.Len(t, rules.Opening, 2)
	assert.Len(t, rules.Closing, 1)
}

func TestCheckUSDPBDeposits(t *testing.T) {
	rows := []tabular.Row{
		{"total_usd_deposits": 90_000.0},
		{"total_usd_deposits": 60_000.0},
	}

	// Exactly at the threshold passes; the boundary is inclusive.
	check := checkUSDPBDeposits(rows, 150_000)
	assert.Equal(t, "PASS", check.Status)
	assert.Equal(t, 150_000.0, check.TotalUSDEquivalent)
	assert.Equal(t, 0.0, check.ExcessAmount)

	// One cent over fails with the exact excess.
	rows = append(rows, tabular.Row{"total_usd_deposits": 0.01})
	check = checkUSDPBDeposits(rows, 150_000)
	assert.Equal(t, "FAIL", check.Status)
	assert.Equal(t, 0.01, check.ExcessAmount)
}

func TestCheckUSDPBDeposits_Empty(t *testing.T) {
	check := checkUSDPBDeposits(nil, 150_000)
	assert.Equal(t, "PASS", check.Status)
	assert.Equal(t, 0.0, check.TotalUSDEquivalent)
	assert.Equal(t, 0.0, check.ExcessAmount)
}

func TestAssemble_EmptyInputKeepsShape(t *testing.T) {
	data := assemble(&rawData{})

	assert.NotNil(t, data.EntityGroups)
	assert.NotNil(t, data.Stage1AConfig.BufferConfiguration)
	assert.NotNil(t, data.Stage1AConfig.WaterfallLogic.Opening)
	assert.NotNil(t, data.Stage1BData.CurrentAllocations)
	assert.NotNil(t, data.Stage2Config.MurexBooks)
	assert.NotNil(t, data.AdditionalRates)
}
