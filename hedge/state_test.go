/*
state_test.go - Hedging-state formula and status classification tests

Tests for:
- The available-amount formula and its operand order
- Status precedence (Fully_Hedged > Partially_Hedged > Not_Available > Available)
- Utilization rounding and the zero-position guard
- Buffer-percentage and CAR-exemption source precedence
*/
package hedge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hawk/hedge-engine/tabular"
)

func TestComputeHedgingState_Formula(t *testing.T) {
	// GIVEN: a 1M position with CAR 50k, buffer 20k, nothing hedged
	position := tabular.Row{"current_position": 1_000_000.0}
	allocation := tabular.Row{
		"available_amount_for_hedging": 930_000.0,
		"hedged_position":              0.0,
		"car_amount_distribution":      50_000.0,
		"manual_overlay_amount":        0.0,
		"buffer_amount":                20_000.0,
	}

	state := computeHedgingState(position, allocation, nil, tabular.Row{}, tabular.Row{})

	// THEN: available = 1,000,000 - 50,000 + 0 - 20,000 - 0
	assert.Equal(t, 930_000.0, state.CalculatedAvailableAmount)
	assert.Equal(t, StatusAvailable, state.HedgingStatus)
	assert.Equal(t, 0.0, state.HedgeUtilizationPct)
}

func TestComputeHedgingState_NegativeAvailableNotClamped(t *testing.T) {
	position := tabular.Row{"current_position": 100_000.0}
	allocation := tabular.Row{
		"car_amount_distribution": 80_000.0,
		"buffer_amount":           50_000.0,
		"manual_overlay_amount":   10_000.0,
	}

	state := computeHedgingState(position, allocation, nil, tabular.Row{}, tabular.Row{})

	// 100,000 - 80,000 + 10,000 - 50,000 - 0 = -20,000, reported as-is
	assert.Equal(t, -20_000.0, state.CalculatedAvailableAmount)
}

func TestComputeHedgingState_StatusPrecedence(t *testing.T) {
	cases := []struct {
		name      string
		current   float64
		hedged    float64
		available float64
		want      string
	}{
		{"fully hedged at exactly current", 500_000, 500_000, 0, StatusFullyHedged},
		{"over-hedged is still fully hedged", 500_000, 600_000, 0, StatusFullyHedged},
		{"partial hedge beats availability", 800_000, 300_000, 450_000, StatusPartiallyHedged},
		{"no hedge, nothing available", 250_000, 0, -10_000, StatusNotAvailable},
		{"no hedge, zero available is not available", 250_000, 0, 0, StatusNotAvailable},
		{"no hedge, room to hedge", 250_000, 0, 100_000, StatusAvailable},
		{"zero position with zero hedge counts as fully hedged", 0, 0, 50_000, StatusFullyHedged},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			position := tabular.Row{"current_position": tc.current}
			allocation := tabular.Row{
				"hedged_position":              tc.hedged,
				"available_amount_for_hedging": tc.available,
			}
			state := computeHedgingState(position, allocation, nil, tabular.Row{}, tabular.Row{})
			assert.Equal(t, tc.want, state.HedgingStatus)
		})
	}
}

func TestComputeHedgingState_Utilization(t *testing.T) {
	position := tabular.Row{"current_position": 800_000.0}
	allocation := tabular.Row{"hedged_position": 300_000.0}

	state := computeHedgingState(position, allocation, nil, tabular.Row{}, tabular.Row{})
	assert.Equal(t, 37.5, state.HedgeUtilizationPct)

	// Zero and negative positions never divide.
	for _, current := range []float64{0, -100} {
		position["current_position"] = current
		state = computeHedgingState(position, allocation, nil, tabular.Row{}, tabular.Row{})
		assert.Equal(t, 0.0, state.HedgeUtilizationPct)
	}
}

func TestComputeHedgingState_UtilizationRoundsToTwoDecimals(t *testing.T) {
	position := tabular.Row{"current_position": 3.0}
	allocation := tabular.Row{"hedged_position": 1.0}

	state := computeHedgingState(position, allocation, nil, tabular.Row{}, tabular.Row{})
	assert.Equal(t, 33.33, state.HedgeUtilizationPct)
}

func TestComputeHedgingState_BufferPercentagePrecedence(t *testing.T) {
	position := tabular.Row{"current_position": 100.0, "buffer_percentage": 5.0}

	// No rule field: the position's own percentage applies.
	state := computeHedgingState(position, tabular.Row{}, nil, tabular.Row{}, tabular.Row{})
	assert.Equal(t, 5.0, state.BufferPercentage)

	// A rule carrying the field wins, even with a zero value.
	rule := tabular.Row{"buffer_percentage": 0.0}
	state = computeHedgingState(position, tabular.Row{}, nil, tabular.Row{}, rule)
	assert.Equal(t, 0.0, state.BufferPercentage)
}

func TestComputeHedgingState_CarExemptionSources(t *testing.T) {
	position := tabular.Row{"current_position": 100.0}

	state := computeHedgingState(position, tabular.Row{}, nil, tabular.Row{}, tabular.Row{})
	assert.Equal(t, "N", state.CarExemptionFlag)

	framework := tabular.Row{"car_exemption_flag": "Y"}
	state = computeHedgingState(position, tabular.Row{}, nil, framework, tabular.Row{})
	assert.Equal(t, "Y", state.CarExemptionFlag)

	// The override only applies when the primary flag is absent entirely.
	framework = tabular.Row{"car_exemption_override": "Y"}
	state = computeHedgingState(position, tabular.Row{}, nil, framework, tabular.Row{})
	assert.Equal(t, "Y", state.CarExemptionFlag)
}

func TestComputeHedgingState_EventAggregates(t *testing.T) {
	position := tabular.Row{"current_position": 1_000_000.0}
	events := []tabular.Row{
		{"notional_amount": 200_000.0},
		{"notional_amount": 150_000.0},
		{"notional_amount": "not a number"},
	}

	state := computeHedgingState(position, tabular.Row{}, events, tabular.Row{}, tabular.Row{})
	assert.Equal(t, 3, state.ActiveHedgeCount)
	assert.Equal(t, 350_000.0, state.TotalHedgeNotional)
}

func TestComputeHedgingState_MissingRowsYieldDefaults(t *testing.T) {
	state := computeHedgingState(tabular.Row{}, tabular.Row{}, nil, tabular.Row{}, tabular.Row{})

	assert.Equal(t, 0.0, state.CalculatedAvailableAmount)
	assert.Equal(t, FrameworkNotDefined, state.FrameworkType)
	assert.Equal(t, "N", state.CarExemptionFlag)
	assert.Equal(t, "Pending", state.AllocationStatus)
	assert.Equal(t, StatusFullyHedged, state.HedgingStatus) // 0 >= 0
}
