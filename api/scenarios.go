/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the table service with
	realistic hedge data for testing and demos. Each scenario resets the
	database and seeds the subset of tables it needs.

AVAILABLE SCENARIOS:

	hkd-single-entity: one HKD entity, one COI position, full stage config
	multi-entity-book: three entities across the hedging-status spectrum
	proxy-rates:       currency configuration with two proxy currencies
	usd-pb-breach:     USD private-bank deposits above the warning level

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "hkd-single-entity"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - store/sqlite/sqlite.go: Insert/Reset helpers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/hawk/hedge-engine/tabular"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "hkd-single-entity",
		Name:        "HKD Single Entity",
		Description: "One entity with one COI position and complete stage configuration",
	},
	{
		ID:          "multi-entity-book",
		Name:        "Multi-Entity Book",
		Description: "Fully hedged, partially hedged, and unavailable entities side by side",
	},
	{
		ID:          "proxy-rates",
		Name:        "Proxy Currencies",
		Description: "Currency configuration with proxy currencies driving extra rate fetches",
	},
	{
		ID:          "usd-pb-breach",
		Name:        "USD PB Breach",
		Description: "USD private-bank deposits above the configured warning level",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "hkd-single-entity":
		err = loadHKDSingleEntity(ctx, h)
	case "multi-entity-book":
		err = loadMultiEntityBook(ctx, h)
	case "proxy-rates":
		err = loadProxyRates(ctx, h)
	case "usd-pb-breach":
		err = loadUSDPBBreach(ctx, h)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q not found", req.ScenarioID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// ResetDatabase clears every table.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// LOADERS
// =============================================================================

func loadHKDSingleEntity(ctx context.Context, h *Handler) error {
	rows := map[string][]tabular.Row{
		"entity_master": {{
			"entity_id": "ENT_HK_001", "entity_name": "HK Private Bank Ltd",
			"entity_type": "Branch", "currency_code": "HKD",
			"car_exemption_flag": "N", "parent_child_nav_link": 0,
			"created_at": "2025-01-15",
		}},
		"position_nav_master": {{
			"entity_id": "ENT_HK_001", "nav_type": "COI", "currency_code": "HKD",
			"current_position": 1_000_000.0, "computed_total_nav": 1_200_000.0,
			"optimal_car_amount": 50_000.0, "buffer_percentage": 2.0,
			"buffer_amount": 20_000.0, "manual_overlay": 0.0,
			"allocation_status": "Active", "created_at": "2025-06-01",
		}},
		"allocation_engine": {{
			"entity_id": "ENT_HK_001", "currency_code": "HKD",
			"hedge_amount_allocation": 930_000.0, "available_amount_for_hedging": 930_000.0,
			"hedged_position": 0.0, "car_amount_distribution": 50_000.0,
			"manual_overlay_amount": 0.0, "buffer_amount": 20_000.0,
			"waterfall_priority": 1, "allocation_sequence": 1,
			"allocation_status": "Approved", "created_date": "2025-06-02",
		}},
		"buffer_configuration": {{
			"entity_id": "ENT_HK_001", "currency_code": "HKD",
			"buffer_percentage": 2.0, "active_flag": "Y", "created_at": "2025-01-01",
		}},
		"waterfall_logic_configuration": {
			{"waterfall_type": "Opening", "priority_level": 1, "allocation_rule": "COI_FIRST", "active_flag": "Y", "created_date": "2025-01-01"},
			{"waterfall_type": "Closing", "priority_level": 1, "allocation_rule": "LIFO", "active_flag": "Y", "created_date": "2025-01-01"},
		},
		"overlay_configuration": {{
			"currency_code": "HKD", "overlay_type": "Manual", "active_flag": "Y", "created_at": "2025-01-01",
		}},
		"hedging_framework": {{
			"entity_id": "ENT_HK_001", "currency_code": "HKD",
			"framework_type": "Net_Investment", "car_exemption_flag": "N",
			"car_exemption_override": "N", "active_flag": "Y", "created_at": "2025-01-01",
		}},
		"system_configuration": {{
			"config_key": "hedge_horizon_months", "config_value": "12", "active_flag": "Y",
		}},
		"hedge_instructions": {{
			"instruction_id": uuid.NewString(), "exposure_currency": "HKD",
			"instruction_type": "I", "hedge_method": "COH",
			"hedge_amount": 400_000.0, "created_date": "2025-04-15",
		}},
		"hedge_business_events": {{
			"event_id": uuid.NewString(), "entity_id": "ENT_HK_001",
			"nav_type": "COI", "notional_amount": 400_000.0,
			"event_status": "Matured", "created_date": "2025-04-20",
		}},
		"car_master": {{
			"entity_id": "ENT_HK_001", "currency_code": "HKD",
			"car_amount": 50_000.0, "reporting_date": "2025-06-30",
		}},
		"threshold_configuration": {{
			"threshold_type": "USD_PB_DEPOSIT", "warning_level": 150_000.0, "active_flag": "Y",
		}},
		"usd_pb_deposit": {{
			"account_id": "PB_ACC_001", "total_usd_deposits": 120_000.0, "as_of_date": "2025-07-01",
		}},
		"risk_monitoring": {{
			"currency_code": "HKD", "risk_level": "Low", "monitoring_status": "Active", "created_at": "2025-07-01",
		}},
		"currency_configuration": {{
			"currency_code": "HKD", "currency_type": "Matched", "proxy_currency": "", "active_flag": "Y",
		}},
		"currency_rates": {
			{"currency_pair": "HKDSGD", "rate": 0.172, "effective_date": "2025-07-01"},
			{"currency_pair": "SGDHKD", "rate": 5.81, "effective_date": "2025-07-01"},
		},
		"instruction_event_config": {{
			"instruction_event": "Initiation", "nav_type": "COI",
			"currency_type": "Matched", "booking_model": "Back_to_Back", "active_flag": "Y",
		}},
		"murex_book_config": {{
			"book_code": "MX_HK_01", "portfolio": "FX_HEDGE_HK", "active_flag": "Y",
		}},
		"hedge_instruments": {{
			"currency_code": "HKD", "instrument_type": "FX_Forward", "active_flag": "Y",
		}},
		"hedge_effectiveness": {{
			"currency_code": "HKD", "effectiveness_ratio": 0.98, "effectiveness_date": "2025-06-30",
		}},
	}
	return seed(ctx, h, rows)
}

func loadMultiEntityBook(ctx context.Context, h *Handler) error {
	rows := map[string][]tabular.Row{
		"entity_master": {
			{"entity_id": "ENT_SG_001", "entity_name": "SG Wealth", "entity_type": "Subsidiary", "currency_code": "SGD", "car_exemption_flag": "N", "parent_child_nav_link": 1, "created_at": "2024-03-01"},
			{"entity_id": "ENT_SG_002", "entity_name": "SG Trust", "entity_type": "Trust", "currency_code": "SGD", "car_exemption_flag": "Y", "parent_child_nav_link": 0, "created_at": "2024-03-01"},
			{"entity_id": "ENT_SG_003", "entity_name": "SG Nominees", "entity_type": "Branch", "currency_code": "SGD", "car_exemption_flag": "N", "parent_child_nav_link": 0, "created_at": "2024-03-01"},
		},
		"position_nav_master": {
			{"entity_id": "ENT_SG_001", "nav_type": "COI", "currency_code": "SGD", "current_position": 500_000.0, "allocation_status": "Active"},
			{"entity_id": "ENT_SG_002", "nav_type": "RE", "currency_code": "SGD", "current_position": 800_000.0, "allocation_status": "Active"},
			{"entity_id": "ENT_SG_003", "nav_type": "COI", "currency_code": "SGD", "current_position": 250_000.0, "allocation_status": "Pending"},
		},
		"allocation_engine": {
			// fully hedged
			{"entity_id": "ENT_SG_001", "currency_code": "SGD", "hedged_position": 500_000.0, "available_amount_for_hedging": 0.0, "created_date": "2025-06-10"},
			// partially hedged
			{"entity_id": "ENT_SG_002", "currency_code": "SGD", "hedged_position": 300_000.0, "available_amount_for_hedging": 450_000.0, "created_date": "2025-06-09"},
			// nothing hedged, nothing available
			{"entity_id": "ENT_SG_003", "currency_code": "SGD", "hedged_position": 0.0, "available_amount_for_hedging": -10_000.0, "created_date": "2025-06-08"},
		},
		"hedge_business_events": {
			{"event_id": uuid.NewString(), "entity_id": "ENT_SG_001", "nav_type": "COI", "notional_amount": 500_000.0, "event_status": "Live", "created_date": "2025-06-10"},
			{"event_id": uuid.NewString(), "entity_id": "ENT_SG_002", "nav_type": "RE", "notional_amount": 200_000.0, "event_status": "Live", "created_date": "2025-06-09"},
			{"event_id": uuid.NewString(), "entity_id": "ENT_SG_002", "nav_type": "RE", "notional_amount": 100_000.0, "event_status": "Live", "created_date": "2025-06-08"},
		},
		"car_master": {
			{"entity_id": "ENT_SG_001", "currency_code": "SGD", "car_amount": 25_000.0, "reporting_date": "2025-06-30"},
			{"entity_id": "ENT_SG_002", "currency_code": "SGD", "car_amount": 40_000.0, "reporting_date": "2025-06-30"},
		},
		"currency_configuration": {{
			"currency_code": "SGD", "currency_type": "Matched", "proxy_currency": "", "active_flag": "Y",
		}},
	}
	return seed(ctx, h, rows)
}

func loadProxyRates(ctx context.Context, h *Handler) error {
	rows := map[string][]tabular.Row{
		"entity_master": {{
			"entity_id": "ENT_TW_001", "entity_name": "TW Securities", "entity_type": "Branch",
			"currency_code": "TWD", "car_exemption_flag": "N", "parent_child_nav_link": 0,
		}},
		"position_nav_master": {{
			"entity_id": "ENT_TW_001", "nav_type": "COI", "currency_code": "TWD",
			"current_position": 2_000_000.0, "allocation_status": "Active",
		}},
		"currency_configuration": {
			{"currency_code": "TWD", "currency_type": "Mismatched_with_Proxy", "proxy_currency": "USD", "active_flag": "Y"},
			{"currency_code": "TWD", "currency_type": "Mismatched_with_Proxy", "proxy_currency": "CNH", "active_flag": "Y"},
		},
		"currency_rates": {
			{"currency_pair": "TWDSGD", "rate": 0.042, "effective_date": "2025-07-01"},
			{"currency_pair": "USDSGD", "rate": 1.28, "effective_date": "2025-07-01"},
			{"currency_pair": "SGDUSD", "rate": 0.78, "effective_date": "2025-07-01"},
			{"currency_pair": "CNHSGD", "rate": 0.178, "effective_date": "2025-07-01"},
		},
		"proxy_configuration": {{
			"currency_code": "TWD", "proxy_currency": "USD", "active_flag": "Y",
		}},
	}
	return seed(ctx, h, rows)
}

func loadUSDPBBreach(ctx context.Context, h *Handler) error {
	rows := map[string][]tabular.Row{
		"entity_master": {{
			"entity_id": "ENT_US_001", "entity_name": "US PB Desk", "entity_type": "Branch",
			"currency_code": "USD", "car_exemption_flag": "N", "parent_child_nav_link": 0,
		}},
		"position_nav_master": {{
			"entity_id": "ENT_US_001", "nav_type": "COI", "currency_code": "USD",
			"current_position": 3_000_000.0, "allocation_status": "Active",
		}},
		"threshold_configuration": {{
			"threshold_type": "USD_PB_DEPOSIT", "warning_level": 150_000.0, "active_flag": "Y",
		}},
		"usd_pb_deposit": {
			{"account_id": "PB_ACC_101", "total_usd_deposits": 90_000.0, "as_of_date": "2025-07-01"},
			{"account_id": "PB_ACC_102", "total_usd_deposits": 85_000.0, "as_of_date": "2025-07-01"},
		},
		"currency_configuration": {{
			"currency_code": "USD", "currency_type": "Matched", "proxy_currency": "", "active_flag": "Y",
		}},
	}
	return seed(ctx, h, rows)
}

func seed(ctx context.Context, h *Handler, rows map[string][]tabular.Row) error {
	for table, tableRows := range rows {
		if err := h.Store.InsertBatch(ctx, table, tableRows); err != nil {
			return err
		}
	}
	return nil
}
