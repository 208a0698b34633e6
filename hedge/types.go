/*
Package hedge implements the FX hedge-accounting data aggregation engine.

PURPOSE:
  For one hedge-inception instruction, the engine issues a coordinated set of
  filtered/sorted queries against the logical tables (entities, positions,
  allocations, buffer/waterfall configuration, CAR data, booking
  configuration, currency rates), joins and groups the results in memory by
  entity and position, derives a per-position hedging state via a fixed
  financial formula, and scores configuration completeness across three
  stages.

KEY CONCEPTS IN THIS FILE (types.go):
  - Instruction: the validated inbound hedge-inception/utilisation record
  - HedgingState: the derived per-position state (formula output)
  - EntityGroup / PositionView: the aggregation output, one group per entity
  - CompleteData: everything one evaluation collected, shaped for the caller
  - ValidationResults / DataCompleteness: stage checklists and scoring

DESIGN PRINCIPLES:
  1. Read-only: the engine never writes, never persists, never books
  2. Tolerance: missing rows and malformed amounts degrade to zero/empty,
     never to an error
  3. Determinism: "latest" selections are positional on explicitly ordered
     results, with one documented dedup policy for all per-entity lookups

SEE ALSO:
  - planner.go: query construction per table
  - fetch.go: two-phase execution and row extraction
  - aggregate.go: the in-memory join and grouping
  - state.go: the hedging-state formula
  - validate.go: stage checklists and completeness scoring
*/
package hedge

import "github.com/hawk/hedge-engine/tabular"

// =============================================================================
// INBOUND INSTRUCTION
// =============================================================================

// Instruction is the validated hedge instruction consumed by the engine.
// hedge_amount_order, hedge_method, order_id and sub_order_id are accepted
// and echoed but never filter any query.
type Instruction struct {
	InstructionType  string  `json:"instruction_type"`
	OrderID          string  `json:"order_id"`
	SubOrderID       string  `json:"sub_order_id"`
	ExposureCurrency string  `json:"exposure_currency"`
	HedgeAmountOrder float64 `json:"hedge_amount_order"`
	HedgeMethod      string  `json:"hedge_method"`
	NavType          string  `json:"nav_type,omitempty"`
	CurrencyType     string  `json:"currency_type,omitempty"`
}

// Instruction field enums.
const (
	InstructionInception   = "I"
	InstructionUtilisation = "U"

	MethodCOH = "COH"
	MethodMT  = "MT"
)

// =============================================================================
// HEDGING STATE
// =============================================================================

// Hedging status classification, evaluated in this precedence order.
const (
	StatusFullyHedged     = "Fully_Hedged"
	StatusPartiallyHedged = "Partially_Hedged"
	StatusNotAvailable    = "Not_Available"
	StatusAvailable       = "Available"
)

// FrameworkNotDefined is reported when no framework rule covers the entity.
const FrameworkNotDefined = "Not_Defined"

// HedgingState is the derived state for one position. Every field is always
// populated; absent source rows default to zero/empty values.
type HedgingState struct {
	AlreadyHedgedAmount       float64 `json:"already_hedged_amount"`
	AvailableForHedging       float64 `json:"available_for_hedging"`
	CalculatedAvailableAmount float64 `json:"calculated_available_amount"`
	HedgeUtilizationPct       float64 `json:"hedge_utilization_pct"`
	HedgingStatus             string  `json:"hedging_status"`
	CarAmountDistribution     float64 `json:"car_amount_distribution"`
	ManualOverlayAmount       float64 `json:"manual_overlay_amount"`
	BufferAmount              float64 `json:"buffer_amount"`
	BufferPercentage          float64 `json:"buffer_percentage"`
	FrameworkType             string  `json:"framework_type"`
	CarExemptionFlag          string  `json:"car_exemption_flag"`
	FrameworkCompliance       string  `json:"framework_compliance"`
	LastAllocationDate        string  `json:"last_allocation_date"`
	WaterfallPriority         float64 `json:"waterfall_priority"`
	AllocationSequence        float64 `json:"allocation_sequence"`
	AllocationStatus          string  `json:"allocation_status"`
	ActiveHedgeCount          int     `json:"active_hedge_count"`
	TotalHedgeNotional        float64 `json:"total_hedge_notional"`
}

// =============================================================================
// AGGREGATION OUTPUT
// =============================================================================

// PositionView is one NAV position with its derived state and the raw rows
// that informed it.
type PositionView struct {
	NavType            string        `json:"nav_type"`
	CurrentPosition    float64       `json:"current_position"`
	ComputedTotalNav   float64       `json:"computed_total_nav"`
	OptimalCarAmount   float64       `json:"optimal_car_amount"`
	BufferPercentage   float64       `json:"buffer_percentage"`
	BufferAmount       float64       `json:"buffer_amount"`
	ManualOverlay      float64       `json:"manual_overlay"`
	AllocationStatus   string        `json:"allocation_status"`
	HedgingState       HedgingState  `json:"hedging_state"`
	AllocationData     []tabular.Row `json:"allocation_data"`
	HedgeRelationships []tabular.Row `json:"hedge_relationships"`
	FrameworkRule      tabular.Row   `json:"framework_rule"`
	BufferRule         tabular.Row   `json:"buffer_rule"`
	CarData            tabular.Row   `json:"car_data"`
}

// EntityGroup is one entity with its ordered positions and entity metadata.
type EntityGroup struct {
	EntityID           string         `json:"entity_id"`
	EntityName         string         `json:"entity_name"`
	EntityType         string         `json:"entity_type"`
	ExposureCurrency   string         `json:"exposure_currency"`
	CurrencyType       string         `json:"currency_type"`
	CarExemption       string         `json:"car_exemption"`
	ParentChildNavLink bool           `json:"parent_child_nav_link"`
	Positions          []PositionView `json:"positions"`
}

// WaterfallRules partitions the waterfall configuration by type.
type WaterfallRules struct {
	Opening []tabular.Row `json:"opening"`
	Closing []tabular.Row `json:"closing"`
}

// USDPBCheck is the USD private-bank deposit threshold compliance check.
// Status is FAIL only when the total strictly exceeds the threshold;
// ExcessAmount is never negative.
type USDPBCheck struct {
	TotalUSDEquivalent float64 `json:"total_usd_equivalent"`
	Threshold          float64 `json:"threshold"`
	Status             string  `json:"status"`
	ExcessAmount       float64 `json:"excess_amount"`
}

// ThresholdSummary reports the USD-PB warning level in effect and the check
// outcome. Configured records whether the level came from the threshold table
// or from the injected default.
type ThresholdSummary struct {
	USDPBThreshold float64    `json:"usd_pb_threshold"`
	USDPBCheck     USDPBCheck `json:"usd_pb_check"`
	Configured     bool       `json:"configured"`
}

// Stage1AConfig is the stage-1A configuration block.
type Stage1AConfig struct {
	BufferConfiguration  []tabular.Row    `json:"buffer_configuration"`
	WaterfallLogic       WaterfallRules   `json:"waterfall_logic"`
	OverlayConfiguration []tabular.Row    `json:"overlay_configuration"`
	HedgingFramework     []tabular.Row    `json:"hedging_framework"`
	SystemConfiguration  []tabular.Row    `json:"system_configuration"`
	ThresholdConfig      ThresholdSummary `json:"threshold_configuration"`
}

// Stage1BData is the stage-1B allocation/hedge/CAR block.
type Stage1BData struct {
	CurrentAllocations       []tabular.Row            `json:"current_allocations"`
	HedgeInstructionsHistory []tabular.Row            `json:"hedge_instructions_history"`
	ActiveHedgeEvents        map[string][]tabular.Row `json:"active_hedge_events"`
	CarMasterData            []tabular.Row            `json:"car_master_data"`
}

// Stage2Config is the stage-2 booking/execution block.
type Stage2Config struct {
	BookingModelConfig []tabular.Row `json:"booking_model_config"`
	MurexBooks         []tabular.Row `json:"murex_books"`
	HedgeInstruments   []tabular.Row `json:"hedge_instruments"`
	HedgeEffectiveness []tabular.Row `json:"hedge_effectiveness"`
}

// CompleteData is everything one evaluation collected and derived.
type CompleteData struct {
	EntityGroups          []EntityGroup `json:"entity_groups"`
	Stage1AConfig         Stage1AConfig `json:"stage_1a_config"`
	Stage1BData           Stage1BData   `json:"stage_1b_data"`
	Stage2Config          Stage2Config  `json:"stage_2_config"`
	RiskMonitoring        []tabular.Row `json:"risk_monitoring"`
	CurrencyConfiguration []tabular.Row `json:"currency_configuration"`
	CurrencyRates         []tabular.Row `json:"currency_rates"`
	ProxyConfiguration    []tabular.Row `json:"proxy_configuration"`
	AdditionalRates       []tabular.Row `json:"additional_rates"`
}

// EmptyCompleteData returns a fully shaped, empty CompleteData for the
// recovered data-retrieval-failure path. Collections are non-nil so the
// payload serializes as empty lists, not nulls.
func EmptyCompleteData() *CompleteData {
	return &CompleteData{
		EntityGroups: []EntityGroup{},
		Stage1AConfig: Stage1AConfig{
			BufferConfiguration:  []tabular.Row{},
			WaterfallLogic:       WaterfallRules{Opening: []tabular.Row{}, Closing: []tabular.Row{}},
			OverlayConfiguration: []tabular.Row{},
			HedgingFramework:     []tabular.Row{},
			SystemConfiguration:  []tabular.Row{},
		},
		Stage1BData: Stage1BData{
			CurrentAllocations:       []tabular.Row{},
			HedgeInstructionsHistory: []tabular.Row{},
			ActiveHedgeEvents:        map[string][]tabular.Row{},
			CarMasterData:            []tabular.Row{},
		},
		Stage2Config: Stage2Config{
			BookingModelConfig: []tabular.Row{},
			MurexBooks:         []tabular.Row{},
			HedgeInstruments:   []tabular.Row{},
			HedgeEffectiveness: []tabular.Row{},
		},
		RiskMonitoring:        []tabular.Row{},
		CurrencyConfiguration: []tabular.Row{},
		CurrencyRates:         []tabular.Row{},
		ProxyConfiguration:    []tabular.Row{},
		AdditionalRates:       []tabular.Row{},
	}
}

// =============================================================================
// VALIDATION AND SCORING
// =============================================================================

// ValidationResults holds the three stage checklists plus accumulated
// warnings and errors.
type ValidationResults struct {
	Stage1A  map[string]bool `json:"stage_1a"`
	Stage1B  map[string]bool `json:"stage_1b"`
	Stage2   map[string]bool `json:"stage_2"`
	Warnings []string        `json:"warnings"`
	Errors   []string        `json:"errors"`
}

// DataCompleteness holds the weighted completeness percentages per stage.
type DataCompleteness struct {
	Stage1ACompleteness  float64 `json:"stage_1a_completeness"`
	Stage1BCompleteness  float64 `json:"stage_1b_completeness"`
	Stage2Completeness   float64 `json:"stage_2_completeness"`
	OverallCompleteness  float64 `json:"overall_completeness"`
	TotalEntities        int     `json:"total_entities"`
	CurrencyDataComplete bool    `json:"currency_data_complete"`
	RatesDataComplete    bool    `json:"rates_data_complete"`
}

// =============================================================================
// RESPONSE ENVELOPE
// =============================================================================

// Response is the evaluation result returned to the routing layer.
// Status "error" marks a recovered data-retrieval failure: the structure is
// fully shaped but empty, and Message carries the cause.
type Response struct {
	Status            string             `json:"status"`
	CompleteData      *CompleteData      `json:"complete_data"`
	Payload           Instruction        `json:"payload"`
	ValidationResults *ValidationResults `json:"validation_results,omitempty"`
	DataCompleteness  *DataCompleteness  `json:"data_completeness,omitempty"`
	Message           string             `json:"message"`
	Error             string             `json:"error,omitempty"`
}

const (
	// StatusSuccess marks a fully evaluated instruction.
	StatusSuccess = "success"
	// StatusError marks a recovered data-retrieval failure.
	StatusError = "error"
)
