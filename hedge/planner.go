/*
planner.go - Query construction for one evaluation request

PURPOSE:
  Builds the full set of filtered, ordered, limited queries needed to answer
  one hedge-inception instruction. Non-critical filters and every sort route
  through the schema-drift adapter, so a renamed timestamp column degrades a
  query to "unordered" instead of failing it.

TWO DERIVED QUERIES:
  - the hedge-event query is scoped by the entity-identifier set discovered
    from the entity/position results
  - the proxy-rate queries are fanned out from the proxy currencies discovered
    in the primary currency-configuration result
  Both are therefore built by the fetcher after phase 1, not here in bulk.

SEE ALSO:
  - fetch.go: execution order, retry, and row extraction
*/
package hedge

import (
	"context"

	"github.com/hawk/hedge-engine/tabular"
)

// Logical table names.
const (
	TableEntityMaster      = "entity_master"
	TablePositionNav       = "position_nav_master"
	TableBufferConfig      = "buffer_configuration"
	TableWaterfallConfig   = "waterfall_logic_configuration"
	TableOverlayConfig     = "overlay_configuration"
	TableHedgingFramework  = "hedging_framework"
	TableSystemConfig      = "system_configuration"
	TableAllocationEngine  = "allocation_engine"
	TableHedgeInstructions = "hedge_instructions"
	TableHedgeEvents       = "hedge_business_events"
	TableCarMaster         = "car_master"
	TableThresholdConfig   = "threshold_configuration"
	TableUSDPBDeposit      = "usd_pb_deposit"
	TableRiskMonitoring    = "risk_monitoring"
	TableCurrencyConfig    = "currency_configuration"
	TableCurrencyRates     = "currency_rates"
	TableProxyConfig       = "proxy_configuration"
	TableInstructionEvent  = "instruction_event_config"
	TableMurexBooks        = "murex_book_config"
	TableHedgeInstruments  = "hedge_instruments"
	TableHedgeEffect       = "hedge_effectiveness"
)

// RateBaseCurrency is the base leg used for every currency_pair lookup
// (HKDSGD / SGDHKD and so on).
const RateBaseCurrency = "SGD"

// USDPBThresholdType selects the USD private-bank deposit warning level in
// threshold_configuration.
const USDPBThresholdType = "USD_PB_DEPOSIT"

// Candidate ordering columns, most preferred first. Environments disagree on
// which of these exist; the adapter picks the first live one.
var (
	waterfallOrderCandidates  = []string{"waterfall_type", "priority_level", "created_date", "created_at"}
	allocationOrderCandidates = []string{"created_date", "created_at", "updated_at", "modified_date"}
	instructionOrderCands     = []string{"created_date", "created_at", "instruction_date", "updated_at"}
	eventOrderCandidates      = []string{"created_date", "created_at", "updated_date", "updated_at", "event_timestamp", "event_time", "event_at"}
	carOrderCandidates        = []string{"reporting_date", "as_of_date", "effective_date", "created_date", "created_at"}
	rateOrderCandidates       = []string{"effective_date", "rate_date", "as_of_date", "created_at"}
	effectOrderCandidates     = []string{"effectiveness_date", "as_of_date", "created_at"}
)

// Result-set limits per table.
const (
	allocationLimit  = 100
	instructionLimit = 50
	eventLimit       = 50
	rateLimit        = 20
	proxyRateLimit   = 10
	effectLimit      = 10
)

// planner builds the queries for one instruction against one live schema.
type planner struct {
	schema *tabular.SchemaCache
	instr  Instruction
}

// ----- phase 1: entity/position/currency lookups -----

func (p *planner) entities() tabular.Query {
	return tabular.NewQuery(TableEntityMaster).
		Eq("currency_code", p.instr.ExposureCurrency)
}

func (p *planner) positions() tabular.Query {
	q := tabular.NewQuery(TablePositionNav).
		Eq("currency_code", p.instr.ExposureCurrency)
	if p.instr.NavType != "" {
		q = q.Eq("nav_type", p.instr.NavType)
	}
	return q
}

func (p *planner) currencyConfig() tabular.Query {
	return tabular.NewQuery(TableCurrencyConfig).Any(
		tabular.Disjunct{Column: "currency_code", Value: p.instr.ExposureCurrency},
		tabular.Disjunct{Column: "proxy_currency", Value: p.instr.ExposureCurrency},
	)
}

// ----- stage 1A configuration -----

func (p *planner) bufferConfig() tabular.Query {
	return tabular.NewQuery(TableBufferConfig).
		Eq("currency_code", p.instr.ExposureCurrency).
		Eq("active_flag", "Y")
}

func (p *planner) waterfallConfig(ctx context.Context) tabular.Query {
	q := tabular.NewQuery(TableWaterfallConfig).Eq("active_flag", "Y")
	// waterfall_type then priority sort ascending
	return p.schema.OrderByFirstExisting(ctx, q, waterfallOrderCandidates, false)
}

func (p *planner) overlayConfig() tabular.Query {
	return tabular.NewQuery(TableOverlayConfig).
		Eq("currency_code", p.instr.ExposureCurrency).
		Eq("active_flag", "Y")
}

func (p *planner) hedgingFramework() tabular.Query {
	return tabular.NewQuery(TableHedgingFramework).
		Eq("currency_code", p.instr.ExposureCurrency).
		Eq("active_flag", "Y")
}

func (p *planner) systemConfig() tabular.Query {
	return tabular.NewQuery(TableSystemConfig).Eq("active_flag", "Y")
}

// ----- stage 1A/1B allocation and hedge data -----

func (p *planner) allocations(ctx context.Context) tabular.Query {
	q := tabular.NewQuery(TableAllocationEngine).
		Eq("currency_code", p.instr.ExposureCurrency)
	return p.schema.OrderByFirstExisting(ctx, q, allocationOrderCandidates, true).
		Limit(allocationLimit)
}

func (p *planner) hedgeInstructions(ctx context.Context) tabular.Query {
	q := tabular.NewQuery(TableHedgeInstructions).
		Eq("exposure_currency", p.instr.ExposureCurrency)
	return p.schema.OrderByFirstExisting(ctx, q, instructionOrderCands, true).
		Limit(instructionLimit)
}

// hedgeEvents scopes the historically-unstable event table by entity IDs,
// the most reliable filter it supports. nav_type and ordering are optional
// and only applied when the columns exist.
func (p *planner) hedgeEvents(ctx context.Context, entityIDs []string) tabular.Query {
	q := tabular.NewQuery(TableHedgeEvents).Limit(eventLimit)
	if len(entityIDs) > 0 {
		ids := make([]any, len(entityIDs))
		for i, id := range entityIDs {
			ids[i] = id
		}
		q = q.In("entity_id", ids...)
	}
	if p.instr.NavType != "" {
		q = p.schema.FilterIfPresent(ctx, q, "nav_type", p.instr.NavType)
	}
	return p.schema.OrderByFirstExisting(ctx, q, eventOrderCandidates, true)
}

// hedgeEventsBare is the minimal fallback when the optimistic event query
// fails: no filters, no ordering, plain limit.
func (p *planner) hedgeEventsBare() tabular.Query {
	return tabular.NewQuery(TableHedgeEvents).Limit(eventLimit)
}

func (p *planner) carMaster(ctx context.Context) tabular.Query {
	q := tabular.NewQuery(TableCarMaster).
		Eq("currency_code", p.instr.ExposureCurrency)
	return p.schema.OrderByFirstExisting(ctx, q, carOrderCandidates, true)
}

// ----- thresholds and monitoring -----

func (p *planner) thresholdConfig() tabular.Query {
	return tabular.NewQuery(TableThresholdConfig).
		Eq("threshold_type", USDPBThresholdType).
		Eq("active_flag", "Y")
}

func (p *planner) usdPBDeposits() tabular.Query {
	return tabular.NewQuery(TableUSDPBDeposit)
}

func (p *planner) riskMonitoring() tabular.Query {
	return tabular.NewQuery(TableRiskMonitoring).
		Eq("currency_code", p.instr.ExposureCurrency).
		Eq("monitoring_status", "Active")
}

// ----- currency and rates -----

// ratesFor builds the rate-history query for one currency against the base
// leg, both pair directions.
func (p *planner) ratesFor(ctx context.Context, currency string, limit int) tabular.Query {
	q := tabular.NewQuery(TableCurrencyRates).Any(
		tabular.Disjunct{Column: "currency_pair", Value: currency + RateBaseCurrency},
		tabular.Disjunct{Column: "currency_pair", Value: RateBaseCurrency + currency},
	)
	return p.schema.OrderByFirstExisting(ctx, q, rateOrderCandidates, true).
		Limit(limit)
}

func (p *planner) proxyConfig() tabular.Query {
	return tabular.NewQuery(TableProxyConfig).
		Eq("currency_code", p.instr.ExposureCurrency).
		Eq("active_flag", "Y")
}

// ----- stage 2: booking and execution -----

func (p *planner) bookingModels(ctx context.Context) tabular.Query {
	q := tabular.NewQuery(TableInstructionEvent).
		Eq("instruction_event", "Initiation")
	if p.instr.NavType != "" {
		q = p.schema.FilterIfPresent(ctx, q, "nav_type", p.instr.NavType)
	}
	if p.instr.CurrencyType != "" {
		q = p.schema.FilterIfPresent(ctx, q, "currency_type", p.instr.CurrencyType)
	}
	return q
}

func (p *planner) murexBooks(ctx context.Context) tabular.Query {
	q := tabular.NewQuery(TableMurexBooks)
	return p.schema.FilterIfPresent(ctx, q, "active_flag", "Y")
}

func (p *planner) hedgeInstruments() tabular.Query {
	return tabular.NewQuery(TableHedgeInstruments).
		Eq("currency_code", p.instr.ExposureCurrency).
		Eq("active_flag", "Y")
}

func (p *planner) hedgeEffectiveness(ctx context.Context) tabular.Query {
	q := tabular.NewQuery(TableHedgeEffect).
		Eq("currency_code", p.instr.ExposureCurrency)
	return p.schema.OrderByFirstExisting(ctx, q, effectOrderCandidates, true).
		Limit(effectLimit)
}
