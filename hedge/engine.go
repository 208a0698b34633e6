/*
engine.go - Evaluation entry point

PURPOSE:
  Engine wires the planner, fetcher, aggregator, and scorer together behind a
  single Evaluate call. One invocation handles one instruction synchronously,
  start to finish; there is no shared mutable state across requests beyond the
  schema cache.

ERROR TIERS:
  1. Data-retrieval failure: recovered here. The caller receives a well-formed
     response with Status "error", empty collections, and the cause in
     Message/Error. Never a transport-level failure.
  2. Failures during aggregation/validation/scoring: NOT recovered here. They
     indicate a contract violation between the engine and its data source and
     propagate to the request boundary.

SEE ALSO:
  - fetch.go: the retrieval half
  - aggregate.go, validate.go: the computation half
*/
package hedge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hawk/hedge-engine/tabular"
)

// Config carries the engine's injected settings.
type Config struct {
	// DefaultUSDPBThreshold is the USD-PB deposit warning level used when no
	// active threshold_configuration row exists.
	DefaultUSDPBThreshold float64

	// QueryConcurrency bounds the worker pool for independent table queries.
	QueryConcurrency int
}

// Engine aggregates hedge data for one instruction at a time.
type Engine struct {
	svc    tabular.Service
	schema *tabular.SchemaCache
	cfg    Config
	log    zerolog.Logger
}

// New creates an engine over the given table service. The schema cache lives
// for the engine's lifetime, so each table is introspected at most once.
func New(svc tabular.Service, cfg Config, log zerolog.Logger) *Engine {
	if cfg.QueryConcurrency <= 0 {
		cfg.QueryConcurrency = 8
	}
	return &Engine{
		svc:    svc,
		schema: tabular.NewSchemaCache(svc),
		cfg:    cfg,
		log:    log,
	}
}

// Evaluate runs the full pipeline for one instruction: plan and execute the
// query set, aggregate per entity and position, validate the three stages,
// and score completeness.
func (e *Engine) Evaluate(ctx context.Context, instr Instruction) (*Response, error) {
	raw, err := e.fetchAll(ctx, instr)
	if err != nil {
		e.log.Error().
			Err(err).
			Str("exposure_currency", instr.ExposureCurrency).
			Str("order_id", instr.OrderID).
			Msg("complete data fetch failed")
		return &Response{
			Status:       StatusError,
			CompleteData: EmptyCompleteData(),
			Payload:      instr,
			Message:      fmt.Sprintf("Complete data retrieval failed: %v", err),
			Error:        err.Error(),
		}, nil
	}

	data := assemble(raw)
	results := validate(data, instr)
	completeness := score(data)

	e.log.Info().
		Str("exposure_currency", instr.ExposureCurrency).
		Int("entities", completeness.TotalEntities).
		Float64("overall_completeness", completeness.OverallCompleteness).
		Int("warnings", len(results.Warnings)).
		Msg("hedge evaluation complete")

	return &Response{
		Status:            StatusSuccess,
		CompleteData:      data,
		Payload:           instr,
		ValidationResults: results,
		DataCompleteness:  completeness,
		Message:           "Hedge data retrieval succeeded.",
	}, nil
}
