/*
fetch.go - Query execution and row extraction

PURPOSE:
  Runs the planned query set for one instruction and normalizes every result
  to a plain row list. Execution is two-phase because two result sets feed
  later queries:

    phase 1: entities, positions, currency configuration
             -> derives the entity-identifier set (entities, falling back to
                positions when the classification join emptied the entity
                list) and the proxy-currency set
    phase 2: everything else, concurrently (bounded), including the
             entity-scoped hedge-event query and one rate-history query per
             discovered proxy currency

FAILURE HANDLING:
  The hedge-event query is the one documented soft recovery: if it fails
  (historically an unsupported filter column), it is retried once with no
  optional filters and a plain limit. Any other failure aborts the whole
  fetch; partial results are never returned as success.

SEE ALSO:
  - planner.go: the queries being executed
  - engine.go: conversion of fetch errors into the recovered error payload
*/
package hedge

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hawk/hedge-engine/tabular"
)

// rawData is everything one fetch collected, before aggregation.
type rawData struct {
	instr Instruction

	entities       []tabular.Row
	positions      []tabular.Row
	currencyConfig []tabular.Row

	bufferConfig    []tabular.Row
	waterfallConfig []tabular.Row
	overlayConfig   []tabular.Row
	framework       []tabular.Row
	systemConfig    []tabular.Row

	allocations  []tabular.Row
	instructions []tabular.Row
	events       []tabular.Row
	carMaster    []tabular.Row

	usdPBDeposits  []tabular.Row
	riskMonitoring []tabular.Row

	currencyRates   []tabular.Row
	proxyConfig     []tabular.Row
	additionalRates []tabular.Row

	bookingModels []tabular.Row
	murexBooks    []tabular.Row
	instruments   []tabular.Row
	effectiveness []tabular.Row

	usdPBThreshold      float64
	thresholdConfigured bool
}

func (e *Engine) fetchAll(ctx context.Context, instr Instruction) (*rawData, error) {
	p := &planner{schema: e.schema, instr: instr}
	raw := &rawData{instr: instr}

	// ----- phase 1: results that gate later queries -----

	var entities, positions, currencyConfig []tabular.Row
	{
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.QueryConcurrency)
		g.Go(func() (err error) {
			entities, err = e.run(gctx, p.entities())
			return err
		})
		g.Go(func() (err error) {
			positions, err = e.run(gctx, p.positions())
			return err
		})
		g.Go(func() (err error) {
			currencyConfig, err = e.run(gctx, p.currencyConfig())
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	raw.positions = positions
	raw.currencyConfig = currencyConfig
	raw.entities = joinCurrencyType(entities, currencyConfig, instr.CurrencyType)

	entityIDs := collectEntityIDs(raw.entities)
	if len(entityIDs) == 0 {
		// The inner classification join can empty the entity list while
		// positions still exist; scope events by position entities then.
		entityIDs = collectEntityIDs(positions)
	}
	proxies := collectProxyCurrencies(currencyConfig, instr.ExposureCurrency)

	// ----- phase 2: independent queries, bounded fan-out -----

	proxyRates := make([][]tabular.Row, len(proxies))
	var thresholdRows []tabular.Row

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.QueryConcurrency)

	fetch := func(dst *[]tabular.Row, build func() tabular.Query) {
		g.Go(func() (err error) {
			*dst, err = e.run(gctx, build())
			return err
		})
	}

	fetch(&raw.bufferConfig, p.bufferConfig)
	fetch(&raw.waterfallConfig, func() tabular.Query { return p.waterfallConfig(gctx) })
	fetch(&raw.overlayConfig, p.overlayConfig)
	fetch(&raw.framework, p.hedgingFramework)
	fetch(&raw.systemConfig, p.systemConfig)
	fetch(&raw.allocations, func() tabular.Query { return p.allocations(gctx) })
	fetch(&raw.instructions, func() tabular.Query { return p.hedgeInstructions(gctx) })
	fetch(&raw.carMaster, func() tabular.Query { return p.carMaster(gctx) })
	fetch(&thresholdRows, p.thresholdConfig)
	fetch(&raw.usdPBDeposits, p.usdPBDeposits)
	fetch(&raw.riskMonitoring, p.riskMonitoring)
	fetch(&raw.currencyRates, func() tabular.Query { return p.ratesFor(gctx, instr.ExposureCurrency, rateLimit) })
	fetch(&raw.proxyConfig, p.proxyConfig)
	fetch(&raw.bookingModels, func() tabular.Query { return p.bookingModels(gctx) })
	fetch(&raw.murexBooks, func() tabular.Query { return p.murexBooks(gctx) })
	fetch(&raw.instruments, p.hedgeInstruments)
	fetch(&raw.effectiveness, func() tabular.Query { return p.hedgeEffectiveness(gctx) })

	g.Go(func() error {
		rows, err := e.fetchHedgeEvents(gctx, p, entityIDs)
		if err != nil {
			return err
		}
		raw.events = rows
		return nil
	})

	for i, proxy := range proxies {
		i, proxy := i, proxy
		g.Go(func() (err error) {
			proxyRates[i], err = e.run(gctx, p.ratesFor(gctx, proxy, proxyRateLimit))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw.additionalRates = []tabular.Row{}
	for _, rows := range proxyRates {
		raw.additionalRates = append(raw.additionalRates, rows...)
	}

	raw.usdPBThreshold = e.cfg.DefaultUSDPBThreshold
	if len(thresholdRows) > 0 {
		raw.thresholdConfigured = true
		if tabular.Has(thresholdRows[0], "warning_level") {
			raw.usdPBThreshold = tabular.Float(thresholdRows[0], "warning_level")
		}
	}
	return raw, nil
}

// run executes one query and normalizes the result to a non-nil row list.
func (e *Engine) run(ctx context.Context, q tabular.Query) ([]tabular.Row, error) {
	res, err := e.svc.Execute(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Table, err)
	}
	if res.Data == nil {
		return []tabular.Row{}, nil
	}
	return res.Data, nil
}

// fetchHedgeEvents runs the optimistic event query and, on failure, retries
// once with the minimal filter-free query before treating the failure as hard.
func (e *Engine) fetchHedgeEvents(ctx context.Context, p *planner, entityIDs []string) ([]tabular.Row, error) {
	rows, err := e.run(ctx, p.hedgeEvents(ctx, entityIDs))
	if err == nil {
		return rows, nil
	}
	e.log.Warn().
		Err(err).
		Msg("hedge event query failed, retrying without optional filters")
	return e.run(ctx, p.hedgeEventsBare())
}

// joinCurrencyType reproduces the entity/classification join in memory.
// With a requested currencyType the join is inner: entities whose currency
// has no matching classification are dropped. Without one it is left-outer:
// the classification becomes optional metadata on a copy of the row.
func joinCurrencyType(entities, currencyConfig []tabular.Row, currencyType string) []tabular.Row {
	typeByCurrency := make(map[string]string, len(currencyConfig))
	for _, cfg := range currencyConfig {
		if code := tabular.Str(cfg, "currency_code"); code != "" {
			typeByCurrency[code] = tabular.Str(cfg, "currency_type")
		}
	}

	joined := make([]tabular.Row, 0, len(entities))
	for _, entity := range entities {
		ctype, classified := typeByCurrency[tabular.Str(entity, "currency_code")]
		if currencyType != "" && (!classified || ctype != currencyType) {
			continue
		}
		dup := make(tabular.Row, len(entity)+1)
		for k, v := range entity {
			dup[k] = v
		}
		dup["currency_type"] = ctype
		joined = append(joined, dup)
	}
	return joined
}

func collectEntityIDs(rows []tabular.Row) []string {
	seen := make(map[string]bool, len(rows))
	var ids []string
	for _, row := range rows {
		id := tabular.Str(row, "entity_id")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func collectProxyCurrencies(currencyConfig []tabular.Row, exposureCurrency string) []string {
	seen := make(map[string]bool, len(currencyConfig))
	var proxies []string
	for _, cfg := range currencyConfig {
		proxy := tabular.Str(cfg, "proxy_currency")
		if proxy == "" || proxy == exposureCurrency || seen[proxy] {
			continue
		}
		seen[proxy] = true
		proxies = append(proxies, proxy)
	}
	return proxies
}
