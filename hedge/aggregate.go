/*
aggregate.go - The in-memory join and grouping engine

PURPOSE:
  Indexes allocations, hedge events, framework rules, buffer rules, and CAR
  records by entity identifier, groups position rows under their owning
  entity, computes the hedging state per position, and shapes the stage
  blocks, waterfall split, and USD-PB check.

DEDUP POLICY:
  Per-entity single-value lookups (framework rule, buffer rule, CAR record)
  are uniformly FIRST-WINS: the first row seen per entity is kept and later
  rows are ignored. Their source queries order descending by the best
  available timestamp column, so first-wins selects the most recent row.
  The same positional rule picks the "latest allocation": the head of the
  entity's allocation list.

INVARIANTS:
  - Position rows without an entity identifier are dropped, silently
  - Entity groups preserve first-seen position order
  - Every position carries a fully populated hedging state even when the
    allocation/rule/CAR rows are absent

SEE ALSO:
  - state.go: the per-position formula
  - validate.go: checks evaluated on the assembled result
*/
package hedge

import (
	"github.com/shopspring/decimal"

	"github.com/hawk/hedge-engine/tabular"
)

func assemble(raw *rawData) *CompleteData {
	allocationsByEntity := indexLists(raw.allocations)
	eventsByEntity := indexLists(raw.events)
	frameworkByEntity := indexFirstWins(raw.framework)
	bufferByEntity := indexFirstWins(raw.bufferConfig)
	carByEntity := indexFirstWins(raw.carMaster)

	entityInfo := make(map[string]tabular.Row, len(raw.entities))
	for _, entity := range raw.entities {
		if id := tabular.Str(entity, "entity_id"); id != "" {
			entityInfo[id] = entity
		}
	}

	// Group positions by entity, preserving first-seen order.
	grouped := make(map[string][]PositionView)
	var entityOrder []string
	for _, position := range raw.positions {
		entityID := tabular.Str(position, "entity_id")
		if entityID == "" {
			continue
		}

		allocations := allocationsByEntity[entityID]
		latest := tabular.Row{}
		if len(allocations) > 0 {
			latest = allocations[0]
		}
		events := eventsByEntity[entityID]
		framework := orEmpty(frameworkByEntity[entityID])
		buffer := orEmpty(bufferByEntity[entityID])
		car := orEmpty(carByEntity[entityID])

		state := computeHedgingState(position, latest, events, framework, buffer)

		if _, seen := grouped[entityID]; !seen {
			entityOrder = append(entityOrder, entityID)
		}
		grouped[entityID] = append(grouped[entityID], PositionView{
			NavType:            tabular.Str(position, "nav_type"),
			CurrentPosition:    tabular.Float(position, "current_position"),
			ComputedTotalNav:   tabular.Float(position, "computed_total_nav"),
			OptimalCarAmount:   tabular.Float(position, "optimal_car_amount"),
			BufferPercentage:   tabular.Float(position, "buffer_percentage"),
			BufferAmount:       tabular.Float(position, "buffer_amount"),
			ManualOverlay:      tabular.Float(position, "manual_overlay"),
			AllocationStatus:   tabular.StrOr(position, "allocation_status", "Pending"),
			HedgingState:       state,
			AllocationData:     orEmptyList(allocations),
			HedgeRelationships: orEmptyList(events),
			FrameworkRule:      framework,
			BufferRule:         buffer,
			CarData:            car,
		})
	}

	entityGroups := make([]EntityGroup, 0, len(entityOrder))
	for _, entityID := range entityOrder {
		entity := orEmpty(entityInfo[entityID])
		entityGroups = append(entityGroups, EntityGroup{
			EntityID:           entityID,
			EntityName:         tabular.Str(entity, "entity_name"),
			EntityType:         tabular.Str(entity, "entity_type"),
			ExposureCurrency:   tabular.Str(entity, "currency_code"),
			CurrencyType:       tabular.Str(entity, "currency_type"),
			CarExemption:       tabular.Str(entity, "car_exemption_flag"),
			ParentChildNavLink: tabular.Bool(entity, "parent_child_nav_link"),
			Positions:          grouped[entityID],
		})
	}

	activeEvents := make(map[string][]tabular.Row, len(eventsByEntity))
	for entityID, events := range eventsByEntity {
		activeEvents[entityID] = events
	}

	return &CompleteData{
		EntityGroups: entityGroups,
		Stage1AConfig: Stage1AConfig{
			BufferConfiguration:  orEmptyList(raw.bufferConfig),
			WaterfallLogic:       splitWaterfall(raw.waterfallConfig),
			OverlayConfiguration: orEmptyList(raw.overlayConfig),
			HedgingFramework:     orEmptyList(raw.framework),
			SystemConfiguration:  orEmptyList(raw.systemConfig),
			ThresholdConfig: ThresholdSummary{
				USDPBThreshold: raw.usdPBThreshold,
				USDPBCheck:     checkUSDPBDeposits(raw.usdPBDeposits, raw.usdPBThreshold),
				Configured:     raw.thresholdConfigured,
			},
		},
		Stage1BData: Stage1BData{
			CurrentAllocations:       orEmptyList(raw.allocations),
			HedgeInstructionsHistory: orEmptyList(raw.instructions),
			ActiveHedgeEvents:        activeEvents,
			CarMasterData:            orEmptyList(raw.carMaster),
		},
		Stage2Config: Stage2Config{
			BookingModelConfig: orEmptyList(raw.bookingModels),
			MurexBooks:         orEmptyList(raw.murexBooks),
			HedgeInstruments:   orEmptyList(raw.instruments),
			HedgeEffectiveness: orEmptyList(raw.effectiveness),
		},
		RiskMonitoring:        orEmptyList(raw.riskMonitoring),
		CurrencyConfiguration: orEmptyList(raw.currencyConfig),
		CurrencyRates:         orEmptyList(raw.currencyRates),
		ProxyConfiguration:    orEmptyList(raw.proxyConfig),
		AdditionalRates:       orEmptyList(raw.additionalRates),
	}
}

// indexLists buckets rows by entity identifier, keeping query order within
// each bucket. Rows without an identifier are dropped.
func indexLists(rows []tabular.Row) map[string][]tabular.Row {
	byEntity := make(map[string][]tabular.Row)
	for _, row := range rows {
		if id := tabular.Str(row, "entity_id"); id != "" {
			byEntity[id] = append(byEntity[id], row)
		}
	}
	return byEntity
}

// indexFirstWins keeps only the first row seen per entity. Combined with the
// descending-by-recency query ordering this selects the most recent row.
func indexFirstWins(rows []tabular.Row) map[string]tabular.Row {
	byEntity := make(map[string]tabular.Row)
	for _, row := range rows {
		id := tabular.Str(row, "entity_id")
		if id == "" {
			continue
		}
		if _, exists := byEntity[id]; !exists {
			byEntity[id] = row
		}
	}
	return byEntity
}

// splitWaterfall partitions the waterfall rules into opening and closing sets.
func splitWaterfall(rows []tabular.Row) WaterfallRules {
	rules := WaterfallRules{Opening: []tabular.Row{}, Closing: []tabular.Row{}}
	for _, row := range rows {
		switch tabular.Str(row, "waterfall_type") {
		case "Opening":
			rules.Opening = append(rules.Opening, row)
		case "Closing":
			rules.Closing = append(rules.Closing, row)
		}
	}
	return rules
}

// checkUSDPBDeposits sums the USD private-bank deposit rows and compares the
// total against the warning threshold. The boundary is inclusive-pass: a
// total exactly at the threshold passes, only strictly greater fails.
func checkUSDPBDeposits(rows []tabular.Row, threshold float64) USDPBCheck {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(tabular.Dec(row, "total_usd_deposits"))
	}

	limit := decimal.NewFromFloat(threshold)
	status := "PASS"
	excess := decimal.Zero
	if total.GreaterThan(limit) {
		status = "FAIL"
		excess = total.Sub(limit)
	}
	return USDPBCheck{
		TotalUSDEquivalent: total.InexactFloat64(),
		Threshold:          threshold,
		Status:             status,
		ExcessAmount:       excess.InexactFloat64(),
	}
}

func orEmpty(row tabular.Row) tabular.Row {
	if row == nil {
		return tabular.Row{}
	}
	return row
}

func orEmptyList(rows []tabular.Row) []tabular.Row {
	if rows == nil {
		return []tabular.Row{}
	}
	return rows
}
