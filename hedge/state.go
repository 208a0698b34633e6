/*
state.go - Per-position hedging state

PURPOSE:
  Derives the hedging state for one NAV position from its latest allocation,
  hedge events, framework rule, buffer rule, and CAR record. This is the
  single defining formula of the system:

    available = current_position - car_amount_distribution
              + manual_overlay_amount - buffer_amount - already_hedged

  Operand order matters: downstream stage validation and completeness
  reporting depend on the sign and magnitude of the result, which is never
  clamped.

DEFAULTS:
  Every numeric extraction defaults to 0 and every output field is always
  populated, even when the source rows are absent. Amount arithmetic uses
  decimal to keep the formula exact for large notionals.

SEE ALSO:
  - aggregate.go: selects the inputs (latest allocation, rules, CAR record)
*/
package hedge

import (
	"github.com/shopspring/decimal"

	"github.com/hawk/hedge-engine/tabular"
)

var hundred = decimal.NewFromInt(100)

// computeHedgingState evaluates the hedging formula and status classification
// for one position. All inputs may be empty rows/lists; no field of the
// result is ever omitted.
func computeHedgingState(position, allocation tabular.Row, events []tabular.Row, frameworkRule, bufferRule tabular.Row) HedgingState {
	currentPosition := tabular.Dec(position, "current_position")
	availableForHedging := tabular.Dec(allocation, "available_amount_for_hedging")
	alreadyHedged := tabular.Dec(allocation, "hedged_position")
	carAmount := tabular.Dec(allocation, "car_amount_distribution")
	manualOverlay := tabular.Dec(allocation, "manual_overlay_amount")
	bufferAmount := tabular.Dec(allocation, "buffer_amount")

	// Available Amount = Position - CAR + Overlay - Buffer - Hedged
	calculatedAvailable := currentPosition.
		Sub(carAmount).
		Add(manualOverlay).
		Sub(bufferAmount).
		Sub(alreadyHedged)

	utilization := decimal.Zero
	if currentPosition.IsPositive() {
		utilization = alreadyHedged.Div(currentPosition).Mul(hundred).Round(2)
	}

	// First matching rule wins; order matters. An entity with zero hedged
	// amount and non-positive availability is Not_Available, not Available.
	status := StatusAvailable
	switch {
	case alreadyHedged.GreaterThanOrEqual(currentPosition):
		status = StatusFullyHedged
	case alreadyHedged.IsPositive():
		status = StatusPartiallyHedged
	case availableForHedging.LessThanOrEqual(decimal.Zero):
		status = StatusNotAvailable
	}

	frameworkType := tabular.StrOr(frameworkRule, "framework_type", FrameworkNotDefined)

	// The buffer rule's percentage wins over the position's own whenever the
	// rule carries the field at all, even with a zero value.
	bufferPercentage := tabular.Dec(position, "buffer_percentage")
	if tabular.Has(bufferRule, "buffer_percentage") {
		bufferPercentage = tabular.Dec(bufferRule, "buffer_percentage")
	}

	carExemption := "N"
	switch {
	case tabular.Has(frameworkRule, "car_exemption_flag"):
		carExemption = tabular.StrOr(frameworkRule, "car_exemption_flag", "N")
	case tabular.Has(frameworkRule, "car_exemption_override"):
		carExemption = tabular.StrOr(frameworkRule, "car_exemption_override", "N")
	}

	totalNotional := decimal.Zero
	for _, event := range events {
		totalNotional = totalNotional.Add(tabular.Dec(event, "notional_amount"))
	}

	return HedgingState{
		AlreadyHedgedAmount:       alreadyHedged.InexactFloat64(),
		AvailableForHedging:       availableForHedging.InexactFloat64(),
		CalculatedAvailableAmount: calculatedAvailable.InexactFloat64(),
		HedgeUtilizationPct:       utilization.InexactFloat64(),
		HedgingStatus:             status,
		CarAmountDistribution:     carAmount.InexactFloat64(),
		ManualOverlayAmount:       manualOverlay.InexactFloat64(),
		BufferAmount:              bufferAmount.InexactFloat64(),
		BufferPercentage:          bufferPercentage.InexactFloat64(),
		FrameworkType:             frameworkType,
		CarExemptionFlag:          carExemption,
		FrameworkCompliance:       frameworkType,
		LastAllocationDate:        tabular.Str(allocation, "created_date"),
		WaterfallPriority:         tabular.Float(allocation, "waterfall_priority"),
		AllocationSequence:        tabular.Float(allocation, "allocation_sequence"),
		AllocationStatus:          tabular.StrOr(allocation, "allocation_status", "Pending"),
		ActiveHedgeCount:          len(events),
		TotalHedgeNotional:        totalNotional.InexactFloat64(),
	}
}
