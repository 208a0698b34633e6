/*
validate.go - Stage validation and completeness scoring

PURPOSE:
  Runs the fixed checklist of presence/threshold checks across the three
  configuration stages and computes the weighted completeness percentages.
  Checks are evaluated purely on presence (non-empty collection) or equality
  (a status field equals a literal), never on the computed hedging state.

CHECKLISTS:
  Stage 1A: entity groups (error when absent), buffer/waterfall/framework/
            system configuration (warnings), USD-PB check status (warning)
  Stage 1B: allocations and CAR data (warnings); instruction history and
            hedge events recorded without warnings
  Stage 2:  booking model and Murex books (warnings); instruments and
            effectiveness recorded without warnings

SCORING:
  Per stage: present expected sub-tables / total expected, as a percentage
  rounded to one decimal. Overall: unweighted mean of the three stage scores.

SEE ALSO:
  - aggregate.go: produces the CompleteData these functions inspect
*/
package hedge

import (
	"fmt"
	"math"
)

// Check names, shared by validation and tests.
const (
	CheckEntityGroups     = "entity_groups"
	CheckBufferConfig     = "buffer_configuration"
	CheckWaterfallLogic   = "waterfall_logic"
	CheckOverlayConfig    = "overlay_configuration"
	CheckHedgingFramework = "hedging_framework"
	CheckSystemConfig     = "system_configuration"
	CheckThresholdConfig  = "threshold_configuration"
	CheckUSDPB            = "usd_pb_check"

	CheckAllocations        = "current_allocations"
	CheckInstructionHistory = "hedge_instructions_history"
	CheckHedgeEvents        = "active_hedge_events"
	CheckCarMaster          = "car_master_data"

	CheckBookingModel  = "booking_model_config"
	CheckMurexBooks    = "murex_books"
	CheckInstruments   = "hedge_instruments"
	CheckEffectiveness = "hedge_effectiveness"
)

// validate runs the three stage checklists against the assembled data.
func validate(data *CompleteData, instr Instruction) *ValidationResults {
	results := &ValidationResults{
		Stage1A:  make(map[string]bool),
		Stage1B:  make(map[string]bool),
		Stage2:   make(map[string]bool),
		Warnings: []string{},
		Errors:   []string{},
	}

	warn := func(format string, args ...any) {
		results.Warnings = append(results.Warnings, fmt.Sprintf(format, args...))
	}

	// ----- stage 1A -----

	results.Stage1A[CheckEntityGroups] = len(data.EntityGroups) > 0
	if !results.Stage1A[CheckEntityGroups] {
		results.Errors = append(results.Errors,
			fmt.Sprintf("No entity groups found for exposure currency %s", instr.ExposureCurrency))
	}

	results.Stage1A[CheckBufferConfig] = len(data.Stage1AConfig.BufferConfiguration) > 0
	if !results.Stage1A[CheckBufferConfig] {
		warn("Buffer configuration not found for %s", instr.ExposureCurrency)
	}

	results.Stage1A[CheckWaterfallLogic] = waterfallPresent(data.Stage1AConfig.WaterfallLogic)
	if !results.Stage1A[CheckWaterfallLogic] {
		warn("Waterfall logic configuration not found")
	}

	results.Stage1A[CheckHedgingFramework] = len(data.Stage1AConfig.HedgingFramework) > 0
	if !results.Stage1A[CheckHedgingFramework] {
		warn("Hedging framework not found for %s", instr.ExposureCurrency)
	}

	results.Stage1A[CheckSystemConfig] = len(data.Stage1AConfig.SystemConfiguration) > 0
	if !results.Stage1A[CheckSystemConfig] {
		warn("System configuration not found")
	}

	usdPBStatus := data.Stage1AConfig.ThresholdConfig.USDPBCheck.Status
	results.Stage1A[CheckUSDPB] = usdPBStatus == "PASS"
	if !results.Stage1A[CheckUSDPB] {
		warn("USD PB deposit check status: %s", usdPBStatus)
	}

	// ----- stage 1B -----

	results.Stage1B[CheckAllocations] = len(data.Stage1BData.CurrentAllocations) > 0
	if !results.Stage1B[CheckAllocations] {
		warn("No current allocations found for %s", instr.ExposureCurrency)
	}

	results.Stage1B[CheckInstructionHistory] = len(data.Stage1BData.HedgeInstructionsHistory) > 0

	results.Stage1B[CheckCarMaster] = len(data.Stage1BData.CarMasterData) > 0
	if !results.Stage1B[CheckCarMaster] {
		warn("CAR master data not found for %s", instr.ExposureCurrency)
	}

	results.Stage1B[CheckHedgeEvents] = len(data.Stage1BData.ActiveHedgeEvents) > 0

	// ----- stage 2 -----

	results.Stage2[CheckBookingModel] = len(data.Stage2Config.BookingModelConfig) > 0
	if !results.Stage2[CheckBookingModel] {
		warn("Booking model configuration not found")
	}

	results.Stage2[CheckMurexBooks] = len(data.Stage2Config.MurexBooks) > 0
	if !results.Stage2[CheckMurexBooks] {
		warn("No active Murex books found")
	}

	results.Stage2[CheckInstruments] = len(data.Stage2Config.HedgeInstruments) > 0
	results.Stage2[CheckEffectiveness] = len(data.Stage2Config.HedgeEffectiveness) > 0

	return results
}

// score computes the per-stage and overall completeness percentages over the
// fixed expected sub-table lists.
func score(data *CompleteData) *DataCompleteness {
	stage1A := stageScore([]bool{
		len(data.Stage1AConfig.BufferConfiguration) > 0,
		waterfallPresent(data.Stage1AConfig.WaterfallLogic),
		len(data.Stage1AConfig.OverlayConfiguration) > 0,
		len(data.Stage1AConfig.HedgingFramework) > 0,
		len(data.Stage1AConfig.SystemConfiguration) > 0,
		data.Stage1AConfig.ThresholdConfig.Configured,
	})
	stage1B := stageScore([]bool{
		len(data.Stage1BData.CurrentAllocations) > 0,
		len(data.Stage1BData.HedgeInstructionsHistory) > 0,
		len(data.Stage1BData.ActiveHedgeEvents) > 0,
		len(data.Stage1BData.CarMasterData) > 0,
	})
	stage2 := stageScore([]bool{
		len(data.Stage2Config.BookingModelConfig) > 0,
		len(data.Stage2Config.MurexBooks) > 0,
		len(data.Stage2Config.HedgeInstruments) > 0,
		len(data.Stage2Config.HedgeEffectiveness) > 0,
	})

	return &DataCompleteness{
		Stage1ACompleteness:  stage1A,
		Stage1BCompleteness:  stage1B,
		Stage2Completeness:   stage2,
		OverallCompleteness:  round1((stage1A + stage1B + stage2) / 3),
		TotalEntities:        len(data.EntityGroups),
		CurrencyDataComplete: len(data.CurrencyConfiguration) > 0,
		RatesDataComplete:    len(data.CurrencyRates) > 0,
	}
}

func waterfallPresent(rules WaterfallRules) bool {
	return len(rules.Opening)+len(rules.Closing) > 0
}

func stageScore(present []bool) float64 {
	if len(present) == 0 {
		return 0
	}
	count := 0
	for _, ok := range present {
		if ok {
			count++
		}
	}
	return round1(float64(count) / float64(len(present)) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
