/*
dto.go - Request validation and API response types

PURPOSE:
  Defines the JSON structures for API communication and the inbound
  instruction validation. The engine consumes an already-validated
  hedge.Instruction; all type/range checks on the raw payload happen here,
  in the thin routing layer.

VALIDATION RULES:
  instruction_type:   "I" (inception) or "U" (utilisation)
  order_id:           non-empty
  sub_order_id:       non-empty
  exposure_currency:  exactly 3 characters, normalized to uppercase
  hedge_amount_order: positive, at most 1,000,000,000
  hedge_method:       "COH" or "MT"
  nav_type:           optional; COI, RE, or RE_Reserve
  currency_type:      optional; Matched, Mismatched, or Mismatched_with_Proxy

SEE ALSO:
  - handlers.go: uses these types
  - hedge/types.go: the validated instruction record
*/
package api

import (
	"fmt"
	"strings"

	"github.com/hawk/hedge-engine/hedge"
)

// MaxHedgeAmountOrder is the inclusive upper bound on hedge_amount_order.
const MaxHedgeAmountOrder = 1_000_000_000

// InstructionRequest is the raw inbound hedge instruction payload.
type InstructionRequest struct {
	InstructionType  string  `json:"instruction_type"`
	OrderID          string  `json:"order_id"`
	SubOrderID       string  `json:"sub_order_id"`
	ExposureCurrency string  `json:"exposure_currency"`
	HedgeAmountOrder float64 `json:"hedge_amount_order"`
	HedgeMethod      string  `json:"hedge_method"`
	NavType          string  `json:"nav_type,omitempty"`
	CurrencyType     string  `json:"currency_type,omitempty"`
}

var (
	validNavTypes = map[string]bool{
		"COI": true, "RE": true, "RE_Reserve": true,
	}
	validCurrencyTypes = map[string]bool{
		"Matched": true, "Mismatched": true, "Mismatched_with_Proxy": true,
	}
)

// Validate checks the raw payload and returns the normalized instruction.
func (r InstructionRequest) Validate() (hedge.Instruction, error) {
	if r.InstructionType != hedge.InstructionInception && r.InstructionType != hedge.InstructionUtilisation {
		return hedge.Instruction{}, fmt.Errorf("instruction_type must be %q or %q", hedge.InstructionInception, hedge.InstructionUtilisation)
	}
	if strings.TrimSpace(r.OrderID) == "" {
		return hedge.Instruction{}, fmt.Errorf("order_id is required")
	}
	if strings.TrimSpace(r.SubOrderID) == "" {
		return hedge.Instruction{}, fmt.Errorf("sub_order_id is required")
	}

	currency := strings.ToUpper(strings.TrimSpace(r.ExposureCurrency))
	if len(currency) != 3 {
		return hedge.Instruction{}, fmt.Errorf("exposure_currency must be exactly 3 characters")
	}
	if r.HedgeAmountOrder <= 0 {
		return hedge.Instruction{}, fmt.Errorf("hedge_amount_order must be positive")
	}
	if r.HedgeAmountOrder > MaxHedgeAmountOrder {
		return hedge.Instruction{}, fmt.Errorf("hedge_amount_order exceeds maximum of %d", MaxHedgeAmountOrder)
	}
	if r.HedgeMethod != hedge.MethodCOH && r.HedgeMethod != hedge.MethodMT {
		return hedge.Instruction{}, fmt.Errorf("hedge_method must be %q or %q", hedge.MethodCOH, hedge.MethodMT)
	}
	if r.NavType != "" && !validNavTypes[r.NavType] {
		return hedge.Instruction{}, fmt.Errorf("nav_type must be one of COI, RE, RE_Reserve")
	}
	if r.CurrencyType != "" && !validCurrencyTypes[r.CurrencyType] {
		return hedge.Instruction{}, fmt.Errorf("currency_type must be one of Matched, Mismatched, Mismatched_with_Proxy")
	}

	return hedge.Instruction{
		InstructionType:  r.InstructionType,
		OrderID:          r.OrderID,
		SubOrderID:       r.SubOrderID,
		ExposureCurrency: currency,
		HedgeAmountOrder: r.HedgeAmountOrder,
		HedgeMethod:      r.HedgeMethod,
		NavType:          r.NavType,
		CurrencyType:     r.CurrencyType,
	}, nil
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
