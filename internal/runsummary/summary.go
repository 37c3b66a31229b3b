// Package runsummary builds and persists the end-of-run report: the
// kernel's final position and cash flow, order counts, and latency
// aggregates. Every field that crosses into this package is read once, at
// the end of a run — nothing here sits on the deterministic core path.
package runsummary

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/yanun0323/decimal"

	"fillsim/internal/kernel"
	"fillsim/internal/schema"
)

// Summary is the resolved end-of-run report for a single symbol's session.
type Summary struct {
	GeneratedAtUnixNano int64  `json:"generatedAtUnixNano"`
	SymbolID            uint32 `json:"symbolId"`

	Position       int64 `json:"position"`
	CashFlowNanos  int64 `json:"cashFlowNanos"`
	OrdersPlaced   uint64 `json:"ordersPlaced"`
	OrdersFilled   uint64 `json:"ordersFilled"`

	BuyQty               uint64 `json:"buyQty"`
	SellQty              uint64 `json:"sellQty"`
	BuyNotionalNanos     int64  `json:"buyNotionalNanos"`
	SellNotionalNanos    int64  `json:"sellNotionalNanos"`

	AvgMDToStrategyNs          float64 `json:"avgMdToStrategyNs"`
	AvgStrategyToExchangeNs    float64 `json:"avgStrategyToExchangeNs"`
	AvgExchangeToNotificationNs float64 `json:"avgExchangeToNotificationNs"`

	// Decimal renders CashFlowNanos in whole quote-currency units for
	// display. It is derived, never the arithmetic source of truth — the
	// kernel's nanos fields remain authoritative.
	CashFlowDecimal string `json:"cashFlowDecimal"`
}

// Build resolves a Summary from a finished kernel and its latency pipeline,
// stamped at generatedAtUnixNano (callers pass time.Now().UnixNano(); kept
// as a parameter so this package never calls time.Now() itself).
func Build(k *kernel.Kernel, counters schema.LatencyCounters, symbolID uint32, generatedAtUnixNano int64) Summary {
	buyQty, sellQty, buyNotional, sellNotional := k.SideTotals()

	cashFlowDecimal := decimal.NewFromInt(k.CashFlow()).Div(decimal.NewFromInt(schema.Nanos))

	return Summary{
		GeneratedAtUnixNano:         generatedAtUnixNano,
		SymbolID:                    symbolID,
		Position:                    k.Position(),
		CashFlowNanos:               k.CashFlow(),
		OrdersPlaced:                k.OrdersPlaced(),
		OrdersFilled:                k.OrdersFilled(),
		BuyQty:                      buyQty,
		SellQty:                     sellQty,
		BuyNotionalNanos:            buyNotional,
		SellNotionalNanos:           sellNotional,
		AvgMDToStrategyNs:           counters.AvgMDToStrategyNs(),
		AvgStrategyToExchangeNs:     counters.AvgStrategyToExchangeNs(),
		AvgExchangeToNotificationNs: counters.AvgExchangeToNotificationNs(),
		CashFlowDecimal:             cashFlowDecimal.String(),
	}
}

// WriteJSON persists a summary to path as indented JSON, creating parent
// directories as needed.
func WriteJSON(path string, summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a previously written summary, for run-to-run comparison.
func ReadJSON(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}
