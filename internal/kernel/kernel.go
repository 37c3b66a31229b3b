// Package kernel is the matching kernel: it owns the simulator's active
// simulated orders and decides, against the latest reconstructed top of
// book, whether and when each one would have filled. It is not a matching
// engine — it never matches two external orders against each other, only
// the single participant's simulated orders against the resting book.
package kernel

import (
	"github.com/yanun0323/logs"

	"fillsim/internal/latency"
	"fillsim/internal/obs"
	"fillsim/internal/risk"
	"fillsim/internal/schema"
	"fillsim/internal/simerr"
	"fillsim/internal/strategy"
)

// TraceSink receives every order lifecycle record the kernel emits.
type TraceSink interface {
	Write(schema.OrderRecord) error
}

type trackedOrder struct {
	order  schema.ActiveOrder
	status Status
}

// Kernel owns active_orders and the running P&L/order-count aggregates.
type Kernel struct {
	strategy strategy.Strategy
	latency  *latency.Pipeline
	guard    *risk.Guard
	sink     TraceSink
	metrics  *obs.Metrics

	symbolID uint32

	active []uint64 // insertion order of currently-active order ids
	byID   map[uint64]*trackedOrder

	latestTop schema.TopOfBook
	haveTop   bool

	position     int64
	cashFlow     int64
	ordersPlaced uint64
	ordersFilled uint64

	buyQty          uint64
	sellQty         uint64
	buyNotionalSum  int64 // exact nanos, divided by schema.Nanos only at presentation time
	sellNotionalSum int64
}

// New builds a kernel around the given collaborators. guard may be nil.
func New(strat strategy.Strategy, lat *latency.Pipeline, guard *risk.Guard, sink TraceSink, metrics *obs.Metrics) *Kernel {
	return &Kernel{
		strategy: strat,
		latency:  lat,
		guard:    guard,
		sink:     sink,
		metrics:  metrics,
		byID:     make(map[uint64]*trackedOrder),
	}
}

// SetSymbol forwards the symbol id to the strategy and remembers it for
// stamping SymbolID on every trace record this kernel emits.
func (k *Kernel) SetSymbol(symbolID uint32) {
	k.symbolID = symbolID
	k.strategy.SetSymbol(symbolID)
}

// Position returns the kernel's current signed net position.
func (k *Kernel) Position() int64 { return k.position }

// CashFlow returns the kernel's current exact cash flow, in price-nanos·qty units.
func (k *Kernel) CashFlow() int64 { return k.cashFlow }

// OrdersPlaced returns the lifetime count of accepted Add actions.
func (k *Kernel) OrdersPlaced() uint64 { return k.ordersPlaced }

// OrdersFilled returns the lifetime count of orders that reached FullyFilled.
func (k *Kernel) OrdersFilled() uint64 { return k.ordersFilled }

// SideTotals returns the per-side share counts and exact notional-nanos sums.
func (k *Kernel) SideTotals() (buyQty, sellQty uint64, buyNotionalNanos, sellNotionalNanos int64) {
	return k.buyQty, k.sellQty, k.buyNotionalSum, k.sellNotionalSum
}

// WouldFill reports whether an order at price/qty on side would cross the
// latest top. Sentinel prices and an unset side never cross.
func (k *Kernel) WouldFill(side schema.Side, price schema.Price, qty schema.Quantity) bool {
	if side == schema.SideUnknown || qty == 0 || price <= 0 {
		return false
	}
	bestBid, bestAsk := k.latestTop.BestBid(), k.latestTop.BestAsk()
	switch side {
	case schema.SideBid:
		return bestAsk != schema.NoAsk && price >= bestAsk
	case schema.SideAsk:
		return bestBid != schema.NoBid && price <= bestBid
	default:
		return false
	}
}

func crossingPrice(side schema.Side, top schema.TopOfBook) schema.Price {
	if side == schema.SideBid {
		return top.BestAsk()
	}
	return top.BestBid()
}

// UpdateTop latches a new top-of-book snapshot. Per the ordering guarantee,
// callers must call this before invoking the strategy's OnBookTop and
// before Sweep.
func (k *Kernel) UpdateTop(top schema.TopOfBook) {
	k.latestTop = top
	k.haveTop = true
}

// Sweep iterates active orders in insertion order and fills any whose
// remaining quantity would cross the currently latched top. A snapshot of
// the order-id list is taken up front so that a fill triggered earlier in
// the sweep removing its order from the active set never perturbs the
// iteration that is still in progress.
func (k *Kernel) Sweep() error {
	ids := make([]uint64, len(k.active))
	copy(ids, k.active)

	for _, id := range ids {
		t, ok := k.byID[id]
		if !ok {
			continue
		}
		remaining := t.order.Remaining()
		if remaining == 0 || !k.WouldFill(t.order.Side, t.order.Price, remaining) {
			continue
		}
		if err := k.processFill(id, crossingPrice(t.order.Side, k.latestTop), remaining, t.order.Side, 0); err != nil {
			return err
		}
	}
	return nil
}

func (k *Kernel) removeActive(orderID uint64) {
	delete(k.byID, orderID)
	for i, id := range k.active {
		if id == orderID {
			k.active = append(k.active[:i], k.active[i+1:]...)
			return
		}
	}
}

func (k *Kernel) emit(rec schema.OrderRecord) error {
	rec.SymbolID = k.symbolID
	if err := k.sink.Write(rec); err != nil {
		return simerr.Wire(err, "write order record", true)
	}
	return nil
}

// absorb enacts the propagation policy a *simerr.Error's Fatal field
// documents: a fatal error is returned as-is, to halt the loop with an
// exit-code-1 diagnostic; a non-fatal one is logged and counted, then
// treated as a no-op so the run continues. Errors of any other type pass
// through unchanged, since only simerr.Error carries that decision.
func (k *Kernel) absorb(err error) error {
	se, ok := err.(*simerr.Error)
	if !ok || se.Fatal {
		return err
	}
	logs.Warnf("%s", se.Error())
	k.metrics.IncStateWarn()
	return nil
}

func mulOverflowSafe(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, true
	}
	return p, false
}
