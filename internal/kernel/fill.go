package kernel

import (
	"time"

	"fillsim/internal/schema"
	"fillsim/internal/simerr"
)

// processFill accounts a fill of qty shares at price against the tracked
// order orderID, emits the corresponding trace record, and notifies the
// strategy. If notificationTs is zero, it is derived from the latched top's
// timestamp through the latency pipeline's fill-notification stamp.
//
// Any actions the strategy returns from OnOrderFilled are dispatched back
// through the same Latency -> Kernel path as book-top-driven actions, never
// applied directly — a fill notification is just another strategy-observed
// event, not a privileged shortcut around the latency model.
func (k *Kernel) processFill(orderID uint64, price schema.Price, qty schema.Quantity, side schema.Side, notificationTs schema.Timestamp) error {
	t, ok := k.byID[orderID]
	if !ok {
		return k.absorb(simerr.State(simerr.ErrUnknownOrder, "process fill"))
	}
	if qty == 0 {
		return k.absorb(simerr.Invariant(simerr.ErrInvalidFillQty, "process fill"))
	}
	if t.order.FilledQty+qty > t.order.TotalQty {
		return k.absorb(simerr.Invariant(simerr.ErrFilledExceedsTotal, "process fill"))
	}

	fillTs := k.latestTop.Ts
	if notificationTs == 0 {
		notificationTs = k.latency.StampFillNotification(fillTs)
	}
	k.metrics.ObserveFillLatency(time.Duration(notificationTs - fillTs))

	t.order.FilledQty += qty
	fullyFilled := t.order.FullyFilled()
	if fullyFilled {
		t.status = StatusFullyFilled
	} else {
		t.status = StatusPartiallyFilled
	}
	k.metrics.IncFill()

	if err := k.emit(schema.OrderRecord{
		Ts: notificationTs, Type: schema.TraceFill, OrderID: orderID,
		Price: price, Qty: qty, IsBid: side == schema.SideBid,
	}); err != nil {
		return err
	}

	notional, overflow := mulOverflowSafe(int64(price), int64(qty))
	if overflow {
		return k.absorb(simerr.Invariant(simerr.ErrNotionalOverflow, "process fill"))
	}
	switch side {
	case schema.SideBid:
		k.position += int64(qty)
		k.cashFlow -= notional
		k.buyQty += uint64(qty)
		k.buyNotionalSum += notional
	case schema.SideAsk:
		k.position -= int64(qty)
		k.cashFlow += notional
		k.sellQty += uint64(qty)
		k.sellNotionalSum += notional
	}

	if fullyFilled {
		k.removeActive(orderID)
		k.ordersFilled++
	}

	actions := k.strategy.OnOrderFilled(orderID, price, qty, side)
	for _, action := range actions {
		if err := k.Dispatch(action, notificationTs); err != nil {
			return err
		}
	}
	return nil
}
