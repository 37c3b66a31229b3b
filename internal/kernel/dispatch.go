package kernel

import (
	"github.com/yanun0323/logs"

	"fillsim/internal/risk"
	"fillsim/internal/schema"
)

// Dispatch routes a single strategy action through the latency pipeline and
// into the matching kernel's order book. strategyTs is the time the action
// was emitted, in strategy-local time (the basis the spec calls "event time").
func (k *Kernel) Dispatch(action schema.Action, strategyTs schema.Timestamp) error {
	exchangeTs := k.latency.StampOutbound(strategyTs)

	switch action.Type {
	case schema.ActionAdd:
		return k.dispatchAdd(action, strategyTs, exchangeTs)
	case schema.ActionCancel:
		return k.dispatchCancel(action)
	case schema.ActionReplace:
		return k.dispatchReplace(action, strategyTs, exchangeTs)
	default:
		return nil
	}
}

func (k *Kernel) dispatchAdd(action schema.Action, sentTs, mdTs schema.Timestamp) error {
	if decision := k.evaluateRisk(action, mdTs); !decision.Allow {
		k.metrics.IncRiskReject()
		return k.emit(schema.OrderRecord{
			Ts: mdTs, Type: schema.TraceCancel, OrderID: action.OrderID,
			Price: action.Price, Qty: action.Qty, IsBid: action.Side == schema.SideBid,
		})
	}

	order := schema.ActiveOrder{
		OrderID:  action.OrderID,
		SymbolID: k.symbolID,
		SentTs:   sentTs,
		MDTs:     mdTs,
		Price:    action.Price,
		TotalQty: action.Qty,
		Side:     action.Side,
		PostOnly: action.PostOnly,
	}
	t := &trackedOrder{order: order, status: StatusPending}
	k.byID[order.OrderID] = t
	k.active = append(k.active, order.OrderID)
	k.ordersPlaced++
	t.status = StatusActive
	k.metrics.IncAdd()

	if err := k.emit(schema.OrderRecord{
		Ts: mdTs, Type: schema.TraceAdd, OrderID: order.OrderID,
		Price: order.Price, Qty: order.TotalQty, IsBid: order.Side == schema.SideBid,
	}); err != nil {
		return err
	}

	return k.checkImmediateFill(t, mdTs)
}

func (k *Kernel) dispatchCancel(action schema.Action) error {
	t, ok := k.byID[action.OrderID]
	if !ok {
		logs.Warnf("cancel referenced unknown order id %d", action.OrderID)
		k.metrics.IncStateWarn()
		return nil
	}

	if err := k.emit(schema.OrderRecord{
		Ts: t.order.MDTs, Type: schema.TraceCancel, OrderID: t.order.OrderID,
		Price: t.order.Price, Qty: t.order.Remaining(), IsBid: t.order.Side == schema.SideBid,
	}); err != nil {
		return err
	}

	t.status = StatusCancelled
	k.removeActive(action.OrderID)
	return nil
}

func (k *Kernel) dispatchReplace(action schema.Action, sentTs, mdTs schema.Timestamp) error {
	t, ok := k.byID[action.OrderID]
	if !ok {
		logs.Warnf("replace referenced unknown order id %d", action.OrderID)
		k.metrics.IncStateWarn()
		return nil
	}

	riskAction := action
	riskAction.Side = t.order.Side
	if decision := k.evaluateRisk(riskAction, mdTs); !decision.Allow {
		k.metrics.IncRiskReject()
		return k.emit(schema.OrderRecord{
			Ts: mdTs, Type: schema.TraceCancel, OrderID: action.OrderID,
			Price: action.Price, Qty: action.Qty, IsBid: t.order.Side == schema.SideBid,
		})
	}

	oldPrice, oldQty := t.order.Price, t.order.Remaining()
	t.order.Price = action.Price
	t.order.TotalQty = action.Qty
	t.order.FilledQty = 0
	t.order.SentTs = sentTs
	t.order.MDTs = mdTs
	k.metrics.IncReplace()

	if err := k.emit(schema.OrderRecord{
		Ts: mdTs, Type: schema.TraceReplace, OrderID: t.order.OrderID,
		Price: t.order.Price, OldPrice: oldPrice, Qty: t.order.TotalQty, OldQty: oldQty,
		IsBid: t.order.Side == schema.SideBid,
	}); err != nil {
		return err
	}

	return k.checkImmediateFill(t, mdTs)
}

// checkImmediateFill handles the would_fill check shared by Add and Replace:
// a post-only crossing order is rejected outright, otherwise it fills
// immediately at the current crossing price.
func (k *Kernel) checkImmediateFill(t *trackedOrder, mdTs schema.Timestamp) error {
	if !k.WouldFill(t.order.Side, t.order.Price, t.order.Remaining()) {
		return nil
	}

	if t.order.PostOnly {
		t.status = StatusPostOnlyRejected
		k.removeActive(t.order.OrderID)
		k.metrics.IncPostOnlyReject()
		return k.emit(schema.OrderRecord{
			Ts: mdTs, Type: schema.TraceCancel, OrderID: t.order.OrderID,
			Price: t.order.Price, Qty: t.order.Remaining(), IsBid: t.order.Side == schema.SideBid,
		})
	}

	fillPrice := crossingPrice(t.order.Side, k.latestTop)
	return k.processFill(t.order.OrderID, fillPrice, t.order.Remaining(), t.order.Side, 0)
}

func (k *Kernel) evaluateRisk(action schema.Action, now schema.Timestamp) risk.Decision {
	if k.guard == nil {
		return risk.Decision{Allow: true}
	}
	ref := midPrice(k.latestTop)
	return k.guard.Evaluate(action, k.position, ref, now)
}

func midPrice(top schema.TopOfBook) schema.Price {
	bid, ask := top.BestBid(), top.BestAsk()
	if bid == schema.NoBid || ask == schema.NoAsk {
		return 0
	}
	return (bid + ask) / 2
}
