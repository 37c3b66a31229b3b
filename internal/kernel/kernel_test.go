package kernel

import (
	"testing"

	"fillsim/internal/latency"
	"fillsim/internal/obs"
	"fillsim/internal/risk"
	"fillsim/internal/schema"
	"fillsim/internal/strategy"
)

type recordingSink struct {
	records []schema.OrderRecord
}

func (s *recordingSink) Write(rec schema.OrderRecord) error {
	s.records = append(s.records, rec)
	return nil
}

// scriptedStrategy replays a fixed queue of actions on OnOrderFilled and
// records every callback invocation, for asserting dispatch ordering.
type scriptedStrategy struct {
	strategy.NoOp
	onFilledActions []schema.Action
	filledCalls     []uint64
}

func (s *scriptedStrategy) OnOrderFilled(orderID uint64, _ schema.Price, _ schema.Quantity, _ schema.Side) []schema.Action {
	s.filledCalls = append(s.filledCalls, orderID)
	acts := s.onFilledActions
	s.onFilledActions = nil
	return acts
}

func noLatency(t *testing.T) *latency.Pipeline {
	t.Helper()
	p, err := latency.New(latency.Config{})
	if err != nil {
		t.Fatalf("latency.New: %v", err)
	}
	return p
}

func withLatency(t *testing.T, mdNs, exchangeNs int64) *latency.Pipeline {
	t.Helper()
	p, err := latency.New(latency.Config{MDLatencyNs: mdNs, ExchangeLatencyNs: exchangeNs})
	if err != nil {
		t.Fatalf("latency.New: %v", err)
	}
	return p
}

func topWith(bid, ask schema.Price) schema.TopOfBook {
	top := schema.TopOfBook{Ts: 1000}
	top.Levels[0] = schema.TopLevel{BidPrice: bid, AskPrice: ask, BidQty: 10, AskQty: 10}
	return top
}

func TestWouldFillCrossingSemantics(t *testing.T) {
	k := New(&strategy.NoOp{}, noLatency(t), nil, &recordingSink{}, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	if !k.WouldFill(schema.SideBid, 101*schema.Nanos, 5) {
		t.Fatal("bid at the ask should cross")
	}
	if k.WouldFill(schema.SideBid, 100*schema.Nanos, 5) {
		t.Fatal("bid below the ask should not cross")
	}
	if !k.WouldFill(schema.SideAsk, 100*schema.Nanos, 5) {
		t.Fatal("ask at the bid should cross")
	}
	if k.WouldFill(schema.SideAsk, schema.NoAsk, 5) {
		t.Fatal("sentinel price should never cross")
	}
}

func TestDispatchAddRestsWhenNonCrossing(t *testing.T) {
	sink := &recordingSink{}
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 99 * schema.Nanos, Qty: 5}, 0)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].Type != schema.TraceAdd {
		t.Fatalf("want a single Add record, got %v", sink.records)
	}
	if _, ok := k.byID[1]; !ok {
		t.Fatal("order should remain active")
	}
}

func TestDispatchAddFillsImmediatelyWhenCrossing(t *testing.T) {
	sink := &recordingSink{}
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 101 * schema.Nanos, Qty: 5}, 0)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sink.records) != 2 {
		t.Fatalf("want Add+Fill records, got %d: %v", len(sink.records), sink.records)
	}
	if sink.records[1].Type != schema.TraceFill {
		t.Fatalf("want second record to be a Fill, got %v", sink.records[1].Type)
	}
	if _, ok := k.byID[1]; ok {
		t.Fatal("fully filled order should be removed from active set")
	}
	if k.Position() != 5 {
		t.Fatalf("want position 5, got %d", k.Position())
	}
	if k.CashFlow() != -5*101*schema.Nanos {
		t.Fatalf("want cash flow -5*101e9, got %d", k.CashFlow())
	}
}

func TestPostOnlyAddRejectedWhenCrossing(t *testing.T) {
	sink := &recordingSink{}
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 101 * schema.Nanos, Qty: 5, PostOnly: true}, 0)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sink.records) != 2 || sink.records[1].Type != schema.TraceCancel {
		t.Fatalf("want Add+Cancel records, got %v", sink.records)
	}
	if _, ok := k.byID[1]; ok {
		t.Fatal("post-only rejected order should not remain active")
	}
}

func TestDispatchCancelUnknownOrderWarnsWithoutError(t *testing.T) {
	sink := &recordingSink{}
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, obs.NewMetrics())

	if err := k.Dispatch(schema.Action{Type: schema.ActionCancel, OrderID: 999}, 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("want no records emitted, got %v", sink.records)
	}
}

func TestDispatchReplaceIsAtomicWithOldAndNewFields(t *testing.T) {
	sink := &recordingSink{}
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	if err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 99 * schema.Nanos, Qty: 5}, 0); err != nil {
		t.Fatalf("Dispatch add: %v", err)
	}
	if err := k.Dispatch(schema.Action{Type: schema.ActionReplace, OrderID: 1, Price: 98 * schema.Nanos, Qty: 7}, 0); err != nil {
		t.Fatalf("Dispatch replace: %v", err)
	}

	rec := sink.records[1]
	if rec.Type != schema.TraceReplace {
		t.Fatalf("want a Replace record, got %v", rec.Type)
	}
	if rec.OldPrice != 99*schema.Nanos || rec.Price != 98*schema.Nanos {
		t.Fatalf("want old/new price pair 99e9/98e9, got %d/%d", rec.OldPrice, rec.Price)
	}
	if rec.OldQty != 5 || rec.Qty != 7 {
		t.Fatalf("want old/new qty pair 5/7, got %d/%d", rec.OldQty, rec.Qty)
	}
}

func TestSweepSurvivesInSweepRemoval(t *testing.T) {
	sink := &recordingSink{}
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 200*schema.Nanos))

	for id := uint64(1); id <= 3; id++ {
		if err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: id, Side: schema.SideBid, Price: 150 * schema.Nanos, Qty: 1}, 0); err != nil {
			t.Fatalf("Dispatch add %d: %v", id, err)
		}
	}

	// The resting top doesn't cross yet; now the market trades down to
	// where all three resting bids cross at once.
	k.UpdateTop(topWith(100*schema.Nanos, 100*schema.Nanos))
	if err := k.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if len(k.active) != 0 {
		t.Fatalf("want all three orders swept, %d remain", len(k.active))
	}
	if k.OrdersFilled() != 3 {
		t.Fatalf("want 3 fills, got %d", k.OrdersFilled())
	}
}

// TestProcessFillAbsorbsUnknownOrderAsWarning exercises the propagation
// policy documented on simerr.Error: a State error (never fatal) is logged
// and counted rather than returned, so an unknown order_id can't halt the
// run the way an Invariant violation does.
func TestProcessFillAbsorbsUnknownOrderAsWarning(t *testing.T) {
	sink := &recordingSink{}
	metrics := obs.NewMetrics()
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, metrics)
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	if err := k.processFill(999, 100*schema.Nanos, 1, schema.SideBid, 0); err != nil {
		t.Fatalf("want a State error absorbed as nil, got %v", err)
	}
	if metrics.Snapshot().StateWarnCount != 1 {
		t.Fatalf("want one state-warn counted, got %d", metrics.Snapshot().StateWarnCount)
	}
	if len(sink.records) != 0 {
		t.Fatalf("want no trace record emitted, got %v", sink.records)
	}
}

func TestProcessFillRejectsOverfill(t *testing.T) {
	sink := &recordingSink{}
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	if err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 99 * schema.Nanos, Qty: 5}, 0); err != nil {
		t.Fatalf("Dispatch add: %v", err)
	}

	if err := k.processFill(1, 99*schema.Nanos, 6, schema.SideBid, 0); err == nil {
		t.Fatal("want overfill to be rejected")
	}
}

func TestProcessFillRedispatchesStrategyActionsThroughLatency(t *testing.T) {
	sink := &recordingSink{}
	strat := &scriptedStrategy{onFilledActions: []schema.Action{
		{Type: schema.ActionAdd, OrderID: 2, Side: schema.SideAsk, Price: 102 * schema.Nanos, Qty: 3},
	}}
	k := New(strat, noLatency(t), nil, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	if err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 101 * schema.Nanos, Qty: 5}, 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(strat.filledCalls) != 1 || strat.filledCalls[0] != 1 {
		t.Fatalf("want OnOrderFilled called for order 1, got %v", strat.filledCalls)
	}
	if _, ok := k.byID[2]; !ok {
		t.Fatal("want the re-dispatched Add to have been applied to the kernel")
	}
}

// TestSessionSettlesWithCorrectedArithmetic exercises a short market-making
// session: rest a bid, let it get filled when a lower top's ask reaches the
// bid's price, then send an ask that crosses the new best bid and fills at
// once at a lower price. The running position and cash flow are checked
// against hand-computed nanos.
func TestSessionSettlesWithCorrectedArithmetic(t *testing.T) {
	sink := &recordingSink{}
	k := New(&strategy.NoOp{}, noLatency(t), nil, sink, obs.NewMetrics())

	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))
	if err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 100 * schema.Nanos, Qty: 5}, 0); err != nil {
		t.Fatalf("Dispatch add: %v", err)
	}

	k.UpdateTop(topWith(99*schema.Nanos, 100*schema.Nanos))
	if err := k.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if k.Position() != 5 {
		t.Fatalf("want position 5 after bid fill, got %d", k.Position())
	}
	if k.CashFlow() != -500*schema.Nanos {
		t.Fatalf("want cash flow -500e9 after bid fill, got %d", k.CashFlow())
	}

	if err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 2, Side: schema.SideAsk, Price: 99 * schema.Nanos, Qty: 5}, 0); err != nil {
		t.Fatalf("Dispatch add: %v", err)
	}

	if k.Position() != 0 {
		t.Fatalf("want flat position after symmetric ask fill, got %d", k.Position())
	}
	if k.CashFlow() != -500*schema.Nanos+495*schema.Nanos {
		t.Fatalf("want cash flow -5e9, got %d", k.CashFlow())
	}
}

// TestFillRecordStampedWithNotificationTs exercises an immediate-cross Add
// under non-zero latency: the emitted Fill record's Ts must be the
// fill-notification timestamp (latched top ts + exchange latency), not the
// raw top timestamp it was derived from. With the Add dispatched at strategy
// time 0, that puts the Fill record after the Add record for the same order_id.
func TestFillRecordStampedWithNotificationTs(t *testing.T) {
	sink := &recordingSink{}
	lat := withLatency(t, 1000, 10000)
	k := New(&strategy.NoOp{}, lat, nil, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 101*schema.Nanos))

	if err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 101 * schema.Nanos, Qty: 5}, 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(sink.records) != 2 {
		t.Fatalf("want Add+Fill records, got %d: %v", len(sink.records), sink.records)
	}
	addRec, fillRec := sink.records[0], sink.records[1]
	if addRec.Type != schema.TraceAdd || fillRec.Type != schema.TraceFill {
		t.Fatalf("want Add then Fill, got %v then %v", addRec.Type, fillRec.Type)
	}
	wantFillTs := k.latency.StampFillNotification(k.latestTop.Ts)
	if fillRec.Ts != wantFillTs {
		t.Fatalf("want Fill.Ts %d (stamped notification ts), got %d", wantFillTs, fillRec.Ts)
	}
	if fillRec.Ts <= addRec.Ts {
		t.Fatalf("want Fill.Ts (%d) > Add.Ts (%d) for the same order_id", fillRec.Ts, addRec.Ts)
	}
}

// TestDispatchReplaceRejectedByRiskGuard mirrors
// TestPostOnlyAddRejectedWhenCrossing's reject shape for Replace: a guard
// that would reject the new qty emits a TraceCancel outcome and leaves the
// resting order's old price/qty untouched.
func TestDispatchReplaceRejectedByRiskGuard(t *testing.T) {
	sink := &recordingSink{}
	guard, err := risk.NewGuard(risk.Config{Enabled: true, MaxOrderQty: 5})
	if err != nil {
		t.Fatalf("risk.NewGuard: %v", err)
	}
	k := New(&strategy.NoOp{}, noLatency(t), guard, sink, obs.NewMetrics())
	k.UpdateTop(topWith(100*schema.Nanos, 200*schema.Nanos))

	if err := k.Dispatch(schema.Action{Type: schema.ActionAdd, OrderID: 1, Side: schema.SideBid, Price: 99 * schema.Nanos, Qty: 5}, 0); err != nil {
		t.Fatalf("Dispatch add: %v", err)
	}
	if err := k.Dispatch(schema.Action{Type: schema.ActionReplace, OrderID: 1, Price: 98 * schema.Nanos, Qty: 7}, 0); err != nil {
		t.Fatalf("Dispatch replace: %v", err)
	}

	if len(sink.records) != 2 {
		t.Fatalf("want Add+reject records, got %d: %v", len(sink.records), sink.records)
	}
	rec := sink.records[1]
	if rec.Type != schema.TraceCancel {
		t.Fatalf("want a risk-rejected Replace to emit TraceCancel, got %v", rec.Type)
	}
	order, ok := k.byID[1]
	if !ok {
		t.Fatal("want the order to remain active after a rejected replace")
	}
	if order.order.Price != 99*schema.Nanos || order.order.TotalQty != 5 {
		t.Fatalf("want the order's old price/qty untouched, got %d/%d", order.order.Price, order.order.TotalQty)
	}
}
