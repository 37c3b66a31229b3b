package book

import (
	"testing"

	"fillsim/internal/schema"
	"fillsim/internal/wire"
)

func addEvent(id uint64, side schema.Side, price schema.Price, qty schema.Quantity, ts schema.Timestamp) wire.RawBookEvent {
	return wire.RawBookEvent{
		Header: schema.BookEventHeader{Ts: ts, SeqNo: uint64(ts), Type: schema.BookEventAdd},
		Add:    schema.AddOrder{OrderID: id, Side: side, Price: price, Qty: qty},
	}
}

func TestAddBuildsTopOfBook(t *testing.T) {
	b := New()

	res, err := b.Apply(addEvent(1, schema.SideBid, 100*schema.Nanos, 5, 1))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !res.TopChanged {
		t.Fatalf("want top changed on first add")
	}
	if res.Top.BestBid() != 100*schema.Nanos {
		t.Fatalf("best bid = %d, want 100e9", res.Top.BestBid())
	}

	res, err = b.Apply(addEvent(2, schema.SideAsk, 101*schema.Nanos, 7, 2))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !res.TopChanged {
		t.Fatalf("want top changed on second add")
	}
	if res.Top.BestAsk() != 101*schema.Nanos {
		t.Fatalf("best ask = %d, want 101e9", res.Top.BestAsk())
	}
}

func TestAddAtExistingPriceChangesTopQty(t *testing.T) {
	b := New()
	b.Apply(addEvent(1, schema.SideBid, 100*schema.Nanos, 5, 1))

	res, _ := b.Apply(addEvent(2, schema.SideBid, 100*schema.Nanos, 3, 2))
	if !res.TopChanged {
		t.Fatalf("want top change when the level qty changes at an unchanged price")
	}
	if res.Top.Levels[0].BidQty != 8 {
		t.Fatalf("aggregated qty = %d, want 8", res.Top.Levels[0].BidQty)
	}
}

func TestDeleteRemovesLevelWhenEmpty(t *testing.T) {
	b := New()
	b.Apply(addEvent(1, schema.SideBid, 100*schema.Nanos, 5, 1))

	res, err := b.Apply(wire.RawBookEvent{
		Header: schema.BookEventHeader{Ts: 2, SeqNo: 2, Type: schema.BookEventDelete},
		Delete: schema.DeleteOrder{OrderID: 1},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Top.BestBid() != schema.NoBid {
		t.Fatalf("best bid = %d, want NoBid after delete", res.Top.BestBid())
	}
}

func TestAmendPreservesQueuePosition(t *testing.T) {
	b := New()
	b.Apply(addEvent(1, schema.SideBid, 100*schema.Nanos, 5, 1))
	b.Apply(addEvent(2, schema.SideBid, 100*schema.Nanos, 5, 2))

	res, err := b.Apply(wire.RawBookEvent{
		Header: schema.BookEventHeader{Ts: 3, SeqNo: 3, Type: schema.BookEventAmend},
		Amend:  schema.AmendOrder{OrderID: 1, NewQty: 9},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Top.Levels[0].BidQty != 14 {
		t.Fatalf("level qty = %d, want 14", res.Top.Levels[0].BidQty)
	}
	entry := b.index[1].elem.Value.(*queueEntry)
	if entry.remainingQty != 9 {
		t.Fatalf("entry qty = %d, want 9", entry.remainingQty)
	}
	if front := b.bids[100*schema.Nanos].queue.Front().Value.(*queueEntry); front.orderID != 1 {
		t.Fatalf("queue front = order %d, want amended order 1 still first", front.orderID)
	}
}

func TestReplacePreservesSideAtNewPrice(t *testing.T) {
	b := New()
	b.Apply(addEvent(1, schema.SideAsk, 101*schema.Nanos, 5, 1))

	res, err := b.Apply(wire.RawBookEvent{
		Header:  schema.BookEventHeader{Ts: 2, SeqNo: 2, Type: schema.BookEventReplace},
		Replace: schema.ReplaceOrder{OldOrderID: 1, NewOrderID: 2, Price: 102 * schema.Nanos, Qty: 6},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Top.BestAsk() != 102*schema.Nanos {
		t.Fatalf("best ask = %d, want 102e9", res.Top.BestAsk())
	}
}

func TestExecuteSynthesizesFillAndReducesEntry(t *testing.T) {
	b := New()
	b.Apply(addEvent(1, schema.SideBid, 100*schema.Nanos, 10, 1))
	b.Apply(addEvent(2, schema.SideAsk, 101*schema.Nanos, 5, 2))

	res, err := b.Apply(wire.RawBookEvent{
		Header:  schema.BookEventHeader{Ts: 3, SeqNo: 3, Type: schema.BookEventExecute},
		Execute: schema.ExecuteOrder{OrderID: 1, TradedQty: 4, ExecutionID: 99},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Fill == nil {
		t.Fatalf("want a synthesized fill")
	}
	if res.Fill.TradePrice != 100*schema.Nanos || res.Fill.TradeQty != 4 {
		t.Fatalf("fill mismatch: %+v", res.Fill)
	}
	if res.Fill.RestingOrderRemainingQty != 6 {
		t.Fatalf("remaining qty = %d, want 6", res.Fill.RestingOrderRemainingQty)
	}
	if res.Fill.OpposingSidePrice != 101*schema.Nanos {
		t.Fatalf("opposing side price = %d, want 101e9", res.Fill.OpposingSidePrice)
	}
}

func TestExecuteFullyConsumesAndRemovesLevel(t *testing.T) {
	b := New()
	b.Apply(addEvent(1, schema.SideBid, 100*schema.Nanos, 4, 1))

	res, _ := b.Apply(wire.RawBookEvent{
		Header:  schema.BookEventHeader{Ts: 2, SeqNo: 2, Type: schema.BookEventExecute},
		Execute: schema.ExecuteOrder{OrderID: 1, TradedQty: 4, ExecutionID: 1},
	})
	if res.Top.BestBid() != schema.NoBid {
		t.Fatalf("best bid = %d, want NoBid", res.Top.BestBid())
	}
	if res.Fill.RestingSideNumberOfOrders != 0 {
		t.Fatalf("resting order count = %d, want 0", res.Fill.RestingSideNumberOfOrders)
	}
}

func TestClearBookEmptiesBothSides(t *testing.T) {
	b := New()
	b.Apply(addEvent(1, schema.SideBid, 100*schema.Nanos, 4, 1))
	b.Apply(addEvent(2, schema.SideAsk, 101*schema.Nanos, 4, 2))

	res, _ := b.Apply(wire.RawBookEvent{Header: schema.BookEventHeader{Ts: 3, SeqNo: 3, Type: schema.BookEventClearBook}})
	if res.Top.BestBid() != schema.NoBid || res.Top.BestAsk() != schema.NoAsk {
		t.Fatalf("want empty book after clear, got %+v", res.Top)
	}
	if len(b.index) != 0 {
		t.Fatalf("want empty index after clear")
	}
}

func TestPriceSanityClampsBidAboveCap(t *testing.T) {
	b := New()
	res, _ := b.Apply(addEvent(1, schema.SideBid, schema.ReasonablePriceCap+1, 1, 1))
	if res.Top.BestBid() != schema.NoBid {
		t.Fatalf("want clamped-to-NoBid, got %d", res.Top.BestBid())
	}
}

func TestValidTopRejectsCrossedBook(t *testing.T) {
	top := schema.TopOfBook{}
	top.Levels[0] = schema.TopLevel{BidPrice: 101 * schema.Nanos, AskPrice: 100 * schema.Nanos}
	if ValidTop(top) {
		t.Fatalf("want crossed book to be invalid")
	}
}

func TestValidTopAcceptsEmptySides(t *testing.T) {
	top := schema.TopOfBook{}
	top.Levels[0] = schema.TopLevel{BidPrice: schema.NoBid, AskPrice: schema.NoAsk}
	if !ValidTop(top) {
		t.Fatalf("want empty-sided top to be valid")
	}
}
