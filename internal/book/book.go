// Package book reconstructs a top-of-book view from a stream of raw limit
// order book events (queue mode). It owns no notion of latency or strategy
// actions — it is purely a book of record that emits a fresh top-of-book
// snapshot whenever the visible top three levels on either side change.
package book

import (
	"container/list"
	"sort"

	"fillsim/internal/schema"
	"fillsim/internal/wire"
)

type queueEntry struct {
	orderID      uint64
	side         schema.Side
	price        schema.Price
	originalQty  schema.Quantity
	remainingQty schema.Quantity
	lastUpdateTs schema.Timestamp
}

type level struct {
	totalQty schema.Quantity
	queue    *list.List // of *queueEntry, FIFO: front is oldest
}

type indexEntry struct {
	elem  *list.Element
	side  schema.Side
	price schema.Price
}

// Book is the external limit order book maintained in queue mode.
type Book struct {
	bids      map[schema.Price]*level
	asks      map[schema.Price]*level
	bidPrices []schema.Price // ascending; best bid is the last element
	askPrices []schema.Price // ascending; best ask is the first element
	index     map[uint64]*indexEntry

	lastLevels [schema.TopLevelCount]schema.TopLevel
	haveTop    bool
}

// New returns an empty book.
func New() *Book {
	return &Book{
		bids:  make(map[schema.Price]*level),
		asks:  make(map[schema.Price]*level),
		index: make(map[uint64]*indexEntry),
	}
}

// ApplyResult is what Apply reports back to the event loop.
type ApplyResult struct {
	Top        schema.TopOfBook
	TopChanged bool
	Fill       *schema.BookFillSnapshot // set on Execute / ExecuteAtPrice
}

// Apply mutates the book per ev's semantics and reports the resulting top
// snapshot (if the visible top changed) and any synthesized fill.
func (b *Book) Apply(ev wire.RawBookEvent) (ApplyResult, error) {
	var fill *schema.BookFillSnapshot

	switch ev.Header.Type {
	case schema.BookEventAdd:
		b.add(ev.Add.OrderID, ev.Add.Side, ev.Add.Price, ev.Add.Qty, ev.Header.Ts)
	case schema.BookEventDelete:
		b.delete(ev.Delete.OrderID)
	case schema.BookEventReplace:
		entry, ok := b.index[ev.Replace.OldOrderID]
		side := schema.SideUnknown
		if ok {
			side = entry.side
		}
		b.delete(ev.Replace.OldOrderID)
		if ok {
			b.add(ev.Replace.NewOrderID, side, ev.Replace.Price, ev.Replace.Qty, ev.Header.Ts)
		}
	case schema.BookEventAmend:
		b.amend(ev.Amend.OrderID, ev.Amend.NewQty, ev.Header.Ts)
	case schema.BookEventReduce:
		b.reduce(ev.Reduce.OrderID, ev.Reduce.CxledQty, ev.Header.Ts)
	case schema.BookEventExecute:
		fill = b.execute(ev.Execute.OrderID, ev.Execute.TradedQty, ev.Execute.ExecutionID, 0, false, ev.Header)
	case schema.BookEventExecuteAtPrice:
		fill = b.execute(ev.ExecuteAtPrice.OrderID, ev.ExecuteAtPrice.TradedQty, ev.ExecuteAtPrice.ExecutionID, ev.ExecuteAtPrice.ExecPrice, true, ev.Header)
	case schema.BookEventClearBook:
		b.clear()
	case schema.BookEventSession, schema.BookEventHiddenTrade:
		// side-effect free on book state
	}

	levels := b.computeLevels()
	changed := !b.haveTop || levels != b.lastLevels
	b.lastLevels = levels
	b.haveTop = true

	return ApplyResult{
		Top:        schema.TopOfBook{Ts: ev.Header.Ts, SeqNo: ev.Header.SeqNo, Levels: levels},
		TopChanged: changed,
		Fill:       fill,
	}, nil
}

func (b *Book) sideMaps(side schema.Side) (map[schema.Price]*level, *[]schema.Price) {
	if side == schema.SideBid {
		return b.bids, &b.bidPrices
	}
	return b.asks, &b.askPrices
}

func insertSorted(prices []schema.Price, p schema.Price) []schema.Price {
	i := sort.Search(len(prices), func(i int) bool { return prices[i] >= p })
	if i < len(prices) && prices[i] == p {
		return prices
	}
	prices = append(prices, 0)
	copy(prices[i+1:], prices[i:])
	prices[i] = p
	return prices
}

func removeSorted(prices []schema.Price, p schema.Price) []schema.Price {
	i := sort.Search(len(prices), func(i int) bool { return prices[i] >= p })
	if i >= len(prices) || prices[i] != p {
		return prices
	}
	return append(prices[:i], prices[i+1:]...)
}

func (b *Book) add(orderID uint64, side schema.Side, price schema.Price, qty schema.Quantity, ts schema.Timestamp) {
	if qty == 0 || side == schema.SideUnknown {
		return
	}
	levels, prices := b.sideMaps(side)
	lv, ok := levels[price]
	if !ok {
		lv = &level{queue: list.New()}
		levels[price] = lv
		*prices = insertSorted(*prices, price)
	}
	entry := &queueEntry{orderID: orderID, side: side, price: price, originalQty: qty, remainingQty: qty, lastUpdateTs: ts}
	elem := lv.queue.PushBack(entry)
	lv.totalQty += qty
	b.index[orderID] = &indexEntry{elem: elem, side: side, price: price}
}

func (b *Book) delete(orderID uint64) {
	idx, ok := b.index[orderID]
	if !ok {
		return
	}
	levels, prices := b.sideMaps(idx.side)
	lv := levels[idx.price]
	entry := idx.elem.Value.(*queueEntry)
	lv.totalQty -= entry.remainingQty
	lv.queue.Remove(idx.elem)
	delete(b.index, orderID)
	if lv.queue.Len() == 0 {
		delete(levels, idx.price)
		*prices = removeSorted(*prices, idx.price)
	}
}

func (b *Book) amend(orderID uint64, newQty schema.Quantity, ts schema.Timestamp) {
	idx, ok := b.index[orderID]
	if !ok {
		return
	}
	levels, _ := b.sideMaps(idx.side)
	lv := levels[idx.price]
	entry := idx.elem.Value.(*queueEntry)
	delta := int64(newQty) - int64(entry.remainingQty)
	entry.remainingQty = newQty
	entry.lastUpdateTs = ts
	lv.totalQty = schema.Quantity(int64(lv.totalQty) + delta)
	if newQty == 0 {
		b.delete(orderID)
	}
}

func (b *Book) reduce(orderID uint64, cxledQty schema.Quantity, ts schema.Timestamp) {
	idx, ok := b.index[orderID]
	if !ok {
		return
	}
	entry := idx.elem.Value.(*queueEntry)
	remaining := entry.remainingQty
	if cxledQty >= remaining {
		b.delete(orderID)
		return
	}
	levels, _ := b.sideMaps(idx.side)
	lv := levels[idx.price]
	entry.remainingQty -= cxledQty
	entry.lastUpdateTs = ts
	lv.totalQty -= cxledQty
}

func (b *Book) execute(orderID uint64, tradedQty schema.Quantity, executionID uint64, execPrice schema.Price, atPrice bool, hdr schema.BookEventHeader) *schema.BookFillSnapshot {
	idx, ok := b.index[orderID]
	if !ok {
		return nil
	}
	levels, _ := b.sideMaps(idx.side)
	lv := levels[idx.price]
	entry := idx.elem.Value.(*queueEntry)

	traded := tradedQty
	if traded > entry.remainingQty {
		traded = entry.remainingQty
	}

	tradePrice := entry.price
	if atPrice {
		tradePrice = execPrice
	}

	opposite := schema.SideAsk
	if idx.side == schema.SideAsk {
		opposite = schema.SideBid
	}
	oppPrice, oppQty := b.bestOf(opposite)

	fill := &schema.BookFillSnapshot{
		Ts:                 hdr.Ts,
		SeqNo:              hdr.SeqNo,
		RestingOrderID:     orderID,
		WasHidden:          false,
		TradePrice:         tradePrice,
		TradeQty:           traded,
		ExecutionID:        executionID,
		RestingOriginalQty: entry.originalQty,
		RestingOrderLastUpdateTs: entry.lastUpdateTs,
		RestingSideIsBid:   idx.side == schema.SideBid,
		RestingSidePrice:   entry.price,
		OpposingSidePrice:  oppPrice,
		OpposingSideQty:    oppQty,
	}

	entry.remainingQty -= traded
	entry.lastUpdateTs = hdr.Ts
	lv.totalQty -= traded
	fill.RestingOrderRemainingQty = entry.remainingQty

	if entry.remainingQty == 0 {
		b.delete(orderID)
	}
	fill.RestingSideQty = lv.totalQty
	fill.RestingSideNumberOfOrders = uint32(lv.queue.Len())

	return fill
}

func (b *Book) clear() {
	b.bids = make(map[schema.Price]*level)
	b.asks = make(map[schema.Price]*level)
	b.bidPrices = nil
	b.askPrices = nil
	b.index = make(map[uint64]*indexEntry)
}

// bestOf returns the best price/qty on side, or the side's sentinel/zero.
func (b *Book) bestOf(side schema.Side) (schema.Price, schema.Quantity) {
	if side == schema.SideBid {
		if len(b.bidPrices) == 0 {
			return schema.NoBid, 0
		}
		p := b.bidPrices[len(b.bidPrices)-1]
		return p, b.bids[p].totalQty
	}
	if len(b.askPrices) == 0 {
		return schema.NoAsk, 0
	}
	p := b.askPrices[0]
	return p, b.asks[p].totalQty
}

func (b *Book) computeLevels() [schema.TopLevelCount]schema.TopLevel {
	var out [schema.TopLevelCount]schema.TopLevel
	for i := 0; i < schema.TopLevelCount; i++ {
		out[i] = schema.TopLevel{BidPrice: schema.NoBid, AskPrice: schema.NoAsk}
	}
	nBids := len(b.bidPrices)
	for i := 0; i < schema.TopLevelCount && i < nBids; i++ {
		p := b.bidPrices[nBids-1-i]
		out[i].BidPrice = schema.ClampBid(p)
		if out[i].BidPrice != schema.NoBid {
			out[i].BidQty = b.bids[p].totalQty
		}
	}
	nAsks := len(b.askPrices)
	for i := 0; i < schema.TopLevelCount && i < nAsks; i++ {
		p := b.askPrices[i]
		out[i].AskPrice = schema.ClampAsk(p)
		if out[i].AskPrice != schema.NoAsk {
			out[i].AskQty = b.asks[p].totalQty
		}
	}
	return out
}

// ValidTop reports whether a top-of-book record is sane enough to forward
// downstream. The event loop's top handler calls it in both modes, including
// snapshot mode, which reads tops directly off the wire rather than deriving them.
//
// A crossed top (real bid at or above a real ask) is the only condition
// treated as invalid; NoBid/NoAsk sentinels mean "empty side", not corrupt.
func ValidTop(t schema.TopOfBook) bool {
	bid, ask := t.BestBid(), t.BestAsk()
	if bid != schema.NoBid && ask != schema.NoAsk && bid >= ask {
		return false
	}
	return true
}
