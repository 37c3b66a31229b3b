package schema

// TopLevel is one price level pair as carried in a top-of-book snapshot.
type TopLevel struct {
	BidPrice Price
	BidQty   Quantity
	AskPrice Price
	AskQty   Quantity
}

// TopLevelCount is the number of levels carried per side in a TopOfBook.
const TopLevelCount = 3

// TopOfBook is the read model the event loop hands to strategy callbacks.
//
// Invariant: when both sides are present, BidPrice < AskPrice; prices
// strictly decrease down the bid levels and strictly increase up the ask
// levels; empty slots carry the sentinel price for their side.
type TopOfBook struct {
	Ts     Timestamp
	SeqNo  uint64
	Levels [TopLevelCount]TopLevel
}

// BestBid returns the top level's bid price, or NoBid if none.
func (t TopOfBook) BestBid() Price { return t.Levels[0].BidPrice }

// BestAsk returns the top level's ask price, or NoAsk if none.
func (t TopOfBook) BestAsk() Price { return t.Levels[0].AskPrice }

// BookEventType discriminates the variant that follows a BookEventHeader.
type BookEventType uint8

const (
	BookEventUnknown         BookEventType = 0
	BookEventAdd             BookEventType = 1
	BookEventDelete          BookEventType = 2
	BookEventReplace         BookEventType = 3
	BookEventAmend           BookEventType = 4
	BookEventReduce          BookEventType = 5
	BookEventExecute         BookEventType = 6
	BookEventExecuteAtPrice  BookEventType = 7
	BookEventClearBook       BookEventType = 8
	BookEventSession         BookEventType = 9
	BookEventHiddenTrade     BookEventType = 10
)

// BookEventHeader precedes every raw book event record in a queue-mode input stream.
type BookEventHeader struct {
	Ts    Timestamp
	SeqNo uint64
	Type  BookEventType
}

// AddOrder is the body of a BookEventAdd record.
type AddOrder struct {
	OrderID uint64
	Side    Side
	Price   Price
	Qty     Quantity
}

// DeleteOrder is the body of a BookEventDelete record.
type DeleteOrder struct {
	OrderID uint64
}

// ReplaceOrder is the body of a BookEventReplace record.
type ReplaceOrder struct {
	OldOrderID uint64
	NewOrderID uint64
	Price      Price
	Qty        Quantity
}

// AmendOrder is the body of a BookEventAmend record. Preserves queue position.
type AmendOrder struct {
	OrderID uint64
	NewQty  Quantity
}

// ReduceOrder is the body of a BookEventReduce record.
type ReduceOrder struct {
	OrderID   uint64
	CxledQty  Quantity
}

// ExecuteOrder is the body of a BookEventExecute record.
type ExecuteOrder struct {
	OrderID     uint64
	TradedQty   Quantity
	ExecutionID uint64
}

// ExecuteOrderAtPrice is the body of a BookEventExecuteAtPrice record.
type ExecuteOrderAtPrice struct {
	OrderID     uint64
	TradedQty   Quantity
	ExecPrice   Price
	ExecutionID uint64
}

// SessionEvent is the body of a BookEventSession record. Side-effect free on book state.
type SessionEvent struct {
	Code uint8
}

// HiddenTrade is the body of a BookEventHiddenTrade record. Side-effect free on book state.
type HiddenTrade struct {
	Price     Price
	Qty       Quantity
	Side      Side
	TradeID   uint64
	RefID     uint64
}

// BookFillSnapshot is a synthesized fill observation, produced either by the
// queue-mode book reconstructor (on Execute/ExecuteAtPrice) or read directly
// from a pre-computed snapshot-mode fills file.
type BookFillSnapshot struct {
	Ts                        Timestamp
	SeqNo                     uint64
	RestingOrderID            uint64
	WasHidden                 bool
	TradePrice                Price
	TradeQty                  Quantity
	ExecutionID               uint64
	RestingOriginalQty        Quantity
	RestingOrderRemainingQty  Quantity
	RestingOrderLastUpdateTs  Timestamp
	RestingSideIsBid          bool
	RestingSidePrice          Price
	RestingSideQty            Quantity
	OpposingSidePrice         Price
	OpposingSideQty           Quantity
	RestingSideNumberOfOrders uint32
}
