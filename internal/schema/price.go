// Package schema defines the wire-level and in-memory types shared by the
// fill simulator's core packages: fixed-point prices, quantities,
// timestamps, the top-of-book read model, active orders, book events, the
// strategy action sum type, and the output trace record.
package schema

import "math"

// Price is a signed fixed-point value in nanos (1e-9) of the quote currency.
type Price int64

// NoAsk is the sentinel price meaning "ask side is empty".
const NoAsk Price = math.MaxInt64

// NoBid is the sentinel price meaning "bid side is empty".
const NoBid Price = 0

// ReasonablePriceCap guards against corrupt feed data. Prices above this
// are treated as invalid and clamped to their side's sentinel.
const ReasonablePriceCap Price = 10_000 * 1_000_000_000

// Nanos is the fixed-point scale used by Price.
const Nanos = 1_000_000_000

// ValidBid reports whether p is a real (non-sentinel, in-range) bid price.
func (p Price) ValidBid() bool {
	return p > NoBid && p <= ReasonablePriceCap
}

// ValidAsk reports whether p is a real (non-sentinel, in-range) ask price.
func (p Price) ValidAsk() bool {
	return p != NoAsk && p > 0 && p <= ReasonablePriceCap
}

// ClampBid maps an out-of-range bid price to NoBid. Used wherever a bid
// price originates from a wire record rather than internal book state.
func ClampBid(p Price) Price {
	if p > ReasonablePriceCap {
		return NoBid
	}
	return p
}

// ClampAsk maps an out-of-range ask price to NoAsk.
func ClampAsk(p Price) Price {
	if p != NoAsk && p > ReasonablePriceCap {
		return NoAsk
	}
	return p
}

// ClampTop applies ClampBid/ClampAsk to every level of t, guarding against
// corrupt feed data surfacing as a crossed or nonsensical top.
func ClampTop(t TopOfBook) TopOfBook {
	for i := range t.Levels {
		t.Levels[i].BidPrice = ClampBid(t.Levels[i].BidPrice)
		t.Levels[i].AskPrice = ClampAsk(t.Levels[i].AskPrice)
	}
	return t
}

// Quantity is an unsigned share/contract count. Zero means empty/consumed.
type Quantity uint32

// Timestamp is nanoseconds since epoch, monotonically non-decreasing per stream.
type Timestamp uint64

// Side identifies which side of the book an order or level belongs to.
type Side uint8

const (
	SideUnknown Side = iota
	SideBid
	SideAsk
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "unknown"
	}
}
