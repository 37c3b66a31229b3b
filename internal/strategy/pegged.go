package strategy

import "fillsim/internal/schema"

// PeggedQuote is a minimal two-sided post-only quoter used for wiring and
// tests: it keeps at most one resting bid and one resting ask, pegged a
// fixed tick width behind the visible top, and re-quotes a side after
// OnOrderFilled reports that side's order filled. An order that leaves the
// kernel any other way (a post-only rejection, a risk reject) is not
// reported back, so that side is not re-quoted.
type PeggedQuote struct {
	symbolID    uint32
	qty         schema.Quantity
	tick        schema.Price
	nextOrderID uint64
	bidOrderID  uint64
	askOrderID  uint64
}

// NewPeggedQuote builds a quoter sized to qty, offset by tick.
func NewPeggedQuote(qty schema.Quantity, tick schema.Price) *PeggedQuote {
	return &PeggedQuote{qty: qty, tick: tick}
}

func (p *PeggedQuote) SetSymbol(symbolID uint32) { p.symbolID = symbolID }

func (p *PeggedQuote) newOrderID() uint64 {
	p.nextOrderID++
	return p.nextOrderID
}

func (p *PeggedQuote) OnBookTop(top schema.TopOfBook) []schema.Action {
	var actions []schema.Action

	if p.bidOrderID == 0 {
		if bid := top.BestBid(); bid != schema.NoBid && bid-p.tick > schema.NoBid {
			id := p.newOrderID()
			actions = append(actions, schema.Action{
				Type: schema.ActionAdd, OrderID: id, Side: schema.SideBid,
				Price: bid - p.tick, Qty: p.qty, PostOnly: true,
			})
			p.bidOrderID = id
		}
	}

	if p.askOrderID == 0 {
		if ask := top.BestAsk(); ask != schema.NoAsk {
			id := p.newOrderID()
			actions = append(actions, schema.Action{
				Type: schema.ActionAdd, OrderID: id, Side: schema.SideAsk,
				Price: ask + p.tick, Qty: p.qty, PostOnly: true,
			})
			p.askOrderID = id
		}
	}

	return actions
}

func (p *PeggedQuote) OnFill(schema.BookFillSnapshot) []schema.Action { return nil }

func (p *PeggedQuote) OnOrderFilled(orderID uint64, _ schema.Price, _ schema.Quantity, _ schema.Side) []schema.Action {
	if orderID == p.bidOrderID {
		p.bidOrderID = 0
	}
	if orderID == p.askOrderID {
		p.askOrderID = 0
	}
	return nil
}
