// Package strategy defines the callback contract the event loop drives and
// a couple of minimal implementations used for wiring and tests. Real
// trading logic lives outside this module.
package strategy

import "fillsim/internal/schema"

// Strategy is what the event loop consumes. Every callback returns an
// ordered list of actions to dispatch through the latency pipeline; an empty
// or nil slice means "no action this step". Callbacks are synchronous and
// must not block the loop.
type Strategy interface {
	// SetSymbol is called exactly once, before the first event.
	SetSymbol(symbolID uint32)

	OnBookTop(top schema.TopOfBook) []schema.Action
	OnFill(fill schema.BookFillSnapshot) []schema.Action
	OnOrderFilled(orderID uint64, price schema.Price, qty schema.Quantity, side schema.Side) []schema.Action
}

// NoOp never places an order. Useful as a baseline for measuring pure book
// reconstruction throughput, and as the default in tests.
type NoOp struct{}

func (NoOp) SetSymbol(uint32)                                                                  {}
func (NoOp) OnBookTop(schema.TopOfBook) []schema.Action                                         { return nil }
func (NoOp) OnFill(schema.BookFillSnapshot) []schema.Action                                     { return nil }
func (NoOp) OnOrderFilled(uint64, schema.Price, schema.Quantity, schema.Side) []schema.Action { return nil }
