package wire

import "fmt"

// Truncated is returned when a stream ends in the middle of a fixed-size record.
type Truncated struct {
	Want int
	Got  int
}

func (e *Truncated) Error() string {
	return fmt.Sprintf("wire: truncated record: want %d bytes, got %d", e.Want, e.Got)
}

// UnknownEventType is returned when a book-event header's type byte has no
// known body schema. Because the type byte is what determines the body's
// size, the stream offset cannot be safely advanced past an unknown-typed
// record; callers that want a "skip and continue" policy for truncation-safe
// streams must do so at a layer that knows the record length out of band —
// within EventsReader this error is always terminal for the current file.
type UnknownEventType struct {
	Code uint8
}

func (e *UnknownEventType) Error() string {
	return fmt.Sprintf("wire: unknown book event type %d", e.Code)
}

// InvalidPrice describes a decoded price outside the reasonable range; wire
// itself only decodes bytes and never returns it. No other package in this
// module returns it either: out-of-range prices are clamped to their side's
// sentinel by schema.ClampBid/ClampAsk instead.
type InvalidPrice struct {
	Price int64
}

func (e *InvalidPrice) Error() string {
	return fmt.Sprintf("wire: price %d exceeds reasonable range", e.Price)
}
