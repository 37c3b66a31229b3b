// Package simerr defines the simulator's four error kinds and the sentinel
// errors each kind commonly wraps. None of it is fatal by construction — the
// Fatal field records what the spec calls for at the call site, and callers
// (mainly internal/kernel and cmd/fillsim) decide whether to absorb or halt.
package simerr

import "errors"

// Sentinel causes, wrapped by the typed Error below.
var (
	ErrUnknownOrder       = errors.New("unknown order id")
	ErrFilledExceedsTotal = errors.New("filled_qty exceeds total_qty")
	ErrInvalidFillPrice   = errors.New("fill price is zero or sentinel")
	ErrInvalidFillQty     = errors.New("fill qty is zero")
	ErrNotionalOverflow   = errors.New("notional computation overflows int64")
)

// Kind discriminates the four error categories the core can raise.
type Kind int

const (
	KindConfig Kind = iota
	KindWire
	KindState
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindWire:
		return "wire"
	case KindState:
		return "state"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is the simulator's single error type across all four kinds. Fatal
// says whether this particular occurrence should halt the event loop.
type Error struct {
	Kind  Kind
	Fatal bool
	err   error
	msg   string
}

const sep = ", err: "

func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + sep + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Config wraps a startup configuration failure. Always fatal.
func Config(err error, msg string) *Error {
	return &Error{Kind: KindConfig, Fatal: true, err: err, msg: msg}
}

// Wire wraps a wire-format failure. Truncation is fatal; unknown event
// types and oversize prices are not, per the caller's own determination.
func Wire(err error, msg string, fatal bool) *Error {
	return &Error{Kind: KindWire, Fatal: fatal, err: err, msg: msg}
}

// State wraps a reference to an unknown order id. Never fatal — strategies
// may legitimately race a cancel against a fill.
func State(err error, msg string) *Error {
	return &Error{Kind: KindState, Fatal: false, err: err, msg: msg}
}

// Invariant wraps an accounting invariant violation. Always fatal.
func Invariant(err error, msg string) *Error {
	return &Error{Kind: KindInvariant, Fatal: true, err: err, msg: msg}
}
