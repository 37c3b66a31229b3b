// Package telemetry is a non-blocking side channel that observes the
// matching kernel's trace records without ever sitting on the deterministic
// core path: a full tap drops events and counts the drop, it never slows
// the event loop down to wait for a consumer.
package telemetry

import (
	"context"
	"errors"
	"sync/atomic"

	"fillsim/internal/obs"
	"fillsim/internal/schema"
)

// ErrTapClosed is returned by TryPublish once the tap has been closed.
var ErrTapClosed = errors.New("telemetry: tap closed")

// Event pairs a trace record with a correlation id assigned by the tap,
// independent of anything the deterministic core tracks.
type Event struct {
	CorrelationID uint64
	Record        schema.OrderRecord
}

// Tap is a bounded, non-blocking fan-out point for order records.
type Tap struct {
	ids     *obs.IDGenerator
	ch      chan Event
	closed  uint32
	dropped uint64
}

// NewTap allocates a tap with the given buffer capacity.
func NewTap(capacity int) *Tap {
	if capacity <= 0 {
		capacity = 1
	}
	return &Tap{ids: obs.NewIDGenerator(0), ch: make(chan Event, capacity)}
}

// TryPublish stamps rec with the next correlation id and enqueues it without
// blocking. A full buffer drops the event rather than backing up the caller.
func (t *Tap) TryPublish(rec schema.OrderRecord) error {
	if atomic.LoadUint32(&t.closed) != 0 {
		return ErrTapClosed
	}
	ev := Event{CorrelationID: t.ids.Next(), Record: rec}
	select {
	case t.ch <- ev:
		return nil
	default:
		atomic.AddUint64(&t.dropped, 1)
		return nil
	}
}

// Dropped returns the lifetime count of events dropped due to a full buffer.
func (t *Tap) Dropped() uint64 {
	return atomic.LoadUint64(&t.dropped)
}

// Close stops the tap from accepting new events.
func (t *Tap) Close() {
	if atomic.CompareAndSwapUint32(&t.closed, 0, 1) {
		close(t.ch)
	}
}

// Run drains events until ctx is done or the tap is closed, calling handler
// for each one. Intended to run on its own goroutine, separate from the
// core event loop.
func (t *Tap) Run(ctx context.Context, handler func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-t.ch:
			if !ok {
				return
			}
			handler(ev)
		}
	}
}
