// Package simloop drives the matching kernel from either of the two input
// modes: snapshot mode (pre-computed tops and fills, merged in timestamp
// order) and queue mode (a single raw book-event stream feeding the book
// reconstructor). It is strictly single-threaded: every record is read,
// processed to completion, and only then does the loop read the next one.
package simloop

import (
	"io"

	"github.com/yanun0323/logs"

	"fillsim/internal/book"
	"fillsim/internal/kernel"
	"fillsim/internal/latency"
	"fillsim/internal/obs"
	"fillsim/internal/schema"
	"fillsim/internal/strategy"
	"fillsim/internal/wire"
)

const progressEvery = 100_000

// Loop is the shared core that both operating modes drive. It owns the
// latency pipeline and matching kernel; a run constructs one of these and
// calls either RunSnapshot or RunQueue, never both.
type Loop struct {
	kernel   *kernel.Kernel
	latency  *latency.Pipeline
	strategy strategy.Strategy
	metrics  *obs.Metrics

	topThrottleNs  int64
	haveLastTop    bool
	lastTopTs      schema.Timestamp

	processed int64
	sampler   obs.RuntimeSampler
}

// New builds a Loop around an already-constructed kernel. topThrottleNs is
// the top-coalescing window; a top arriving less than that long after the
// previously processed one is dropped before it ever reaches the strategy.
func New(k *kernel.Kernel, lat *latency.Pipeline, strat strategy.Strategy, metrics *obs.Metrics, topThrottleNs int64) *Loop {
	return &Loop{kernel: k, latency: lat, strategy: strat, metrics: metrics, topThrottleNs: topThrottleNs}
}

// RunSnapshot merges a pre-computed tops stream and fills stream in
// timestamp order (ties favor tops) until both are exhausted.
func (l *Loop) RunSnapshot(tops *wire.TopsReader, fills *wire.FillsReader) error {
	nextTop, topErr := tops.Next()
	haveTop := topErr == nil
	if topErr != nil && topErr != io.EOF {
		return topErr
	}

	nextFill, fillErr := fills.Next()
	haveFill := fillErr == nil
	if fillErr != nil && fillErr != io.EOF {
		return fillErr
	}

	for haveTop || haveFill {
		takeTop := haveTop && (!haveFill || nextTop.Ts <= nextFill.Ts)
		if takeTop {
			if err := l.handleTop(schema.ClampTop(nextTop)); err != nil {
				return err
			}
			l.tickProgress()
			nextTop, topErr = tops.Next()
			haveTop = topErr == nil
			if topErr != nil && topErr != io.EOF {
				return topErr
			}
			continue
		}

		if err := l.handleFill(nextFill); err != nil {
			return err
		}
		l.tickProgress()
		nextFill, fillErr = fills.Next()
		haveFill = fillErr == nil
		if fillErr != nil && fillErr != io.EOF {
			return fillErr
		}
	}
	return nil
}

// RunQueue drives the book reconstructor from a single raw book-event
// stream, feeding every resulting top change and synthesized fill through
// the same handlers snapshot mode uses.
func (l *Loop) RunQueue(events *wire.EventsReader, b *book.Book) error {
	for {
		ev, err := events.Next()
		if err == io.EOF {
			return nil
		}
		if unknown, ok := err.(*wire.UnknownEventType); ok {
			l.metrics.IncUnknownEvent()
			logs.Warnf("unknown book event type %d, stopping queue replay for this stream", unknown.Code)
			return nil
		}
		if err != nil {
			return err
		}

		result, err := b.Apply(ev)
		if err != nil {
			return err
		}

		if result.TopChanged {
			if err := l.handleTop(result.Top); err != nil {
				return err
			}
		}
		if result.Fill != nil {
			if err := l.handleFill(*result.Fill); err != nil {
				return err
			}
		}

		l.tickProgress()
	}
}

// handleTop implements §4.4/§4.5's top-update path: coalescing throttle,
// then latch → strategy callback → dispatch in order → sweep.
func (l *Loop) handleTop(top schema.TopOfBook) error {
	if l.haveLastTop && int64(top.Ts-l.lastTopTs) < l.topThrottleNs {
		l.metrics.IncTopThrottled()
		return nil
	}
	l.haveLastTop = true
	l.lastTopTs = top.Ts

	if !book.ValidTop(top) {
		l.metrics.IncStateWarn()
		return nil
	}

	l.kernel.UpdateTop(top)
	strategyTs := l.latency.StampInbound(top.Ts)

	for _, action := range l.strategy.OnBookTop(top) {
		if err := l.kernel.Dispatch(action, strategyTs); err != nil {
			return err
		}
	}

	return l.kernel.Sweep()
}

// handleFill delivers a market-wide fill observation to the strategy's
// on_fill callback and routes any returned actions through Latency →
// dispatch. This is distinct from the kernel's own process_fill, which
// calls on_order_filled for the participant's own orders.
func (l *Loop) handleFill(fill schema.BookFillSnapshot) error {
	strategyTs := l.latency.StampInbound(fill.Ts)
	for _, action := range l.strategy.OnFill(fill) {
		if err := l.kernel.Dispatch(action, strategyTs); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) tickProgress() {
	l.processed++
	if l.processed%progressEvery != 0 {
		return
	}
	l.sampler.Sample()
	logs.Infof("processed=%d", l.processed)
	l.sampler.LogLine()
}
