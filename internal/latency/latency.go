// Package latency stamps event timestamps as they cross the simulated
// network boundary between the exchange feed, the strategy, and back. It
// mutates no application state besides its own running counters — it is a
// pure timestamp-stamping layer, never a scheduler.
package latency

import (
	"fmt"
	"math/rand"

	"fillsim/internal/schema"
)

// Config controls the two configured latency constants plus an optional
// deterministic jitter band layered on top of them.
type Config struct {
	MDLatencyNs       int64
	ExchangeLatencyNs int64

	// JitterMaxNs, when non-zero, adds a uniform [0, JitterMaxNs] delay on
	// top of each stamp, seeded by JitterSeed for reproducibility. Zero
	// means no jitter — the pipeline degenerates to fixed-latency stamping.
	JitterMaxNs int64
	JitterSeed  int64
}

// Validate rejects latency configs the pipeline cannot honor.
func (c Config) Validate() error {
	if c.MDLatencyNs < 0 {
		return fmt.Errorf("latency: mdLatencyNs must be >= 0")
	}
	if c.ExchangeLatencyNs < 0 {
		return fmt.Errorf("latency: exchangeLatencyNs must be >= 0")
	}
	if c.JitterMaxNs < 0 {
		return fmt.Errorf("latency: jitterMaxNs must be >= 0")
	}
	return nil
}

// Pipeline is the stamping layer sitting between the book/strategy and the
// matching kernel. It owns nothing but its latency counters.
type Pipeline struct {
	cfg      Config
	rng      *rand.Rand // nil when JitterMaxNs == 0
	counters schema.LatencyCounters
}

// New builds a pipeline from cfg, validating it first.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg}
	if cfg.JitterMaxNs > 0 {
		p.rng = rand.New(rand.NewSource(cfg.JitterSeed))
	}
	return p, nil
}

func (p *Pipeline) jitter() int64 {
	if p.rng == nil {
		return 0
	}
	return p.rng.Int63n(p.cfg.JitterMaxNs + 1)
}

// StampInbound maps an exchange-side publish timestamp to the time the
// strategy observes it, and records the MD-to-strategy latency.
func (p *Pipeline) StampInbound(sourceTs schema.Timestamp) schema.Timestamp {
	delay := p.cfg.MDLatencyNs + p.jitter()
	p.counters.MDEvents++
	p.counters.MDToStrategyNsSum += uint64(delay)
	return sourceTs + schema.Timestamp(delay)
}

// StampOutbound maps the time the strategy emitted an action to the time the
// exchange (the matching kernel) receives it, and records the
// strategy-to-exchange latency. The same constant applies symmetrically to
// exchange-side acknowledgements traveling back to the strategy.
func (p *Pipeline) StampOutbound(strategyTs schema.Timestamp) schema.Timestamp {
	delay := p.cfg.ExchangeLatencyNs + p.jitter()
	p.counters.StrategyToExchangeNsSum += uint64(delay)
	return strategyTs + schema.Timestamp(delay)
}

// StampFillNotification maps the time a fill occurred to the time the
// strategy is notified of it, and records the exchange-to-notification
// latency.
func (p *Pipeline) StampFillNotification(fillTs schema.Timestamp) schema.Timestamp {
	delay := p.cfg.ExchangeLatencyNs + p.jitter()
	p.counters.ExchangeToNotificationNsSum += uint64(delay)
	return fillTs + schema.Timestamp(delay)
}

// Counters returns a snapshot of the running latency aggregates.
func (p *Pipeline) Counters() schema.LatencyCounters {
	return p.counters
}
