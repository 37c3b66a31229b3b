// Package risk is an optional pre-trade guard the matching kernel can
// consult before accepting a strategy's Add or Replace action. It is off by
// default — the core spec's kernel has no risk concept — and when disabled
// every Evaluate call allows unconditionally, so a disabled guard never
// changes existing byte-for-byte output.
package risk

import (
	"fmt"

	"fillsim/internal/schema"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Config defines the guard's static limits.
type Config struct {
	Enabled              bool
	KillSwitch           bool
	MaxOrderQty          schema.Quantity
	MaxOrderNotional      int64
	MaxPosition          schema.Quantity
	MaxPriceDeviationBps int64
	RateLimit            int
	RateWindowNs         int64
}

// Validate rejects guard configs the engine cannot honor.
func (c Config) Validate() error {
	if c.MaxOrderNotional < 0 {
		return fmt.Errorf("risk: maxOrderNotional must be >= 0")
	}
	if c.MaxPriceDeviationBps < 0 {
		return fmt.Errorf("risk: maxPriceDeviationBps must be >= 0")
	}
	if c.RateLimit < 0 || c.RateWindowNs < 0 {
		return fmt.Errorf("risk: rate limit/window must be >= 0")
	}
	return nil
}

// Reason names why a Decision denied an action.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonKillSwitch  Reason = "kill_switch"
	ReasonRateLimit   Reason = "rate_limit"
	ReasonMaxQty      Reason = "max_order_qty"
	ReasonMaxNotional Reason = "max_order_notional"
	ReasonPriceBand   Reason = "price_deviation"
	ReasonMaxPosition Reason = "max_position"
)

// Decision is the guard's verdict on a single proposed Add action.
type Decision struct {
	Allow  bool
	Reason Reason
}

// Guard evaluates proposed orders against a static set of limits.
type Guard struct {
	cfg             Config
	rateWindowStart schema.Timestamp
	rateCount       int
}

// NewGuard builds a guard from cfg, validating it first.
func NewGuard(cfg Config) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Guard{cfg: cfg}, nil
}

// Evaluate checks a proposed Add action against the kernel's signed net
// position and a reference mid price. When the guard is disabled it always
// allows.
func (g *Guard) Evaluate(action schema.Action, position int64, refPrice schema.Price, now schema.Timestamp) Decision {
	if g == nil || !g.cfg.Enabled {
		return Decision{Allow: true}
	}

	if g.cfg.KillSwitch {
		return Decision{Allow: false, Reason: ReasonKillSwitch}
	}

	if g.cfg.RateLimit > 0 && g.cfg.RateWindowNs > 0 {
		if g.rateWindowStart == 0 || int64(now-g.rateWindowStart) >= g.cfg.RateWindowNs {
			g.rateWindowStart = now
			g.rateCount = 0
		}
		g.rateCount++
		if g.rateCount > g.cfg.RateLimit {
			return Decision{Allow: false, Reason: ReasonRateLimit}
		}
	}

	if g.cfg.MaxOrderQty > 0 && action.Qty > g.cfg.MaxOrderQty {
		return Decision{Allow: false, Reason: ReasonMaxQty}
	}

	if g.cfg.MaxPriceDeviationBps > 0 && refPrice > 0 && action.Price > 0 {
		diff := absInt64(int64(action.Price) - int64(refPrice))
		if exceedsDeviation(diff, int64(refPrice), g.cfg.MaxPriceDeviationBps) {
			return Decision{Allow: false, Reason: ReasonPriceBand}
		}
	}

	notional, overflow := mulNotional(action.Price, action.Qty)
	if overflow || (g.cfg.MaxOrderNotional > 0 && notional > g.cfg.MaxOrderNotional) {
		return Decision{Allow: false, Reason: ReasonMaxNotional}
	}

	nextPos := applySide(position, action.Side, action.Qty)
	if g.cfg.MaxPosition > 0 && absInt64(nextPos) > int64(g.cfg.MaxPosition) {
		return Decision{Allow: false, Reason: ReasonMaxPosition}
	}

	return Decision{Allow: true}
}

func mulNotional(price schema.Price, qty schema.Quantity) (int64, bool) {
	p, q := int64(price), int64(qty)
	if p == 0 || q == 0 {
		return 0, false
	}
	if p < 0 {
		p = -p
	}
	if q < 0 {
		q = -q
	}
	if p > maxInt64/q {
		return 0, true
	}
	return int64(price) * int64(qty), false
}

func applySide(pos int64, side schema.Side, qty schema.Quantity) int64 {
	switch side {
	case schema.SideBid:
		return pos + int64(qty)
	case schema.SideAsk:
		return pos - int64(qty)
	default:
		return pos
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func exceedsDeviation(diff, ref, bps int64) bool {
	if diff <= 0 || ref <= 0 || bps <= 0 {
		return false
	}
	if diff > maxInt64/10000 {
		return true
	}
	lhs := diff * 10000
	if ref > maxInt64/bps {
		return true
	}
	return lhs > ref*bps
}
