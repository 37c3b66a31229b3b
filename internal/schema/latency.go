package schema

// LatencyCounters are the running totals the latency pipeline maintains.
// They are averaged at the end of a run by the Avg* methods below. Every
// average divides by MDEvents, the count of inbound market-data stamps.
type LatencyCounters struct {
	MDEvents                   uint64
	MDToStrategyNsSum          uint64
	StrategyToExchangeNsSum    uint64
	ExchangeToNotificationNsSum uint64
}

// AvgMDToStrategyNs returns the mean MD-to-strategy latency in nanoseconds.
func (c LatencyCounters) AvgMDToStrategyNs() float64 {
	if c.MDEvents == 0 {
		return 0
	}
	return float64(c.MDToStrategyNsSum) / float64(c.MDEvents)
}

// AvgStrategyToExchangeNs returns StrategyToExchangeNsSum divided by
// MDEvents, in nanoseconds; it is not divided by the number of outbound stamps.
func (c LatencyCounters) AvgStrategyToExchangeNs() float64 {
	if c.MDEvents == 0 {
		return 0
	}
	return float64(c.StrategyToExchangeNsSum) / float64(c.MDEvents)
}

// AvgExchangeToNotificationNs returns ExchangeToNotificationNsSum divided by
// MDEvents, in nanoseconds; it is not divided by the number of fill notifications.
func (c LatencyCounters) AvgExchangeToNotificationNs() float64 {
	if c.MDEvents == 0 {
		return 0
	}
	return float64(c.ExchangeToNotificationNsSum) / float64(c.MDEvents)
}
