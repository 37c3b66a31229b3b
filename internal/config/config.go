// Package config loads the simulator's run configuration from a JSON file
// and resolves it into the typed settings each collaborator package needs.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"fillsim/internal/latency"
	"fillsim/internal/risk"
)

// FileConfig mirrors the on-disk JSON layout.
type FileConfig struct {
	SymbolID          uint32          `json:"symbolId"`
	UseQueueSimulation bool           `json:"useQueueSimulation"`
	Latency           LatencyConfig   `json:"latency"`
	Risk              risk.Config     `json:"risk"`
	Persistence       PersistenceConfig `json:"persistence"`
	TopThrottleNs     int64           `json:"topThrottleNs"`
	Strategy          StrategyConfig  `json:"strategy"`
}

// LatencyConfig mirrors latency.Config's JSON shape.
type LatencyConfig struct {
	MDLatencyNs       int64 `json:"mdLatencyNs"`
	ExchangeLatencyNs int64 `json:"exchangeLatencyNs"`
	JitterMaxNs       int64 `json:"jitterMaxNs"`
	JitterSeed        int64 `json:"jitterSeed"`
}

// PersistenceConfig controls the optional end-of-run summary persistence.
type PersistenceConfig struct {
	Enabled bool   `json:"enabled"`
	DSN     string `json:"dsn"`
}

// StrategyConfig carries an opaque per-strategy settings blob; the chosen
// strategy implementation is responsible for interpreting it.
type StrategyConfig struct {
	Name     string          `json:"name"`
	Settings json.RawMessage `json:"settings"`
}

// Loaded is the resolved configuration, with each sub-config validated and
// ready to hand to its owning package's constructor.
type Loaded struct {
	SymbolID           uint32
	UseQueueSimulation bool
	Latency            latency.Config
	Risk               risk.Config
	Persistence        PersistenceConfig
	TopThrottleNs      int64
	Strategy           StrategyConfig
}

// Defaults applied when the corresponding config key is absent (zero).
const (
	defaultTopThrottleNs      = 100_000
	defaultMDLatencyNs        = 1000
	defaultExchangeLatencyNs  = 10000
)

// Load reads and validates a run configuration from path.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return Loaded{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	mdLatency := fc.Latency.MDLatencyNs
	if mdLatency == 0 {
		mdLatency = defaultMDLatencyNs
	}
	exchangeLatency := fc.Latency.ExchangeLatencyNs
	if exchangeLatency == 0 {
		exchangeLatency = defaultExchangeLatencyNs
	}
	latCfg := latency.Config{
		MDLatencyNs:       mdLatency,
		ExchangeLatencyNs: exchangeLatency,
		JitterMaxNs:       fc.Latency.JitterMaxNs,
		JitterSeed:        fc.Latency.JitterSeed,
	}
	if err := latCfg.Validate(); err != nil {
		return Loaded{}, fmt.Errorf("config: %w", err)
	}
	if err := fc.Risk.Validate(); err != nil {
		return Loaded{}, fmt.Errorf("config: %w", err)
	}

	throttle := fc.TopThrottleNs
	if throttle == 0 {
		throttle = defaultTopThrottleNs
	}
	if throttle < 0 {
		return Loaded{}, fmt.Errorf("config: topThrottleNs must be >= 0")
	}

	return Loaded{
		SymbolID:           fc.SymbolID,
		UseQueueSimulation: fc.UseQueueSimulation,
		Latency:            latCfg,
		Risk:                fc.Risk,
		Persistence:        fc.Persistence,
		TopThrottleNs:      throttle,
		Strategy:           fc.Strategy,
	}, nil
}
