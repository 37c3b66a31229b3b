package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultThrottle(t *testing.T) {
	path := writeTempConfig(t, `{"symbolId": 7, "latency": {"mdLatencyNs": 1000, "exchangeLatencyNs": 500}}`)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.TopThrottleNs != defaultTopThrottleNs {
		t.Fatalf("want default throttle %d, got %d", defaultTopThrottleNs, loaded.TopThrottleNs)
	}
	if loaded.SymbolID != 7 {
		t.Fatalf("want symbol id 7, got %d", loaded.SymbolID)
	}
	if loaded.Latency.MDLatencyNs != 1000 || loaded.Latency.ExchangeLatencyNs != 500 {
		t.Fatalf("latency config not carried through: %+v", loaded.Latency)
	}
}

func TestLoadAppliesDefaultLatency(t *testing.T) {
	path := writeTempConfig(t, `{}`)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Latency.MDLatencyNs != defaultMDLatencyNs {
		t.Fatalf("want default md latency %d, got %d", defaultMDLatencyNs, loaded.Latency.MDLatencyNs)
	}
	if loaded.Latency.ExchangeLatencyNs != defaultExchangeLatencyNs {
		t.Fatalf("want default exchange latency %d, got %d", defaultExchangeLatencyNs, loaded.Latency.ExchangeLatencyNs)
	}
}

func TestLoadRejectsNegativeLatency(t *testing.T) {
	path := writeTempConfig(t, `{"latency": {"mdLatencyNs": -1}}`)

	if _, err := Load(path); err == nil {
		t.Fatal("want an error for negative md latency")
	}
}

func TestLoadRejectsNegativeThrottle(t *testing.T) {
	path := writeTempConfig(t, `{"topThrottleNs": -5}`)

	if _, err := Load(path); err == nil {
		t.Fatal("want an error for negative top throttle")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("want an error for a missing config file")
	}
}
