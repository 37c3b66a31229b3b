// Command fillsim replays a recorded book against a configured strategy and
// writes the resulting order lifecycle trace. It runs in one of two modes,
// selected by the config file's top-level useQueueSimulation key:
// snapshot mode consumes pre-computed tops and fills files; queue mode
// reconstructs the book itself from a single raw book-event stream.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/grafana/pyroscope-go"

	"fillsim/internal/book"
	"fillsim/internal/config"
	"fillsim/internal/kernel"
	"fillsim/internal/latency"
	"fillsim/internal/obs"
	"fillsim/internal/risk"
	"fillsim/internal/runsummary"
	"fillsim/internal/schema"
	"fillsim/internal/simloop"
	"fillsim/internal/strategy"
	"fillsim/internal/telemetry"
	"fillsim/internal/wire"
	"fillsim/pkg/conn"
)

// runOptions carries the flags every mode needs, resolved once in main.
type runOptions struct {
	summaryPath     string
	telemetryBuffer int
}

func main() {
	summaryPath := flag.String("summary-out", "", "Write the end-of-run summary as JSON to this path (default: <output-file>.summary.json)")
	telemetryBuffer := flag.Int("telemetry-buffer", 0, "Telemetry tap buffer capacity (0=disable the tap)")
	profile := flag.Bool("profile", false, "Enable continuous profiling via Pyroscope")
	profileServerAddr := flag.String("profile-server", "http://localhost:4040", "Pyroscope server address, used when -profile is set")
	flag.Parse()

	if *profile {
		stopper, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "fillsim",
			ServerAddress:   *profileServerAddr,
		})
		if err != nil {
			log.Fatalf("profiler start failed: %v", err)
		}
		defer stopper.Stop()
	}

	args := flag.Args()
	if len(args) < 3 {
		log.Fatalf("usage: fillsim [flags] <tops-file> <fills-file> <output-file> <config-file>\n   or: fillsim [flags] <events-file> <output-file> <config-file>")
	}
	configPath := args[len(args)-1]

	loaded, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	opts := runOptions{summaryPath: *summaryPath, telemetryBuffer: *telemetryBuffer}

	if loaded.UseQueueSimulation {
		if len(args) != 3 {
			log.Fatalf("queue mode expects <events-file> <output-file> <config-file>, got %d positional args", len(args))
		}
		err = runQueue(loaded, opts, args[0], args[1])
	} else {
		if len(args) != 4 {
			log.Fatalf("snapshot mode expects <tops-file> <fills-file> <output-file> <config-file>, got %d positional args", len(args))
		}
		err = runSnapshot(loaded, opts, args[0], args[1], args[2])
	}
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

// runner bundles the collaborators every mode wires identically; only the
// input-reading loop differs between snapshot and queue mode.
type runner struct {
	kernel   *kernel.Kernel
	latency  *latency.Pipeline
	loop     *simloop.Loop
	tap      *telemetry.Tap
	traceOut *wire.TraceWriter
	outFile  *os.File
	loaded   config.Loaded
	opts     runOptions
	outPath  string
}

func newRunner(loaded config.Loaded, opts runOptions, outputPath string) (*runner, error) {
	lat, err := latency.New(loaded.Latency)
	if err != nil {
		return nil, fmt.Errorf("latency config: %w", err)
	}

	var guard *risk.Guard
	if loaded.Risk.Enabled {
		guard, err = risk.NewGuard(loaded.Risk)
		if err != nil {
			return nil, fmt.Errorf("risk config: %w", err)
		}
	}

	strat, err := buildStrategy(loaded.Strategy)
	if err != nil {
		return nil, fmt.Errorf("strategy config: %w", err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	traceOut := wire.NewTraceWriter(outFile)
	var tap *telemetry.Tap
	var sink kernel.TraceSink = traceOut
	if opts.telemetryBuffer > 0 {
		tap = telemetry.NewTap(opts.telemetryBuffer)
		sink = telemetry.NewTeeSink(traceOut, tap)
	}

	metrics := obs.NewMetrics()
	k := kernel.New(strat, lat, guard, sink, metrics)
	k.SetSymbol(loaded.SymbolID)

	loop := simloop.New(k, lat, strat, metrics, loaded.TopThrottleNs)

	return &runner{
		kernel: k, latency: lat, loop: loop, tap: tap,
		traceOut: traceOut, outFile: outFile, loaded: loaded, opts: opts, outPath: outputPath,
	}, nil
}

// startTap launches the telemetry consumer, if any, and returns a stop
// function callers defer to cancel it once the run is complete.
func (r *runner) startTap() func() {
	if r.tap == nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	go r.tap.Run(ctx, func(ev telemetry.Event) {
		log.Printf("telemetry correlation_id=%d type=%v order_id=%d", ev.CorrelationID, ev.Record.Type, ev.Record.OrderID)
	})
	return cancel
}

func (r *runner) finish() error {
	if r.tap != nil {
		r.tap.Close()
	}
	if err := r.traceOut.Flush(); err != nil {
		r.outFile.Close()
		return fmt.Errorf("flush trace output: %w", err)
	}
	if err := r.outFile.Close(); err != nil {
		return fmt.Errorf("close trace output: %w", err)
	}

	summary := runsummary.Build(r.kernel, r.latency.Counters(), r.loaded.SymbolID, time.Now().UnixNano())
	log.Printf("run complete: position=%d cash_flow=%s orders_placed=%d orders_filled=%d",
		summary.Position, summary.CashFlowDecimal, summary.OrdersPlaced, summary.OrdersFilled)

	summaryPath := r.opts.summaryPath
	if summaryPath == "" {
		summaryPath = r.outPath + ".summary.json"
	}
	if err := runsummary.WriteJSON(summaryPath, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if r.loaded.Persistence.Enabled {
		client, err := conn.Open(r.loaded.Persistence.DSN)
		if err != nil {
			return fmt.Errorf("persistence connect: %w", err)
		}
		defer client.Close()
		store, err := runsummary.NewStore(client.DB())
		if err != nil {
			return fmt.Errorf("persistence migrate: %w", err)
		}
		if err := store.Save(summary); err != nil {
			return fmt.Errorf("persistence save: %w", err)
		}
	}
	return nil
}

func runSnapshot(loaded config.Loaded, opts runOptions, topsPath, fillsPath, outputPath string) error {
	topsFile, err := os.Open(topsPath)
	if err != nil {
		return fmt.Errorf("open tops file: %w", err)
	}
	defer topsFile.Close()
	fillsFile, err := os.Open(fillsPath)
	if err != nil {
		return fmt.Errorf("open fills file: %w", err)
	}
	defer fillsFile.Close()

	if _, err := wire.ReadFileHeader(topsFile); err != nil {
		return fmt.Errorf("read tops header: %w", err)
	}
	if _, err := wire.ReadFileHeader(fillsFile); err != nil {
		return fmt.Errorf("read fills header: %w", err)
	}

	r, err := newRunner(loaded, opts, outputPath)
	if err != nil {
		return err
	}
	defer r.startTap()()

	tops := wire.NewTopsReader(topsFile)
	fills := wire.NewFillsReader(fillsFile)
	if err := r.loop.RunSnapshot(tops, fills); err != nil {
		return fmt.Errorf("run snapshot loop: %w", err)
	}
	return r.finish()
}

func runQueue(loaded config.Loaded, opts runOptions, eventsPath, outputPath string) error {
	eventsFile, err := os.Open(eventsPath)
	if err != nil {
		return fmt.Errorf("open events file: %w", err)
	}
	defer eventsFile.Close()

	if _, err := wire.ReadFileHeader(eventsFile); err != nil {
		return fmt.Errorf("read events header: %w", err)
	}

	r, err := newRunner(loaded, opts, outputPath)
	if err != nil {
		return err
	}
	defer r.startTap()()

	events := wire.NewEventsReader(eventsFile)
	b := book.New()
	if err := r.loop.RunQueue(events, b); err != nil {
		return fmt.Errorf("run queue loop: %w", err)
	}
	return r.finish()
}

func buildStrategy(cfg config.StrategyConfig) (strategy.Strategy, error) {
	switch cfg.Name {
	case "", "noop":
		return &strategy.NoOp{}, nil
	case "pegged":
		var settings struct {
			Qty  uint32 `json:"qty"`
			Tick int64  `json:"tick"`
		}
		if len(cfg.Settings) > 0 {
			if err := json.Unmarshal(cfg.Settings, &settings); err != nil {
				return nil, fmt.Errorf("strategy settings: %w", err)
			}
		}
		if settings.Qty == 0 {
			settings.Qty = 1
		}
		return strategy.NewPeggedQuote(schema.Quantity(settings.Qty), schema.Price(settings.Tick)), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Name)
	}
}
