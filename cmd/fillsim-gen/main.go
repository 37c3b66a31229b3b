// Command fillsim-gen writes synthetic fixture files in the simulator's
// binary wire formats, for exercising cmd/fillsim without a recorded feed.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"fillsim/internal/schema"
	"fillsim/internal/wire"
)

func main() {
	mode := flag.String("mode", "queue", "Fixture kind to generate: queue|snapshot")
	count := flag.Int("count", 1000, "Number of records to generate")
	basePrice := flag.Int64("base-price", 100, "Base price in whole quote-currency units")
	spread := flag.Int64("spread", 1, "Bid/ask spread in whole quote-currency units")
	seed := flag.Int64("seed", 1, "Random seed, for reproducible fixtures")
	symbolIdx := flag.Uint64("symbol-idx", 1, "symbol_idx stamped into the file header")
	eventsOut := flag.String("events-out", "", "Queue mode: path for the book-events file")
	topsOut := flag.String("tops-out", "", "Snapshot mode: path for the tops file")
	fillsOut := flag.String("fills-out", "", "Snapshot mode: path for the fills file")
	flag.Parse()

	if *count <= 0 {
		log.Fatalf("count must be > 0")
	}

	rng := rand.New(rand.NewSource(*seed))
	base := schema.Price(*basePrice * schema.Nanos)
	spreadNanos := schema.Price(*spread * schema.Nanos)

	var err error
	switch *mode {
	case "queue":
		if *eventsOut == "" {
			log.Fatalf("-events-out is required in queue mode")
		}
		err = genQueue(*eventsOut, *count, *symbolIdx, base, spreadNanos, rng)
	case "snapshot":
		if *topsOut == "" || *fillsOut == "" {
			log.Fatalf("-tops-out and -fills-out are both required in snapshot mode")
		}
		err = genSnapshot(*topsOut, *fillsOut, *count, *symbolIdx, base, spreadNanos, rng)
	default:
		log.Fatalf("unknown -mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("generate failed: %v", err)
	}
}

func genQueue(path string, count int, symbolIdx uint64, base, spread schema.Price, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := wire.WriteFileHeader(f, schema.FileHeader{FeedID: 1, RecordCount: uint32(count), SymbolIdx: symbolIdx}); err != nil {
		return err
	}

	var ts schema.Timestamp
	var nextOrderID uint64
	var seq uint64
	resting := make([]uint64, 0, count)

	for i := 0; i < count; i++ {
		ts += schema.Timestamp(100 + rng.Int63n(900))
		seq++
		walk := schema.Price(rng.Int63n(int64(spread)) - int64(spread)/2)

		if len(resting) > 0 && rng.Intn(3) == 0 {
			orderID := resting[0]
			resting = resting[1:]
			ev := wire.RawBookEvent{
				Header:  schema.BookEventHeader{Ts: ts, SeqNo: seq, Type: schema.BookEventExecute},
				Execute: schema.ExecuteOrder{OrderID: orderID, TradedQty: schema.Quantity(1 + rng.Intn(5)), ExecutionID: seq},
			}
			if err := wire.WriteBookEvent(f, ev); err != nil {
				return err
			}
			continue
		}

		nextOrderID++
		side := schema.SideBid
		price := base - spread/2 + walk
		if rng.Intn(2) == 0 {
			side = schema.SideAsk
			price = base + spread/2 + walk
		}
		ev := wire.RawBookEvent{
			Header: schema.BookEventHeader{Ts: ts, SeqNo: seq, Type: schema.BookEventAdd},
			Add:    schema.AddOrder{OrderID: nextOrderID, Side: side, Price: price, Qty: schema.Quantity(1 + rng.Intn(10))},
		}
		if err := wire.WriteBookEvent(f, ev); err != nil {
			return err
		}
		resting = append(resting, nextOrderID)
	}
	return nil
}

func genSnapshot(topsPath, fillsPath string, count int, symbolIdx uint64, base, spread schema.Price, rng *rand.Rand) error {
	topsFile, err := os.Create(topsPath)
	if err != nil {
		return err
	}
	defer topsFile.Close()
	fillsFile, err := os.Create(fillsPath)
	if err != nil {
		return err
	}
	defer fillsFile.Close()

	if err := wire.WriteFileHeader(topsFile, schema.FileHeader{FeedID: 1, RecordCount: uint32(count), SymbolIdx: symbolIdx}); err != nil {
		return err
	}
	if err := wire.WriteFileHeader(fillsFile, schema.FileHeader{FeedID: 1, RecordCount: uint32(count), SymbolIdx: symbolIdx}); err != nil {
		return err
	}

	var ts schema.Timestamp
	var seq, fillCount uint64
	for i := 0; i < count; i++ {
		ts += schema.Timestamp(100 + rng.Int63n(900))
		seq++
		walk := schema.Price(rng.Int63n(int64(spread)) - int64(spread)/2)

		top := schema.TopOfBook{Ts: ts, SeqNo: seq}
		top.Levels[0] = schema.TopLevel{
			BidPrice: base - spread/2 + walk, BidQty: schema.Quantity(1 + rng.Intn(10)),
			AskPrice: base + spread/2 + walk, AskQty: schema.Quantity(1 + rng.Intn(10)),
		}
		if err := wire.WriteTopOfBook(topsFile, top); err != nil {
			return err
		}

		if rng.Intn(3) == 0 {
			fill := schema.BookFillSnapshot{
				Ts: ts, SeqNo: seq, RestingOrderID: seq,
				TradePrice: top.BestBid(), TradeQty: schema.Quantity(1 + rng.Intn(5)),
				ExecutionID: seq, RestingSideIsBid: true,
			}
			if err := wire.WriteBookFillSnapshot(fillsFile, fill); err != nil {
				return err
			}
			fillCount++
		}
	}

	if _, err := fillsFile.Seek(0, 0); err != nil {
		return err
	}
	return wire.WriteFileHeader(fillsFile, schema.FileHeader{FeedID: 1, RecordCount: uint32(fillCount), SymbolIdx: symbolIdx})
}
