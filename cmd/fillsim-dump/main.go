// Command fillsim-dump prints an order-record trace file produced by
// cmd/fillsim, one line per record, for manual inspection.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"fillsim/internal/wire"
)

func main() {
	limit := flag.Int("limit", 0, "Stop after N records (0=unlimited)")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		log.Fatalf("usage: fillsim-dump [-limit N] <trace-file>")
	}

	f, err := os.Open(args[0])
	if err != nil {
		log.Fatalf("open trace file: %v", err)
	}
	defer f.Close()

	r := wire.NewTraceReader(f)
	index := 0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("decode record %d: %v", index, err)
		}
		index++
		fmt.Printf("%06d ts=%d type=%s order_id=%d symbol_id=%d price=%d old_price=%d qty=%d old_qty=%d is_bid=%t\n",
			index, rec.Ts, rec.Type, rec.OrderID, rec.SymbolID, rec.Price, rec.OldPrice, rec.Qty, rec.OldQty, rec.IsBid)
		if *limit > 0 && index >= *limit {
			break
		}
	}
	fmt.Printf("total records=%d\n", index)
}
