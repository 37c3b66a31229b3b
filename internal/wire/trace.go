package wire

import (
	"bufio"
	"encoding/binary"
	"io"

	"fillsim/internal/schema"
)

const orderRecordSize = 46

// TraceWriter appends OrderRecord entries to the simulator's output trace.
// Writes are buffered; callers must Flush when done.
type TraceWriter struct {
	w *bufio.Writer
}

// NewTraceWriter wraps w in a buffered writer sized for steady-state
// per-event appends.
func NewTraceWriter(w io.Writer) *TraceWriter {
	return &TraceWriter{w: bufio.NewWriterSize(w, 64*1024)}
}

// Write encodes and appends rec.
func (tw *TraceWriter) Write(rec schema.OrderRecord) error {
	var buf [orderRecordSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(rec.Ts))
	buf[8] = byte(rec.Type)
	binary.LittleEndian.PutUint64(buf[9:17], rec.OrderID)
	binary.LittleEndian.PutUint32(buf[17:21], rec.SymbolID)
	binary.LittleEndian.PutUint64(buf[21:29], uint64(int64(rec.Price)))
	binary.LittleEndian.PutUint64(buf[29:37], uint64(int64(rec.OldPrice)))
	binary.LittleEndian.PutUint32(buf[37:41], uint32(rec.Qty))
	binary.LittleEndian.PutUint32(buf[41:45], uint32(rec.OldQty))
	buf[45] = boolByte(rec.IsBid)
	_, err := tw.w.Write(buf[:])
	return err
}

// Flush pushes any buffered bytes to the underlying writer.
func (tw *TraceWriter) Flush() error {
	return tw.w.Flush()
}

// TraceReader streams OrderRecord entries back out of a trace file, used by
// the dump tool and by the wire round-trip tests.
type TraceReader struct {
	r io.Reader
}

// NewTraceReader wraps r.
func NewTraceReader(r io.Reader) *TraceReader {
	return &TraceReader{r: r}
}

// Next decodes the next record, or returns io.EOF when the stream is cleanly
// exhausted at a record boundary.
func (tr *TraceReader) Next() (schema.OrderRecord, error) {
	buf, err := readFull(tr.r, orderRecordSize)
	if err != nil {
		return schema.OrderRecord{}, err
	}
	return schema.OrderRecord{
		Ts:       schema.Timestamp(binary.LittleEndian.Uint64(buf[0:8])),
		Type:     schema.TraceEventType(buf[8]),
		OrderID:  binary.LittleEndian.Uint64(buf[9:17]),
		SymbolID: binary.LittleEndian.Uint32(buf[17:21]),
		Price:    schema.Price(int64(binary.LittleEndian.Uint64(buf[21:29]))),
		OldPrice: schema.Price(int64(binary.LittleEndian.Uint64(buf[29:37]))),
		Qty:      schema.Quantity(binary.LittleEndian.Uint32(buf[37:41])),
		OldQty:   schema.Quantity(binary.LittleEndian.Uint32(buf[41:45])),
		IsBid:    boolAt(buf[45]),
	}, nil
}
