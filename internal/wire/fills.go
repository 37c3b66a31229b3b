package wire

import (
	"encoding/binary"
	"io"

	"fillsim/internal/schema"
)

const bookFillSnapshotSize = 90

// FillsReader streams book_fill_snapshot records from a snapshot-mode fills
// file, following a FileHeader already consumed by the caller.
type FillsReader struct {
	r io.Reader
}

// NewFillsReader wraps r.
func NewFillsReader(r io.Reader) *FillsReader {
	return &FillsReader{r: r}
}

// Next decodes the next fill snapshot, or returns io.EOF when the stream is
// cleanly exhausted.
func (fr *FillsReader) Next() (schema.BookFillSnapshot, error) {
	buf, err := readFull(fr.r, bookFillSnapshotSize)
	if err != nil {
		return schema.BookFillSnapshot{}, err
	}
	return decodeBookFillSnapshot(buf), nil
}

func boolAt(b byte) bool { return b != 0 }

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func decodeBookFillSnapshot(b []byte) schema.BookFillSnapshot {
	return schema.BookFillSnapshot{
		Ts:                        schema.Timestamp(binary.LittleEndian.Uint64(b[0:8])),
		SeqNo:                     binary.LittleEndian.Uint64(b[8:16]),
		RestingOrderID:            binary.LittleEndian.Uint64(b[16:24]),
		WasHidden:                 boolAt(b[24]),
		TradePrice:                schema.Price(int64(binary.LittleEndian.Uint64(b[25:33]))),
		TradeQty:                  schema.Quantity(binary.LittleEndian.Uint32(b[33:37])),
		ExecutionID:               binary.LittleEndian.Uint64(b[37:45]),
		RestingOriginalQty:        schema.Quantity(binary.LittleEndian.Uint32(b[45:49])),
		RestingOrderRemainingQty:  schema.Quantity(binary.LittleEndian.Uint32(b[49:53])),
		RestingOrderLastUpdateTs:  schema.Timestamp(binary.LittleEndian.Uint64(b[53:61])),
		RestingSideIsBid:          boolAt(b[61]),
		RestingSidePrice:          schema.Price(int64(binary.LittleEndian.Uint64(b[62:70]))),
		RestingSideQty:            schema.Quantity(binary.LittleEndian.Uint32(b[70:74])),
		OpposingSidePrice:         schema.Price(int64(binary.LittleEndian.Uint64(b[74:82]))),
		OpposingSideQty:           schema.Quantity(binary.LittleEndian.Uint32(b[82:86])),
		RestingSideNumberOfOrders: binary.LittleEndian.Uint32(b[86:90]),
	}
}

// WriteBookFillSnapshot encodes and writes f — used by the fixture generator
// and by tests.
func WriteBookFillSnapshot(w io.Writer, f schema.BookFillSnapshot) error {
	buf := make([]byte, bookFillSnapshotSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(f.Ts))
	binary.LittleEndian.PutUint64(buf[8:16], f.SeqNo)
	binary.LittleEndian.PutUint64(buf[16:24], f.RestingOrderID)
	buf[24] = boolByte(f.WasHidden)
	binary.LittleEndian.PutUint64(buf[25:33], uint64(int64(f.TradePrice)))
	binary.LittleEndian.PutUint32(buf[33:37], uint32(f.TradeQty))
	binary.LittleEndian.PutUint64(buf[37:45], f.ExecutionID)
	binary.LittleEndian.PutUint32(buf[45:49], uint32(f.RestingOriginalQty))
	binary.LittleEndian.PutUint32(buf[49:53], uint32(f.RestingOrderRemainingQty))
	binary.LittleEndian.PutUint64(buf[53:61], uint64(f.RestingOrderLastUpdateTs))
	buf[61] = boolByte(f.RestingSideIsBid)
	binary.LittleEndian.PutUint64(buf[62:70], uint64(int64(f.RestingSidePrice)))
	binary.LittleEndian.PutUint32(buf[70:74], uint32(f.RestingSideQty))
	binary.LittleEndian.PutUint64(buf[74:82], uint64(int64(f.OpposingSidePrice)))
	binary.LittleEndian.PutUint32(buf[82:86], uint32(f.OpposingSideQty))
	binary.LittleEndian.PutUint32(buf[86:90], f.RestingSideNumberOfOrders)
	_, err := w.Write(buf)
	return err
}
