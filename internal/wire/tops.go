package wire

import (
	"encoding/binary"
	"io"

	"fillsim/internal/schema"
)

const topLevelSize = 24
const bookTopSize = 16 + schema.TopLevelCount*topLevelSize // 88

// TopsReader streams book_top records from a snapshot-mode tops file,
// following a FileHeader already consumed by the caller via ReadFileHeader.
type TopsReader struct {
	r io.Reader
}

// NewTopsReader wraps r. The caller is responsible for having already read
// the file header off r.
func NewTopsReader(r io.Reader) *TopsReader {
	return &TopsReader{r: r}
}

// Next decodes the next top-of-book record, or returns io.EOF when the
// stream is cleanly exhausted.
func (tr *TopsReader) Next() (schema.TopOfBook, error) {
	buf, err := readFull(tr.r, bookTopSize)
	if err != nil {
		return schema.TopOfBook{}, err
	}
	return decodeTopOfBook(buf), nil
}

func decodeTopOfBook(b []byte) schema.TopOfBook {
	var t schema.TopOfBook
	t.Ts = schema.Timestamp(binary.LittleEndian.Uint64(b[0:8]))
	t.SeqNo = binary.LittleEndian.Uint64(b[8:16])
	off := 16
	for i := 0; i < schema.TopLevelCount; i++ {
		lvl := b[off : off+topLevelSize]
		t.Levels[i] = schema.TopLevel{
			BidPrice: schema.Price(int64(binary.LittleEndian.Uint64(lvl[0:8]))),
			AskPrice: schema.Price(int64(binary.LittleEndian.Uint64(lvl[8:16]))),
			BidQty:   schema.Quantity(binary.LittleEndian.Uint32(lvl[16:20])),
			AskQty:   schema.Quantity(binary.LittleEndian.Uint32(lvl[20:24])),
		}
		off += topLevelSize
	}
	return t
}

// WriteTopOfBook encodes and writes t — used by the fixture generator.
func WriteTopOfBook(w io.Writer, t schema.TopOfBook) error {
	buf := make([]byte, bookTopSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.Ts))
	binary.LittleEndian.PutUint64(buf[8:16], t.SeqNo)
	off := 16
	for i := 0; i < schema.TopLevelCount; i++ {
		lvl := t.Levels[i]
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(int64(lvl.BidPrice)))
		binary.LittleEndian.PutUint64(buf[off+8:off+16], uint64(int64(lvl.AskPrice)))
		binary.LittleEndian.PutUint32(buf[off+16:off+20], uint32(lvl.BidQty))
		binary.LittleEndian.PutUint32(buf[off+20:off+24], uint32(lvl.AskQty))
		off += topLevelSize
	}
	_, err := w.Write(buf)
	return err
}
