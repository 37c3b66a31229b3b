// Package wire decodes and encodes the fill simulator's binary file formats.
// Every record is packed, little-endian and fixed-width; this package does
// no interpretation of the values it moves — that is internal/book's and
// internal/kernel's job.
package wire

import (
	"encoding/binary"
	"io"

	"fillsim/internal/schema"
)

const fileHeaderSize = 24

// ReadFileHeader reads the 24-byte header shared by the tops, fills and
// book-events input files.
func ReadFileHeader(r io.Reader) (schema.FileHeader, error) {
	var buf [fileHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return schema.FileHeader{}, &Truncated{Want: fileHeaderSize, Got: 0}
		}
		return schema.FileHeader{}, err
	}
	return decodeFileHeader(buf[:]), nil
}

func decodeFileHeader(b []byte) schema.FileHeader {
	return schema.FileHeader{
		FeedID:      binary.LittleEndian.Uint64(b[0:8]),
		DateInt:     binary.LittleEndian.Uint32(b[8:12]),
		RecordCount: binary.LittleEndian.Uint32(b[12:16]),
		SymbolIdx:   binary.LittleEndian.Uint64(b[16:24]),
	}
}

// WriteFileHeader encodes and writes h.
func WriteFileHeader(w io.Writer, h schema.FileHeader) error {
	var buf [fileHeaderSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.FeedID)
	binary.LittleEndian.PutUint32(buf[8:12], h.DateInt)
	binary.LittleEndian.PutUint32(buf[12:16], h.RecordCount)
	binary.LittleEndian.PutUint64(buf[16:24], h.SymbolIdx)
	_, err := w.Write(buf[:])
	return err
}

func readFull(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(r, buf)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return nil, &Truncated{Want: n, Got: got}
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}
