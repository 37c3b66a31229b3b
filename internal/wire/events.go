package wire

import (
	"encoding/binary"
	"io"

	"fillsim/internal/schema"
)

const bookEventHeaderSize = 17

// bodySize gives the fixed body length for each known book event type.
// BookEventClearBook carries no body.
var bodySize = map[schema.BookEventType]int{
	schema.BookEventAdd:            21,
	schema.BookEventDelete:         8,
	schema.BookEventReplace:        28,
	schema.BookEventAmend:          12,
	schema.BookEventReduce:         12,
	schema.BookEventExecute:        20,
	schema.BookEventExecuteAtPrice: 28,
	schema.BookEventClearBook:      0,
	schema.BookEventSession:        1,
	schema.BookEventHiddenTrade:    29,
}

// RawBookEvent is a decoded queue-mode book event. Header.Type says which of
// the variant fields is populated; the rest carry zero values. This mirrors
// the flat tagged-struct shape the rest of the codebase uses for sum types
// (see schema.Action) rather than an interface per variant.
type RawBookEvent struct {
	Header schema.BookEventHeader

	Add            schema.AddOrder
	Delete         schema.DeleteOrder
	Replace        schema.ReplaceOrder
	Amend          schema.AmendOrder
	Reduce         schema.ReduceOrder
	Execute        schema.ExecuteOrder
	ExecuteAtPrice schema.ExecuteOrderAtPrice
	Session        schema.SessionEvent
	Hidden         schema.HiddenTrade
}

// EventsReader streams raw book events from a queue-mode book-events file,
// following a FileHeader already consumed by the caller.
type EventsReader struct {
	r io.Reader
}

// NewEventsReader wraps r.
func NewEventsReader(r io.Reader) *EventsReader {
	return &EventsReader{r: r}
}

// Next decodes the next book event. It returns io.EOF when the stream is
// cleanly exhausted at a record boundary, and *UnknownEventType when the
// header's type byte has no known body schema — that error is terminal for
// this reader since the body length, and hence the next record's offset,
// cannot be determined.
func (er *EventsReader) Next() (RawBookEvent, error) {
	hb, err := readFull(er.r, bookEventHeaderSize)
	if err != nil {
		return RawBookEvent{}, err
	}
	hdr := schema.BookEventHeader{
		Ts:    schema.Timestamp(binary.LittleEndian.Uint64(hb[0:8])),
		SeqNo: binary.LittleEndian.Uint64(hb[8:16]),
		Type:  schema.BookEventType(hb[16]),
	}

	size, known := bodySize[hdr.Type]
	if !known {
		return RawBookEvent{}, &UnknownEventType{Code: uint8(hdr.Type)}
	}

	ev := RawBookEvent{Header: hdr}
	if size == 0 {
		return ev, nil
	}

	body, err := readFull(er.r, size)
	if err != nil {
		if err == io.EOF {
			return RawBookEvent{}, &Truncated{Want: size, Got: 0}
		}
		return RawBookEvent{}, err
	}

	switch hdr.Type {
	case schema.BookEventAdd:
		ev.Add = schema.AddOrder{
			OrderID: binary.LittleEndian.Uint64(body[0:8]),
			Side:    schema.Side(body[8]),
			Price:   schema.Price(int64(binary.LittleEndian.Uint64(body[9:17]))),
			Qty:     schema.Quantity(binary.LittleEndian.Uint32(body[17:21])),
		}
	case schema.BookEventDelete:
		ev.Delete = schema.DeleteOrder{OrderID: binary.LittleEndian.Uint64(body[0:8])}
	case schema.BookEventReplace:
		ev.Replace = schema.ReplaceOrder{
			OldOrderID: binary.LittleEndian.Uint64(body[0:8]),
			NewOrderID: binary.LittleEndian.Uint64(body[8:16]),
			Price:      schema.Price(int64(binary.LittleEndian.Uint64(body[16:24]))),
			Qty:        schema.Quantity(binary.LittleEndian.Uint32(body[24:28])),
		}
	case schema.BookEventAmend:
		ev.Amend = schema.AmendOrder{
			OrderID: binary.LittleEndian.Uint64(body[0:8]),
			NewQty:  schema.Quantity(binary.LittleEndian.Uint32(body[8:12])),
		}
	case schema.BookEventReduce:
		ev.Reduce = schema.ReduceOrder{
			OrderID:  binary.LittleEndian.Uint64(body[0:8]),
			CxledQty: schema.Quantity(binary.LittleEndian.Uint32(body[8:12])),
		}
	case schema.BookEventExecute:
		ev.Execute = schema.ExecuteOrder{
			OrderID:     binary.LittleEndian.Uint64(body[0:8]),
			TradedQty:   schema.Quantity(binary.LittleEndian.Uint32(body[8:12])),
			ExecutionID: binary.LittleEndian.Uint64(body[12:20]),
		}
	case schema.BookEventExecuteAtPrice:
		ev.ExecuteAtPrice = schema.ExecuteOrderAtPrice{
			OrderID:     binary.LittleEndian.Uint64(body[0:8]),
			TradedQty:   schema.Quantity(binary.LittleEndian.Uint32(body[8:12])),
			ExecPrice:   schema.Price(int64(binary.LittleEndian.Uint64(body[12:20]))),
			ExecutionID: binary.LittleEndian.Uint64(body[20:28]),
		}
	case schema.BookEventSession:
		ev.Session = schema.SessionEvent{Code: body[0]}
	case schema.BookEventHiddenTrade:
		ev.Hidden = schema.HiddenTrade{
			Price:   schema.Price(int64(binary.LittleEndian.Uint64(body[0:8]))),
			Qty:     schema.Quantity(binary.LittleEndian.Uint32(body[8:12])),
			Side:    schema.Side(body[12]),
			TradeID: binary.LittleEndian.Uint64(body[13:21]),
			RefID:   binary.LittleEndian.Uint64(body[21:29]),
		}
	}

	return ev, nil
}

// WriteBookEvent encodes and writes ev — used by the fixture generator.
func WriteBookEvent(w io.Writer, ev RawBookEvent) error {
	hdr := make([]byte, bookEventHeaderSize)
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(ev.Header.Ts))
	binary.LittleEndian.PutUint64(hdr[8:16], ev.Header.SeqNo)
	hdr[16] = byte(ev.Header.Type)
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	size, known := bodySize[ev.Header.Type]
	if !known {
		return &UnknownEventType{Code: uint8(ev.Header.Type)}
	}
	if size == 0 {
		return nil
	}

	body := make([]byte, size)
	switch ev.Header.Type {
	case schema.BookEventAdd:
		binary.LittleEndian.PutUint64(body[0:8], ev.Add.OrderID)
		body[8] = byte(ev.Add.Side)
		binary.LittleEndian.PutUint64(body[9:17], uint64(int64(ev.Add.Price)))
		binary.LittleEndian.PutUint32(body[17:21], uint32(ev.Add.Qty))
	case schema.BookEventDelete:
		binary.LittleEndian.PutUint64(body[0:8], ev.Delete.OrderID)
	case schema.BookEventReplace:
		binary.LittleEndian.PutUint64(body[0:8], ev.Replace.OldOrderID)
		binary.LittleEndian.PutUint64(body[8:16], ev.Replace.NewOrderID)
		binary.LittleEndian.PutUint64(body[16:24], uint64(int64(ev.Replace.Price)))
		binary.LittleEndian.PutUint32(body[24:28], uint32(ev.Replace.Qty))
	case schema.BookEventAmend:
		binary.LittleEndian.PutUint64(body[0:8], ev.Amend.OrderID)
		binary.LittleEndian.PutUint32(body[8:12], uint32(ev.Amend.NewQty))
	case schema.BookEventReduce:
		binary.LittleEndian.PutUint64(body[0:8], ev.Reduce.OrderID)
		binary.LittleEndian.PutUint32(body[8:12], uint32(ev.Reduce.CxledQty))
	case schema.BookEventExecute:
		binary.LittleEndian.PutUint64(body[0:8], ev.Execute.OrderID)
		binary.LittleEndian.PutUint32(body[8:12], uint32(ev.Execute.TradedQty))
		binary.LittleEndian.PutUint64(body[12:20], ev.Execute.ExecutionID)
	case schema.BookEventExecuteAtPrice:
		binary.LittleEndian.PutUint64(body[0:8], ev.ExecuteAtPrice.OrderID)
		binary.LittleEndian.PutUint32(body[8:12], uint32(ev.ExecuteAtPrice.TradedQty))
		binary.LittleEndian.PutUint64(body[12:20], uint64(int64(ev.ExecuteAtPrice.ExecPrice)))
		binary.LittleEndian.PutUint64(body[20:28], ev.ExecuteAtPrice.ExecutionID)
	case schema.BookEventSession:
		body[0] = ev.Session.Code
	case schema.BookEventHiddenTrade:
		binary.LittleEndian.PutUint64(body[0:8], uint64(int64(ev.Hidden.Price)))
		binary.LittleEndian.PutUint32(body[8:12], uint32(ev.Hidden.Qty))
		body[12] = byte(ev.Hidden.Side)
		binary.LittleEndian.PutUint64(body[13:21], ev.Hidden.TradeID)
		binary.LittleEndian.PutUint64(body[21:29], ev.Hidden.RefID)
	}

	_, err := w.Write(body)
	return err
}
