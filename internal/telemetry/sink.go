package telemetry

import "fillsim/internal/schema"

// sink is the subset of wire.TraceWriter's behavior TeeSink depends on.
type sink interface {
	Write(schema.OrderRecord) error
}

// TeeSink wraps a kernel.TraceSink so every record it writes to the
// authoritative trace file is also offered to a telemetry tap. The tap
// never influences whether the write to sink succeeds or blocks it.
type TeeSink struct {
	sink sink
	tap  *Tap
}

// NewTeeSink builds a TeeSink writing to sink and mirroring to tap. tap may
// be nil, in which case TeeSink behaves exactly like sink.
func NewTeeSink(s sink, tap *Tap) *TeeSink {
	return &TeeSink{sink: s, tap: tap}
}

func (t *TeeSink) Write(rec schema.OrderRecord) error {
	if err := t.sink.Write(rec); err != nil {
		return err
	}
	if t.tap != nil {
		_ = t.tap.TryPublish(rec)
	}
	return nil
}
