package telemetry

import (
	"context"
	"testing"
	"time"

	"fillsim/internal/schema"
)

func TestTapDropsWhenFull(t *testing.T) {
	tap := NewTap(1)
	if err := tap.TryPublish(schema.OrderRecord{OrderID: 1}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := tap.TryPublish(schema.OrderRecord{OrderID: 2}); err != nil {
		t.Fatalf("second publish should drop, not error: %v", err)
	}
	if tap.Dropped() != 1 {
		t.Fatalf("want 1 dropped event, got %d", tap.Dropped())
	}
}

func TestTapRunDeliversEvents(t *testing.T) {
	tap := NewTap(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got := make(chan Event, 4)
	go tap.Run(ctx, func(ev Event) { got <- ev })

	if err := tap.TryPublish(schema.OrderRecord{OrderID: 42}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-got:
		if ev.Record.OrderID != 42 || ev.CorrelationID == 0 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

type recordingSink struct {
	records []schema.OrderRecord
}

func (r *recordingSink) Write(rec schema.OrderRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func TestTeeSinkMirrorsToTap(t *testing.T) {
	base := &recordingSink{}
	tap := NewTap(4)
	tee := NewTeeSink(base, tap)

	if err := tee.Write(schema.OrderRecord{OrderID: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(base.records) != 1 {
		t.Fatalf("want record forwarded to base sink, got %d", len(base.records))
	}

	select {
	case ev := <-tap.ch:
		if ev.Record.OrderID != 1 {
			t.Fatalf("unexpected mirrored record: %+v", ev.Record)
		}
	default:
		t.Fatal("want the tap to have received the mirrored record")
	}
}
