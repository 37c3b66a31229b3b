package simerr

import "testing"

func TestErrorMessageIncludesWrappedCause(t *testing.T) {
	err := State(ErrUnknownOrder, "cancel referenced unknown order 42")
	want := "cancel referenced unknown order 42, err: unknown order id"
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestKindsCarryExpectedFatality(t *testing.T) {
	if !Config(nil, "bad config").Fatal {
		t.Fatalf("config errors must be fatal")
	}
	if !Invariant(nil, "broken invariant").Fatal {
		t.Fatalf("invariant errors must be fatal")
	}
	if State(nil, "unknown order").Fatal {
		t.Fatalf("state errors must not be fatal")
	}
}

func TestUnwrapReturnsCause(t *testing.T) {
	err := Wire(ErrInvalidFillPrice, "bad fill price", false)
	if err.Unwrap() != ErrInvalidFillPrice {
		t.Fatalf("unwrap mismatch")
	}
}
