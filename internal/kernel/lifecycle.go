package kernel

// Status tracks an order's position in its lifecycle.
//
// Pending is transient — it exists only for the duration of Add processing
// and is never observed outside this package. Every other terminal state
// (FullyFilled, Cancelled, PostOnlyRejected) causes removal from the
// kernel's active set in the same step that reaches it.
type Status uint8

const (
	StatusPending Status = iota
	StatusActive
	StatusPartiallyFilled
	StatusFullyFilled
	StatusCancelled
	StatusPostOnlyRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFullyFilled:
		return "fully_filled"
	case StatusCancelled:
		return "cancelled"
	case StatusPostOnlyRejected:
		return "post_only_rejected"
	default:
		return "unknown"
	}
}

func (s Status) terminal() bool {
	switch s {
	case StatusFullyFilled, StatusCancelled, StatusPostOnlyRejected:
		return true
	default:
		return false
	}
}
