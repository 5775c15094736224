package orders

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
	StatusExpired Status = "EXPIRED"
)

// IsValid checks if the order status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status can never change again.
// Only pending orders transition.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusExpired
}

// CanTransitionTo checks a single FSM step. Pending may move to any
// terminal state; terminal states are frozen.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	switch next {
	case StatusPaid, StatusFailed, StatusExpired:
		return true
	}
	return false
}
