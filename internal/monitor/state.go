package monitor

import "time"

// Availability is the last known state of the section
type Availability int

const (
	Unknown Availability = iota // not observed yet in this run
	Closed
	Open
)

func (a Availability) String() string {
	switch a {
	case Closed:
		return "closed"
	case Open:
		return "open"
	default:
		return "unknown"
	}
}

func availabilityOf(open bool) Availability {
	if open {
		return Open
	}
	return Closed
}

// PollState is the loop's mutable state. It is owned by a single Monitor.
type PollState struct {
	LastKnownOpen       Availability
	ConsecutiveFailures int
	CurrentBackoff      time.Duration
}

// Observe records a successful evaluation and reports whether it is a transition
// into Open that should be announced.
func (s *PollState) Observe(open bool) (notify bool) {
	notify = open && s.LastKnownOpen != Open
	s.LastKnownOpen = availabilityOf(open)
	return notify
}
