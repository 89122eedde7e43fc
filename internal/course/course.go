// Package course models the course section being watched and its seat counts.
//
// A Target identifies one section on the timetable by CRN together with the term and
// department used to select the timetable page. A SeatSnapshot is a single observation
// of that section's enrollment against its limit; IsOpen decides whether it has a seat.
package course

import (
	"fmt"
	"time"
)

// Target identifies the course section being watched. It is fixed at startup.
type Target struct {
	CRN  string `json:"crn" yaml:"crn"`   // Course Reference Number
	Name string `json:"name" yaml:"name"` // Display name, e.g. "COSC 031 - Algorithms"
	Term string `json:"term" yaml:"term"` // Term code, e.g. "202603"
	Dept string `json:"dept" yaml:"dept"` // Department code, e.g. "COSC"
}

// String returns the display name, falling back to the CRN.
func (t Target) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "CRN " + t.CRN
}

// SeatSnapshot is one observation of a section's enrollment
type SeatSnapshot struct {
	Enrolled   int       `json:"enrolled"`
	Limit      int       `json:"limit"`
	ObservedAt time.Time `json:"observed_at"`
}

// NewSeatSnapshot creates a snapshot stamped with the current time
func NewSeatSnapshot(enrolled, limit int) SeatSnapshot {
	return SeatSnapshot{
		Enrolled:   enrolled,
		Limit:      limit,
		ObservedAt: time.Now().UTC(),
	}
}

// IsOpen reports whether a seat is available. A zero limit is never open, and an
// enrollment at or over the limit is closed rather than an error; the timetable can
// briefly report stale counts.
func IsOpen(s SeatSnapshot) bool {
	return s.Limit > 0 && s.Enrolled < s.Limit
}

// Open is shorthand for IsOpen(s)
func (s SeatSnapshot) Open() bool {
	return IsOpen(s)
}

// Spots returns the number of open seats, never negative
func (s SeatSnapshot) Spots() int {
	if !s.Open() {
		return 0
	}
	return s.Limit - s.Enrolled
}

// String formats the counts the way they are logged, e.g. "29/30".
func (s SeatSnapshot) String() string {
	return fmt.Sprintf("%d/%d", s.Enrolled, s.Limit)
}
