package monitor

import (
	"testing"
	"time"
)

func TestPollState_Observe(t *testing.T) {
	// observations after the initial unknown state: closed, closed, open, open, closed, open
	observations := []bool{false, false, true, true, false, true}
	wantNotify := []bool{false, false, true, false, false, true}

	s := PollState{}
	if s.LastKnownOpen != Unknown {
		t.Fatalf("zero PollState = %v, want unknown", s.LastKnownOpen)
	}

	for i, open := range observations {
		if got := s.Observe(open); got != wantNotify[i] {
			t.Errorf("observation %d (open=%v) notify = %v, want %v", i+2, open, got, wantNotify[i])
		}
		if s.LastKnownOpen != availabilityOf(open) {
			t.Errorf("observation %d LastKnownOpen = %v", i+2, s.LastKnownOpen)
		}
	}
}

func TestAvailability_String(t *testing.T) {
	tests := map[Availability]string{
		Unknown:         "unknown",
		Closed:          "closed",
		Open:            "open",
		Availability(9): "unknown",
	}
	for a, want := range tests {
		if got := a.String(); got != want {
			t.Errorf("Availability(%d).String() = %q, want %q", int(a), got, want)
		}
	}
}

func TestBackoffPolicy(t *testing.T) {
	tests := []struct {
		name string
		base time.Duration
		max  time.Duration
		want []time.Duration
	}{
		{
			name: "doubles then clamps",
			base: 5 * time.Minute,
			max:  30 * time.Minute,
			want: []time.Duration{10 * time.Minute, 20 * time.Minute, 30 * time.Minute, 30 * time.Minute},
		},
		{
			name: "cap that is not a power of two multiple",
			base: time.Second,
			max:  3 * time.Second,
			want: []time.Duration{2 * time.Second, 3 * time.Second, 3 * time.Second},
		},
		{
			name: "cap equal to base",
			base: time.Second,
			max:  time.Second,
			want: []time.Duration{time.Second, time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newBackoffPolicy(tt.base, tt.max)

			for i, want := range tt.want {
				if got := p.next(); got != want {
					t.Errorf("failure %d: next() = %v, want %v", i+1, got, want)
				}
			}

			if got := p.reset(); got != tt.base {
				t.Errorf("reset() = %v, want %v", got, tt.base)
			}
			if got := p.next(); got != tt.want[0] {
				t.Errorf("first failure after reset = %v, want %v", got, tt.want[0])
			}
		})
	}
}
