package catalog

import "testing"

func TestSeatEffectiveState(t *testing.T) {
	tests := []struct {
		name    string
		blocked bool
		held    bool
		sold    bool
		want    string
	}{
		{"free seat", false, false, false, SeatStateAvailable},
		{"held seat", false, true, false, SeatStateHeld},
		{"sold seat", false, false, true, SeatStateSold},
		{"sold wins over held", false, true, true, SeatStateSold},
		{"blocked seat", true, false, false, SeatStateBlocked},
		{"blocked wins over sold", true, true, true, SeatStateBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seat := &Seat{Blocked: tt.blocked}
			if got := seat.EffectiveState(tt.held, tt.sold); got != tt.want {
				t.Errorf("EffectiveState(%v, %v) = %q, want %q", tt.held, tt.sold, got, tt.want)
			}
		})
	}
}
