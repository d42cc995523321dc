package decision

import (
	"testing"

	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		zone signals.Zone
		safe bool
	}{
		{signals.ZoneGreen, true},
		{signals.ZoneYellow, false},
		{signals.ZoneRed, false},
	}
	for _, tt := range tests {
		v := Decide(signals.Signals{Zone: tt.zone})
		if v.IsSafeToScroll != tt.safe {
			t.Errorf("zone %s: safe = %v, want %v", tt.zone, v.IsSafeToScroll, tt.safe)
		}
		if v.NeedsProcessing == tt.safe {
			t.Errorf("zone %s: needsProcessing = %v", tt.zone, v.NeedsProcessing)
		}
	}
}
