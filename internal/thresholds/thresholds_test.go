package thresholds

import (
	"math"
	"testing"
)

func TestParseSensitivity(t *testing.T) {
	tests := []struct {
		in   string
		want Sensitivity
	}{
		{"gentle", SensitivityGentle},
		{"balanced", SensitivityBalanced},
		{"strict", SensitivityStrict},
		{"", SensitivityBalanced},
		{"aggressive", SensitivityBalanced},
	}
	for _, tt := range tests {
		if got := ParseSensitivity(tt.in); got != tt.want {
			t.Errorf("ParseSensitivity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDerive_NeutralMultiplierIsBasePreset(t *testing.T) {
	got := Derive(SensitivityBalanced, 1.0)
	want := Profile{
		ScrollThresholdSec:        180,
		PresenceThresholdSec:      90,
		RedScrollPxPerSec:         900,
		RedMaxIdleSec:             2,
		YellowContinuousScrollSec: 60,
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDerive_ScalesAllFieldsWithRounding(t *testing.T) {
	got := Derive(SensitivityStrict, 1.5)
	want := Profile{
		ScrollThresholdSec:        180,  // 120 * 1.5
		PresenceThresholdSec:      90,   // 60 * 1.5
		RedScrollPxPerSec:         1050, // 700 * 1.5
		RedMaxIdleSec:             5,    // round(3 * 1.5) = round(4.5)
		YellowContinuousScrollSec: 68,   // round(45 * 1.5) = round(67.5)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDerive_ClampsOutOfRangeMultiplier(t *testing.T) {
	low := Derive(SensitivityBalanced, 0.1)
	if low != Derive(SensitivityBalanced, MinMultiplier) {
		t.Errorf("multiplier below floor not clamped: %+v", low)
	}
	high := Derive(SensitivityBalanced, 99)
	if high != Derive(SensitivityBalanced, MaxMultiplier) {
		t.Errorf("multiplier above ceiling not clamped: %+v", high)
	}
}

func TestDerive_UnknownSensitivityFallsBackToBalanced(t *testing.T) {
	if got := Derive(Sensitivity("bogus"), 1.0); got != Derive(SensitivityBalanced, 1.0) {
		t.Errorf("got %+v, want balanced preset", got)
	}
}

func TestClampMultiplier(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"below-floor", 0.5, 0.8},
		{"floor", 0.8, 0.8},
		{"neutral", 1.0, 1.0},
		{"ceiling", 2.5, 2.5},
		{"above-ceiling", 3.1, 2.5},
		{"nan", math.NaN(), 0.8},
		{"zero", 0, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampMultiplier(tt.in); got != tt.want {
				t.Errorf("ClampMultiplier(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
