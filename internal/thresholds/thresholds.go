package thresholds

// #region imports
import (
	"math"
)

// #endregion

// #region sensitivity

// Sensitivity names a user-selected intervention aggressiveness preset.
type Sensitivity string

const (
	SensitivityGentle   Sensitivity = "gentle"
	SensitivityBalanced Sensitivity = "balanced"
	SensitivityStrict   Sensitivity = "strict"
)

// ParseSensitivity maps a config string to a preset, defaulting to balanced.
func ParseSensitivity(s string) Sensitivity {
	switch Sensitivity(s) {
	case SensitivityGentle, SensitivityBalanced, SensitivityStrict:
		return Sensitivity(s)
	}
	return SensitivityBalanced
}

// #endregion sensitivity

// #region profile

// Profile holds the per-tick numeric policy the signal extractor reads.
// All fields are derived: round(base * multiplier).
type Profile struct {
	ScrollThresholdSec        int
	PresenceThresholdSec      int
	RedScrollPxPerSec         int
	RedMaxIdleSec             int
	YellowContinuousScrollSec int
}

// #endregion profile

// #region presets

// basePresets maps each sensitivity to its unscaled policy. Gentle needs more
// evidence before flagging; strict flags sooner.
var basePresets = map[Sensitivity]Profile{
	SensitivityGentle: {
		ScrollThresholdSec:        240,
		PresenceThresholdSec:      120,
		RedScrollPxPerSec:         1400,
		RedMaxIdleSec:             1,
		YellowContinuousScrollSec: 90,
	},
	SensitivityBalanced: {
		ScrollThresholdSec:        180,
		PresenceThresholdSec:      90,
		RedScrollPxPerSec:         900,
		RedMaxIdleSec:             2,
		YellowContinuousScrollSec: 60,
	},
	SensitivityStrict: {
		ScrollThresholdSec:        120,
		PresenceThresholdSec:      60,
		RedScrollPxPerSec:         700,
		RedMaxIdleSec:             3,
		YellowContinuousScrollSec: 45,
	},
}

// Multiplier bounds enforced everywhere a multiplier is applied or stored.
const (
	MinMultiplier = 0.8
	MaxMultiplier = 2.5
)

// #endregion presets

// #region derive

// Derive scales the preset for the given sensitivity by the adaptive
// multiplier. The multiplier is clamped to [0.8, 2.5] before use so a
// corrupt stored value can never produce an out-of-policy profile.
func Derive(sens Sensitivity, multiplier float64) Profile {
	base, ok := basePresets[sens]
	if !ok {
		base = basePresets[SensitivityBalanced]
	}
	m := ClampMultiplier(multiplier)
	return Profile{
		ScrollThresholdSec:        scale(base.ScrollThresholdSec, m),
		PresenceThresholdSec:      scale(base.PresenceThresholdSec, m),
		RedScrollPxPerSec:         scale(base.RedScrollPxPerSec, m),
		RedMaxIdleSec:             scale(base.RedMaxIdleSec, m),
		YellowContinuousScrollSec: scale(base.YellowContinuousScrollSec, m),
	}
}

// ClampMultiplier restricts a multiplier to the allowed range.
func ClampMultiplier(m float64) float64 {
	if math.IsNaN(m) || m < MinMultiplier {
		return MinMultiplier
	}
	if m > MaxMultiplier {
		return MaxMultiplier
	}
	return m
}

func scale(base int, m float64) int {
	return int(math.Round(float64(base) * m))
}

// #endregion derive
