package signals

// #region imports
import (
	"math"

	"github.com/danielpatrickdp/scroll-sentinel/internal/thresholds"
)

// #endregion

// #region extract

// Extract derives the signal set for one sample against a derived threshold
// profile. Pure function of its inputs: no clock, no store, no side effects.
// Malformed numeric fields (NaN, Inf, negative) are treated as 0.
func Extract(sample Sample, profile thresholds.Profile) Signals {
	scrollSec := sanitize(sample.ContinuousScrollSec)
	scrollPx := sanitize(sample.ScrollPx)
	idleSec := sanitize(sample.IdleSec)

	var pxPerSec float64
	if scrollSec > 0 {
		pxPerSec = scrollPx / scrollSec
	}

	zone := ZoneGreen
	switch {
	case scrollSec >= float64(profile.ScrollThresholdSec),
		pxPerSec >= float64(profile.RedScrollPxPerSec),
		idleSec <= float64(profile.RedMaxIdleSec):
		zone = ZoneRed
	case scrollSec >= float64(profile.PresenceThresholdSec):
		zone = ZoneYellow
	}

	return Signals{
		Zone:                zone,
		AttentionRisk:       zone == ZoneRed,
		ApproachingRisk:     zone == ZoneYellow,
		ContinuousScrollSec: scrollSec,
		ScrollPxPerSec:      pxPerSec,
		IdleSec:             idleSec,
	}
}

// #endregion extract

// #region helpers

// sanitize maps malformed telemetry numbers to 0.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// #endregion helpers
