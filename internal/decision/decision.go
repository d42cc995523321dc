package decision

// #region imports
import (
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
)

// #endregion

// #region verdict

// Verdict is the binary gate output: is it safe to keep scrolling without
// comment. Deliberately the simplest stage in the pipeline; all nuance lives
// in the strategy layer so it can be tuned independently.
type Verdict struct {
	IsSafeToScroll  bool
	NeedsProcessing bool
}

// #endregion verdict

// #region decide

// Decide maps the signal set to a verdict. Safe iff the zone is green.
func Decide(sig signals.Signals) Verdict {
	safe := sig.Zone == signals.ZoneGreen
	return Verdict{
		IsSafeToScroll:  safe,
		NeedsProcessing: !safe,
	}
}

// #endregion decide
