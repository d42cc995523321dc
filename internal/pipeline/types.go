package pipeline

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
)

// #endregion

// #region session

// Session is the in-memory per-session intervention state. Never persisted;
// it resets with the process.
type Session struct {
	LastCategory intervention.Category
	LastShownAt  time.Time
	ShownCount   int
}

// #endregion session

// #region pending

// pendingEntry correlates a user reaction arriving within the correlation
// window back to the audit entry that produced the intervention.
type pendingEntry struct {
	LogID       string
	Category    intervention.Category
	TriggeredAt time.Time
}

// reactionWindow is how long a reaction stays correlatable to its tick.
const reactionWindow = 30 * time.Second

// antiSpamWindow is the hard quiet period after any shown intervention.
const antiSpamWindow = 60 * time.Second

// #endregion pending
