package escalation

// #region imports
import (
	"sort"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
)

// #endregion

// #region constants

const (
	// WindowMinutes is the trailing reaction window the score is computed over.
	WindowMinutes = 30

	// hardCooldownMinutes is the minimum quiet period after a hard interrupt.
	hardCooldownMinutes = 15

	// decayMinutesPerPoint grants one point of forgiveness per this many
	// silent minutes since the last trigger.
	decayMinutesPerPoint = 10

	maxResistance = 10
)

// #endregion constants

// #region types

// ReactionEvent is one append-only row of the reaction history. Immutable
// once written.
type ReactionEvent struct {
	Timestamp      time.Time                 `json:"timestamp"`
	Event          intervention.ReactionType `json:"event"`
	Mode           intervention.Category     `json:"mode"`
	InterventionID string                    `json:"intervention_id,omitempty"`
	DurationMs     int64                     `json:"duration_ms,omitempty"`
}

// Stats is the derived escalation state for one tick. Recomputed fresh from
// the reaction window every tick, never persisted.
type Stats struct {
	ResistanceScore   int
	IgnoredStreak     int
	TriggeredCount    int
	LastHardInterrupt time.Time // zero if none in window
	HardCooldownOk    bool
}

// #endregion types

// #region compute

// Compute derives escalation stats from the reaction history at the given
// instant. Pure and idempotent: the same history and now always produce the
// same stats. Events outside the trailing window are ignored.
//
// Score deltas per event: IGNORED/DISMISSED +2, IGNORED_PASSIVE +1,
// SNOOZED +1 (streak reset), AUTO_DISMISSED +0, COMPLETED/ACCEPTED -3
// (streak reset). After accumulation the score is decayed by one point per
// ten minutes since the last TRIGGERED event in the window, then clamped
// to [0, 10].
//
// The streak is deliberately not touched by decay: after long silence the
// score drifts down while the streak holds until a SNOOZED/COMPLETED/ACCEPTED
// arrives.
func Compute(history []ReactionEvent, now time.Time) Stats {
	return ComputeWindow(history, WindowMinutes, now)
}

// ComputeWindow is Compute over an explicit trailing window in minutes.
func ComputeWindow(history []ReactionEvent, windowMinutes int, now time.Time) Stats {
	windowStart := now.Add(-time.Duration(windowMinutes) * time.Minute)

	window := make([]ReactionEvent, 0, len(history))
	for _, ev := range history {
		if !ev.Timestamp.Before(windowStart) && !ev.Timestamp.After(now) {
			window = append(window, ev)
		}
	}
	sort.Slice(window, func(i, j int) bool {
		return window[i].Timestamp.Before(window[j].Timestamp)
	})

	stats := Stats{HardCooldownOk: true}
	if len(window) == 0 {
		return stats
	}

	score := 0
	lastTrigger := time.Time{}

	for _, ev := range window {
		switch ev.Event {
		case intervention.ReactionTriggered:
			stats.TriggeredCount++
			lastTrigger = ev.Timestamp
			if ev.Mode == intervention.HardInterrupt {
				stats.LastHardInterrupt = ev.Timestamp
			}
		case intervention.ReactionIgnored, intervention.ReactionDismissed:
			score += 2
			stats.IgnoredStreak++
		case intervention.ReactionIgnoredPassive:
			score++
			stats.IgnoredStreak++
		case intervention.ReactionSnoozed:
			score++
			stats.IgnoredStreak = 0
		case intervention.ReactionAutoDismissed:
			// no score or streak effect
		case intervention.ReactionCompleted, intervention.ReactionAccepted:
			score -= 3
			stats.IgnoredStreak = 0
		}
	}

	// Decay: forgiveness for silent minutes since the last trigger. With no
	// trigger in the window there is nothing to forgive yet.
	if !lastTrigger.IsZero() {
		silentMinutes := int(now.Sub(lastTrigger).Minutes())
		if silentMinutes > 0 {
			score -= silentMinutes / decayMinutesPerPoint
		}
	}

	if score < 0 {
		score = 0
	}
	if score > maxResistance {
		score = maxResistance
	}
	stats.ResistanceScore = score

	if !stats.LastHardInterrupt.IsZero() {
		stats.HardCooldownOk = now.Sub(stats.LastHardInterrupt) > hardCooldownMinutes*time.Minute
	}
	return stats
}

// #endregion compute

// #region dismissed

// DismissedCount counts DISMISSED reactions inside the trailing window.
func DismissedCount(history []ReactionEvent, now time.Time) int {
	windowStart := now.Add(-WindowMinutes * time.Minute)
	n := 0
	for _, ev := range history {
		if ev.Event == intervention.ReactionDismissed && !ev.Timestamp.Before(windowStart) {
			n++
		}
	}
	return n
}

// #endregion dismissed
