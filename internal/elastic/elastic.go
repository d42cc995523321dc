package elastic

// #region imports
import (
	"context"
	"log"
	"math"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/thresholds"
)

// #endregion

// #region constants

const (
	hourlyDecayStep    = 0.05
	negativeBase       = 0.15
	negativeStreakGain = 0.05
	positiveRelease    = 0.10
	overPenalizedBar   = 2.0
)

// #endregion constants

// #region store-interface

// Record is the persisted adaptive multiplier state.
type Record struct {
	Value     float64
	UpdatedAt time.Time
}

// Store is the persistence surface the adjuster needs.
type Store interface {
	Multiplier(ctx context.Context) (Record, error)
	SetMultiplier(ctx context.Context, rec Record) error
}

// #endregion store-interface

// #region adjuster

// Adjuster owns all writes to the adaptive multiplier. Reads happen wherever
// thresholds are derived; only Update mutates.
type Adjuster struct {
	store Store
	now   func() time.Time
}

// NewAdjuster creates an adjuster over the given store.
func NewAdjuster(store Store) *Adjuster {
	return &Adjuster{store: store, now: time.Now}
}

// NewAdjusterWithClock creates an adjuster with an injected clock, used by
// tests and deterministic replay.
func NewAdjusterWithClock(store Store, now func() time.Time) *Adjuster {
	return &Adjuster{store: store, now: now}
}

// #endregion adjuster

// #region update

// Update applies hourly decay toward neutral, then reaction momentum, then
// clamps and persists. It never fails: callers fire it off the reaction
// logging path and must not block on it, so store errors are logged and the
// best-known value is returned.
//
// streak is the ignored streak as already incremented by the caller for
// negative reactions.
func (a *Adjuster) Update(ctx context.Context, reaction intervention.ReactionType, streak int) float64 {
	now := a.now()

	rec, err := a.store.Multiplier(ctx)
	if err != nil {
		log.Printf("[ELASTIC] read multiplier: %v", err)
		rec = Record{Value: 1.0, UpdatedAt: now}
	}
	value := thresholds.ClampMultiplier(rec.Value)

	// 1. Time decay: drift toward 1.0, one step per full elapsed hour,
	// never overshooting neutral.
	if !rec.UpdatedAt.IsZero() {
		hours := int(now.Sub(rec.UpdatedAt).Hours())
		if hours >= 1 {
			step := float64(hours) * hourlyDecayStep
			switch {
			case value > 1.0:
				value = math.Max(1.0, value-step)
			case value < 1.0:
				value = math.Min(1.0, value+step)
			}
		}
	}

	// 2. Momentum.
	preMomentum := value
	switch {
	case reaction.Negative():
		value += negativeBase + negativeStreakGain*float64(streak)
	case reaction.Positive():
		value -= positiveRelease
		if preMomentum > overPenalizedBar {
			// De-escalate faster when the user has been over-penalized.
			value -= positiveRelease
		}
	}
	// SNOOZED and everything else: neutral, decay only.

	// 3. Clamp and round.
	value = round2(thresholds.ClampMultiplier(value))

	if err := a.store.SetMultiplier(ctx, Record{Value: value, UpdatedAt: now}); err != nil {
		log.Printf("[ELASTIC] persist multiplier: %v", err)
	}
	return value
}

// #endregion update

// #region helpers

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// #endregion helpers
