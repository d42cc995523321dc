package replay

// #region imports
import (
	"context"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/decision"
	"github.com/danielpatrickdp/scroll-sentinel/internal/elastic"
	"github.com/danielpatrickdp/scroll-sentinel/internal/escalation"
	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
	"github.com/danielpatrickdp/scroll-sentinel/internal/strategy"
	"github.com/danielpatrickdp/scroll-sentinel/internal/thresholds"
)

// #endregion

// #region types

// ScriptedReaction is the user's pre-recorded response to a shown
// intervention, applied DelaySec after the tick.
type ScriptedReaction struct {
	Event    intervention.ReactionType
	DelaySec int
}

// Step is one recorded telemetry tick for replay.
type Step struct {
	TickID      string
	AtOffsetSec int // seconds from run start
	Sample      signals.Sample
	Reaction    *ScriptedReaction
}

// Config parameterizes a replay run.
type Config struct {
	Sensitivity string
	Multiplier  float64 // starting adaptive multiplier
}

// DefaultConfig returns the neutral replay configuration.
func DefaultConfig() Config {
	return Config{Sensitivity: "balanced", Multiplier: 1.0}
}

// Result captures the rule pipeline's output for one replayed tick.
type Result struct {
	TickID          string
	Zone            signals.Zone
	Category        intervention.Category
	ResistanceScore int
	IgnoredStreak   int
	Multiplier      float64
	Reasons         []string
}

// Summary aggregates a replay run.
type Summary struct {
	TotalTicks      int
	Silent          int
	Shown           int
	ByCategory      map[string]int
	FinalMultiplier float64
}

// #endregion types

// #region memory-store

// memMultiplier is an in-memory elastic.Store so the momentum model runs
// deterministically without a database.
type memMultiplier struct {
	rec elastic.Record
}

func (m *memMultiplier) Multiplier(_ context.Context) (elastic.Record, error) {
	return m.rec, nil
}

func (m *memMultiplier) SetMultiplier(_ context.Context, rec elastic.Record) error {
	m.rec = rec
	return nil
}

// #endregion memory-store

// #region replay

// Replay runs recorded telemetry through the rule-only pipeline with a
// simulated clock: thresholds → signals → escalation → strategy → selection,
// plus the anti-spam short-circuit and the elastic multiplier reacting to
// scripted reactions. Entirely in-memory; the arbiter is excluded so runs
// are deterministic and offline. The second return is the multiplier after
// the whole run, including a reaction on the last step; per-tick Result
// rows snapshot the value the tick was decided with.
func Replay(start time.Time, steps []Step, cfg Config) ([]Result, float64) {
	sens := thresholds.ParseSensitivity(cfg.Sensitivity)

	mem := &memMultiplier{rec: elastic.Record{
		Value:     thresholds.ClampMultiplier(cfg.Multiplier),
		UpdatedAt: start,
	}}
	clock := start
	adjuster := elastic.NewAdjusterWithClock(mem, func() time.Time { return clock })

	var history []escalation.ReactionEvent
	lastCategory := intervention.None
	lastShownAt := time.Time{}

	results := make([]Result, 0, len(steps))
	for _, step := range steps {
		now := start.Add(time.Duration(step.AtOffsetSec) * time.Second)
		clock = now

		profile := thresholds.Derive(sens, mem.rec.Value)
		sig := signals.Extract(step.Sample, profile)
		stats := escalation.Compute(history, now)

		res := Result{
			TickID:          step.TickID,
			Zone:            sig.Zone,
			ResistanceScore: stats.ResistanceScore,
			IgnoredStreak:   stats.IgnoredStreak,
			Multiplier:      mem.rec.Value,
		}

		switch {
		case triggeredWithin(history, now):
			res.Category = intervention.None
			res.Reasons = []string{intervention.ReasonAntiSpamCooldown}
		case decision.Decide(sig).IsSafeToScroll:
			res.Category = intervention.None
			res.Reasons = []string{intervention.ReasonZoneGreen}
		default:
			strat := strategy.BuildStrategy(sig, strategy.Context{
				RecentInterventions: stats.TriggeredCount,
				ResistanceScore:     stats.ResistanceScore,
				IgnoredStreak:       stats.IgnoredStreak,
				Sensitivity:         sens,
			})
			recent := intervention.None
			if !lastShownAt.IsZero() && now.Sub(lastShownAt) <= escalation.WindowMinutes*time.Minute {
				recent = lastCategory
			}
			cat, reasons := strategy.SelectCategory(strat, strategy.SelectionContext{
				InterventionFatigue: strategy.FatigueFrom(stats),
				RecentCategory:      recent,
				DismissalFrequency:  escalation.DismissedCount(history, now),
			})
			res.Category = cat
			res.Reasons = reasons
		}

		if res.Category != intervention.None {
			history = appendCapped(history, escalation.ReactionEvent{
				Timestamp: now,
				Event:     intervention.ReactionTriggered,
				Mode:      res.Category,
			})
			lastCategory = res.Category
			lastShownAt = now

			if step.Reaction != nil {
				at := now.Add(time.Duration(step.Reaction.DelaySec) * time.Second)
				history = appendCapped(history, escalation.ReactionEvent{
					Timestamp: at,
					Event:     step.Reaction.Event,
					Mode:      res.Category,
				})
				clock = at
				streak := escalation.Compute(history, at).IgnoredStreak
				adjuster.Update(context.Background(), step.Reaction.Event, streak)
			}
		}

		results = append(results, res)
	}
	return results, mem.rec.Value
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result, finalMultiplier float64) Summary {
	s := Summary{
		TotalTicks:      len(results),
		ByCategory:      make(map[string]int),
		FinalMultiplier: finalMultiplier,
	}
	for _, r := range results {
		s.ByCategory[r.Category.String()]++
		if r.Category == intervention.None {
			s.Silent++
		} else {
			s.Shown++
		}
	}
	return s
}

// #endregion replay

// #region helpers

func triggeredWithin(history []escalation.ReactionEvent, now time.Time) bool {
	for _, ev := range history {
		if ev.Event == intervention.ReactionTriggered && now.Sub(ev.Timestamp) < 60*time.Second && !ev.Timestamp.After(now) {
			return true
		}
	}
	return false
}

func appendCapped(history []escalation.ReactionEvent, ev escalation.ReactionEvent) []escalation.ReactionEvent {
	history = append(history, ev)
	if len(history) > 50 {
		history = history[len(history)-50:]
	}
	return history
}

// #endregion helpers
