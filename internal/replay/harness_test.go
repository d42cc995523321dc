package replay

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func redStep(id string, offsetSec int) Step {
	return Step{
		TickID:      id,
		AtOffsetSec: offsetSec,
		Sample: signals.Sample{
			URL:                 "https://feed.example.com/stream",
			ContinuousScrollSec: 300,
			ScrollPx:            90000,
			IdleSec:             30,
		},
	}
}

func greenStep(id string, offsetSec int) Step {
	return Step{
		TickID:      id,
		AtOffsetSec: offsetSec,
		Sample: signals.Sample{
			URL:                 "https://example.com/article",
			ContinuousScrollSec: 10,
			ScrollPx:            400,
			IdleSec:             120,
		},
	}
}

func TestReplay_GreenRunStaysSilent(t *testing.T) {
	steps := []Step{
		greenStep("t1", 0),
		greenStep("t2", 60),
		greenStep("t3", 120),
	}
	results, _ := Replay(start, steps, DefaultConfig())
	for _, r := range results {
		if r.Category != intervention.None {
			t.Errorf("%s: category = %q, want none", r.TickID, r.Category)
		}
		if r.Zone != signals.ZoneGreen {
			t.Errorf("%s: zone = %q", r.TickID, r.Zone)
		}
	}
}

func TestReplay_RedTickIntervenes(t *testing.T) {
	results, _ := Replay(start, []Step{redStep("t1", 0)}, DefaultConfig())
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Category != intervention.HardInterrupt {
		t.Errorf("category = %q, want hard_interrupt", results[0].Category)
	}
}

func TestReplay_AntiSpamSilencesBackToBack(t *testing.T) {
	steps := []Step{
		redStep("t1", 0),
		redStep("t2", 30),  // inside the 60s quiet period
		redStep("t3", 120), // past it
	}
	results, _ := Replay(start, steps, DefaultConfig())

	if results[0].Category == intervention.None {
		t.Error("t1 should intervene")
	}
	if results[1].Category != intervention.None {
		t.Errorf("t2 category = %q, want none", results[1].Category)
	}
	if !containsReason(results[1].Reasons, intervention.ReasonAntiSpamCooldown) {
		t.Errorf("t2 reasons = %v", results[1].Reasons)
	}
	if results[2].Category == intervention.None {
		t.Error("t3 should intervene again")
	}
}

func TestReplay_ScriptedIgnoresRaiseMultiplier(t *testing.T) {
	ignored := &ScriptedReaction{Event: intervention.ReactionIgnored, DelaySec: 5}
	steps := []Step{
		{TickID: "t1", AtOffsetSec: 0, Sample: redStep("", 0).Sample, Reaction: ignored},
		{TickID: "t2", AtOffsetSec: 120, Sample: redStep("", 0).Sample, Reaction: ignored},
	}
	results, _ := Replay(start, steps, DefaultConfig())

	if results[0].Multiplier != 1.0 {
		t.Errorf("t1 multiplier = %v, want starting 1.0", results[0].Multiplier)
	}
	// t2 sees the multiplier raised by the first ignore: 1.0 + 0.15 + 0.05*1.
	if results[1].Multiplier != 1.20 {
		t.Errorf("t2 multiplier = %v, want 1.20", results[1].Multiplier)
	}
}

func TestReplay_FinalMultiplierIncludesLastReaction(t *testing.T) {
	// A reaction scripted on the last step has no later tick to show up in,
	// so the per-tick snapshots all read 1.0; only the run-level value can
	// carry the update.
	ignored := &ScriptedReaction{Event: intervention.ReactionIgnored, DelaySec: 5}
	steps := []Step{
		{TickID: "t1", AtOffsetSec: 0, Sample: redStep("", 0).Sample, Reaction: ignored},
	}
	results, finalMult := Replay(start, steps, DefaultConfig())

	if results[0].Multiplier != 1.0 {
		t.Errorf("t1 multiplier = %v, want pre-tick 1.0", results[0].Multiplier)
	}
	if finalMult != 1.20 {
		t.Errorf("final multiplier = %v, want 1.20 including last reaction", finalMult)
	}
}

func TestReplay_EscalationStateCarriesAcrossTicks(t *testing.T) {
	ignored := &ScriptedReaction{Event: intervention.ReactionIgnored, DelaySec: 5}
	steps := []Step{
		{TickID: "t1", AtOffsetSec: 0, Sample: redStep("", 0).Sample, Reaction: ignored},
		{TickID: "t2", AtOffsetSec: 120, Sample: redStep("", 0).Sample, Reaction: ignored},
		{TickID: "t3", AtOffsetSec: 240, Sample: redStep("", 0).Sample},
	}
	results, _ := Replay(start, steps, DefaultConfig())

	if results[2].IgnoredStreak != 2 {
		t.Errorf("t3 streak = %d, want 2", results[2].IgnoredStreak)
	}
	if results[2].ResistanceScore < 4 {
		t.Errorf("t3 score = %d, want >= 4", results[2].ResistanceScore)
	}
}

func TestReplay_GentlePresetDamps(t *testing.T) {
	cfg := Config{Sensitivity: "gentle", Multiplier: 1.0}
	// Red for gentle too: 300 >= 240.
	results, _ := Replay(start, []Step{redStep("t1", 0)}, cfg)
	if results[0].Category != intervention.GentleReflection {
		t.Errorf("category = %q, want gentle_reflection (gentle profile damps one step)", results[0].Category)
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Category: intervention.None},
		{Category: intervention.HardInterrupt},
		{Category: intervention.None},
		{Category: intervention.MicroClosure},
	}
	s := Summarize(results, 1.35)
	if s.TotalTicks != 4 || s.Silent != 2 || s.Shown != 2 {
		t.Errorf("summary = %+v", s)
	}
	if s.ByCategory["none"] != 2 || s.ByCategory["hard_interrupt"] != 1 {
		t.Errorf("byCategory = %v", s.ByCategory)
	}
	if s.FinalMultiplier != 1.35 {
		t.Errorf("finalMultiplier = %v", s.FinalMultiplier)
	}
}

func containsReason(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
