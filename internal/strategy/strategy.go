package strategy

// #region imports
import (
	"github.com/danielpatrickdp/scroll-sentinel/internal/escalation"
	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
	"github.com/danielpatrickdp/scroll-sentinel/internal/thresholds"
)

// #endregion

// #region constants

const (
	// resistanceDampBar is the resistance score at which intent is pulled
	// one step lighter.
	resistanceDampBar = 6

	// fatigueDampBar is the 30-minute intervention count that damps intent.
	fatigueDampBar = 3

	// dismissalDampBar is the windowed DISMISSED count that damps the final
	// category.
	dismissalDampBar = 3
)

// #endregion constants

// #region zone-intents

// zoneIntent maps each zone to its undamped base intent.
var zoneIntent = map[signals.Zone]Intent{
	signals.ZoneGreen:  IntentNone,
	signals.ZoneYellow: IntentMicro,
	signals.ZoneRed:    IntentHard,
}

var zoneReason = map[signals.Zone]string{
	signals.ZoneGreen:  intervention.ReasonZoneGreen,
	signals.ZoneYellow: intervention.ReasonZoneYellow,
	signals.ZoneRed:    intervention.ReasonZoneRed,
}

// #endregion zone-intents

// #region build

// BuildStrategy proposes an intervention intent for the tick. Pure rules:
// the base intent comes from the zone, then resistance, recent-intervention
// fatigue, and a gentle sensitivity profile each damp it one step lighter.
// Damping never escalates; a quiet baseline stays quiet.
func BuildStrategy(sig signals.Signals, ctx Context) Strategy {
	s := Strategy{
		Intent:    zoneIntent[sig.Zone],
		Sentiment: SentimentNeutral,
		Reasons:   []string{zoneReason[sig.Zone]},
	}
	if s.Intent == IntentNone {
		return s
	}

	if ctx.ResistanceScore >= resistanceDampBar {
		s.Intent = lighter(s.Intent)
		s.Sentiment = SentimentSupportive
		s.Reasons = append(s.Reasons, intervention.ReasonResistanceDamped)
	}
	if ctx.RecentInterventions >= fatigueDampBar {
		s.Intent = lighter(s.Intent)
		s.Sentiment = SentimentSupportive
		s.Reasons = append(s.Reasons, intervention.ReasonFatigueDamped)
	}
	if ctx.Sensitivity == thresholds.SensitivityGentle && sig.Zone != signals.ZoneGreen {
		s.Intent = lighter(s.Intent)
		s.Reasons = append(s.Reasons, intervention.ReasonGentleProfile)
	}

	if s.Intent == IntentHard && sig.AttentionRisk {
		s.Sentiment = SentimentFirm
	}
	return s
}

// #endregion build

// #region select

// SelectCategory resolves the rule-based final category from the strategy and
// the fatigue/dismissal context. None is a frequent, valid outcome: every
// ambiguous branch fails toward silence rather than toward spamming.
func SelectCategory(s Strategy, sel SelectionContext) (intervention.Category, []string) {
	reasons := append([]string(nil), s.Reasons...)

	if sel.InterventionFatigue == FatigueHigh {
		return intervention.None, append(reasons, intervention.ReasonFatigueSilenced)
	}

	cat := intentCategory[s.Intent]
	if cat == intervention.None {
		return intervention.None, reasons
	}

	// Avoid showing the identical category twice in a row.
	if cat == sel.RecentCategory {
		cat--
		reasons = append(reasons, intervention.ReasonRepeatAvoided)
	}
	if sel.DismissalFrequency >= dismissalDampBar && cat > intervention.None {
		cat--
		reasons = append(reasons, intervention.ReasonDismissalDamped)
	}
	if cat < intervention.None {
		cat = intervention.None
	}
	return cat, reasons
}

// #endregion select

// #region fatigue

// FatigueFrom buckets derived escalation stats into the coarse fatigue
// signal SelectCategory reads.
func FatigueFrom(stats escalation.Stats) Fatigue {
	switch {
	case stats.TriggeredCount >= 5 || stats.ResistanceScore >= 9:
		return FatigueHigh
	case stats.TriggeredCount >= 3 || stats.ResistanceScore >= 6:
		return FatigueMedium
	default:
		return FatigueLow
	}
}

// #endregion fatigue

// #region helpers

// lighter steps an intent one category ordinal down, flooring at none.
func lighter(in Intent) Intent {
	cat := intentCategory[in]
	if cat == intervention.None {
		return IntentNone
	}
	return categoryIntent[cat-1]
}

// #endregion helpers
