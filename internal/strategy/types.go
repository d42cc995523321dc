package strategy

// #region imports
import (
	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/thresholds"
)

// #endregion

// #region intent

// Intent is the proposed intervention style before final category selection.
type Intent string

const (
	IntentNone     Intent = "none"
	IntentPresence Intent = "presence"
	IntentMicro    Intent = "micro"
	IntentGentle   Intent = "gentle"
	IntentHard     Intent = "hard"
)

// intentCategory maps each intent to its intervention category ordinal.
var intentCategory = map[Intent]intervention.Category{
	IntentNone:     intervention.None,
	IntentPresence: intervention.PresenceSignal,
	IntentMicro:    intervention.MicroClosure,
	IntentGentle:   intervention.GentleReflection,
	IntentHard:     intervention.HardInterrupt,
}

// categoryIntent is the inverse ordinal walk used when damping.
var categoryIntent = map[intervention.Category]Intent{
	intervention.None:             IntentNone,
	intervention.PresenceSignal:   IntentPresence,
	intervention.MicroClosure:     IntentMicro,
	intervention.GentleReflection: IntentGentle,
	intervention.HardInterrupt:    IntentHard,
}

// #endregion intent

// #region sentiment

// Sentiment sets the tone the renderer should use.
type Sentiment string

const (
	SentimentSupportive Sentiment = "supportive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentFirm       Sentiment = "firm"
)

// #endregion sentiment

// #region strategy

// Strategy is the rule layer's proposed intent plus the reason codes that
// produced it.
type Strategy struct {
	Intent    Intent
	Sentiment Sentiment
	Reasons   []string
}

// Context carries the fatigue and compliance indicators the rules read.
type Context struct {
	RecentInterventions int // interventions shown in the last 30 minutes
	ResistanceScore     int
	IgnoredStreak       int
	Sensitivity         thresholds.Sensitivity
}

// #endregion strategy

// #region selection-context

// Fatigue is a coarse bucket of how worn down the user is by interventions.
type Fatigue string

const (
	FatigueLow    Fatigue = "low"
	FatigueMedium Fatigue = "medium"
	FatigueHigh   Fatigue = "high"
)

// SelectionContext feeds the final category resolution.
type SelectionContext struct {
	InterventionFatigue Fatigue
	RecentCategory      intervention.Category // last category shown, None if none
	DismissalFrequency  int                   // DISMISSED events in the window
}

// #endregion selection-context
