package arbiter

// #region imports
import (
	"context"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/classify"
	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
)

// #endregion

// #region tags

// Tag classifies how the classifier's opinion related to the rule category on
// a tick where the classifier was consulted. Ticks where gating skipped the
// classifier carry the empty tag: the vocabulary is closed and has no member
// for "never asked", so a null disagreement column in the audit log reads as
// a skip.
type Tag string

const (
	TagAgree         Tag = "AI_AND_RULE_AGREE"
	TagTimeout       Tag = "AI_TIMEOUT_FALLBACK_RULE"
	TagInvalid       Tag = "AI_INVALID_JSON_FALLBACK_RULE"
	TagLowConfidence Tag = "AI_LOW_CONFIDENCE_FALLBACK_RULE"
	TagAIDoomscroll  Tag = "AI_DOOMSCROLL_BUT_RULE_SAFE"
	TagRuleEscalate  Tag = "RULE_ESCALATE_BUT_AI_DOWNGRADE"
)

// #endregion tags

// #region interfaces

// Classifier is the external AI surface. Any error means "no opinion".
type Classifier interface {
	Classify(ctx context.Context, frame signals.Frame, sig signals.Signals, opts classify.Options) (classify.Decision, error)
}

// Gatekeeper is the persistence surface gating reads and fire-and-forget
// writes go through.
type Gatekeeper interface {
	BudgetUsed(ctx context.Context, day string) (int, error)
	ConsumeBudget(ctx context.Context, day string) error
	ControlTime(ctx context.Context, key string) (time.Time, error)
	SetControlTime(ctx context.Context, key string, t time.Time) error
}

// #endregion interfaces

// #region io

// Input is everything the arbiter needs for one tick. Read-only.
type Input struct {
	Signals        signals.Signals
	Frame          *signals.Frame
	RuleCategory   intervention.Category
	RuleReasons    []string
	HardCooldownOk bool
	CacheKey       string
}

// Outcome is the merged final category plus the audit trail of how the
// classifier related to the rules.
type Outcome struct {
	Category     intervention.Category
	Source       intervention.Source
	AICategory   string // sanitized category name, empty when no usable opinion
	AIConfidence float64
	FromCache    bool
	Tag          Tag
	Reasons      []string
}

// #endregion io

// #region vocabulary

// aiVocabulary is the fixed mapping from classifier output words to
// categories. Anything outside it is ignored.
var aiVocabulary = map[string]intervention.Category{
	"presence": intervention.PresenceSignal,
	"micro":    intervention.MicroClosure,
	"gentle":   intervention.GentleReflection,
	"hard":     intervention.HardInterrupt,
}

// #endregion vocabulary
