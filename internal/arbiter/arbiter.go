package arbiter

// #region imports
import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/danielpatrickdp/scroll-sentinel/internal/classify"
	"github.com/danielpatrickdp/scroll-sentinel/internal/config"
	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
	"github.com/danielpatrickdp/scroll-sentinel/internal/store"
)

// #endregion

// #region constants

const (
	// minViewportChars is the minimum context signal required before the
	// classifier is worth consulting.
	minViewportChars = 200

	// shadowTimeout is the fixed box on the speculative comparison branch.
	shadowTimeout = 250 * time.Millisecond
)

// #endregion constants

// #region arbiter-struct

// Arbiter blends the fast rule category with the slow, unreliable classifier
// under strict guardrails. Per tick it walks Idle → GatingCheck →
// (ShadowRace | LiveClassify | Skipped) → Merge → Done.
type Arbiter struct {
	cfg        config.AIConfig
	classifier Classifier
	gate       Gatekeeper
	now        func() time.Time

	shadow sync.WaitGroup // tracks in-flight shadow comparisons
	bg     sync.WaitGroup // tracks fire-and-forget store writes
}

// New creates an arbiter. classifier may be nil regardless of the enabled
// flag, in which case every tick is rule-only and shadow mode is skipped too.
func New(cfg config.AIConfig, classifier Classifier, gate Gatekeeper) *Arbiter {
	return &Arbiter{
		cfg:        cfg,
		classifier: classifier,
		gate:       gate,
		now:        time.Now,
	}
}

// Wait blocks until all background branches have settled. Test hook and
// shutdown aid; never called on the tick path.
func (a *Arbiter) Wait() {
	a.shadow.Wait()
	a.bg.Wait()
}

// #endregion arbiter-struct

// #region arbitrate

// Arbitrate produces the final category for the tick. The rule category is
// never blocked on anything slower than one gated classifier call; every
// failure degrades to the rule category, never to an error.
func (a *Arbiter) Arbitrate(ctx context.Context, in Input) Outcome {
	ruleOutcome := Outcome{
		Category: in.RuleCategory,
		Source:   intervention.SourceRule,
		Reasons:  in.RuleReasons,
	}

	if !a.cfg.Enabled {
		// Speculative comparison only: the rule decision is already final.
		if a.cfg.ShadowEnabled && a.classifier != nil && riskPresent(in.Signals) && in.Frame != nil {
			a.launchShadow(in)
		}
		return ruleOutcome
	}

	if !a.gatingOK(ctx, in) {
		return ruleOutcome // Skipped
	}

	dec, err := a.classifier.Classify(ctx, *in.Frame, in.Signals, classify.Options{
		Timeout:  time.Duration(a.cfg.TimeoutMs) * time.Millisecond,
		CacheKey: in.CacheKey,
		CacheTTL: time.Duration(a.cfg.CacheTTLMs) * time.Millisecond,
	})
	if err != nil {
		ruleOutcome.Tag = TagInvalid
		if errors.Is(err, classify.ErrTimeout) {
			ruleOutcome.Tag = TagTimeout
		}
		log.Printf("[ARBITER] classify failed, falling back to rules: %v", err)
		return ruleOutcome
	}

	if !dec.FromCache {
		a.consumeBudgetAsync()
	}
	if dec.CooldownSec > 0 {
		a.installCooldownAsync(dec.CooldownSec)
	}

	aiCat, known := sanitize(dec.Recommend, in.HardCooldownOk)
	if !known {
		ruleOutcome.Tag = TagInvalid
		return ruleOutcome
	}

	if dec.Confidence < a.cfg.MinConfidence {
		ruleOutcome.Tag = TagLowConfidence
		ruleOutcome.AICategory = aiCat.String()
		ruleOutcome.AIConfidence = dec.Confidence
		ruleOutcome.FromCache = dec.FromCache
		return ruleOutcome
	}

	out := Merge(a.cfg.Mode, in.RuleCategory, aiCat, in.Signals)
	out.Reasons = append(append([]string(nil), in.RuleReasons...), out.Reasons...)
	if !in.HardCooldownOk && aiCat == intervention.MicroClosure && dec.Recommend == "hard" {
		out.Reasons = append(out.Reasons, intervention.ReasonHardCooldownClamp)
	}
	out.AICategory = aiCat.String()
	out.AIConfidence = dec.Confidence
	out.FromCache = dec.FromCache
	return out
}

// #endregion arbitrate

// #region gating

// gatingOK holds only when every AI precondition is met: a configured
// classifier, a usable context frame with minimum signal, remaining daily
// budget, no active cooldown, and an ambiguous (yellow) zone. Green and red
// are rule-sufficient by design, which also bounds classifier spend.
func (a *Arbiter) gatingOK(ctx context.Context, in Input) bool {
	if a.classifier == nil {
		return false
	}
	if in.Frame == nil {
		return false
	}
	if in.Frame.ViewportTextLen < minViewportChars && in.Frame.SelectionLen == 0 {
		return false
	}
	if in.Signals.Zone != signals.ZoneYellow {
		return false
	}

	now := a.now()
	used, err := a.gate.BudgetUsed(ctx, store.BudgetDay(now))
	if err != nil {
		log.Printf("[ARBITER] budget read failed, skipping AI: %v", err)
		return false
	}
	if used >= a.cfg.DailyBudget {
		return false
	}

	cooldownUntil, err := a.gate.ControlTime(ctx, store.KeyAICooldownUntil)
	if err != nil {
		log.Printf("[ARBITER] cooldown read failed, skipping AI: %v", err)
		return false
	}
	return !now.Before(cooldownUntil)
}

// #endregion gating

// #region sanitize

// sanitize maps a raw classifier recommendation through the fixed vocabulary
// and applies the hard-interrupt cooldown clamp. The clamp is unconditional:
// no confidence value can override it.
func sanitize(recommend string, hardCooldownOk bool) (intervention.Category, bool) {
	cat, ok := aiVocabulary[recommend]
	if !ok {
		return intervention.None, false
	}
	if cat == intervention.HardInterrupt && !hardCooldownOk {
		cat = intervention.MicroClosure
	}
	return cat, true
}

// #endregion sanitize

// #region merge

// Merge resolves a sanitized, confident classifier category against the rule
// category. In primary mode the classifier replaces the rules. In assist mode
// the classifier may not invent escalation out of a quiet baseline and may
// upgrade only under attention risk; downgrades are always allowed. The
// asymmetry is deliberate: the classifier is trusted more to de-escalate than
// to escalate.
func Merge(mode config.AIMode, rule, ai intervention.Category, sig signals.Signals) Outcome {
	if mode == config.AIModePrimary {
		return Outcome{Category: ai, Source: intervention.SourceAI, Tag: compareTag(rule, ai)}
	}

	// assist mode
	if rule == intervention.None {
		if ai == intervention.HardInterrupt && !sig.AttentionRisk {
			return Outcome{
				Category: rule,
				Source:   intervention.SourceRule,
				Tag:      TagAIDoomscroll,
				Reasons:  []string{intervention.ReasonAIEscalateBlocked},
			}
		}
		if ai == intervention.MicroClosure && !sig.AttentionRisk && !sig.ApproachingRisk {
			return Outcome{
				Category: rule,
				Source:   intervention.SourceRule,
				Tag:      TagAIDoomscroll,
				Reasons:  []string{intervention.ReasonAIEscalateBlocked},
			}
		}
		return Outcome{Category: ai, Source: intervention.SourceAI, Tag: compareTag(rule, ai)}
	}

	switch {
	case ai < rule:
		return Outcome{Category: ai, Source: intervention.SourceAI, Tag: TagRuleEscalate}
	case ai > rule:
		if sig.AttentionRisk {
			return Outcome{Category: ai, Source: intervention.SourceAI, Tag: TagAIDoomscroll}
		}
		return Outcome{
			Category: rule,
			Source:   intervention.SourceRule,
			Tag:      TagAIDoomscroll,
			Reasons:  []string{intervention.ReasonAIUpgradeBlocked},
		}
	default:
		return Outcome{Category: rule, Source: intervention.SourceAI, Tag: TagAgree}
	}
}

func compareTag(rule, ai intervention.Category) Tag {
	switch {
	case ai == rule:
		return TagAgree
	case ai > rule:
		return TagAIDoomscroll
	default:
		return TagRuleEscalate
	}
}

// #endregion merge

// #region shadow

// launchShadow starts the speculative comparison branch: the classifier is
// raced against a fixed timeout on a detached context and the rule-vs-AI pick
// is logged for offline analysis. The branch is write-once and log-only; it
// can never touch the decision that has already been returned.
func (a *Arbiter) launchShadow(in Input) {
	a.shadow.Add(1)
	go func() {
		defer a.shadow.Done()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel() // detaches the loser so its resources are freed

		type result struct {
			dec classify.Decision
			err error
		}
		ch := make(chan result, 1)
		go func() {
			dec, err := a.classifier.Classify(ctx, *in.Frame, in.Signals, classify.Options{
				Timeout: shadowTimeout,
			})
			ch <- result{dec, err}
		}()

		timer := time.NewTimer(shadowTimeout)
		defer timer.Stop()

		select {
		case r := <-ch:
			if r.err != nil {
				log.Printf("[SHADOW] classify failed: %v", r.err)
				return
			}
			aiCat, known := sanitize(r.dec.Recommend, in.HardCooldownOk)
			if !known {
				log.Printf("[SHADOW] unknown recommend %q", r.dec.Recommend)
				return
			}
			log.Printf("[SHADOW] rule=%s ai=%s confidence=%.2f tag=%s",
				in.RuleCategory, aiCat, r.dec.Confidence, compareTag(in.RuleCategory, aiCat))
		case <-timer.C:
			// Late results are discarded; only the first settled arm matters.
			log.Printf("[SHADOW] classify timed out after %s", shadowTimeout)
		}
	}()
}

func riskPresent(sig signals.Signals) bool {
	return sig.AttentionRisk || sig.ApproachingRisk
}

// #endregion shadow

// #region background-writes

// consumeBudgetAsync burns one unit of the daily budget without blocking the
// decision path. Errors are logged, never propagated.
func (a *Arbiter) consumeBudgetAsync() {
	day := store.BudgetDay(a.now())
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		if err := a.gate.ConsumeBudget(context.Background(), day); err != nil {
			log.Printf("[ARBITER] consume budget: %v", err)
		}
	}()
}

// installCooldownAsync persists a classifier-requested cooldown so later
// ticks skip AI until it elapses, independent of the budget counter.
func (a *Arbiter) installCooldownAsync(cooldownSec int) {
	until := a.now().Add(time.Duration(cooldownSec) * time.Second)
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		if err := a.gate.SetControlTime(context.Background(), store.KeyAICooldownUntil, until); err != nil {
			log.Printf("[ARBITER] install cooldown: %v", err)
		}
	}()
}

// #endregion background-writes
