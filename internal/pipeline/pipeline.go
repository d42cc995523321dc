package pipeline

// #region imports
import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/scroll-sentinel/internal/arbiter"
	"github.com/danielpatrickdp/scroll-sentinel/internal/config"
	"github.com/danielpatrickdp/scroll-sentinel/internal/decision"
	"github.com/danielpatrickdp/scroll-sentinel/internal/elastic"
	"github.com/danielpatrickdp/scroll-sentinel/internal/escalation"
	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
	"github.com/danielpatrickdp/scroll-sentinel/internal/store"
	"github.com/danielpatrickdp/scroll-sentinel/internal/strategy"
	"github.com/danielpatrickdp/scroll-sentinel/internal/thresholds"
)

// #endregion

// #region internal-schemes

// internalSchemes are browser/system pages the pipeline never comments on.
var internalSchemes = map[string]bool{
	"chrome":           true,
	"chrome-extension": true,
	"moz-extension":    true,
	"edge":             true,
	"about":            true,
	"devtools":         true,
	"view-source":      true,
	"file":             true,
}

// #endregion internal-schemes

// #region pipeline-struct

// Pipeline sequences one telemetry sample through signal extraction, rule
// strategy, and hybrid arbitration, then persists the audit trail. One
// session drives at most one in-flight tick at a time by construction; the
// only deliberate concurrency is the arbiter's shadow branch and the
// fire-and-forget log writes.
type Pipeline struct {
	cfg      config.Config
	store    *store.Store
	arb      *arbiter.Arbiter
	adjuster *elastic.Adjuster
	now      func() time.Time

	mu      sync.Mutex
	session Session
	pending map[string]pendingEntry

	bg sync.WaitGroup
}

// New wires a pipeline over a store and an arbiter.
func New(cfg config.Config, st *store.Store, arb *arbiter.Arbiter) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		arb:      arb,
		adjuster: elastic.NewAdjuster(st),
		now:      time.Now,
		pending:  make(map[string]pendingEntry),
	}
}

// Session returns a snapshot of the in-memory session state.
func (p *Pipeline) Session() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Wait blocks until background writes and shadow branches settle. Shutdown
// and test hook only.
func (p *Pipeline) Wait() {
	p.bg.Wait()
	p.arb.Wait()
}

// Snooze suppresses all interventions until the given time.
func (p *Pipeline) Snooze(ctx context.Context, until time.Time) error {
	return p.store.SetControlTime(ctx, store.KeySnoozeUntil, until)
}

// #endregion pipeline-struct

// #region handle-tick

// HandleTick runs the full pipeline for one sample. It never returns an
// error: any internal failure resolves to silence. The page must never hang
// or visibly malfunction because of this loop.
func (p *Pipeline) HandleTick(ctx context.Context, sample signals.Sample) (dec intervention.FinalDecision) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[TICK] recovered from panic: %v", r)
			dec = silence(intervention.ReasonPipelinePanic)
		}
	}()

	now := p.now()

	// Short-circuits, in order. Each one resolves to silence without
	// invoking later stages.
	if until, err := p.store.ControlTime(ctx, store.KeySnoozeUntil); err == nil && now.Before(until) {
		return silence(intervention.ReasonSnoozeActive)
	}
	if isInternalURL(sample.URL) {
		return silence(intervention.ReasonInternalURL)
	}
	if p.isSafeHost(sample.URL) {
		return silence(intervention.ReasonSafeHost)
	}

	history, err := p.store.ReactionHistory(ctx)
	if err != nil {
		log.Printf("[TICK] read history: %v", err)
		history = nil
	}
	if triggeredWithin(history, now, antiSpamWindow) {
		return silence(intervention.ReasonAntiSpamCooldown)
	}

	mult, err := p.store.Multiplier(ctx)
	if err != nil {
		log.Printf("[TICK] read multiplier: %v", err)
		mult = elastic.Record{Value: 1.0}
	}

	sens := thresholds.ParseSensitivity(p.cfg.Sensitivity)
	profile := thresholds.Derive(sens, mult.Value)
	sig := signals.Extract(sample, profile)
	stats := escalation.Compute(history, now)

	p.logEventAsync("tick", sample, sig, now)

	if decision.Decide(sig).IsSafeToScroll {
		return silence(intervention.ReasonZoneGreen)
	}

	strat := strategy.BuildStrategy(sig, strategy.Context{
		RecentInterventions: stats.TriggeredCount,
		ResistanceScore:     stats.ResistanceScore,
		IgnoredStreak:       stats.IgnoredStreak,
		Sensitivity:         sens,
	})
	ruleCat, reasons := strategy.SelectCategory(strat, strategy.SelectionContext{
		InterventionFatigue: strategy.FatigueFrom(stats),
		RecentCategory:      p.recentCategory(now),
		DismissalFrequency:  escalation.DismissedCount(history, now),
	})

	out := p.arb.Arbitrate(ctx, arbiter.Input{
		Signals:        sig,
		Frame:          sample.Frame,
		RuleCategory:   ruleCat,
		RuleReasons:    reasons,
		HardCooldownOk: stats.HardCooldownOk,
		CacheKey:       cacheKey(sample),
	})

	logID := uuid.New().String()
	final := intervention.FinalDecision{
		Category: out.Category,
		Source:   out.Source,
		LogID:    logID,
		Reasons:  out.Reasons,
	}
	if final.Category == intervention.HardInterrupt {
		final.HardMode = string(strat.Sentiment)
	}

	p.appendAuditAsync(store.AuditEntry{
		LogID:        logID,
		Category:     out.Category,
		Source:       out.Source,
		RuleCategory: ruleCat,
		AICategory:   out.AICategory,
		Disagreement: string(out.Tag),
		ReasonsJSON:  marshalReasons(out.Reasons),
		CreatedAt:    now,
	})

	if final.Category != intervention.None {
		p.recordShown(ctx, final, now)
	}
	return final
}

// #endregion handle-tick

// #region record-shown

// recordShown updates the session state, registers the pending reaction
// entry, and appends the TRIGGERED marker the anti-spam and cooldown checks
// key off. The reaction append is best-effort: a lost row is preferred over
// a blocked decision.
func (p *Pipeline) recordShown(ctx context.Context, final intervention.FinalDecision, now time.Time) {
	p.mu.Lock()
	p.session.LastCategory = final.Category
	p.session.LastShownAt = now
	p.session.ShownCount++
	for id, entry := range p.pending {
		if now.Sub(entry.TriggeredAt) > reactionWindow {
			delete(p.pending, id)
		}
	}
	p.pending[final.LogID] = pendingEntry{
		LogID:       final.LogID,
		Category:    final.Category,
		TriggeredAt: now,
	}
	p.mu.Unlock()

	err := p.store.AppendReaction(ctx, escalation.ReactionEvent{
		Timestamp:      now,
		Event:          intervention.ReactionTriggered,
		Mode:           final.Category,
		InterventionID: final.LogID,
	})
	if err != nil {
		log.Printf("[TICK] append trigger: %v", err)
	}
}

// #endregion record-shown

// #region report-reaction

// ReportReaction records how the user responded to an intervention. The
// reaction is appended to the history, correlated to its tick when it
// arrives inside the correlation window, and the adaptive multiplier update
// is fired off the logging path.
func (p *Pipeline) ReportReaction(ctx context.Context, reaction intervention.ReactionType, interventionID string, durationMs int64) error {
	now := p.now()

	mode := intervention.None
	p.mu.Lock()
	if entry, ok := p.pending[interventionID]; ok {
		if now.Sub(entry.TriggeredAt) <= reactionWindow {
			mode = entry.Category
			log.Printf("[REACT] %s correlated to log %s after %dms", reaction, entry.LogID, durationMs)
		}
		delete(p.pending, interventionID)
	}
	if mode == intervention.None {
		mode = p.session.LastCategory
	}
	p.mu.Unlock()

	err := p.store.AppendReaction(ctx, escalation.ReactionEvent{
		Timestamp:      now,
		Event:          reaction,
		Mode:           mode,
		InterventionID: interventionID,
		DurationMs:     durationMs,
	})
	if err != nil {
		return err
	}

	// Streak is read back after the append so the adjuster sees the
	// already-incremented value for negative reactions.
	history, err := p.store.ReactionHistory(ctx)
	if err != nil {
		log.Printf("[REACT] read history: %v", err)
		history = nil
	}
	streak := escalation.Compute(history, now).IgnoredStreak

	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		p.adjuster.Update(context.Background(), reaction, streak)
	}()
	return nil
}

// #endregion report-reaction

// #region short-circuit-helpers

func silence(reason string) intervention.FinalDecision {
	return intervention.FinalDecision{
		Category: intervention.None,
		Source:   intervention.SourceRule,
		Reasons:  []string{reason},
	}
}

// isInternalURL reports whether the sample came from a browser/system page.
func isInternalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true // unparseable means not a page worth commenting on
	}
	return internalSchemes[u.Scheme]
}

// isSafeHost reports whether the host is whitelisted by config. Subdomains
// of a safe host are safe too.
func (p *Pipeline) isSafeHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, safe := range p.cfg.SafeHosts {
		safe = strings.ToLower(safe)
		if host == safe || strings.HasSuffix(host, "."+safe) {
			return true
		}
	}
	return false
}

// triggeredWithin reports whether any intervention was shown inside the
// given window, regardless of its mode.
func triggeredWithin(history []escalation.ReactionEvent, now time.Time, window time.Duration) bool {
	for _, ev := range history {
		if ev.Event == intervention.ReactionTriggered && now.Sub(ev.Timestamp) < window {
			return true
		}
	}
	return false
}

// recentCategory returns the last shown category when it is recent enough to
// count as repetition, None otherwise.
func (p *Pipeline) recentCategory(now time.Time) intervention.Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session.LastShownAt.IsZero() || now.Sub(p.session.LastShownAt) > escalation.WindowMinutes*time.Minute {
		return intervention.None
	}
	return p.session.LastCategory
}

// #endregion short-circuit-helpers

// #region background-writes

func (p *Pipeline) appendAuditAsync(entry store.AuditEntry) {
	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		if err := p.store.AppendAudit(context.Background(), entry); err != nil {
			log.Printf("[TICK] append audit: %v", err)
		}
	}()
}

func (p *Pipeline) logEventAsync(kind string, sample signals.Sample, sig signals.Signals, at time.Time) {
	payload, _ := json.Marshal(map[string]any{
		"url":                   sample.URL,
		"zone":                  sig.Zone,
		"continuous_scroll_sec": sig.ContinuousScrollSec,
		"scroll_px_per_sec":     sig.ScrollPxPerSec,
		"idle_sec":              sig.IdleSec,
	})
	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		if err := p.store.AppendEvent(context.Background(), kind, string(payload), at); err != nil {
			log.Printf("[TICK] append event: %v", err)
		}
	}()
}

func marshalReasons(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	b, err := json.Marshal(reasons)
	if err != nil {
		return ""
	}
	return string(b)
}

// cacheKey builds the classifier cache key from the page identity.
func cacheKey(sample signals.Sample) string {
	u, err := url.Parse(sample.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	pageType := ""
	if sample.Frame != nil {
		pageType = sample.Frame.PageType
	}
	return u.Hostname() + "|" + pageType
}

// #endregion background-writes
