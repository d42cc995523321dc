package intervention

// #region category

// Category is the ordered intervention severity scale. The ordinal matters:
// arbitration defines "upgrade" as moving to a higher value and "downgrade"
// as moving to a lower one.
type Category int

const (
	None Category = iota
	PresenceSignal
	MicroClosure
	GentleReflection
	HardInterrupt
)

var categoryNames = map[Category]string{
	None:             "none",
	PresenceSignal:   "presence_signal",
	MicroClosure:     "micro_closure",
	GentleReflection: "gentle_reflection",
	HardInterrupt:    "hard_interrupt",
}

// String returns the wire name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "none"
}

// ParseCategory maps a wire name back to a Category. Unknown names map to None.
func ParseCategory(s string) Category {
	for c, name := range categoryNames {
		if name == s {
			return c
		}
	}
	return None
}

// #endregion category

// #region reaction-type

// ReactionType records how the user responded to an intervention, plus the
// TRIGGERED marker written when one is shown.
type ReactionType string

const (
	ReactionTriggered       ReactionType = "TRIGGERED"
	ReactionIgnored         ReactionType = "IGNORED"
	ReactionIgnoredPassive  ReactionType = "IGNORED_PASSIVE"
	ReactionIgnoredByScroll ReactionType = "IGNORED_BY_SCROLL"
	ReactionDismissed       ReactionType = "DISMISSED"
	ReactionSnoozed         ReactionType = "SNOOZED"
	ReactionCompleted       ReactionType = "COMPLETED"
	ReactionAccepted        ReactionType = "ACCEPTED"
	ReactionAutoDismissed   ReactionType = "AUTO_DISMISSED"
)

// Negative reports whether the reaction counts as rejecting the intervention.
func (r ReactionType) Negative() bool {
	switch r {
	case ReactionIgnored, ReactionDismissed, ReactionIgnoredByScroll, ReactionIgnoredPassive:
		return true
	}
	return false
}

// Positive reports whether the reaction counts as engaging with the intervention.
func (r ReactionType) Positive() bool {
	return r == ReactionAccepted || r == ReactionCompleted
}

// #endregion reaction-type

// #region decision-source

// Source names which arm of the hybrid arbiter produced the final category.
type Source string

const (
	SourceRule Source = "rule"
	SourceAI   Source = "ai"
)

// #endregion decision-source

// #region final-decision

// FinalDecision is the output contract of one pipeline tick.
type FinalDecision struct {
	Category Category `json:"category"`
	Source   Source   `json:"source"`
	HardMode string   `json:"hard_mode,omitempty"` // set only for hard_interrupt
	LogID    string   `json:"log_id,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

// #endregion final-decision

// #region reason-codes

// Reason codes attached to strategy and arbitration branches so every decision
// is traceable in the audit log.
const (
	ReasonZoneGreen         = "zone_green"
	ReasonZoneYellow        = "zone_yellow"
	ReasonZoneRed           = "zone_red"
	ReasonResistanceDamped  = "resistance_damped"
	ReasonFatigueDamped     = "fatigue_damped"
	ReasonGentleProfile     = "gentle_profile_downgrade"
	ReasonFatigueSilenced   = "fatigue_silenced"
	ReasonRepeatAvoided     = "repeat_category_avoided"
	ReasonDismissalDamped   = "dismissal_damped"
	ReasonHardCooldownClamp = "hard_cooldown_clamp"
	ReasonAIUpgradeBlocked  = "ai_upgrade_blocked"
	ReasonAIEscalateBlocked = "ai_escalation_suppressed"
	ReasonSnoozeActive      = "snooze_active"
	ReasonInternalURL       = "internal_url"
	ReasonSafeHost          = "safe_host"
	ReasonAntiSpamCooldown  = "anti_spam_cooldown"
	ReasonPipelinePanic     = "pipeline_panic"
)

// #endregion reason-codes
