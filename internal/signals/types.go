package signals

// #region telemetry

// Frame is an optional snapshot of page context captured with the sample.
// The arbiter uses it to decide whether there is enough signal to consult
// the classifier at all.
type Frame struct {
	ViewportTextLen int                `json:"viewport_text_len"`
	SelectionLen    int                `json:"selection_len"`
	PageType        string             `json:"page_type"`
	Behavior60s     map[string]float64 `json:"behavior_60s,omitempty"`
}

// Sample is one raw behavioral telemetry tick. Ephemeral: owned by the
// pipeline for the duration of one run.
type Sample struct {
	URL                 string  `json:"url"`
	ContinuousScrollSec float64 `json:"continuous_scroll_sec"`
	ScrollPx            float64 `json:"scroll_px"`
	IdleSec             float64 `json:"idle_sec"`
	Frame               *Frame  `json:"frame,omitempty"`
}

// #endregion telemetry

// #region zone

// Zone is the coarse risk bucket derived from scroll and idle behavior.
type Zone string

const (
	ZoneGreen  Zone = "green"
	ZoneYellow Zone = "yellow"
	ZoneRed    Zone = "red"
)

// #endregion zone

// #region signals

// Signals is the extracted signal set for one tick. Computed fresh every
// tick, never persisted.
type Signals struct {
	Zone            Zone
	AttentionRisk   bool
	ApproachingRisk bool

	// Raw derived metrics kept for explainability in the audit log.
	ContinuousScrollSec float64
	ScrollPxPerSec      float64
	IdleSec             float64
}

// #endregion signals
