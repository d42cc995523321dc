package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/scroll-sentinel/internal/intervention"
	"github.com/danielpatrickdp/scroll-sentinel/internal/signals"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Steps           []FixtureStep           `json:"steps"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig mirrors Config with JSON tags.
type FixtureConfig struct {
	Sensitivity string  `json:"sensitivity"`
	Multiplier  float64 `json:"multiplier"`
}

// FixtureFrame mirrors signals.Frame for fixture files.
type FixtureFrame struct {
	ViewportTextLen int    `json:"viewport_text_len"`
	SelectionLen    int    `json:"selection_len"`
	PageType        string `json:"page_type"`
}

// FixtureStep mirrors Step with JSON tags.
type FixtureStep struct {
	TickID              string           `json:"tick_id"`
	AtOffsetSec         int              `json:"at_offset_sec"`
	URL                 string           `json:"url"`
	ContinuousScrollSec float64          `json:"continuous_scroll_sec"`
	ScrollPx            float64          `json:"scroll_px"`
	IdleSec             float64          `json:"idle_sec"`
	Frame               *FixtureFrame    `json:"frame,omitempty"`
	Reaction            *FixtureReaction `json:"reaction,omitempty"`
}

// FixtureReaction mirrors ScriptedReaction with JSON tags.
type FixtureReaction struct {
	Event    string `json:"event"`
	DelaySec int    `json:"delay_sec"`
}

// FixtureExpectedResult captures the expected category per tick.
type FixtureExpectedResult struct {
	TickID   string `json:"tick_id"`
	Category string `json:"category"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToConfig converts a FixtureConfig to a domain Config.
func (fc *FixtureConfig) ToConfig() Config {
	cfg := DefaultConfig()
	if fc.Sensitivity != "" {
		cfg.Sensitivity = fc.Sensitivity
	}
	if fc.Multiplier != 0 {
		cfg.Multiplier = fc.Multiplier
	}
	return cfg
}

// ToStep converts a FixtureStep to a domain Step.
func (fs *FixtureStep) ToStep() Step {
	step := Step{
		TickID:      fs.TickID,
		AtOffsetSec: fs.AtOffsetSec,
		Sample: signals.Sample{
			URL:                 fs.URL,
			ContinuousScrollSec: fs.ContinuousScrollSec,
			ScrollPx:            fs.ScrollPx,
			IdleSec:             fs.IdleSec,
		},
	}
	if fs.Frame != nil {
		step.Sample.Frame = &signals.Frame{
			ViewportTextLen: fs.Frame.ViewportTextLen,
			SelectionLen:    fs.Frame.SelectionLen,
			PageType:        fs.Frame.PageType,
		}
	}
	if fs.Reaction != nil {
		step.Reaction = &ScriptedReaction{
			Event:    intervention.ReactionType(fs.Reaction.Event),
			DelaySec: fs.Reaction.DelaySec,
		}
	}
	return step
}

// ToSteps converts all fixture steps.
func (f *Fixture) ToSteps() []Step {
	steps := make([]Step, len(f.Steps))
	for i := range f.Steps {
		steps[i] = f.Steps[i].ToStep()
	}
	return steps
}

// #endregion fixture-loader
