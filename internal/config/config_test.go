package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if cfg.Sensitivity != want.Sensitivity || cfg.AI.Enabled != want.AI.Enabled {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if cfg.AI.Mode != AIModeAssist {
		t.Errorf("mode = %q, want assist", cfg.AI.Mode)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
sensitivity: strict
safe_hosts:
  - docs.example.com
  - wikipedia.org
ai:
  enabled: true
  mode: primary
  endpoint: http://localhost:8091/classify
  min_confidence: 0.75
  daily_budget: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sensitivity != "strict" {
		t.Errorf("sensitivity = %q", cfg.Sensitivity)
	}
	if len(cfg.SafeHosts) != 2 || cfg.SafeHosts[0] != "docs.example.com" {
		t.Errorf("safeHosts = %v", cfg.SafeHosts)
	}
	if !cfg.AI.Enabled || cfg.AI.Mode != AIModePrimary || cfg.AI.MinConfidence != 0.75 {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.AI.DailyBudget != 10 {
		t.Errorf("dailyBudget = %d, want 10", cfg.AI.DailyBudget)
	}
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := writeConfig(t, "sensitivity: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "sensitivity: gentle\nai:\n  enabled: false\n")

	t.Setenv("SENTINEL_SENSITIVITY", "strict")
	t.Setenv("SENTINEL_AI_ENABLED", "true")
	t.Setenv("SENTINEL_CLASSIFIER_URL", "http://classifier:9000")
	t.Setenv("SENTINEL_AI_MIN_CONFIDENCE", "0.9")
	t.Setenv("SENTINEL_AI_DAILY_BUDGET", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sensitivity != "strict" {
		t.Errorf("sensitivity = %q, want env override", cfg.Sensitivity)
	}
	if !cfg.AI.Enabled || cfg.AI.Endpoint != "http://classifier:9000" {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.AI.MinConfidence != 0.9 || cfg.AI.DailyBudget != 5 {
		t.Errorf("ai = %+v", cfg.AI)
	}
}

func TestLoad_InvalidValuesNormalized(t *testing.T) {
	path := writeConfig(t, "ai:\n  mode: oracle\n  min_confidence: 7.0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AI.Mode != AIModeAssist {
		t.Errorf("mode = %q, want assist fallback", cfg.AI.Mode)
	}
	if cfg.AI.MinConfidence != Default().AI.MinConfidence {
		t.Errorf("minConfidence = %v, want default fallback", cfg.AI.MinConfidence)
	}
}
