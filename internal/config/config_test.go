package config

import (
	"testing"
	"time"
)

func TestResolveBackend(t *testing.T) {
	t.Parallel()

	cases := map[string]BackendKind{
		"gpt-4o":            BackendOpenAI,
		"o3-mini":           BackendOpenAI,
		"claude-sonnet-4-5": BackendAnthropic,
		"Claude-Opus-4":     BackendAnthropic,
		"gemini-2.5-pro":    BackendGoogle,
		"mistral-large":     BackendOpenAI,
		"":                  BackendOpenAI,
	}
	for model, want := range cases {
		if got := ResolveBackend(model); got != want {
			t.Fatalf("ResolveBackend(%q) = %s, want %s", model, got, want)
		}
	}
}

func TestNormalizeDerivesBackendOnce(t *testing.T) {
	t.Parallel()

	raw := defaultRaw()
	raw.Chat.Model = "claude-sonnet-4-5"

	cfg := Normalize(raw)
	if cfg.ChatBackend != BackendAnthropic {
		t.Fatalf("ChatBackend = %s, want anthropic", cfg.ChatBackend)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	cfg := Normalize(defaultRaw())
	if cfg.Scheduler.MaxConcurrent <= 0 {
		t.Fatalf("MaxConcurrent default missing: %d", cfg.Scheduler.MaxConcurrent)
	}
	if cfg.Scheduler.RunBudget() != 30*time.Minute {
		t.Fatalf("RunBudget default = %v", cfg.Scheduler.RunBudget())
	}
	if cfg.AutoLinks.Template != "list" {
		t.Fatalf("AutoLinks template default = %q", cfg.AutoLinks.Template)
	}
	if cfg.Location() == nil {
		t.Fatal("Location must never be nil")
	}
}

func TestMergeRawOverridesSelectively(t *testing.T) {
	t.Parallel()

	base := defaultRaw()
	base.Database.DSN = "postgres://base"
	base.Chat.Model = "gpt-4o"

	override := Raw{}
	override.Chat.Model = "claude-sonnet-4-5"
	override.Scheduler.Timezone = "Europe/Berlin"

	merged := mergeRaw(base, override)
	if merged.Database.DSN != "postgres://base" {
		t.Fatalf("unset override must keep base DSN, got %q", merged.Database.DSN)
	}
	if merged.Chat.Model != "claude-sonnet-4-5" {
		t.Fatalf("model override lost: %q", merged.Chat.Model)
	}
	if merged.Scheduler.Timezone != "Europe/Berlin" {
		t.Fatalf("timezone override lost: %q", merged.Scheduler.Timezone)
	}
	if merged.Scheduler.CronExpression != base.Scheduler.CronExpression {
		t.Fatalf("cron expression must come from defaults, got %q", merged.Scheduler.CronExpression)
	}
}
