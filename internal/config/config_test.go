package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxContextMessages != 50 {
		t.Fatalf("MaxContextMessages = %d, want 50", cfg.MaxContextMessages)
	}
	if cfg.MaxInsightsCache != 5 {
		t.Fatalf("MaxInsightsCache = %d, want 5", cfg.MaxInsightsCache)
	}
	if cfg.CooldownHighRelevance != 10*time.Second || cfg.CooldownBase != 20*time.Second || cfg.CooldownAfterInsight != 25*time.Second {
		t.Fatalf("cooldowns = %v/%v/%v, want 10s/20s/25s", cfg.CooldownHighRelevance, cfg.CooldownBase, cfg.CooldownAfterInsight)
	}
	if cfg.TitleRepeatWindow != cfg.DuplicateTimeThreshold {
		t.Fatalf("TitleRepeatWindow = %v, want duplicate threshold %v", cfg.TitleRepeatWindow, cfg.DuplicateTimeThreshold)
	}
	if cfg.UseOpenAI() {
		t.Fatalf("UseOpenAI() = true without API key")
	}
}

func TestLoadAcceptsBareSecondsAndExplicitTitleWindow(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("TIME_THRESHOLD_DUPLICATE", "45")
	t.Setenv("TITLE_REPEAT_WINDOW", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DuplicateTimeThreshold != 45*time.Second {
		t.Fatalf("DuplicateTimeThreshold = %v, want 45s", cfg.DuplicateTimeThreshold)
	}
	if cfg.TitleRepeatWindow != 0 {
		t.Fatalf("TitleRepeatWindow = %v, want 0", cfg.TitleRepeatWindow)
	}
}

func TestLoadRejectsInvertedCooldowns(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("COOLDOWN_HIGH_RELEVANCE", "30s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want cooldown ordering error")
	}
}

func TestLoadOpenAIModeRequiresKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("PROVIDER_MODE", "openai")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want missing key error")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.UseOpenAI() {
		t.Fatalf("UseOpenAI() = false, want true")
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("SEMANTIC_THRESHOLD", "1.5")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want threshold error")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_SESSION_JANITOR_INTERVAL",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_LOG_LEVEL",
		"APP_LOG_FORMAT",
		"PROVIDER_MODE",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_ORGANIZATION",
		"OPENAI_TIMEOUT",
		"OPENAI_INSIGHT_MODEL",
		"OPENAI_CHAT_MODEL",
		"OPENAI_EMBEDDING_MODEL",
		"OPENAI_TRANSCRIBE_MODEL",
		"OPENAI_TRANSCRIBE_FALLBACK_MODEL",
		"TRANSCRIBE_LANGUAGE",
		"INSIGHT_TEMPERATURE",
		"INSIGHT_MAX_TOKENS",
		"AUDIO_SAMPLE_RATE",
		"ONSET_THRESHOLD",
		"SILENCE_RMS_THRESHOLD",
		"SILENCE_MIN_SAMPLES",
		"MIN_TRANSCRIPTION_LENGTH",
		"MAX_CONTEXT_MESSAGES",
		"MAX_INSIGHTS_CACHE",
		"MIN_RELEVANCE_SCORE",
		"COOLDOWN_HIGH_RELEVANCE",
		"COOLDOWN_BASE",
		"COOLDOWN_AFTER_INSIGHT",
		"ALLOW_COOLDOWN_BYPASS",
		"TIME_THRESHOLD_DUPLICATE",
		"SEMANTIC_THRESHOLD",
		"JACCARD_THRESHOLD",
		"MAX_CONSECUTIVE_TITLES",
		"TITLE_REPEAT_WINDOW",
		"KEYWORDS_FILE",
		"DATABASE_URL",
		"REDIS_URL",
		"ARCHIVE_TTL",
		"ARCHIVE_REDACT_PII",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
