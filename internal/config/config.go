package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the call coaching service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	SessionJanitorInterval   time.Duration
	MetricsNamespace         string
	AllowAnyOrigin           bool
	LogLevel                 string
	LogFormat                string

	// ProviderMode selects the collaborator backends: auto, openai or mock.
	ProviderMode string

	OpenAIAPIKey             string
	OpenAIBaseURL            string
	OpenAIOrganization       string
	OpenAITimeout            time.Duration
	OpenAIInsightModel       string
	OpenAIChatModel          string
	OpenAIEmbeddingModel     string
	OpenAITranscribeModel    string
	OpenAITranscribeFallback string
	TranscribeLanguage       string
	InsightTemperature       float64
	InsightMaxTokens         int
	AudioSampleRate          int
	OnsetThreshold           int
	SilenceRMSThreshold      float64
	SilenceMinSamples        int
	MinTranscriptionLength   int
	MaxContextMessages       int
	MaxInsightsCache         int
	MinRelevanceScore        int
	CooldownHighRelevance    time.Duration
	CooldownBase             time.Duration
	CooldownAfterInsight     time.Duration
	AllowCooldownBypass      bool
	DuplicateTimeThreshold   time.Duration
	SemanticThreshold        float64
	JaccardThreshold         float64
	MaxConsecutiveTitles     int
	TitleRepeatWindow        time.Duration
	KeywordsFile             string
	DatabaseURL              string
	RedisURL                 string
	ArchiveTTL               time.Duration
	ArchiveRedactPII         bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "callcoach"),
		LogLevel:                 strings.ToLower(envOrDefault("APP_LOG_LEVEL", "info")),
		LogFormat:                strings.ToLower(envOrDefault("APP_LOG_FORMAT", "text")),
		ProviderMode:             strings.ToLower(envOrDefault("PROVIDER_MODE", "auto")),
		OpenAIAPIKey:             trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:            trimmedEnv("OPENAI_BASE_URL"),
		OpenAIOrganization:       trimmedEnv("OPENAI_ORGANIZATION"),
		OpenAIInsightModel:       envOrDefault("OPENAI_INSIGHT_MODEL", "gpt-4o-mini"),
		OpenAIChatModel:          envOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbeddingModel:     envOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAITranscribeModel:    envOrDefault("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
		OpenAITranscribeFallback: trimmedEnv("OPENAI_TRANSCRIBE_FALLBACK_MODEL"),
		TranscribeLanguage:       envOrDefault("TRANSCRIBE_LANGUAGE", "fr"),
		KeywordsFile:             trimmedEnv("KEYWORDS_FILE"),
		DatabaseURL:              trimmedEnv("DATABASE_URL"),
		RedisURL:                 trimmedEnv("REDIS_URL"),

		ShutdownTimeout:          10 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		SessionJanitorInterval:   30 * time.Second,
		OpenAITimeout:            20 * time.Second,
		InsightTemperature:       0.3,
		InsightMaxTokens:         60,
		AudioSampleRate:          16000,
		OnsetThreshold:           500,
		SilenceRMSThreshold:      200,
		SilenceMinSamples:        1600,
		MinTranscriptionLength:   2,
		MaxContextMessages:       50,
		MaxInsightsCache:         5,
		MinRelevanceScore:        60,
		CooldownHighRelevance:    10 * time.Second,
		CooldownBase:             20 * time.Second,
		CooldownAfterInsight:     25 * time.Second,
		AllowCooldownBypass:      true,
		DuplicateTimeThreshold:   30 * time.Second,
		SemanticThreshold:        0.85,
		JaccardThreshold:         0.7,
		MaxConsecutiveTitles:     1,
		ArchiveTTL:               7 * 24 * time.Hour,
		ArchiveRedactPII:         true,
	}

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"APP_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
		{"APP_SESSION_INACTIVITY_TIMEOUT", &cfg.SessionInactivityTimeout},
		{"APP_SESSION_JANITOR_INTERVAL", &cfg.SessionJanitorInterval},
		{"OPENAI_TIMEOUT", &cfg.OpenAITimeout},
		{"COOLDOWN_HIGH_RELEVANCE", &cfg.CooldownHighRelevance},
		{"COOLDOWN_BASE", &cfg.CooldownBase},
		{"COOLDOWN_AFTER_INSIGHT", &cfg.CooldownAfterInsight},
		{"TIME_THRESHOLD_DUPLICATE", &cfg.DuplicateTimeThreshold},
		{"ARCHIVE_TTL", &cfg.ArchiveTTL},
	}
	for _, d := range durations {
		if *d.dst, err = durationFromEnv(d.key, *d.dst); err != nil {
			return Config{}, err
		}
	}
	// The title window follows the duplicate threshold unless set explicitly.
	cfg.TitleRepeatWindow, err = durationFromEnv("TITLE_REPEAT_WINDOW", cfg.DuplicateTimeThreshold)
	if err != nil {
		return Config{}, err
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"INSIGHT_MAX_TOKENS", &cfg.InsightMaxTokens},
		{"AUDIO_SAMPLE_RATE", &cfg.AudioSampleRate},
		{"ONSET_THRESHOLD", &cfg.OnsetThreshold},
		{"SILENCE_MIN_SAMPLES", &cfg.SilenceMinSamples},
		{"MIN_TRANSCRIPTION_LENGTH", &cfg.MinTranscriptionLength},
		{"MAX_CONTEXT_MESSAGES", &cfg.MaxContextMessages},
		{"MAX_INSIGHTS_CACHE", &cfg.MaxInsightsCache},
		{"MIN_RELEVANCE_SCORE", &cfg.MinRelevanceScore},
		{"MAX_CONSECUTIVE_TITLES", &cfg.MaxConsecutiveTitles},
	}
	for _, n := range ints {
		if *n.dst, err = intFromEnv(n.key, *n.dst); err != nil {
			return Config{}, err
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"INSIGHT_TEMPERATURE", &cfg.InsightTemperature},
		{"SILENCE_RMS_THRESHOLD", &cfg.SilenceRMSThreshold},
		{"SEMANTIC_THRESHOLD", &cfg.SemanticThreshold},
		{"JACCARD_THRESHOLD", &cfg.JaccardThreshold},
	}
	for _, f := range floats {
		if *f.dst, err = floatFromEnv(f.key, *f.dst); err != nil {
			return Config{}, err
		}
	}

	if cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", false); err != nil {
		return Config{}, err
	}
	if cfg.AllowCooldownBypass, err = boolFromEnv("ALLOW_COOLDOWN_BYPASS", cfg.AllowCooldownBypass); err != nil {
		return Config{}, err
	}
	if cfg.ArchiveRedactPII, err = boolFromEnv("ARCHIVE_REDACT_PII", cfg.ArchiveRedactPII); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.ProviderMode {
	case "auto", "openai", "mock":
	default:
		return fmt.Errorf("PROVIDER_MODE must be one of auto, openai, mock")
	}
	if c.ProviderMode == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when PROVIDER_MODE=openai")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("APP_LOG_FORMAT must be text or json")
	}
	if c.SessionInactivityTimeout < 5*time.Second {
		return fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if c.SessionJanitorInterval <= 0 {
		return fmt.Errorf("APP_SESSION_JANITOR_INTERVAL must be positive")
	}
	if c.MaxContextMessages < 1 {
		return fmt.Errorf("MAX_CONTEXT_MESSAGES must be >= 1")
	}
	if c.MaxInsightsCache < 1 {
		return fmt.Errorf("MAX_INSIGHTS_CACHE must be >= 1")
	}
	if c.MinRelevanceScore < 0 || c.MinRelevanceScore > 100 {
		return fmt.Errorf("MIN_RELEVANCE_SCORE must be within [0,100]")
	}
	if c.CooldownHighRelevance < 0 || c.CooldownHighRelevance > c.CooldownBase || c.CooldownBase > c.CooldownAfterInsight {
		return fmt.Errorf("cooldowns must satisfy 0 <= COOLDOWN_HIGH_RELEVANCE <= COOLDOWN_BASE <= COOLDOWN_AFTER_INSIGHT")
	}
	if c.SemanticThreshold <= 0 || c.SemanticThreshold > 1 {
		return fmt.Errorf("SEMANTIC_THRESHOLD must be within (0,1]")
	}
	if c.JaccardThreshold <= 0 || c.JaccardThreshold > 1 {
		return fmt.Errorf("JACCARD_THRESHOLD must be within (0,1]")
	}
	if c.DuplicateTimeThreshold < 0 || c.TitleRepeatWindow < 0 {
		return fmt.Errorf("TIME_THRESHOLD_DUPLICATE and TITLE_REPEAT_WINDOW must be >= 0")
	}
	if c.MaxConsecutiveTitles < 0 {
		return fmt.Errorf("MAX_CONSECUTIVE_TITLES must be >= 0")
	}
	if c.AudioSampleRate <= 0 {
		return fmt.Errorf("AUDIO_SAMPLE_RATE must be positive")
	}
	if c.InsightMaxTokens <= 0 {
		return fmt.Errorf("INSIGHT_MAX_TOKENS must be positive")
	}
	return nil
}

// UseOpenAI reports whether the OpenAI-backed collaborators should be wired.
func (c Config) UseOpenAI() bool {
	switch c.ProviderMode {
	case "openai":
		return true
	case "mock":
		return false
	default:
		return c.OpenAIAPIKey != ""
	}
}

func envOrDefault(key, fallback string) string {
	v := trimmedEnv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	// Bare numbers are seconds, matching the historical env format.
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
