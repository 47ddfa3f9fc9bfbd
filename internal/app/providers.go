package app

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ent0n29/callcoach/internal/config"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/dedupe"
	"github.com/ent0n29/callcoach/internal/embeddings"
	"github.com/ent0n29/callcoach/internal/llm"
	"github.com/ent0n29/callcoach/internal/voice"
)

// providerSetup holds the external collaborators picked for a provider mode.
type providerSetup struct {
	resolvedMode string
	detail       string

	insights    llm.Completer
	summaries   llm.Completer
	phases      conversation.PhaseClassifier
	similarity  dedupe.SimilarityProvider
	transcriber voice.Transcriber
}

func resolveProviders(cfg config.Config, keywordPhases conversation.KeywordPhaseClassifier, logger *slog.Logger) (providerSetup, error) {
	if !cfg.UseOpenAI() {
		if cfg.ProviderMode == "auto" {
			logger.Info("OPENAI_API_KEY not set, using mock providers")
		}
		return mockProviders(keywordPhases), nil
	}

	client, err := llm.NewClient(cfg.OpenAIAPIKey,
		llm.WithBaseURL(cfg.OpenAIBaseURL),
		llm.WithOrganization(cfg.OpenAIOrganization),
		llm.WithTimeout(cfg.OpenAITimeout),
	)
	if err != nil {
		return providerSetup{}, fmt.Errorf("openai client init failed: %w", err)
	}

	completer := llm.NewOpenAI(client, cfg.OpenAIChatModel)
	var transcriber voice.Transcriber = voice.NewOpenAITranscriber(client, cfg.OpenAITranscribeModel, cfg.TranscribeLanguage)
	detail := fmt.Sprintf("openai (insights %s, transcription %s)", cfg.OpenAIInsightModel, cfg.OpenAITranscribeModel)
	if cfg.OpenAITranscribeFallback != "" && cfg.OpenAITranscribeFallback != cfg.OpenAITranscribeModel {
		fallback := voice.NewOpenAITranscriber(client, cfg.OpenAITranscribeFallback, cfg.TranscribeLanguage)
		transcriber = voice.NewFailoverTranscriber(transcriber, fallback)
		detail += fmt.Sprintf(", fallback %s", cfg.OpenAITranscribeFallback)
	}

	return providerSetup{
		resolvedMode: "openai",
		detail:       detail,
		insights:     completer,
		summaries:    llm.NewRetrying(completer, 3, 250*time.Millisecond, 2*time.Second),
		phases:       conversation.LLMPhaseClassifier{Completer: completer, Model: cfg.OpenAIChatModel},
		similarity:   embeddings.NewOpenAI(client, cfg.OpenAIEmbeddingModel),
		transcriber:  transcriber,
	}, nil
}

var mockInsights = []string{
	"Besoin flou - Creuse le processus actuel",
	"Impact non chiffré - Demande le temps perdu par semaine",
	"Décideur inconnu - Demande qui valide le budget",
	"Signal d'achat - Propose une démo cette semaine",
}

// mockProviders runs fully offline: canned insights in rotation, keyword
// phases, lexical similarity and scripted transcripts.
func mockProviders(phases conversation.KeywordPhaseClassifier) providerSetup {
	var next atomic.Int64
	insights := &llm.Mock{Respond: func(llm.Request) (string, error) {
		i := next.Add(1) - 1
		return mockInsights[int(i)%len(mockInsights)], nil
	}}
	return providerSetup{
		resolvedMode: "mock",
		detail:       "mock (offline)",
		insights:     insights,
		phases:       phases,
		similarity:   embeddings.Lexical{},
		transcriber:  voice.NewMockTranscriber(),
	}
}
