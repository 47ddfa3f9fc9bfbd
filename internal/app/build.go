// Package app wires configuration into a running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ent0n29/callcoach/internal/archive"
	"github.com/ent0n29/callcoach/internal/coaching"
	"github.com/ent0n29/callcoach/internal/config"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/dedupe"
	"github.com/ent0n29/callcoach/internal/httpapi"
	"github.com/ent0n29/callcoach/internal/insight"
	"github.com/ent0n29/callcoach/internal/keywords"
	"github.com/ent0n29/callcoach/internal/observability"
	"github.com/ent0n29/callcoach/internal/relevance"
	"github.com/ent0n29/callcoach/internal/session"
	"github.com/ent0n29/callcoach/internal/summary"
	"github.com/ent0n29/callcoach/internal/voice"
)

type BuildResult struct {
	Config         config.Config
	API            *httpapi.Server
	Service        *coaching.Service
	Sessions       *session.Manager
	Metrics        *observability.Metrics
	ProviderMode   string
	ProviderDetail string
	ArchiveBackend archive.Backend

	// Cleanup should be called on shutdown to release external resources (DB, Redis).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	tables := keywords.Default()
	if cfg.KeywordsFile != "" {
		loaded, err := keywords.Load(cfg.KeywordsFile)
		if err != nil {
			return nil, fmt.Errorf("keywords init failed: %w", err)
		}
		tables = loaded
	}

	providers, err := resolveProviders(cfg, conversation.KeywordPhaseClassifier{Tables: tables}, logger)
	if err != nil {
		return nil, err
	}

	store, backend, err := archive.NewStore(ctx, archive.Options{
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
		TTL:         cfg.ArchiveTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("archive store init failed: %w", err)
	}

	pipeline := insight.NewPipeline(insight.Deps{
		Scorer: relevance.NewScorer(tables, cfg.MinRelevanceScore),
		Cooldown: insight.Cooldown{
			HighRelevance: cfg.CooldownHighRelevance,
			Base:          cfg.CooldownBase,
			AfterInsight:  cfg.CooldownAfterInsight,
			AllowBypass:   cfg.AllowCooldownBypass,
		},
		Generator: insight.LLMGenerator{
			Completer:   providers.insights,
			Model:       cfg.OpenAIInsightModel,
			Temperature: cfg.InsightTemperature,
			MaxTokens:   cfg.InsightMaxTokens,
		},
		Parser:   insight.NewParser(tables),
		Detector: dedupe.NewDetector(detectorConfig(cfg), providers.similarity, logger),
		Concepts: conversation.KeywordConcepts{Tables: tables},
		Observer: metrics,
		Logger:   logger,
	})

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	service := coaching.NewService(coaching.Deps{
		Sessions:    sessions,
		Pipeline:    pipeline,
		Phases:      providers.phases,
		Transcriber: providers.transcriber,
		Onsets:      voice.AmplitudeOnset{Threshold: cfg.OnsetThreshold},
		Silence: voice.SilenceGate{
			RMSThreshold:  cfg.SilenceRMSThreshold,
			PeakThreshold: cfg.OnsetThreshold,
			MinSamples:    cfg.SilenceMinSamples,
		},
		Cleaner:    voice.NewCleaner(tables, cfg.MinTranscriptionLength),
		Summarizer: summary.NewSummarizer(providers.summaries, cfg.OpenAIChatModel, logger),
		Archive:    store,
		RedactPII:  cfg.ArchiveRedactPII,
		StateOptions: conversation.Options{
			MaxContextMessages: cfg.MaxContextMessages,
			MaxInsights:        cfg.MaxInsightsCache,
			Tables:             tables,
		},
		SampleRate: cfg.AudioSampleRate,
		Metrics:    metrics,
		Logger:     logger,
	})

	api := httpapi.New(cfg, service, metrics, httpapi.Status{
		ProviderMode:   providers.resolvedMode,
		ArchiveBackend: string(backend),
	})

	cleanup := func() error {
		var errs []error
		// Sessions still open at shutdown are archived like ended ones.
		for _, id := range sessions.IDs() {
			if _, err := service.EndSession(context.Background(), id); err != nil && !errors.Is(err, session.ErrNotFound) {
				errs = append(errs, err)
			}
		}
		if err := store.Close(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}

	return &BuildResult{
		Config:         cfg,
		API:            api,
		Service:        service,
		Sessions:       sessions,
		Metrics:        metrics,
		ProviderMode:   providers.resolvedMode,
		ProviderDetail: providers.detail,
		ArchiveBackend: backend,
		Cleanup:        cleanup,
	}, nil
}

func detectorConfig(cfg config.Config) dedupe.Config {
	dc := dedupe.DefaultConfig()
	dc.MaxConsecutive = cfg.MaxConsecutiveTitles
	dc.TitleWindow = cfg.TitleRepeatWindow
	dc.TimeThreshold = cfg.DuplicateTimeThreshold
	dc.SemanticThreshold = cfg.SemanticThreshold
	dc.JaccardThreshold = cfg.JaccardThreshold
	return dc
}
