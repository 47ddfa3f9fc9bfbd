// Package coaching exposes the per-call operations: session lifecycle,
// utterance intake, insight evaluation, audio chunks and summaries.
package coaching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ent0n29/callcoach/internal/archive"
	"github.com/ent0n29/callcoach/internal/audio"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/insight"
	"github.com/ent0n29/callcoach/internal/observability"
	"github.com/ent0n29/callcoach/internal/session"
	"github.com/ent0n29/callcoach/internal/summary"
	"github.com/ent0n29/callcoach/internal/voice"
)

// ErrInvalidInput marks requests rejected before any state is touched.
var ErrInvalidInput = errors.New("invalid input")

// Deps wires a Service. Sessions, Pipeline and Transcriber are required;
// the rest fall back to defaults.
type Deps struct {
	Sessions    *session.Manager
	Pipeline    *insight.Pipeline
	Phases      conversation.PhaseClassifier
	Transcriber voice.Transcriber
	Onsets      voice.OnsetDetector
	Silence     voice.SilenceGate
	Cleaner     *voice.Cleaner
	Summarizer  *summary.Summarizer
	Archive     archive.Store
	RedactPII   bool

	StateOptions conversation.Options
	SampleRate   int

	Metrics *observability.Metrics
	Logger  *slog.Logger
	Clock   func() time.Time
}

type Service struct {
	sessions      *session.Manager
	pipeline      *insight.Pipeline
	phases        conversation.PhaseClassifier
	keywordPhases conversation.KeywordPhaseClassifier
	transcriber   voice.Transcriber
	onsets        voice.OnsetDetector
	silence       voice.SilenceGate
	cleaner       *voice.Cleaner
	summarizer    *summary.Summarizer
	archive       archive.Store
	redactPII     bool
	stateOpts     conversation.Options
	sampleRate    int
	metrics       *observability.Metrics
	logger        *slog.Logger
	now           func() time.Time
}

// NewService builds the service and registers the session expire hook so
// idle calls are archived like ended ones.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	keywordPhases := conversation.KeywordPhaseClassifier{Tables: d.StateOptions.Tables}
	if d.Phases == nil {
		d.Phases = keywordPhases
	}
	if d.Onsets == nil {
		d.Onsets = voice.AmplitudeOnset{Threshold: voice.DefaultOnsetThreshold}
	}
	if d.Silence == (voice.SilenceGate{}) {
		d.Silence = voice.DefaultSilenceGate()
	}
	if d.Cleaner == nil {
		d.Cleaner = voice.NewCleaner(d.StateOptions.Tables, 0)
	}
	if d.Summarizer == nil {
		d.Summarizer = summary.NewSummarizer(nil, "", d.Logger)
	}
	if d.Archive == nil {
		d.Archive = archive.NewInMemoryStore(archive.DefaultCapacity)
	}
	if d.SampleRate <= 0 {
		d.SampleRate = audio.DefaultSampleRate
	}
	s := &Service{
		sessions:      d.Sessions,
		pipeline:      d.Pipeline,
		phases:        d.Phases,
		keywordPhases: keywordPhases,
		transcriber:   d.Transcriber,
		onsets:        d.Onsets,
		silence:       d.Silence,
		cleaner:       d.Cleaner,
		summarizer:    d.Summarizer,
		archive:       d.Archive,
		redactPII:     d.RedactPII,
		stateOpts:     d.StateOptions,
		sampleRate:    d.SampleRate,
		metrics:       d.Metrics,
		logger:        d.Logger,
		now:           d.Clock,
	}
	s.sessions.SetExpireHook(s.handleExpired)
	return s
}

// StartSession opens a call. Positive capacities in cfg override the
// service defaults for this call only.
func (s *Service) StartSession(cfg session.Config) (session.CreateResponse, error) {
	if cfg.MaxContextMessages < 0 || cfg.MaxInsights < 0 {
		return session.CreateResponse{}, fmt.Errorf("%w: capacities must not be negative", ErrInvalidInput)
	}
	opts := s.stateOpts
	if cfg.MaxContextMessages > 0 {
		opts.MaxContextMessages = cfg.MaxContextMessages
	}
	if cfg.MaxInsights > 0 {
		opts.MaxInsights = cfg.MaxInsights
	}
	info := s.sessions.Create(cfg, conversation.NewState(opts, s.now()))
	s.metrics.SessionStarted()
	s.logger.Info("call session started", "session_id", info.ID, "salesperson", cfg.SalespersonName, "client_company", cfg.ClientCompany)
	return session.CreateResponse{
		SessionID:       info.ID,
		StartedAt:       info.StartedAt,
		InactivityTTLMS: s.sessions.InactivityTimeout().Milliseconds(),
	}, nil
}

// EndSession removes the call, archives it and returns its statistics.
// Archive failures are logged only.
func (s *Service) EndSession(ctx context.Context, sessionID string) (summary.Stats, error) {
	ended, err := s.sessions.End(sessionID)
	if err != nil {
		return summary.Stats{}, err
	}
	stats := summary.NewStats(ended.ID, ended.State, s.now())
	s.metrics.SessionEnded(false)
	s.store(ctx, ended, stats)
	s.logger.Info("call session ended",
		"session_id", ended.ID,
		"duration_seconds", stats.DurationSeconds,
		"insights", stats.InsightCount,
		"final_phase", stats.FinalPhase,
	)
	return stats, nil
}

func (s *Service) handleExpired(ended session.Ended) {
	stats := summary.NewStats(ended.ID, ended.State, ended.EndedAt)
	stats.Expired = true
	s.metrics.SessionEnded(true)
	s.store(context.Background(), ended, stats)
	s.logger.Info("call session expired", "session_id", ended.ID, "idle_since", ended.LastActivityAt)
}

func (s *Service) store(ctx context.Context, ended session.Ended, stats summary.Stats) {
	rec := archive.NewRecord(ended, stats, s.redactPII)
	if err := s.archive.Save(ctx, rec); err != nil {
		s.metrics.CollaboratorFailed("archive")
		s.logger.Warn("archive ended call failed", "session_id", ended.ID, "error", err)
	}
}

// AppendUtterance records one message and refreshes the phase.
func (s *Service) AppendUtterance(ctx context.Context, sessionID string, role conversation.Speaker, text string) (conversation.Message, error) {
	if strings.TrimSpace(text) == "" {
		return conversation.Message{}, fmt.Errorf("%w: empty utterance", ErrInvalidInput)
	}
	var msg conversation.Message
	err := s.sessions.With(sessionID, func(state *conversation.State) error {
		var err error
		msg, err = s.append(ctx, sessionID, state, role, text)
		return err
	})
	return msg, err
}

func (s *Service) append(ctx context.Context, sessionID string, state *conversation.State, role conversation.Speaker, text string) (conversation.Message, error) {
	msg := conversation.Message{Role: role, Content: text, At: s.now()}
	if err := state.Append(msg); err != nil {
		return conversation.Message{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.refreshPhase(ctx, sessionID, state)
	msgs := state.Recent(1)
	return msgs[0], nil
}

// refreshPhase asks the configured classifier for the phase and falls back
// to the keyword heuristic when it fails.
func (s *Service) refreshPhase(ctx context.Context, sessionID string, state *conversation.State) {
	started := time.Now()
	recent := state.Recent(conversation.ClassifierWindow)
	phase, err := s.phases.Classify(ctx, recent)
	s.metrics.ObserveDuration(observability.StagePhase, time.Since(started))
	if err != nil {
		s.metrics.CollaboratorFailed("phase_classifier")
		s.logger.Warn("phase classification failed", "session_id", sessionID, "error", err)
		phase, _ = s.keywordPhases.Classify(ctx, recent)
	}
	state.SetPhase(phase)
}

// EvaluateAndMaybeGenerateInsight runs one admission cycle on the current
// conversation. The outcome echoes the latest utterance.
func (s *Service) EvaluateAndMaybeGenerateInsight(ctx context.Context, sessionID string) (insight.Outcome, error) {
	var out insight.Outcome
	err := s.sessions.With(sessionID, func(state *conversation.State) error {
		transcript := ""
		if last := state.Recent(1); len(last) == 1 {
			transcript = last[0].Line()
		}
		out = s.evaluate(ctx, sessionID, state, transcript)
		return nil
	})
	return out, err
}

func (s *Service) evaluate(ctx context.Context, sessionID string, state *conversation.State, transcript string) insight.Outcome {
	out := s.pipeline.Evaluate(ctx, state, transcript, s.now())
	if out.Accepted {
		s.logger.Info("insight accepted", "session_id", sessionID, "title", out.Insight.Title, "type", out.Insight.Type, "score", out.Relevance.Score)
	} else {
		s.logger.Debug("insight rejected", "session_id", sessionID, "reason", out.Reason, "score", out.Relevance.Score, "triggers", out.Relevance.Triggers)
	}
	return out
}

// GetState returns a snapshot of the call.
func (s *Service) GetState(sessionID string) (conversation.Snapshot, error) {
	var snap conversation.Snapshot
	err := s.sessions.With(sessionID, func(state *conversation.State) error {
		snap = state.Snapshot()
		return nil
	})
	return snap, err
}

// Summarize reviews a live call. The model call runs outside the session
// lock on a copy of the transcript.
func (s *Service) Summarize(ctx context.Context, sessionID string, focus summary.Focus) (summary.Result, error) {
	var transcript string
	err := s.sessions.With(sessionID, func(state *conversation.State) error {
		transcript = summary.Transcript(state.Transcript())
		return nil
	})
	if err != nil {
		return summary.Result{}, err
	}
	return s.summarize(ctx, focus, transcript)
}

// SummarizeArchived reviews an ended call from the archive.
func (s *Service) SummarizeArchived(ctx context.Context, callID string, focus summary.Focus) (summary.Result, error) {
	rec, err := s.archive.Get(ctx, callID)
	if err != nil {
		return summary.Result{}, err
	}
	return s.summarize(ctx, focus, summary.Transcript(rec.Transcript))
}

func (s *Service) summarize(ctx context.Context, focus summary.Focus, transcript string) (summary.Result, error) {
	res, err := s.summarizer.Summarize(ctx, focus, transcript)
	if errors.Is(err, summary.ErrEmptyTranscript) {
		return summary.Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err != nil {
		return summary.Result{}, err
	}
	if res.Fallback {
		s.metrics.CollaboratorFailed("summarizer")
	}
	return res, nil
}

func (s *Service) ListArchived(ctx context.Context, limit int) ([]archive.Record, error) {
	return s.archive.List(ctx, limit)
}

func (s *Service) GetArchived(ctx context.Context, callID string) (archive.Record, error) {
	return s.archive.Get(ctx, callID)
}

func (s *Service) ActiveSessions() int {
	return s.sessions.ActiveCount()
}
