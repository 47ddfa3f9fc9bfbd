package coaching

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/callcoach/internal/archive"
	"github.com/ent0n29/callcoach/internal/audio"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/dedupe"
	"github.com/ent0n29/callcoach/internal/embeddings"
	"github.com/ent0n29/callcoach/internal/insight"
	"github.com/ent0n29/callcoach/internal/llm"
	"github.com/ent0n29/callcoach/internal/session"
	"github.com/ent0n29/callcoach/internal/summary"
	"github.com/ent0n29/callcoach/internal/voice"
)

const painfulTurn = "Honnêtement on a un vrai problème avec la prospection, chaque commercial perd 2h par jour " +
	"à remplir le CRM après les appels. Du coup on rate des relances importantes avec nos meilleurs " +
	"clients chaque semaine, vous voyez le souci ? Vous avez déjà vu ça ailleurs ?"

type fixture struct {
	svc         *Service
	sessions    *session.Manager
	generator   *llm.Mock
	summaries   *llm.Mock
	transcriber *voice.MockTranscriber
	archive     *archive.InMemoryStore
	now         time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

type failingPhases struct{}

func (failingPhases) Classify(context.Context, []conversation.Message) (conversation.Phase, error) {
	return "", errors.New("classifier offline")
}

func newFixture(t *testing.T, phases conversation.PhaseClassifier) *fixture {
	t.Helper()
	f := &fixture{
		sessions:    session.NewManager(time.Minute),
		generator:   &llm.Mock{Answers: []string{"Besoin flou - Creuse le processus actuel"}},
		summaries:   &llm.Mock{},
		transcriber: voice.NewMockTranscriber(),
		archive:     archive.NewInMemoryStore(10),
		now:         time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	pipeline := insight.NewPipeline(insight.Deps{
		Cooldown:  insight.DefaultCooldown(),
		Generator: insight.LLMGenerator{Completer: f.generator},
		Detector:  dedupe.NewDetector(dedupe.DefaultConfig(), embeddings.Lexical{}, nil),
	})
	f.svc = NewService(Deps{
		Sessions:    f.sessions,
		Pipeline:    pipeline,
		Phases:      phases,
		Transcriber: f.transcriber,
		Summarizer:  summary.NewSummarizer(f.summaries, "test-model", nil),
		Archive:     f.archive,
		RedactPII:   true,
		Clock:       func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) start(t *testing.T) string {
	t.Helper()
	resp, err := f.svc.StartSession(session.Config{SalespersonName: "Julie", ClientCompany: "Acme"})
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	return resp.SessionID
}

func TestStartSessionRejectsNegativeCapacities(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.StartSession(session.Config{MaxInsights: -1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("StartSession() error = %v, want ErrInvalidInput", err)
	}
	if f.svc.ActiveSessions() != 0 {
		t.Fatalf("ActiveSessions() = %d, want 0", f.svc.ActiveSessions())
	}
}

func TestStartSessionAppliesCapacityOverrides(t *testing.T) {
	f := newFixture(t, nil)
	resp, err := f.svc.StartSession(session.Config{MaxContextMessages: 2})
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if resp.InactivityTTLMS != time.Minute.Milliseconds() {
		t.Fatalf("InactivityTTLMS = %d", resp.InactivityTTLMS)
	}
	for _, text := range []string{"premier message", "deuxième message", "troisième message"} {
		if _, err := f.svc.AppendUtterance(context.Background(), resp.SessionID, conversation.SpeakerClient, text); err != nil {
			t.Fatalf("AppendUtterance() error = %v", err)
		}
	}
	snap, err := f.svc.GetState(resp.SessionID)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if snap.ContextMessageCount != 2 || snap.TotalMessageCount != 3 {
		t.Fatalf("counts = %d/%d, want 2/3", snap.ContextMessageCount, snap.TotalMessageCount)
	}
}

func TestAppendUtteranceFallsBackToKeywordPhase(t *testing.T) {
	f := newFixture(t, failingPhases{})
	id := f.start(t)

	msg, err := f.svc.AppendUtterance(context.Background(), id, conversation.SpeakerClient, "  "+painfulTurn+"  ")
	if err != nil {
		t.Fatalf("AppendUtterance() error = %v", err)
	}
	if msg.Content != painfulTurn || !msg.At.Equal(f.now) {
		t.Fatalf("message = %+v", msg)
	}
	snap, err := f.svc.GetState(id)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if snap.Phase != conversation.PhaseDiscovery {
		t.Fatalf("Phase = %q, want discovery", snap.Phase)
	}
	if len(snap.PainPoints) == 0 {
		t.Fatalf("PainPoints empty after a pain statement")
	}
}

func TestAppendUtteranceErrors(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)
	if _, err := f.svc.AppendUtterance(context.Background(), id, conversation.SpeakerClient, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("AppendUtterance(blank) error = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.AppendUtterance(context.Background(), "missing", conversation.SpeakerClient, "bonjour"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("AppendUtterance(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestEvaluateAcceptsThenRejectsDuplicate(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)
	ctx := context.Background()
	if _, err := f.svc.AppendUtterance(ctx, id, conversation.SpeakerClient, painfulTurn); err != nil {
		t.Fatalf("AppendUtterance() error = %v", err)
	}

	first, err := f.svc.EvaluateAndMaybeGenerateInsight(ctx, id)
	if err != nil {
		t.Fatalf("EvaluateAndMaybeGenerateInsight() error = %v", err)
	}
	if !first.Accepted {
		t.Fatalf("first outcome = %+v, want accepted", first)
	}
	if first.Transcript != "CLIENT: "+painfulTurn {
		t.Fatalf("Transcript = %q", first.Transcript)
	}

	f.advance(12 * time.Second)
	second, err := f.svc.EvaluateAndMaybeGenerateInsight(ctx, id)
	if err != nil {
		t.Fatalf("EvaluateAndMaybeGenerateInsight() error = %v", err)
	}
	if second.Reason != insight.ReasonDuplicate {
		t.Fatalf("second outcome = %+v, want duplicate", second)
	}

	if _, err := f.svc.EvaluateAndMaybeGenerateInsight(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("EvaluateAndMaybeGenerateInsight(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestEndSessionArchivesRedactedCall(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)
	ctx := context.Background()
	if _, err := f.svc.AppendUtterance(ctx, id, conversation.SpeakerClient, "Écrivez-moi à jean.dupont@acme.fr pour la suite"); err != nil {
		t.Fatalf("AppendUtterance() error = %v", err)
	}
	f.advance(90 * time.Second)

	stats, err := f.svc.EndSession(ctx, id)
	if err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if stats.SessionID != id || stats.DurationSeconds != 90 || stats.TotalMessageCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if _, err := f.svc.GetState(id); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("GetState() after end error = %v, want ErrNotFound", err)
	}

	rec, err := f.svc.GetArchived(ctx, id)
	if err != nil {
		t.Fatalf("GetArchived() error = %v", err)
	}
	if !rec.PIIRedacted || strings.Contains(rec.Transcript[0].Content, "jean.dupont@acme.fr") {
		t.Fatalf("archived transcript not redacted: %+v", rec.Transcript)
	}
	if rec.Config.ClientCompany != "Acme" {
		t.Fatalf("archived config = %+v", rec.Config)
	}
	list, err := f.svc.ListArchived(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListArchived() = %d, %v", len(list), err)
	}
}

func TestSummarizeLiveAndArchived(t *testing.T) {
	f := newFixture(t, nil)
	f.summaries.Answers = []string{"```json\n" + `{"summary":"Échange cordial","strengths":["écoute"],"weaknesses":[],` +
		`"ratings":{"politeness":8,"listening":7,"persuasion":5,"clarity":6,"objection_handling":4,"overall":6}}` + "\n```"}
	id := f.start(t)
	ctx := context.Background()

	if _, err := f.svc.Summarize(ctx, id, summary.FocusClient); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Summarize(empty) error = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.AppendUtterance(ctx, id, conversation.SpeakerSalesperson, "Comment gérez-vous vos relances aujourd'hui ?"); err != nil {
		t.Fatalf("AppendUtterance() error = %v", err)
	}
	res, err := f.svc.Summarize(ctx, id, summary.FocusSalesperson)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if res.Fallback || res.Salesperson == nil || res.Salesperson.Ratings.Politeness != 8 {
		t.Fatalf("Summarize() = %+v", res)
	}

	if _, err := f.svc.EndSession(ctx, id); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	archived, err := f.svc.SummarizeArchived(ctx, id, summary.FocusSalesperson)
	if err != nil {
		t.Fatalf("SummarizeArchived() error = %v", err)
	}
	if archived.Salesperson == nil {
		t.Fatalf("SummarizeArchived() = %+v", archived)
	}
	if _, err := f.svc.SummarizeArchived(ctx, "missing", summary.FocusClient); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("SummarizeArchived(unknown) error = %v, want archive.ErrNotFound", err)
	}
}

func TestGetInsightHistory(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)
	ctx := context.Background()
	if _, err := f.svc.AppendUtterance(ctx, id, conversation.SpeakerClient, painfulTurn); err != nil {
		t.Fatalf("AppendUtterance() error = %v", err)
	}
	if out, err := f.svc.EvaluateAndMaybeGenerateInsight(ctx, id); err != nil || !out.Accepted {
		t.Fatalf("EvaluateAndMaybeGenerateInsight() = %+v, %v", out, err)
	}
	f.advance(75 * time.Second)

	h, err := f.svc.GetInsightHistory(id)
	if err != nil {
		t.Fatalf("GetInsightHistory() error = %v", err)
	}
	if h.TotalInsights != 1 || len(h.Insights) != 1 {
		t.Fatalf("history = %+v", h)
	}
	entry := h.Insights[0]
	if entry.Index != 1 || entry.Title != "Besoin flou" || entry.SecondsElapsed != 75 || !entry.IsOld {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.TimeAgo != "1min 15s ago" {
		t.Fatalf("TimeAgo = %q", entry.TimeAgo)
	}
	if h.Stats.ByAge["old"] != 1 || h.Stats.ByType[conversation.InsightProgression] != 1 {
		t.Fatalf("stats = %+v", h.Stats)
	}
	if h.Stats.InsightsPerMessage != 1 || h.Stats.Decisions["accepted"] != 1 {
		t.Fatalf("stats = %+v", h.Stats)
	}
}

func TestBuildHistoryTopConceptsBounded(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	snap := conversation.Snapshot{
		TotalMessageCount: 4,
		Insights: []conversation.InsightRecord{
			{Title: "a", Type: conversation.InsightAlert, Concepts: []string{"pricing", "budget", "roi"}, At: now.Add(-10 * time.Second)},
			{Title: "b", Type: conversation.InsightOpportunity, Concepts: []string{"pricing", "demo", "timing"}, At: now.Add(-5 * time.Second)},
			{Title: "c", Type: conversation.InsightAlert, Concepts: []string{"pricing", "team"}, At: now},
		},
	}
	h := buildHistory("s1", snap, now)
	if len(h.Stats.TopConcepts) != 5 {
		t.Fatalf("len(TopConcepts) = %d, want 5", len(h.Stats.TopConcepts))
	}
	if top := h.Stats.TopConcepts[0]; top.Concept != "pricing" || top.Count != 3 {
		t.Fatalf("top concept = %+v", top)
	}
	if h.Stats.ByType[conversation.InsightAlert] != 2 || h.Stats.ByAge["recent"] != 3 {
		t.Fatalf("stats = %+v", h.Stats)
	}
	if h.Stats.InsightsPerMessage != 0.75 {
		t.Fatalf("InsightsPerMessage = %v, want 0.75", h.Stats.InsightsPerMessage)
	}
	if h.Insights[2].TimeAgo != "0s ago" {
		t.Fatalf("TimeAgo = %q", h.Insights[2].TimeAgo)
	}
}

func TestExpiredSessionsAreArchived(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)
	ended, err := f.sessions.End(id)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	ended.Expired = true
	f.svc.handleExpired(ended)

	rec, err := f.archive.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("archive Get() error = %v", err)
	}
	if !rec.Stats.Expired {
		t.Fatalf("archived stats = %+v, want expired", rec.Stats)
	}
}

// tone returns n samples of silence followed by m samples of a loud square wave.
func tone(silence, loud int) []byte {
	samples := make([]int16, silence+loud)
	for i := silence; i < len(samples); i++ {
		if i%2 == 0 {
			samples[i] = 4000
		} else {
			samples[i] = -4000
		}
	}
	return audio.EncodePCM16LE(samples)
}
