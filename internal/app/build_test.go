package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ent0n29/callcoach/internal/archive"
	"github.com/ent0n29/callcoach/internal/config"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/llm"
	"github.com/ent0n29/callcoach/internal/session"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		ProviderMode:             "mock",
		MetricsNamespace:         "test_app_" + filepath.Base(t.Name()),
		SessionInactivityTimeout: time.Minute,
		MinRelevanceScore:        60,
		CooldownHighRelevance:    10 * time.Second,
		CooldownBase:             20 * time.Second,
		CooldownAfterInsight:     25 * time.Second,
		AllowCooldownBypass:      true,
		DuplicateTimeThreshold:   30 * time.Second,
		TitleRepeatWindow:        30 * time.Second,
		SemanticThreshold:        0.85,
		JaccardThreshold:         0.7,
		MaxConsecutiveTitles:     1,
		MaxContextMessages:       50,
		MaxInsightsCache:         5,
		OnsetThreshold:           500,
		SilenceRMSThreshold:      200,
		SilenceMinSamples:        1600,
		MinTranscriptionLength:   2,
		AudioSampleRate:          16000,
		ArchiveRedactPII:         true,
	}
}

func TestBuildMockMode(t *testing.T) {
	res, err := Build(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.ProviderMode != "mock" || res.ArchiveBackend != archive.BackendMemory {
		t.Fatalf("Build() mode = %q backend = %q", res.ProviderMode, res.ArchiveBackend)
	}

	ts := httptest.NewServer(res.API.Router())
	defer ts.Close()
	hres, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	hres.Body.Close()
	if hres.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", hres.StatusCode)
	}

	created, err := res.Service.StartSession(session.Config{ClientCompany: "Acme"})
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if res.Sessions.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() after cleanup = %d, want 0", res.Sessions.ActiveCount())
	}
	if _, err := res.Service.GetArchived(context.Background(), created.SessionID); err != nil {
		t.Fatalf("GetArchived() after cleanup error = %v", err)
	}
}

func TestBuildLoadsKeywordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	if err := os.WriteFile(path, []byte("not: [valid"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg := testConfig(t)
	cfg.KeywordsFile = path
	if _, err := Build(context.Background(), cfg, nil); err == nil {
		t.Fatalf("Build() with malformed keywords file should fail")
	}
}

func TestMockProvidersRotateInsights(t *testing.T) {
	p := mockProviders(conversation.KeywordPhaseClassifier{})
	seen := map[string]bool{}
	for range mockInsights {
		answer, err := p.insights.Complete(context.Background(), llm.Request{})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		seen[answer] = true
	}
	if len(seen) != len(mockInsights) {
		t.Fatalf("distinct answers = %d, want %d", len(seen), len(mockInsights))
	}
	if p.summaries != nil {
		t.Fatalf("mock summaries completer should be nil")
	}
}
