package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/llm"
)

func TestParseFocus(t *testing.T) {
	cases := map[string]Focus{"": FocusClient, "Client": FocusClient, "salesperson": FocusSalesperson, "commercial": FocusSalesperson}
	for in, want := range cases {
		got, err := ParseFocus(in)
		if err != nil || got != want {
			t.Fatalf("ParseFocus(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFocus("manager"); err == nil {
		t.Fatalf("ParseFocus(manager) error = nil, want error")
	}
}

func TestSummarizeClientFocus(t *testing.T) {
	mock := &llm.Mock{Answers: []string{"```json\n" + `{"summary":{"main":"Client intéressé","details":"Besoin de gain de temps"},` +
		`"next_actions":{"priority":"high","actions":[{"action":"Envoyer la démo","deadline":"48h","reason":"Intérêt fort"}],"follow_up":"Relance vendredi"},` +
		`"key_points":{"strengths":["Écoute"],"weaknesses":[],"improvements":["Chiffrer l'impact"],"score":{"value":15,"comment":"Bon appel"}}}` + "\n```"}}
	s := NewSummarizer(mock, "gpt-4o-mini", nil)

	res, err := s.Summarize(context.Background(), FocusClient, "CLIENT: on perd du temps")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if res.Fallback || res.Client == nil || res.Salesperson != nil {
		t.Fatalf("Summarize() = %+v", res)
	}
	if res.Client.Summary.Main != "Client intéressé" || res.Client.NextActions.Actions[0].Deadline != "48h" || res.Client.KeyPoints.Score.Value != 15 {
		t.Fatalf("client summary = %+v", res.Client)
	}
	req := mock.Requests()[0]
	if !req.JSON || req.MaxTokens != 900 || !strings.Contains(req.Prompt, "CLIENT: on perd du temps") {
		t.Fatalf("request = %+v", req)
	}
}

func TestSummarizeSalespersonFallbacks(t *testing.T) {
	cases := map[string]*llm.Mock{
		"error":   {Err: errors.New("timeout")},
		"garbage": {Answers: []string{"pas du json"}},
	}
	for name, mock := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewSummarizer(mock, "gpt-4o-mini", nil)
			res, err := s.Summarize(context.Background(), FocusSalesperson, "COMMERCIAL: bonjour")
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			if !res.Fallback || res.Salesperson == nil || res.Salesperson.Ratings.Overall != 0 {
				t.Fatalf("Summarize() = %+v, want fallback", res)
			}
		})
	}
}

func TestSummarizeEmptyTranscript(t *testing.T) {
	s := NewSummarizer(&llm.Mock{}, "m", nil)
	if _, err := s.Summarize(context.Background(), FocusClient, "  "); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("Summarize() error = %v, want ErrEmptyTranscript", err)
	}
}

func TestNewStats(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	state := conversation.NewState(conversation.Options{}, start)
	_ = state.Append(conversation.Message{Role: conversation.SpeakerClient, Content: "On a un vrai problème de suivi des relances clients.", At: start})
	state.CommitInsight(conversation.InsightRecord{Title: "Suivi", Text: "Suivi - Creuse", At: start})
	state.RecordDecision("accepted")

	stats := NewStats("abc", state, start.Add(90*time.Second))
	if stats.DurationSeconds != 90 || stats.TotalMessageCount != 1 || stats.InsightCount != 1 {
		t.Fatalf("NewStats() = %+v", stats)
	}
	if len(stats.PainPointsIdentified) != 1 || stats.Decisions["accepted"] != 1 {
		t.Fatalf("NewStats() = %+v", stats)
	}
	if stats.FinalPhase != conversation.PhaseIntroduction {
		t.Fatalf("FinalPhase = %q", stats.FinalPhase)
	}
}
