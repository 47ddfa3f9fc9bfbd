package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/llm"
)

// ErrEmptyTranscript is returned when there is nothing to summarize.
var ErrEmptyTranscript = errors.New("no conversation recorded")

// Focus selects whose side of the call a summary reviews.
type Focus string

const (
	FocusClient      Focus = "client"
	FocusSalesperson Focus = "salesperson"
)

// ParseFocus accepts client or salesperson (and commercial); empty means client.
func ParseFocus(s string) (Focus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "client":
		return FocusClient, nil
	case "salesperson", "commercial", "seller":
		return FocusSalesperson, nil
	default:
		return "", fmt.Errorf("unknown summary focus %q", s)
	}
}

// ClientSummary reviews the call from the client's side.
type ClientSummary struct {
	Summary struct {
		Main    string `json:"main"`
		Details string `json:"details"`
	} `json:"summary"`
	NextActions NextActions `json:"next_actions"`
	KeyPoints   KeyPoints   `json:"key_points"`
}

type NextActions struct {
	Priority string   `json:"priority"`
	Actions  []Action `json:"actions"`
	FollowUp string   `json:"follow_up"`
}

type Action struct {
	Action   string `json:"action"`
	Deadline string `json:"deadline"`
	Reason   string `json:"reason"`
}

type KeyPoints struct {
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Improvements []string `json:"improvements"`
	Score        struct {
		Value   float64 `json:"value"`
		Comment string  `json:"comment"`
	} `json:"score"`
}

// SalespersonSummary rates the salesperson.
type SalespersonSummary struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Ratings    Ratings  `json:"ratings"`
}

// Ratings are marks out of 10.
type Ratings struct {
	Politeness        float64 `json:"politeness"`
	Listening         float64 `json:"listening"`
	Persuasion        float64 `json:"persuasion"`
	Clarity           float64 `json:"clarity"`
	ObjectionHandling float64 `json:"objection_handling"`
	Overall           float64 `json:"overall"`
}

// Result carries exactly one of Client or Salesperson.
type Result struct {
	Focus       Focus               `json:"focus"`
	Client      *ClientSummary      `json:"client,omitempty"`
	Salesperson *SalespersonSummary `json:"salesperson,omitempty"`
	Fallback    bool                `json:"fallback"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Summarizer asks a chat model for call reviews. Failures yield a fixed
// fallback review instead of an error.
type Summarizer struct {
	completer llm.Completer
	model     string
	logger    *slog.Logger
	now       func() time.Time
}

func NewSummarizer(completer llm.Completer, model string, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		completer: completer,
		model:     model,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Transcript renders messages as one labelled line each.
func Transcript(msgs []conversation.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Line())
	}
	return strings.Join(lines, "\n")
}

// Summarize reviews transcript with the given focus.
func (s *Summarizer) Summarize(ctx context.Context, focus Focus, transcript string) (Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return Result{}, ErrEmptyTranscript
	}
	res := Result{Focus: focus, GeneratedAt: s.now()}
	switch focus {
	case FocusSalesperson:
		var out SalespersonSummary
		res.Fallback = !s.ask(ctx, fmt.Sprintf(salespersonPrompt, transcript), 0.25, 500, &out)
		if res.Fallback {
			out = SalespersonSummary{Strengths: []string{}, Weaknesses: []string{}}
		}
		res.Salesperson = &out
	default:
		res.Focus = FocusClient
		var out ClientSummary
		res.Fallback = !s.ask(ctx, fmt.Sprintf(clientPrompt, transcript), 0.3, 900, &out)
		if res.Fallback {
			out = fallbackClientSummary()
		}
		res.Client = &out
	}
	return res, nil
}

func (s *Summarizer) ask(ctx context.Context, prompt string, temperature float64, maxTokens int, v any) bool {
	if s.completer == nil {
		return false
	}
	answer, err := s.completer.Complete(ctx, llm.Request{
		Model:       s.model,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		JSON:        true,
	})
	if err != nil {
		s.logger.Warn("summary generation failed", "error", err)
		return false
	}
	if err := llm.DecodeJSON(answer, v); err != nil {
		s.logger.Warn("summary answer is not valid JSON", "error", err)
		return false
	}
	return true
}

func fallbackClientSummary() ClientSummary {
	var out ClientSummary
	out.Summary.Main = "Non disponible"
	out.Summary.Details = "Résumé non disponible"
	out.NextActions = NextActions{Priority: "medium", Actions: []Action{}, FollowUp: "Non disponible"}
	out.KeyPoints = KeyPoints{Strengths: []string{}, Weaknesses: []string{}, Improvements: []string{}}
	out.KeyPoints.Score.Comment = "Non évalué"
	return out
}
