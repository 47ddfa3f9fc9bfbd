package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/callcoach/internal/keywords"
	"github.com/ent0n29/callcoach/internal/llm"
)

const (
	// ClassifierWindow is how many trailing messages a classifier sees.
	ClassifierWindow   = 8
	keywordPhaseWindow = 5
)

// PhaseClassifier maps recent messages to a call phase.
type PhaseClassifier interface {
	Classify(ctx context.Context, recent []Message) (Phase, error)
}

// KeywordPhaseClassifier counts phase trigger phrases in the last few
// messages. It never fails and is the fallback for remote classifiers.
type KeywordPhaseClassifier struct {
	Tables *keywords.Tables
}

// Classify implements PhaseClassifier.
func (k KeywordPhaseClassifier) Classify(_ context.Context, recent []Message) (Phase, error) {
	return k.classify(recent), nil
}

func (k KeywordPhaseClassifier) classify(recent []Message) Phase {
	if len(recent) == 0 {
		return PhaseIntroduction
	}
	if len(recent) > keywordPhaseWindow {
		recent = recent[len(recent)-keywordPhaseWindow:]
	}
	tables := k.Tables
	if tables == nil {
		tables = keywords.Default()
	}
	text := joinLower(recent)
	best, bestScore := PhaseDiscovery, 0
	for _, p := range Phases {
		if score := keywords.CountMatches(text, tables.PhasePhrases(string(p))); score > bestScore {
			best, bestScore = p, score
		}
	}
	return best
}

const phasePrompt = `Analyse cette conversation commerciale et détermine la phase actuelle de vente.

DERNIERS ÉCHANGES:
%s

Réponds UNIQUEMENT avec l'une de ces phases (un seul mot):
- introduction (prise de contact initial, présentations)
- discovery (découverte des besoins, questions sur les problèmes)
- presentation (présentation de la solution, fonctionnalités)
- negotiation (discussion sur le prix, budget, ROI)
- closing (demande de démo, prochaines étapes, signature)

Phase:`

// LLMPhaseClassifier asks a chat model for the phase. Answers outside the
// enumeration map to discovery; transport errors are returned so the caller
// can fall back to KeywordPhaseClassifier.
type LLMPhaseClassifier struct {
	Completer llm.Completer
	Model     string
}

// Classify implements PhaseClassifier.
func (c LLMPhaseClassifier) Classify(ctx context.Context, recent []Message) (Phase, error) {
	if len(recent) == 0 {
		return PhaseIntroduction, nil
	}
	if len(recent) > ClassifierWindow {
		recent = recent[len(recent)-ClassifierWindow:]
	}
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		lines = append(lines, m.Line())
	}
	answer, err := c.Completer.Complete(ctx, llm.Request{
		Model:       c.Model,
		Prompt:      fmt.Sprintf(phasePrompt, strings.Join(lines, "\n")),
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		return "", fmt.Errorf("classify phase: %w", err)
	}
	if p, ok := ParsePhase(answer); ok {
		return p, nil
	}
	return PhaseDiscovery, nil
}
