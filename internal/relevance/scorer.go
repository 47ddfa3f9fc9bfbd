// Package relevance scores the conversation tail to decide whether a new
// coaching insight is worth requesting.
package relevance

import (
	"fmt"
	"strings"
	"time"

	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/keywords"
)

const (
	// TailMessages is how many trailing context messages form the scored tail.
	TailMessages = 3
	// DefaultMinScore is the score at which generation is requested.
	DefaultMinScore = 60
	// MinTailChars is the shortest tail that can score above zero.
	MinTailChars = 10

	keyMomentPoints   = 40
	pillarPoints      = 30
	longTailPoints    = 20
	mediumTailPoints  = 10
	staleInsightBonus = 15
	agedInsightBonus  = 8
	phasePoints       = 10
	noisePenalty      = 20
	questionPoints    = 15

	// neverElapsed stands in for "no insight yet".
	neverElapsed = 999 * time.Second
)

// Input is everything the scorer looks at.
type Input struct {
	Tail          string
	Pillars       []conversation.Pillar
	LastInsightAt time.Time
	Phase         conversation.Phase
	Now           time.Time
}

// Result is the scorer verdict.
type Result struct {
	Score          int      `json:"score"`
	Triggers       []string `json:"triggers"`
	ShouldGenerate bool     `json:"should_generate"`
	// KeyMoment is set when a category keyword fired; it forces generation.
	KeyMoment bool `json:"key_moment"`
}

// Scorer is a deterministic additive point model.
type Scorer struct {
	tables   *keywords.Tables
	minScore int
}

// NewScorer builds a scorer. A nil tables uses the defaults; minScore <= 0
// uses DefaultMinScore.
func NewScorer(tables *keywords.Tables, minScore int) *Scorer {
	if tables == nil {
		tables = keywords.Default()
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Scorer{tables: tables, minScore: minScore}
}

// MinScore returns the generation threshold.
func (s *Scorer) MinScore() int { return s.minScore }

// Score evaluates in. It has no side effects.
func (s *Scorer) Score(in Input) Result {
	text := strings.ToLower(strings.TrimSpace(in.Tail))
	if len([]rune(text)) < MinTailChars {
		return Result{Triggers: []string{}}
	}

	score := 0
	triggers := []string{}
	keyMoment := false

	for _, c := range keywords.Categories {
		if phrase, ok := keywords.FirstMatch(text, s.tables.CategoryPhrases(c)); ok {
			score += keyMomentPoints
			keyMoment = true
			triggers = append(triggers, fmt.Sprintf("%s:%s", c, phrase))
			break
		}
	}

	for _, p := range in.Pillars {
		if p.Status != conversation.PillarNotStarted {
			continue
		}
		if phrase, ok := keywords.FirstMatch(text, s.tables.PillarPhrases(p.ID)); ok {
			score += pillarPoints
			triggers = append(triggers, fmt.Sprintf("pillar_%d:%s", p.ID, phrase))
			break
		}
	}

	switch words := len(strings.Fields(text)); {
	case words > 30:
		score += longTailPoints
		triggers = append(triggers, "long_tail")
	case words > 15:
		score += mediumTailPoints
		triggers = append(triggers, "medium_tail")
	}

	elapsed := neverElapsed
	if !in.LastInsightAt.IsZero() {
		elapsed = in.Now.Sub(in.LastInsightAt)
	}
	switch {
	case elapsed > 60*time.Second:
		score += staleInsightBonus
		triggers = append(triggers, "insight_stale")
	case elapsed > 30*time.Second:
		score += agedInsightBonus
		triggers = append(triggers, "insight_aged")
	}

	switch in.Phase {
	case conversation.PhaseDiscovery, conversation.PhaseNegotiation, conversation.PhaseClosing:
		score += phasePoints
		triggers = append(triggers, "phase:"+string(in.Phase))
	}

	if keywords.CountMatches(text, s.tables.Noise()) > 3 {
		score -= noisePenalty
		triggers = append(triggers, "noise")
	}

	if strings.Count(text, "?") >= 2 {
		score += questionPoints
		triggers = append(triggers, "questions")
	}

	score = max(0, min(100, score))
	return Result{
		Score:          score,
		Triggers:       triggers,
		ShouldGenerate: score >= s.minScore || keyMoment,
		KeyMoment:      keyMoment,
	}
}
