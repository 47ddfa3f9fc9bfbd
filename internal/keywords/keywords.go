// Package keywords holds the fixed trigger-phrase tables used to score,
// classify and annotate conversations. Tables are built once at startup and
// never mutated afterwards; accessors hand out copies.
package keywords

import (
	"slices"
	"strings"
)

// Category is one of the fixed relevance keyword families.
type Category string

const (
	CategoryPain      Category = "pain"
	CategoryObjection Category = "objection"
	CategoryBuySignal Category = "buy_signal"
	CategoryDecision  Category = "decision"
	CategoryImpact    Category = "impact"
)

// Categories lists relevance categories in match priority order.
var Categories = []Category{
	CategoryPain,
	CategoryObjection,
	CategoryBuySignal,
	CategoryDecision,
	CategoryImpact,
}

// PillarIDs lists discovery pillars in evaluation order.
var PillarIDs = []int{1, 2, 3, 4, 5}

// PhaseNames lists conversation phases in tie-break order.
var PhaseNames = []string{"introduction", "discovery", "presentation", "negotiation", "closing"}

// Concept is a named tag with the phrases that attach it to a text.
type Concept struct {
	Name     string
	Patterns []string
}

// Tables is the immutable set of trigger phrases.
type Tables struct {
	categories           map[Category][]string
	noise                []string
	pillars              map[int][]string
	painTriggers         []string
	phases               map[string][]string
	concepts             []Concept
	alertWords           []string
	opportunityWords     []string
	unwanted             []string
	hallucinationWords   []string
	hallucinationPhrases []string
}

// CategoryPhrases returns the trigger phrases of a relevance category.
func (t *Tables) CategoryPhrases(c Category) []string {
	return slices.Clone(t.categories[c])
}

// Noise returns the filler token stoplist.
func (t *Tables) Noise() []string { return slices.Clone(t.noise) }

// PillarPhrases returns the trigger phrases of a pillar.
func (t *Tables) PillarPhrases(id int) []string { return slices.Clone(t.pillars[id]) }

// PainTriggers returns the phrases marking a sentence as a pain point.
func (t *Tables) PainTriggers() []string { return slices.Clone(t.painTriggers) }

// PhasePhrases returns the fallback classifier patterns for a phase.
func (t *Tables) PhasePhrases(phase string) []string { return slices.Clone(t.phases[phase]) }

// Concepts returns the concept taxonomy in declaration order.
func (t *Tables) Concepts() []Concept {
	out := make([]Concept, len(t.concepts))
	for i, c := range t.concepts {
		out[i] = Concept{Name: c.Name, Patterns: slices.Clone(c.Patterns)}
	}
	return out
}

// AlertWords returns words that mark an insight as an alert when no explicit marker is present.
func (t *Tables) AlertWords() []string { return slices.Clone(t.alertWords) }

// OpportunityWords returns words that mark an insight as an opportunity.
func (t *Tables) OpportunityWords() []string { return slices.Clone(t.opportunityWords) }

// UnwantedTranscripts returns caption artifacts that void a transcription.
func (t *Tables) UnwantedTranscripts() []string { return slices.Clone(t.unwanted) }

// HallucinationWords returns video-platform words; two or more in one transcript void it.
func (t *Tables) HallucinationWords() []string { return slices.Clone(t.hallucinationWords) }

// HallucinationPhrases returns phrases that void a transcript on their own.
func (t *Tables) HallucinationPhrases() []string { return slices.Clone(t.hallucinationPhrases) }

// FirstMatch returns the first phrase contained in text. text is expected lowercase.
func FirstMatch(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

// CountMatches counts the phrases contained in text. text is expected lowercase.
func CountMatches(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			n++
		}
	}
	return n
}
