package insight

import (
	"fmt"
	"strings"

	"github.com/ent0n29/callcoach/internal/conversation"
)

const (
	recentExchanges = 5
	avoidTitleCount = 5
)

// PromptContext is the structured input of an insight generation.
type PromptContext struct {
	Phase       conversation.Phase
	Pillars     []conversation.Pillar
	PainPoints  []string
	Recent      []conversation.Message
	Context     []conversation.Message
	AvoidTitles []string
	Topics      []string
}

// ContextWindowFor sizes the background context by phase: early phases
// need little history, late phases need the whole negotiation.
func ContextWindowFor(phase conversation.Phase) int {
	switch phase {
	case conversation.PhaseIntroduction, conversation.PhaseDiscovery:
		return 15
	case conversation.PhasePresentation:
		return 30
	default:
		return 50
	}
}

// NewPromptContext collects the prompt inputs from the session state.
func NewPromptContext(s *conversation.State) PromptContext {
	phase := s.Phase()
	return PromptContext{
		Phase:       phase,
		Pillars:     s.Pillars(),
		PainPoints:  s.PainPoints(),
		Recent:      s.Recent(recentExchanges),
		Context:     s.Recent(ContextWindowFor(phase)),
		AvoidTitles: s.RecentTitles(avoidTitleCount),
		Topics:      s.Topics(),
	}
}

var pillarIcons = map[conversation.PillarStatus]string{
	conversation.PillarNotStarted: "⚪",
	conversation.PillarInProgress: "🟡",
	conversation.PillarCompleted:  "🟢",
}

const methodology = `**MÉTHODOLOGIE - 5 PILIERS DE DISCOVERY B2B** :
1. Comprendre le contexte : questions sur la situation actuelle AVANT de pitcher
2. Identifier le problème : creuser les pains profonds et quantifiables
3. Mesurer l'impact : quantifier en temps, argent, risques
4. Valider le décisionnel : qui décide, budget, timeline
5. Next Step : proposer une suite concrète (démo, pilote)`

// BuildPrompt renders the generation prompt.
func BuildPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(methodology)
	fmt.Fprintf(&b, "\n\n**PHASE** : %s\n", pc.Phase.Label())

	if older := olderContext(pc); len(older) > 0 {
		b.WriteString("\n**CONTEXTE DE L'APPEL** :\n")
		writeLines(&b, older)
	}

	b.WriteString("\n**DERNIERS ÉCHANGES** :\n")
	writeLines(&b, pc.Recent)

	b.WriteString("\n**PROGRESSION DES PILIERS** :\n")
	for _, p := range pc.Pillars {
		fmt.Fprintf(&b, "%s Pilier %d - %s\n", pillarIcons[p.Status], p.ID, p.Name)
	}

	if len(pc.PainPoints) > 0 {
		b.WriteString("\n**PAIN POINTS IDENTIFIÉS** :\n")
		for _, pp := range pc.PainPoints {
			fmt.Fprintf(&b, "- %s\n", pp)
		}
	}
	if len(pc.AvoidTitles) > 0 {
		b.WriteString("\n**CONSEILS DÉJÀ DONNÉS (ne pas répéter)** :\n")
		for _, t := range pc.AvoidTitles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}

	b.WriteString("\nQue recommandes-tu ?\n\n")
	b.WriteString("Réponds en 1 ligne courte (max 15 mots) au format : [titre simple] - [action simple]\n")
	b.WriteString("Si rien d'utile n'est à signaler, réponds : RIEN")
	return b.String()
}

// olderContext returns the context messages that precede the recent exchanges.
func olderContext(pc PromptContext) []conversation.Message {
	n := len(pc.Context) - len(pc.Recent)
	if n <= 0 {
		return nil
	}
	return pc.Context[:n]
}

func writeLines(b *strings.Builder, msgs []conversation.Message) {
	for _, m := range msgs {
		b.WriteString(m.Line())
		b.WriteByte('\n')
	}
}
