package conversation

import (
	"slices"
	"strings"

	"github.com/ent0n29/callcoach/internal/keywords"
)

const (
	painSentenceMinLen = 20
	painSentenceMaxLen = 150
)

// refreshPainPoints rescans the context window for sentences that contain
// a pain trigger. Both speakers count: salespeople often restate the
// client's problem ("vous avez dit ...").
func (s *State) refreshPainPoints() {
	triggers := s.opts.Tables.PainTriggers()
	var found []string
	for _, m := range s.window {
		for _, sentence := range strings.Split(strings.ToLower(m.Content), ".") {
			sentence = strings.TrimSpace(sentence)
			if len([]rune(sentence)) <= painSentenceMinLen {
				continue
			}
			if _, ok := keywords.FirstMatch(sentence, triggers); !ok {
				continue
			}
			sentence = truncateRunes(sentence, painSentenceMaxLen)
			if !slices.Contains(found, sentence) {
				found = append(found, sentence)
			}
		}
	}
	if over := len(found) - s.opts.MaxPainPoints; over > 0 {
		found = found[over:]
	}
	slices.Reverse(found)
	s.painPoints = found
}

// refreshPillars recomputes pillar coverage from the trailing messages.
// Status never moves backwards within a session.
func (s *State) refreshPillars() {
	text := joinLower(s.Recent(s.opts.PillarWindow))
	for i := range s.pillars {
		hits := keywords.CountMatches(text, s.opts.Tables.PillarPhrases(s.pillars[i].ID))
		next := PillarNotStarted
		switch {
		case hits >= 2:
			next = PillarCompleted
		case hits == 1:
			next = PillarInProgress
		}
		if next.rank() > s.pillars[i].Status.rank() {
			s.pillars[i].Status = next
		}
	}
}

// TailText joins the contents of the last n context messages, lowercased.
func (s *State) TailText(n int) string {
	return joinLower(s.Recent(n))
}

func joinLower(msgs []Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Content)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
