package relevance

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/callcoach/internal/conversation"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func freshPillars() []conversation.Pillar {
	s := conversation.NewState(conversation.Options{}, now)
	return s.Pillars()
}

func TestScoreShortTailIsZero(t *testing.T) {
	s := NewScorer(nil, 0)
	for _, tail := range []string{"", "   ", "bonjour", "problème"} {
		got := s.Score(Input{Tail: tail, Pillars: freshPillars(), Phase: conversation.PhaseClosing, Now: now})
		if got.Score != 0 || got.ShouldGenerate {
			t.Fatalf("Score(%q) = %+v, want zero and no generation", tail, got)
		}
	}
}

func TestScoreGreetingIsLowRelevance(t *testing.T) {
	s := NewScorer(nil, 0)
	got := s.Score(Input{Tail: "COMMERCIAL: Bonjour", Pillars: freshPillars(), Phase: conversation.PhaseIntroduction, Now: now})
	if got.ShouldGenerate {
		t.Fatalf("Score() = %+v, want no generation", got)
	}
	if got.Score >= DefaultMinScore {
		t.Fatalf("Score() = %d, want below threshold", got.Score)
	}
}

func TestScorePainAndImpactStack(t *testing.T) {
	s := NewScorer(nil, 0)
	tail := "Alors honnêtement on a un gros problème avec la prospection parce que chaque commercial perd 2h par jour " +
		"à remplir le crm à la main après chaque appel et du coup les relances arrivent trop tard et on rate des " +
		"opportunités avec nos clients chaque semaine"
	if n := len(strings.Fields(tail)); n <= 30 {
		t.Fatalf("fixture has %d words, want > 30", n)
	}
	got := s.Score(Input{Tail: tail, Pillars: freshPillars(), Phase: conversation.PhaseIntroduction, Now: now})
	if got.Score < DefaultMinScore || !got.ShouldGenerate || !got.KeyMoment {
		t.Fatalf("Score() = %+v, want generation", got)
	}
	if got.Triggers[0] != "pain:problème" {
		t.Fatalf("Triggers[0] = %q, want pain category first", got.Triggers[0])
	}
}

func TestScoreIsClampedAndDeterministic(t *testing.T) {
	s := NewScorer(nil, 0)
	tail := strings.Repeat("combien ça coûte ? problème budget démo ? ", 10)
	in := Input{Tail: tail, Pillars: freshPillars(), Phase: conversation.PhaseNegotiation, Now: now}
	a := s.Score(in)
	b := s.Score(in)
	if a.Score != 100 {
		t.Fatalf("Score() = %d, want clamp at 100", a.Score)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Score() not deterministic: %+v vs %+v", a, b)
	}
}

func TestScoreRangeOverVariedInputs(t *testing.T) {
	s := NewScorer(nil, 0)
	tails := []string{
		"oui non ok bon bien donc alors voilà euh hum merci bonjour",
		"c'est quoi exactement votre outil",
		"on a déjà une solution et c'est trop cher pour nous",
	}
	for _, tail := range tails {
		for _, phase := range conversation.Phases {
			got := s.Score(Input{Tail: tail, Pillars: freshPillars(), Phase: phase, LastInsightAt: now.Add(-5 * time.Second), Now: now})
			if got.Score < 0 || got.Score > 100 {
				t.Fatalf("Score(%q,%s) = %d out of range", tail, phase, got.Score)
			}
		}
	}
}

func TestScoreNoisePenaltyFloorsAtZero(t *testing.T) {
	s := NewScorer(nil, 0)
	got := s.Score(Input{
		Tail:          "oui oui d'accord ok bon alors euh voilà",
		Pillars:       freshPillars(),
		Phase:         conversation.PhaseIntroduction,
		LastInsightAt: now.Add(-time.Second),
		Now:           now,
	})
	if got.Score != 0 {
		t.Fatalf("Score() = %d, want 0 after noise penalty", got.Score)
	}
}

func TestScoreTimeBonusBands(t *testing.T) {
	s := NewScorer(nil, 0)
	base := Input{Tail: "ceci reste une phrase neutre", Phase: conversation.PhaseIntroduction, Now: now}
	cases := []struct {
		name string
		last time.Time
		want int
	}{
		{"never", time.Time{}, 15},
		{"stale", now.Add(-61 * time.Second), 15},
		{"aged", now.Add(-31 * time.Second), 8},
		{"recent", now.Add(-10 * time.Second), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			in.LastInsightAt = tc.last
			if got := s.Score(in).Score; got != tc.want {
				t.Fatalf("Score() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScorePillarOnlyCountsNotStarted(t *testing.T) {
	s := NewScorer(nil, 0)
	pillars := freshPillars()
	in := Input{Tail: "on utilise excel depuis longtemps", Pillars: pillars, LastInsightAt: now, Now: now}
	if got := s.Score(in).Score; got != 0 {
		t.Fatalf("Score() = %d, want 0 without pillar keyword", got)
	}
	in.Tail = "quel processus suivez-vous en interne"
	if got := s.Score(in).Score; got != 30 {
		t.Fatalf("Score() = %d, want 30 for not-started pillar", got)
	}
	pillars[0].Status = conversation.PillarCompleted
	in.Pillars = pillars
	if got := s.Score(in).Score; got != 0 {
		t.Fatalf("Score() = %d, want 0 once pillar started", got)
	}
}

func TestScoreKeyMomentForcesGeneration(t *testing.T) {
	s := NewScorer(nil, 90)
	got := s.Score(Input{Tail: "je vais devoir réfléchir un peu", LastInsightAt: now, Now: now})
	if got.Score >= 90 {
		t.Fatalf("Score() = %d, fixture should stay below threshold", got.Score)
	}
	if !got.ShouldGenerate {
		t.Fatalf("ShouldGenerate = false, want key moment override")
	}
}

func TestScoreQuestionsBonus(t *testing.T) {
	s := NewScorer(nil, 0)
	got := s.Score(Input{Tail: "c'est pour qui ? et pour quoi ?", LastInsightAt: now, Now: now})
	if got.Score != 15 {
		t.Fatalf("Score() = %d, want 15", got.Score)
	}
}
