package insight

import (
	"strings"
	"testing"

	"github.com/ent0n29/callcoach/internal/conversation"
)

func TestParse(t *testing.T) {
	p := NewParser(nil)
	cases := []struct {
		name   string
		raw    string
		status ParseStatus
		title  string
		kind   conversation.InsightType
		desc   string
	}{
		{"empty", "   ", ParseEmpty, "", "", ""},
		{"too short", "ok.", ParseEmpty, "", "", ""},
		{"sentinel", "RIEN.", ParseEmpty, "", "", ""},
		{"aucun insight", "Aucun insight", ParseEmpty, "", "", ""},
		{"no separator", "Creuse le processus actuel", ParseMalformed, "", "", ""},
		{"plain", "Besoin flou - Creuse le processus actuel", ParseOK, "Besoin flou", conversation.InsightProgression, "Creuse le processus actuel"},
		{"emoji marker", "🔴 Objection prix - Reformule la valeur", ParseOK, "Objection prix", conversation.InsightAlert, "Reformule la valeur"},
		{"label prefix", "Signal d'opportunité : Intérêt démo - Propose un créneau", ParseOK, "Intérêt démo", conversation.InsightOpportunity, "Propose un créneau"},
		{"emoji wins over label", "🟢 Alerte | Pilier 1 validé - Passe au problème", ParseOK, "Pilier 1 validé", conversation.InsightProgression, "Passe au problème"},
		{"keyword inference alert", "Client hésite - Rassure sur le déploiement", ParseOK, "Client hésite", conversation.InsightAlert, "Rassure sur le déploiement"},
		{"keyword inference opportunity", "Levier budget - Creuse l'enveloppe dispo", ParseOK, "Levier budget", conversation.InsightOpportunity, "Creuse l'enveloppe dispo"},
		{"short parts", "ab - cd", ParseOK, "Signal détecté", conversation.InsightProgression, "Analyser la situation"},
		{"quoted", "\"Timing flou - Demande la date cible\"", ParseOK, "Timing flou", conversation.InsightProgression, "Demande la date cible"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Parse(tc.raw)
			if got.Status != tc.status {
				t.Fatalf("Parse(%q).Status = %q, want %q", tc.raw, got.Status, tc.status)
			}
			if tc.status != ParseOK {
				if got.Insight != (Parsed{}) {
					t.Fatalf("Parse(%q).Insight = %+v, want zero", tc.raw, got.Insight)
				}
				return
			}
			if got.Insight.Title != tc.title || got.Insight.Type != tc.kind || got.Insight.Description != tc.desc {
				t.Fatalf("Parse(%q) = %+v, want {%q %q %q}", tc.raw, got.Insight, tc.title, tc.kind, tc.desc)
			}
		})
	}
}

func TestParseTruncatesLongParts(t *testing.T) {
	p := NewParser(nil)
	raw := strings.Repeat("é", 120) + " - " + strings.Repeat("a", 200)
	got := p.Parse(raw)
	if got.Status != ParseOK {
		t.Fatalf("Parse().Status = %q", got.Status)
	}
	if n := len([]rune(got.Insight.Title)); n != 100 || !strings.HasSuffix(got.Insight.Title, "...") {
		t.Fatalf("title len = %d, want 100 with ellipsis", n)
	}
	if n := len([]rune(got.Insight.Description)); n != 150 || !strings.HasSuffix(got.Insight.Description, "...") {
		t.Fatalf("description len = %d, want 150 with ellipsis", n)
	}
}

func TestParsedText(t *testing.T) {
	p := Parsed{Title: "Besoin flou", Description: "Creuse"}
	if p.Text() != "Besoin flou - Creuse" {
		t.Fatalf("Text() = %q", p.Text())
	}
}
