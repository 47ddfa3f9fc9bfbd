package keywords

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTablesCoverEveryCategoryAndPillar(t *testing.T) {
	tables := Default()
	for _, c := range Categories {
		if len(tables.CategoryPhrases(c)) == 0 {
			t.Fatalf("category %q has no phrases", c)
		}
	}
	for _, id := range PillarIDs {
		if len(tables.PillarPhrases(id)) == 0 {
			t.Fatalf("pillar %d has no phrases", id)
		}
	}
	for _, phase := range PhaseNames {
		if len(tables.PhasePhrases(phase)) == 0 {
			t.Fatalf("phase %q has no phrases", phase)
		}
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	tables := Default()
	noise := tables.Noise()
	noise[0] = "mutated"
	if tables.Noise()[0] == "mutated" {
		t.Fatalf("Noise() exposed internal slice")
	}
	concepts := tables.Concepts()
	concepts[0].Patterns[0] = "mutated"
	if tables.Concepts()[0].Patterns[0] == "mutated" {
		t.Fatalf("Concepts() exposed internal slice")
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	body := `
categories:
  pain: ["  Blocage ", "souci"]
pillars:
  5: ["signature"]
concepts:
  - name: pricing
    patterns: ["tarif"]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tables, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	pain := tables.CategoryPhrases(CategoryPain)
	if len(pain) != 2 || pain[0] != "blocage" {
		t.Fatalf("pain phrases = %v, want normalized override", pain)
	}
	if got := tables.PillarPhrases(5); len(got) != 1 || got[0] != "signature" {
		t.Fatalf("pillar 5 phrases = %v", got)
	}
	if got := tables.Concepts(); len(got) != 1 || got[0].Name != "pricing" {
		t.Fatalf("concepts = %v, want single override", got)
	}
	if len(tables.CategoryPhrases(CategoryImpact)) == 0 {
		t.Fatalf("impact phrases lost by partial override")
	}
}

func TestLoadRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  weather: [\"pluie\"]\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load() error = nil, want unknown category error")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	tables, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tables.Concepts()) != len(Default().Concepts()) {
		t.Fatalf("Load(\"\") did not return defaults")
	}
}

func TestFirstMatchAndCount(t *testing.T) {
	phrases := []string{"prix", "budget", "roi"}
	if p, ok := FirstMatch("quel est le budget et le prix", phrases); !ok || p != "prix" {
		t.Fatalf("FirstMatch() = %q,%v want prix,true", p, ok)
	}
	if n := CountMatches("quel est le budget et le prix", phrases); n != 2 {
		t.Fatalf("CountMatches() = %d, want 2", n)
	}
}
