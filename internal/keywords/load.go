package keywords

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML override format. Any non-empty list replaces the
// corresponding built-in list; omitted sections keep their defaults.
type File struct {
	Categories   map[string][]string `yaml:"categories"`
	Noise        []string            `yaml:"noise"`
	Pillars      map[int][]string    `yaml:"pillars"`
	PainTriggers []string            `yaml:"pain_triggers"`
	Phases       map[string][]string `yaml:"phases"`
	Concepts     []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"concepts"`
	InsightTypes struct {
		Alert       []string `yaml:"alert"`
		Opportunity []string `yaml:"opportunity"`
	} `yaml:"insight_types"`
	Transcript struct {
		Unwanted             []string `yaml:"unwanted"`
		HallucinationWords   []string `yaml:"hallucination_words"`
		HallucinationPhrases []string `yaml:"hallucination_phrases"`
	} `yaml:"transcript"`
}

// Load returns the default tables, overlaid with path when path is non-empty.
func Load(path string) (*Tables, error) {
	tables := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return tables, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse keywords file: %w", err)
	}
	if err := tables.apply(f); err != nil {
		return nil, fmt.Errorf("keywords file %s: %w", path, err)
	}
	return tables, nil
}

func (t *Tables) apply(f File) error {
	for name, phrases := range f.Categories {
		c := Category(strings.ToLower(strings.TrimSpace(name)))
		if !slices.Contains(Categories, c) {
			return fmt.Errorf("unknown category %q", name)
		}
		if p := normalize(phrases); len(p) > 0 {
			t.categories[c] = p
		}
	}
	for id, phrases := range f.Pillars {
		if !slices.Contains(PillarIDs, id) {
			return fmt.Errorf("unknown pillar %d", id)
		}
		if p := normalize(phrases); len(p) > 0 {
			t.pillars[id] = p
		}
	}
	for name, phrases := range f.Phases {
		phase := strings.ToLower(strings.TrimSpace(name))
		if !slices.Contains(PhaseNames, phase) {
			return fmt.Errorf("unknown phase %q", name)
		}
		if p := normalize(phrases); len(p) > 0 {
			t.phases[phase] = p
		}
	}
	if len(f.Concepts) > 0 {
		concepts := make([]Concept, 0, len(f.Concepts))
		for _, c := range f.Concepts {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				return fmt.Errorf("concept without name")
			}
			concepts = append(concepts, Concept{Name: name, Patterns: normalize(c.Patterns)})
		}
		t.concepts = concepts
	}
	replace(&t.noise, f.Noise)
	replace(&t.painTriggers, f.PainTriggers)
	replace(&t.alertWords, f.InsightTypes.Alert)
	replace(&t.opportunityWords, f.InsightTypes.Opportunity)
	replace(&t.unwanted, f.Transcript.Unwanted)
	replace(&t.hallucinationWords, f.Transcript.HallucinationWords)
	replace(&t.hallucinationPhrases, f.Transcript.HallucinationPhrases)
	return nil
}

func replace(dst *[]string, src []string) {
	if p := normalize(src); len(p) > 0 {
		*dst = p
	}
}

// normalize lowercases and trims phrases, dropping blanks.
func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
