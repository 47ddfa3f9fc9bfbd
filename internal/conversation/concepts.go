package conversation

import (
	"strings"

	"github.com/ent0n29/callcoach/internal/keywords"
)

// GeneralConcept tags insights that match no taxonomy entry.
const GeneralConcept = "general"

// ConceptExtractor tags a text with concepts.
type ConceptExtractor interface {
	Extract(text string) []string
}

// KeywordConcepts matches text against the concept taxonomy.
type KeywordConcepts struct {
	Tables *keywords.Tables
}

// Extract returns matching concept names in taxonomy order, or
// GeneralConcept when nothing matches.
func (k KeywordConcepts) Extract(text string) []string {
	tables := k.Tables
	if tables == nil {
		tables = keywords.Default()
	}
	lower := strings.ToLower(text)
	var out []string
	for _, c := range tables.Concepts() {
		if _, ok := keywords.FirstMatch(lower, c.Patterns); ok {
			out = append(out, c.Name)
		}
	}
	if len(out) == 0 {
		return []string{GeneralConcept}
	}
	return out
}
