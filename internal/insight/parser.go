package insight

import (
	"strings"

	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/keywords"
)

// ParseStatus tags the parser outcome.
type ParseStatus string

const (
	ParseOK        ParseStatus = "parsed"
	ParseEmpty     ParseStatus = "empty"
	ParseMalformed ParseStatus = "malformed"
)

const (
	minAnswerChars     = 5
	maxTitleChars      = 100
	maxDescChars       = 150
	fallbackTitle      = "Signal détecté"
	fallbackDesc       = "Analyser la situation"
	titleDescSeparator = " - "
)

// Parsed is a structured insight.
type Parsed struct {
	Title       string                   `json:"title"`
	Type        conversation.InsightType `json:"type"`
	Description string                   `json:"description"`
}

// Text renders the insight the way it is compared for duplicates.
func (p Parsed) Text() string {
	return p.Title + titleDescSeparator + p.Description
}

// ParseResult is Parsed, Empty or Malformed. Insight is only set for ParseOK.
type ParseResult struct {
	Status  ParseStatus
	Insight Parsed
}

var markers = []struct {
	emoji string
	kind  conversation.InsightType
}{
	{"🟢", conversation.InsightProgression},
	{"🔵", conversation.InsightOpportunity},
	{"🔴", conversation.InsightAlert},
}

// Longest labels first so "Signal d'alerte" wins over "Alerte".
var labels = []struct {
	prefix string
	kind   conversation.InsightType
}{
	{"signal de progression", conversation.InsightProgression},
	{"signal d'opportunité", conversation.InsightOpportunity},
	{"signal d'alerte", conversation.InsightAlert},
	{"progression", conversation.InsightProgression},
	{"opportunité", conversation.InsightOpportunity},
	{"alerte", conversation.InsightAlert},
}

// nothingToSay lists answers the model uses when no insight applies.
var nothingToSay = map[string]struct{}{
	"rien": {}, "aucun": {}, "aucun insight": {}, "none": {}, "null": {}, "n/a": {}, "pass": {},
}

// Parser turns raw model text into a ParseResult. It never fails.
type Parser struct {
	tables *keywords.Tables
}

// NewParser builds a parser; a nil tables uses the defaults.
func NewParser(tables *keywords.Tables) *Parser {
	if tables == nil {
		tables = keywords.Default()
	}
	return &Parser{tables: tables}
}

// Parse reads "[title] - [description]" with optional category marker.
// The category comes from an explicit marker, else keyword inference,
// else defaults to progression.
func (p *Parser) Parse(raw string) ParseResult {
	s := strings.Trim(strings.TrimSpace(raw), "\"'`")
	s = strings.TrimSpace(s)
	if len([]rune(s)) < minAnswerChars {
		return ParseResult{Status: ParseEmpty}
	}
	if _, ok := nothingToSay[strings.ToLower(strings.Trim(s, ". "))]; ok {
		return ParseResult{Status: ParseEmpty}
	}

	kind, explicit := conversation.InsightType(""), false
	for _, m := range markers {
		if strings.Contains(s, m.emoji) {
			kind, explicit = m.kind, true
			s = strings.TrimSpace(strings.ReplaceAll(s, m.emoji, ""))
			break
		}
	}
	lower := strings.ToLower(s)
	for _, l := range labels {
		if strings.HasPrefix(lower, l.prefix) {
			if !explicit {
				kind, explicit = l.kind, true
			}
			s = strings.TrimSpace(s[len(l.prefix):])
			s = strings.TrimSpace(strings.TrimLeft(s, ":|"))
			break
		}
	}

	title, desc, ok := strings.Cut(s, titleDescSeparator)
	if !ok {
		return ParseResult{Status: ParseMalformed}
	}
	title = strings.TrimSpace(title)
	desc = strings.TrimSpace(desc)
	if len([]rune(title)) < 3 {
		title = fallbackTitle
	}
	if len([]rune(desc)) < 3 {
		desc = fallbackDesc
	}
	title = ellipsize(title, maxTitleChars)
	desc = ellipsize(desc, maxDescChars)

	if !explicit {
		kind = p.infer(title + " " + desc)
	}
	return ParseResult{
		Status:  ParseOK,
		Insight: Parsed{Title: title, Type: kind, Description: desc},
	}
}

func (p *Parser) infer(text string) conversation.InsightType {
	lower := strings.ToLower(text)
	if _, ok := keywords.FirstMatch(lower, p.tables.AlertWords()); ok {
		return conversation.InsightAlert
	}
	if _, ok := keywords.FirstMatch(lower, p.tables.OpportunityWords()); ok {
		return conversation.InsightOpportunity
	}
	return conversation.InsightProgression
}

func ellipsize(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
