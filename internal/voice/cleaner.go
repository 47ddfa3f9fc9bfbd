package voice

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ent0n29/callcoach/internal/keywords"
)

// DefaultMinTranscriptLength is the shortest transcript kept.
const DefaultMinTranscriptLength = 2

const (
	maxConsecutiveRepeats = 4
	maxWordRatio          = 0.35
	minRepeatedCount      = 5
	minHallucinationChars = 10
)

// Rejection explains why a transcript was dropped.
type Rejection string

const (
	RejectNone          Rejection = ""
	RejectEmpty         Rejection = "empty"
	RejectUnwanted      Rejection = "unwanted_pattern"
	RejectTooShort      Rejection = "too_short"
	RejectHallucination Rejection = "video_hallucination"
	RejectRepetition    Rejection = "repetition"
)

// Cleaner filters caption artifacts and recognizer hallucinations out of
// raw transcripts.
type Cleaner struct {
	tables    *keywords.Tables
	minLength int
}

// NewCleaner builds a cleaner. A nil tables uses the defaults.
func NewCleaner(tables *keywords.Tables, minLength int) *Cleaner {
	if tables == nil {
		tables = keywords.Default()
	}
	if minLength <= 0 {
		minLength = DefaultMinTranscriptLength
	}
	return &Cleaner{tables: tables, minLength: minLength}
}

// Clean returns the normalized transcript, or "" and the reason it was dropped.
func (c *Cleaner) Clean(raw string) (string, Rejection) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", RejectEmpty
	}
	lower := strings.ToLower(text)
	if _, ok := keywords.FirstMatch(lower, c.tables.UnwantedTranscripts()); ok {
		return "", RejectUnwanted
	}
	if utf8.RuneCountInString(text) < c.minLength {
		return "", RejectTooShort
	}
	if c.isVideoHallucination(lower) {
		return "", RejectHallucination
	}
	if hasRunawayRepetition(text) {
		return "", RejectRepetition
	}
	return normalizeSpace(text), RejectNone
}

func (c *Cleaner) isVideoHallucination(lower string) bool {
	if utf8.RuneCountInString(lower) < minHallucinationChars {
		return false
	}
	if keywords.CountMatches(lower, c.tables.HallucinationWords()) >= 2 {
		return true
	}
	_, ok := keywords.FirstMatch(lower, c.tables.HallucinationPhrases())
	return ok
}

// hasRunawayRepetition flags recognizer loops: a word repeated more than
// four times in a row, or a word longer than three characters making up
// more than 35% of the significant words while appearing over five times.
func hasRunawayRepetition(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 5 {
		return false
	}
	run := 1
	for i := 1; i < len(words); i++ {
		if words[i] == words[i-1] {
			run++
			if run > maxConsecutiveRepeats {
				return true
			}
			continue
		}
		run = 1
	}

	counts := make(map[string]int)
	significant := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) > 3 {
			counts[w]++
			significant++
		}
	}
	if significant < 5 {
		return false
	}
	for _, n := range counts {
		if n > minRepeatedCount && float64(n)/float64(significant) > maxWordRatio {
			return true
		}
	}
	return false
}

// normalizeSpace collapses whitespace runs and drops control characters.
func normalizeSpace(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	prevSpace := true
	for _, r := range raw {
		switch {
		case r == '\u200d' || r == '\ufe0f' || r == '\u200b':
			continue
		case unicode.IsSpace(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
