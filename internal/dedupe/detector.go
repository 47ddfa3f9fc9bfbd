// Package dedupe decides whether a candidate insight repeats one of the
// insights recently shown to the salesperson.
package dedupe

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/antzucaro/matchr"

	"github.com/ent0n29/callcoach/internal/conversation"
)

// SimilarityProvider returns a similarity in [0,1] between two texts.
type SimilarityProvider interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Check names the rule that produced a verdict.
type Check string

const (
	CheckNone     Check = ""
	CheckTitle    Check = "title"
	CheckSemantic Check = "semantic"
	CheckLexical  Check = "lexical"
)

// Config holds the detector thresholds. Zero values are meaningful:
// MaxConsecutive = 0 disables the title check and TitleWindow = 0 makes it
// ignore entry age.
type Config struct {
	MaxConsecutive    int
	TitleWindow       time.Duration
	TitleSimilarity   float64
	TimeThreshold     time.Duration
	SemanticThreshold float64
	SemanticWindow    int
	JaccardThreshold  float64
	JaccardWindow     int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MaxConsecutive:    1,
		TitleWindow:       30 * time.Second,
		TitleSimilarity:   0.93,
		TimeThreshold:     30 * time.Second,
		SemanticThreshold: 0.85,
		SemanticWindow:    5,
		JaccardThreshold:  0.7,
		JaccardWindow:     3,
	}
}

// Candidate is an insight awaiting admission.
type Candidate struct {
	Title string
	Text  string
}

// Verdict explains a duplicate decision.
type Verdict struct {
	Duplicate bool    `json:"duplicate"`
	Check     Check   `json:"check,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Score     float64 `json:"score"`
	// MatchIndex points into the history slice; -1 when nothing matched.
	MatchIndex int           `json:"match_index"`
	MatchTitle string        `json:"match_title,omitempty"`
	MatchAge   time.Duration `json:"match_age"`
	Recent     bool          `json:"recent"`
	Fallback   bool          `json:"fallback"`
}

func noMatch() Verdict { return Verdict{MatchIndex: -1} }

// Detector runs the title and semantic checks.
type Detector struct {
	cfg      Config
	provider SimilarityProvider
	logger   *slog.Logger
}

// NewDetector builds a detector. A nil provider always uses the lexical fallback.
func NewDetector(cfg Config, provider SimilarityProvider, logger *slog.Logger) *Detector {
	if cfg.TitleSimilarity <= 0 {
		cfg.TitleSimilarity = 1
	}
	if cfg.SemanticWindow <= 0 {
		cfg.SemanticWindow = 5
	}
	if cfg.JaccardWindow <= 0 {
		cfg.JaccardWindow = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{cfg: cfg, provider: provider, logger: logger}
}

// Check runs the title check, then the semantic check.
func (d *Detector) Check(ctx context.Context, c Candidate, history []conversation.InsightRecord, now time.Time) Verdict {
	if v := d.CheckTitle(c, history, now); v.Duplicate {
		return v
	}
	return d.CheckSemantic(ctx, c, history, now)
}

// CheckTitle rejects a title that would extend a run of identical
// headlines beyond MaxConsecutive.
func (d *Detector) CheckTitle(c Candidate, history []conversation.InsightRecord, now time.Time) Verdict {
	v := noMatch()
	if d.cfg.MaxConsecutive <= 0 {
		return v
	}
	want := normalizeTitle(c.Title)
	if want == "" {
		return v
	}
	run := 0
	for i := len(history) - 1; i >= 0; i-- {
		age := now.Sub(history[i].At)
		if d.cfg.TitleWindow > 0 && age > d.cfg.TitleWindow {
			break
		}
		score := titleSimilarity(want, normalizeTitle(history[i].Title))
		if score < d.cfg.TitleSimilarity {
			break
		}
		run++
		if run == 1 {
			v.MatchIndex, v.MatchTitle, v.MatchAge, v.Score = i, history[i].Title, age, score
		}
	}
	if run >= d.cfg.MaxConsecutive {
		v.Duplicate = true
		v.Check = CheckTitle
		v.Recent = true
		v.Reason = "title repeated back-to-back"
	}
	return v
}

// CheckSemantic compares the candidate text with the last SemanticWindow
// entries. Only a similar and recent best match is a duplicate. If the
// provider fails, the lexical fallback decides instead.
func (d *Detector) CheckSemantic(ctx context.Context, c Candidate, history []conversation.InsightRecord, now time.Time) Verdict {
	v := noMatch()
	if len(history) == 0 {
		return v
	}
	if d.provider == nil {
		return d.checkLexical(c, history, now)
	}
	start := max(0, len(history)-d.cfg.SemanticWindow)
	best := -1.0
	for i := start; i < len(history); i++ {
		sim, err := d.provider.Similarity(ctx, c.Text, history[i].Text)
		if err != nil {
			d.logger.Warn("similarity provider failed; using lexical fallback", "error", err)
			return d.checkLexical(c, history, now)
		}
		if sim > best {
			best = sim
			v.MatchIndex = i
		}
	}
	match := history[v.MatchIndex]
	v.Score = best
	v.MatchTitle = match.Title
	v.MatchAge = now.Sub(match.At)
	v.Recent = v.MatchAge <= d.cfg.TimeThreshold
	if best >= d.cfg.SemanticThreshold && v.Recent {
		v.Duplicate = true
		v.Check = CheckSemantic
		v.Reason = "semantically similar to a recent insight"
	}
	return v
}

// checkLexical applies Jaccard overlap against the last JaccardWindow
// entries, regardless of age.
func (d *Detector) checkLexical(c Candidate, history []conversation.InsightRecord, now time.Time) Verdict {
	v := noMatch()
	v.Fallback = true
	start := max(0, len(history)-d.cfg.JaccardWindow)
	best := -1.0
	for i := start; i < len(history); i++ {
		if sim := Jaccard(c.Text, history[i].Text); sim > best {
			best = sim
			v.MatchIndex = i
		}
	}
	if v.MatchIndex < 0 {
		return v
	}
	match := history[v.MatchIndex]
	v.Score = best
	v.MatchTitle = match.Title
	v.MatchAge = now.Sub(match.At)
	v.Recent = v.MatchAge <= d.cfg.TimeThreshold
	if best > d.cfg.JaccardThreshold {
		v.Duplicate = true
		v.Check = CheckLexical
		v.Reason = "word overlap with a recent insight"
	}
	return v
}

// Jaccard is the word-set overlap of two texts, lowercase and
// whitespace-tokenized.
func Jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func normalizeTitle(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

func titleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return matchr.JaroWinkler(a, b, false)
}
