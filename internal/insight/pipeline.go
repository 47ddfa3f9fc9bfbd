// Package insight decides, for every evaluation cycle, whether a coaching
// insight should be requested and whether the generated one is shown.
package insight

import (
	"context"
	"log/slog"
	"time"

	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/dedupe"
	"github.com/ent0n29/callcoach/internal/relevance"
)

// Reason is the terminal state of one evaluation cycle.
type Reason string

const (
	ReasonAccepted        Reason = "accepted"
	ReasonLowRelevance    Reason = "low_relevance"
	ReasonCooldown        Reason = "cooldown_active"
	ReasonGenerationEmpty Reason = "generation_empty"
	ReasonParseFailed     Reason = "parse_failed"
	ReasonDuplicate       Reason = "duplicate"
)

// Stage names a pipeline step for latency accounting.
type Stage string

const (
	StageScoring    Stage = "scoring"
	StageGenerating Stage = "generating"
	StageDedupe     Stage = "dedupe"
)

// Outcome is the tagged result of Evaluate. Rejections are data.
type Outcome struct {
	Accepted    bool             `json:"accepted"`
	Reason      Reason           `json:"reason"`
	Relevance   relevance.Result `json:"relevance"`
	Cooldown    *CooldownVerdict `json:"cooldown,omitempty"`
	Raw         string           `json:"raw,omitempty"`
	ParseStatus ParseStatus      `json:"parse_status,omitempty"`
	Insight     *Parsed          `json:"insight,omitempty"`
	Concepts    []string         `json:"concepts,omitempty"`
	Duplicate   *dedupe.Verdict  `json:"duplicate,omitempty"`
	Transcript  string           `json:"transcript"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// Observer receives pipeline telemetry. Implementations must be cheap.
type Observer interface {
	ObserveStage(stage Stage, d time.Duration)
	ObserveOutcome(o Outcome)
}

// Deps wires a Pipeline.
type Deps struct {
	Scorer    *relevance.Scorer
	Cooldown  Cooldown
	Generator Generator
	Parser    *Parser
	Detector  *dedupe.Detector
	Concepts  conversation.ConceptExtractor
	Observer  Observer
	Logger    *slog.Logger
}

// Pipeline runs relevance, cooldown, generation, parsing and duplicate
// detection, and commits accepted insights.
type Pipeline struct {
	scorer    *relevance.Scorer
	cooldown  Cooldown
	generator Generator
	parser    *Parser
	detector  *dedupe.Detector
	concepts  conversation.ConceptExtractor
	observer  Observer
	logger    *slog.Logger
}

// NewPipeline fills unset optional deps with defaults. Generator is required.
func NewPipeline(d Deps) *Pipeline {
	if d.Scorer == nil {
		d.Scorer = relevance.NewScorer(nil, 0)
	}
	if d.Parser == nil {
		d.Parser = NewParser(nil)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Detector == nil {
		d.Detector = dedupe.NewDetector(dedupe.DefaultConfig(), nil, d.Logger)
	}
	if d.Concepts == nil {
		d.Concepts = conversation.KeywordConcepts{}
	}
	return &Pipeline{
		scorer:    d.Scorer,
		cooldown:  d.Cooldown,
		generator: d.Generator,
		parser:    d.Parser,
		detector:  d.Detector,
		concepts:  d.Concepts,
		observer:  d.Observer,
		logger:    d.Logger,
	}
}

// Evaluate runs one admission cycle against state at time now. transcript
// is echoed back in every outcome. Only an accepted insight mutates the
// insight memory and the last insight time.
func (p *Pipeline) Evaluate(ctx context.Context, state *conversation.State, transcript string, now time.Time) Outcome {
	out := p.evaluate(ctx, state, now)
	out.Transcript = transcript
	out.EvaluatedAt = now
	state.RecordDecision(string(out.Reason))
	if p.observer != nil {
		p.observer.ObserveOutcome(out)
	}
	p.logger.Debug("insight evaluation",
		"reason", out.Reason,
		"score", out.Relevance.Score,
		"triggers", out.Relevance.Triggers,
	)
	return out
}

func (p *Pipeline) evaluate(ctx context.Context, state *conversation.State, now time.Time) Outcome {
	started := time.Now()
	last, _ := state.LastInsightAt()
	rel := p.scorer.Score(relevance.Input{
		Tail:          state.TailText(relevance.TailMessages),
		Pillars:       state.Pillars(),
		LastInsightAt: last,
		Phase:         state.Phase(),
		Now:           now,
	})
	out := Outcome{Relevance: rel}
	if !rel.ShouldGenerate {
		p.observe(StageScoring, started)
		out.Reason = ReasonLowRelevance
		return out
	}

	cd := p.cooldown.Evaluate(rel.Score, last, now)
	out.Cooldown = &cd
	p.observe(StageScoring, started)
	if cd.Blocked {
		out.Reason = ReasonCooldown
		return out
	}

	started = time.Now()
	raw, err := p.generator.Generate(ctx, NewPromptContext(state))
	p.observe(StageGenerating, started)
	if err != nil {
		p.logger.Warn("insight generator failed", "error", err)
		raw = ""
	}
	out.Raw = raw
	if raw == "" {
		out.Reason = ReasonGenerationEmpty
		return out
	}

	parsed := p.parser.Parse(raw)
	out.ParseStatus = parsed.Status
	if parsed.Status != ParseOK {
		out.Reason = ReasonParseFailed
		return out
	}
	candidate := parsed.Insight
	out.Insight = &candidate

	started = time.Now()
	verdict := p.detector.Check(ctx, dedupe.Candidate{Title: candidate.Title, Text: candidate.Text()}, state.Insights(), now)
	p.observe(StageDedupe, started)
	if verdict.Duplicate {
		out.Duplicate = &verdict
		out.Reason = ReasonDuplicate
		return out
	}

	concepts := p.concepts.Extract(candidate.Text())
	state.CommitInsight(conversation.InsightRecord{
		Title:       candidate.Title,
		Type:        candidate.Type,
		Description: candidate.Description,
		Text:        candidate.Text(),
		Concepts:    concepts,
		At:          now,
	})
	out.Accepted = true
	out.Reason = ReasonAccepted
	out.Concepts = concepts
	return out
}

func (p *Pipeline) observe(stage Stage, started time.Time) {
	if p.observer != nil {
		p.observer.ObserveStage(stage, time.Since(started))
	}
}
