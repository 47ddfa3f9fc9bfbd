package conversation

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/ent0n29/callcoach/internal/keywords"
)

const (
	defaultMaxContextMessages = 50
	defaultMaxInsights        = 5
	defaultMaxPainPoints      = 5
	defaultMaxTopics          = 10
	defaultPillarWindow       = 5
)

// ErrEmptyMessage is returned when an utterance carries no text.
var ErrEmptyMessage = errors.New("empty message")

// Options bounds the per-session memory.
type Options struct {
	MaxContextMessages int
	MaxInsights        int
	MaxPainPoints      int
	MaxTopics          int
	// PillarWindow is the number of trailing messages pillar coverage is computed from.
	PillarWindow int
	Tables       *keywords.Tables
}

func (o Options) withDefaults() Options {
	if o.MaxContextMessages <= 0 {
		o.MaxContextMessages = defaultMaxContextMessages
	}
	if o.MaxInsights <= 0 {
		o.MaxInsights = defaultMaxInsights
	}
	if o.MaxPainPoints <= 0 {
		o.MaxPainPoints = defaultMaxPainPoints
	}
	if o.MaxTopics <= 0 {
		o.MaxTopics = defaultMaxTopics
	}
	if o.PillarWindow <= 0 {
		o.PillarWindow = defaultPillarWindow
	}
	if o.Tables == nil {
		o.Tables = keywords.Default()
	}
	return o
}

// State is the conversation memory of one call. It is not safe for
// concurrent use; the session store serializes access per session.
type State struct {
	opts Options

	startedAt  time.Time
	transcript []Message
	window     []Message
	phase      Phase
	painPoints []string
	pillars    []Pillar
	topics     []string
	insights   []InsightRecord

	lastInsightAt time.Time
	acceptedTotal int
	decisions     map[string]int
}

// NewState creates an empty conversation in the introduction phase.
func NewState(opts Options, now time.Time) *State {
	opts = opts.withDefaults()
	pillars := make([]Pillar, 0, len(keywords.PillarIDs))
	for _, id := range keywords.PillarIDs {
		pillars = append(pillars, Pillar{ID: id, Name: pillarNames[id], Status: PillarNotStarted})
	}
	return &State{
		opts:      opts,
		startedAt: now,
		phase:     PhaseIntroduction,
		pillars:   pillars,
		decisions: make(map[string]int),
	}
}

// Tables exposes the keyword tables the state was built with.
func (s *State) Tables() *keywords.Tables { return s.opts.Tables }

// StartedAt reports when the session began.
func (s *State) StartedAt() time.Time { return s.startedAt }

// Append records m at the end of the transcript and the context window,
// evicting the oldest window entries beyond the bound, then refreshes the
// locally derived signals (pain points, pillars). The phase is refreshed
// separately through SetPhase since it depends on an external classifier.
func (s *State) Append(m Message) error {
	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return ErrEmptyMessage
	}
	if m.Role != SpeakerClient {
		m.Role = SpeakerSalesperson
	}
	s.transcript = append(s.transcript, m)
	s.window = append(s.window, m)
	if over := len(s.window) - s.opts.MaxContextMessages; over > 0 {
		s.window = slices.Delete(s.window, 0, over)
	}
	s.refreshPainPoints()
	s.refreshPillars()
	return nil
}

// SetPhase stores the classifier output. Unknown values are ignored.
func (s *State) SetPhase(p Phase) {
	if _, ok := ParsePhase(string(p)); ok {
		s.phase = p
	}
}

// Phase returns the current phase.
func (s *State) Phase() Phase { return s.phase }

// Transcript returns a copy of the full history.
func (s *State) Transcript() []Message { return slices.Clone(s.transcript) }

// ContextWindow returns a copy of the bounded context window.
func (s *State) ContextWindow() []Message { return slices.Clone(s.window) }

// Recent returns up to n trailing messages of the context window.
func (s *State) Recent(n int) []Message {
	if n <= 0 {
		return nil
	}
	if n > len(s.window) {
		n = len(s.window)
	}
	return slices.Clone(s.window[len(s.window)-n:])
}

// PainPoints returns pain points, most recent first.
func (s *State) PainPoints() []string { return slices.Clone(s.painPoints) }

// Pillars returns pillar progress in id order.
func (s *State) Pillars() []Pillar { return slices.Clone(s.pillars) }

// Topics returns the covered topics, oldest first.
func (s *State) Topics() []string { return slices.Clone(s.topics) }

// Insights returns the insight memory, oldest first.
func (s *State) Insights() []InsightRecord {
	out := make([]InsightRecord, len(s.insights))
	for i, rec := range s.insights {
		rec.Concepts = slices.Clone(rec.Concepts)
		out[i] = rec
	}
	return out
}

// RecentTitles returns up to n titles of the most recent insights, oldest first.
func (s *State) RecentTitles(n int) []string {
	if n > len(s.insights) {
		n = len(s.insights)
	}
	titles := make([]string, 0, n)
	for _, rec := range s.insights[len(s.insights)-n:] {
		titles = append(titles, rec.Title)
	}
	return titles
}

// LastInsightAt returns the time of the last accepted insight.
func (s *State) LastInsightAt() (time.Time, bool) {
	return s.lastInsightAt, !s.lastInsightAt.IsZero()
}

// CommitInsight stores an accepted insight, evicting the oldest entry
// beyond capacity, and folds its concepts into the covered topics.
func (s *State) CommitInsight(rec InsightRecord) {
	rec.Concepts = slices.Clone(rec.Concepts)
	s.insights = append(s.insights, rec)
	if over := len(s.insights) - s.opts.MaxInsights; over > 0 {
		s.insights = slices.Delete(s.insights, 0, over)
	}
	s.lastInsightAt = rec.At
	s.acceptedTotal++
	for _, c := range rec.Concepts {
		s.addTopic(c)
	}
}

func (s *State) addTopic(topic string) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return
	}
	if i := slices.Index(s.topics, topic); i >= 0 {
		s.topics = slices.Delete(s.topics, i, i+1)
	}
	s.topics = append(s.topics, topic)
	if over := len(s.topics) - s.opts.MaxTopics; over > 0 {
		s.topics = slices.Delete(s.topics, 0, over)
	}
}

// RecordDecision counts one pipeline outcome by reason.
func (s *State) RecordDecision(reason string) {
	s.decisions[reason]++
}

// Decisions returns the outcome counters.
func (s *State) Decisions() map[string]int {
	out := make(map[string]int, len(s.decisions))
	for k, v := range s.decisions {
		out[k] = v
	}
	return out
}

// AcceptedTotal counts insights accepted over the whole session, including evicted ones.
func (s *State) AcceptedTotal() int { return s.acceptedTotal }

// Snapshot is a read-only copy of the state for callers.
type Snapshot struct {
	StartedAt           time.Time       `json:"started_at"`
	Phase               Phase           `json:"phase"`
	PhaseLabel          string          `json:"phase_label"`
	Pillars             []Pillar        `json:"pillars"`
	PainPoints          []string        `json:"pain_points"`
	TopicsCovered       []string        `json:"topics_covered"`
	ContextWindow       []Message       `json:"context_window"`
	ContextMessageCount int             `json:"context_message_count"`
	TotalMessageCount   int             `json:"total_message_count"`
	Insights            []InsightRecord `json:"insights"`
	LastInsightAt       *time.Time      `json:"last_insight_at,omitempty"`
	AcceptedInsights    int             `json:"accepted_insights"`
	Decisions           map[string]int  `json:"decisions"`
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		StartedAt:           s.startedAt,
		Phase:               s.phase,
		PhaseLabel:          s.phase.Label(),
		Pillars:             s.Pillars(),
		PainPoints:          s.PainPoints(),
		TopicsCovered:       s.Topics(),
		ContextWindow:       s.ContextWindow(),
		ContextMessageCount: len(s.window),
		TotalMessageCount:   len(s.transcript),
		Insights:            s.Insights(),
		AcceptedInsights:    s.acceptedTotal,
		Decisions:           s.Decisions(),
	}
	if at, ok := s.LastInsightAt(); ok {
		snap.LastInsightAt = &at
	}
	return snap
}
