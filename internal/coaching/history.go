package coaching

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/ent0n29/callcoach/internal/conversation"
)

const (
	oldInsightAge  = 60 * time.Second
	topConceptsMax = 5
)

type HistoryEntry struct {
	Index          int                      `json:"index"`
	Text           string                   `json:"text"`
	Title          string                   `json:"title"`
	Type           conversation.InsightType `json:"type"`
	Description    string                   `json:"description"`
	Concepts       []string                 `json:"concepts"`
	SecondsElapsed int                      `json:"seconds_elapsed"`
	TimeAgo        string                   `json:"time_ago"`
	IsOld          bool                     `json:"is_old"`
}

type ConceptCount struct {
	Concept string `json:"concept"`
	Count   int    `json:"count"`
}

type HistoryStats struct {
	ByType             map[conversation.InsightType]int `json:"by_type"`
	ByAge              map[string]int                   `json:"by_age"`
	TopConcepts        []ConceptCount                   `json:"top_concepts"`
	InsightsPerMessage float64                          `json:"insights_per_message"`
	AcceptedTotal      int                              `json:"accepted_total"`
	Decisions          map[string]int                   `json:"decisions"`
}

// History is the annotated insight memory of a call.
type History struct {
	SessionID     string             `json:"session_id"`
	TotalInsights int                `json:"total_insights"`
	Insights      []HistoryEntry     `json:"insights"`
	Stats         HistoryStats       `json:"statistics"`
	Phase         conversation.Phase `json:"phase"`
	TotalMessages int                `json:"total_messages"`
}

// GetInsightHistory annotates the cached insights with their age.
func (s *Service) GetInsightHistory(sessionID string) (History, error) {
	var h History
	err := s.sessions.With(sessionID, func(state *conversation.State) error {
		h = buildHistory(sessionID, state.Snapshot(), s.now())
		return nil
	})
	return h, err
}

func buildHistory(sessionID string, snap conversation.Snapshot, now time.Time) History {
	h := History{
		SessionID:     sessionID,
		TotalInsights: len(snap.Insights),
		Insights:      make([]HistoryEntry, 0, len(snap.Insights)),
		Phase:         snap.Phase,
		TotalMessages: snap.TotalMessageCount,
		Stats: HistoryStats{
			ByType: map[conversation.InsightType]int{
				conversation.InsightAlert:       0,
				conversation.InsightOpportunity: 0,
				conversation.InsightProgression: 0,
			},
			ByAge:         map[string]int{"recent": 0, "old": 0},
			TopConcepts:   []ConceptCount{},
			AcceptedTotal: snap.AcceptedInsights,
			Decisions:     snap.Decisions,
		},
	}

	conceptCounts := map[string]int{}
	for i, rec := range snap.Insights {
		elapsed := max(0, now.Sub(rec.At))
		entry := HistoryEntry{
			Index:          i + 1,
			Text:           rec.Text,
			Title:          rec.Title,
			Type:           rec.Type,
			Description:    rec.Description,
			Concepts:       rec.Concepts,
			SecondsElapsed: int(elapsed / time.Second),
			TimeAgo:        timeAgo(elapsed),
			IsOld:          elapsed > oldInsightAge,
		}
		h.Insights = append(h.Insights, entry)
		h.Stats.ByType[rec.Type]++
		if entry.IsOld {
			h.Stats.ByAge["old"]++
		} else {
			h.Stats.ByAge["recent"]++
		}
		for _, c := range rec.Concepts {
			conceptCounts[c]++
		}
	}

	for c, n := range conceptCounts {
		h.Stats.TopConcepts = append(h.Stats.TopConcepts, ConceptCount{Concept: c, Count: n})
	}
	slices.SortFunc(h.Stats.TopConcepts, func(a, b ConceptCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return cmp.Compare(a.Concept, b.Concept)
	})
	if len(h.Stats.TopConcepts) > topConceptsMax {
		h.Stats.TopConcepts = h.Stats.TopConcepts[:topConceptsMax]
	}
	h.Stats.InsightsPerMessage = math.Round(float64(len(snap.Insights))/float64(max(snap.TotalMessageCount, 1))*100) / 100
	return h
}

func timeAgo(d time.Duration) string {
	secs := int(d / time.Second)
	if secs >= 60 {
		return fmt.Sprintf("%dmin %ds ago", secs/60, secs%60)
	}
	return fmt.Sprintf("%ds ago", secs)
}
