// Package summary builds end-of-call statistics and model-written call
// reviews.
package summary

import (
	"time"

	"github.com/ent0n29/callcoach/internal/conversation"
)

// Stats is returned when a session ends.
type Stats struct {
	SessionID            string                `json:"session_id"`
	StartedAt            time.Time             `json:"started_at"`
	EndedAt              time.Time             `json:"ended_at"`
	DurationSeconds      float64               `json:"duration_seconds"`
	ContextMessageCount  int                   `json:"context_message_count"`
	TotalMessageCount    int                   `json:"total_message_count"`
	InsightCount         int                   `json:"insight_count"`
	FinalPhase           conversation.Phase    `json:"final_phase"`
	PainPointsIdentified []string              `json:"pain_points_identified"`
	Pillars              []conversation.Pillar `json:"pillars"`
	Decisions            map[string]int        `json:"decisions"`
	Expired              bool                  `json:"expired,omitempty"`
}

// NewStats summarizes state at endedAt.
func NewStats(sessionID string, state *conversation.State, endedAt time.Time) Stats {
	snap := state.Snapshot()
	return Stats{
		SessionID:            sessionID,
		StartedAt:            snap.StartedAt,
		EndedAt:              endedAt,
		DurationSeconds:      max(0, endedAt.Sub(snap.StartedAt).Seconds()),
		ContextMessageCount:  snap.ContextMessageCount,
		TotalMessageCount:    snap.TotalMessageCount,
		InsightCount:         snap.AcceptedInsights,
		FinalPhase:           snap.Phase,
		PainPointsIdentified: snap.PainPoints,
		Pillars:              snap.Pillars,
		Decisions:            snap.Decisions,
	}
}
