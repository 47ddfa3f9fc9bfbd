// Package archive keeps ended calls for later review and summaries.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/policy"
	"github.com/ent0n29/callcoach/internal/session"
	"github.com/ent0n29/callcoach/internal/summary"
)

var ErrNotFound = errors.New("archived call not found")

// Record is one ended call.
type Record struct {
	ID          string                       `json:"id"`
	Config      session.Config               `json:"config"`
	Stats       summary.Stats                `json:"stats"`
	Transcript  []conversation.Message       `json:"transcript"`
	Insights    []conversation.InsightRecord `json:"insights"`
	PIIRedacted bool                         `json:"pii_redacted"`
	ArchivedAt  time.Time                    `json:"archived_at"`
}

// Store persists ended calls. List returns the newest first.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// NewRecord captures an ended session. With redact set, transcript and
// insight texts are passed through policy.RedactPII.
func NewRecord(ended session.Ended, stats summary.Stats, redact bool) Record {
	transcript := ended.State.Transcript()
	insights := ended.State.Insights()
	rec := Record{
		ID:         ended.ID,
		Config:     ended.Config,
		Stats:      stats,
		Transcript: transcript,
		Insights:   insights,
		ArchivedAt: ended.EndedAt,
	}
	if redact {
		var c1, c2 bool
		rec.Transcript, c1 = policy.RedactMessages(transcript)
		rec.Insights, c2 = policy.RedactInsights(insights)
		rec.PIIRedacted = c1 || c2
	}
	return rec
}
