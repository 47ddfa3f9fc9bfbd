package insight

import "time"

const (
	highRelevanceScore = 85
	baseRelevanceScore = 70
	// neverElapsed stands in for "no insight yet".
	neverElapsed = 999 * time.Second
)

// Cooldown scales the minimum gap between insights with relevance.
type Cooldown struct {
	HighRelevance time.Duration
	Base          time.Duration
	AfterInsight  time.Duration
	// AllowBypass lets a score of 85+ skip an active cooldown.
	AllowBypass bool
}

// DefaultCooldown returns the production bands.
func DefaultCooldown() Cooldown {
	return Cooldown{
		HighRelevance: 10 * time.Second,
		Base:          20 * time.Second,
		AfterInsight:  25 * time.Second,
		AllowBypass:   true,
	}
}

// CooldownVerdict is the outcome of one cooldown evaluation.
type CooldownVerdict struct {
	Required time.Duration `json:"required"`
	Elapsed  time.Duration `json:"elapsed"`
	Blocked  bool          `json:"blocked"`
	Bypassed bool          `json:"bypassed"`
}

// Required returns the cooldown window for a relevance score.
func (c Cooldown) Required(score int) time.Duration {
	switch {
	case score >= highRelevanceScore:
		return c.HighRelevance
	case score >= baseRelevanceScore:
		return c.Base
	default:
		return c.AfterInsight
	}
}

// Evaluate decides whether generation must wait. A zero last means no
// insight was ever accepted.
func (c Cooldown) Evaluate(score int, last, now time.Time) CooldownVerdict {
	v := CooldownVerdict{Required: c.Required(score), Elapsed: neverElapsed}
	if !last.IsZero() {
		v.Elapsed = now.Sub(last)
	}
	v.Blocked = v.Elapsed < v.Required
	if v.Blocked && c.AllowBypass && score >= highRelevanceScore {
		v.Blocked = false
		v.Bypassed = true
	}
	return v
}
