package insight

import (
	"testing"
	"time"
)

func TestCooldownRequiredIsMonotonic(t *testing.T) {
	c := DefaultCooldown()
	prev := c.Required(0)
	for score := 1; score <= 100; score++ {
		got := c.Required(score)
		if got > prev {
			t.Fatalf("Required(%d) = %v > Required(%d) = %v", score, got, score-1, prev)
		}
		prev = got
	}
	if c.Required(85) != 10*time.Second || c.Required(70) != 20*time.Second || c.Required(69) != 25*time.Second {
		t.Fatalf("bands = %v/%v/%v", c.Required(85), c.Required(70), c.Required(69))
	}
}

func TestCooldownEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c := DefaultCooldown()

	if v := c.Evaluate(60, time.Time{}, now); v.Blocked {
		t.Fatalf("Evaluate() = %+v, want unblocked without prior insight", v)
	}
	if v := c.Evaluate(72, now.Add(-5*time.Second), now); !v.Blocked || v.Required != 20*time.Second {
		t.Fatalf("Evaluate() = %+v, want blocked for 20s", v)
	}
	if v := c.Evaluate(72, now.Add(-21*time.Second), now); v.Blocked {
		t.Fatalf("Evaluate() = %+v, want unblocked after window", v)
	}
	v := c.Evaluate(90, now.Add(-2*time.Second), now)
	if v.Blocked || !v.Bypassed {
		t.Fatalf("Evaluate() = %+v, want bypass for high relevance", v)
	}
	c.AllowBypass = false
	if v := c.Evaluate(90, now.Add(-2*time.Second), now); !v.Blocked {
		t.Fatalf("Evaluate() = %+v, want blocked without bypass", v)
	}
}
