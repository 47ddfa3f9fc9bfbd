package llm

import (
	"context"
	"time"

	"github.com/ent0n29/callcoach/internal/reliability"
)

// Retrying retries transient failures of the wrapped Completer with capped
// exponential backoff. Non-retryable errors return immediately.
type Retrying struct {
	Completer Completer
	Attempts  int
	Base      time.Duration
	Cap       time.Duration
}

// NewRetrying wraps c. attempts below 1 means a single call.
func NewRetrying(c Completer, attempts int, base, cap time.Duration) *Retrying {
	return &Retrying{Completer: c, Attempts: attempts, Base: base, Cap: cap}
}

// Complete implements Completer.
func (r *Retrying) Complete(ctx context.Context, req Request) (string, error) {
	attempts := max(r.Attempts, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(reliability.ExponentialBackoff(attempt-1, r.Base, r.Cap))
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}
		answer, err := r.Completer.Complete(ctx, req)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if !reliability.IsRetryable(err) {
			break
		}
	}
	return "", lastErr
}
