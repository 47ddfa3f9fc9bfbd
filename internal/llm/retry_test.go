package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryingRetriesTransientErrors(t *testing.T) {
	calls := 0
	inner := &Mock{Respond: func(Request) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("openai: chat completion: %w", context.DeadlineExceeded)
		}
		return "ok", nil
	}}
	r := NewRetrying(inner, 3, time.Millisecond, 2*time.Millisecond)
	got, err := r.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil || got != "ok" {
		t.Fatalf("Complete() = %q, %v", got, err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryingStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("invalid model")
	inner := &Mock{Err: permanent}
	r := NewRetrying(inner, 5, time.Millisecond, time.Millisecond)
	if _, err := r.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, permanent) {
		t.Fatalf("Complete() error = %v, want %v", err, permanent)
	}
	if inner.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", inner.Calls())
	}
}

func TestRetryingHonoursCancellation(t *testing.T) {
	inner := &Mock{Err: context.DeadlineExceeded}
	r := NewRetrying(inner, 3, time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Complete(ctx, Request{Prompt: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Complete() error = %v, want context.Canceled", err)
	}
}
