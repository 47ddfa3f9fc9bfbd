package voice

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ent0n29/callcoach/internal/conversation"
)

// NewFailoverTranscriber prefers primary and switches to fallback when a
// primary call fails. Once fallback succeeds it stays active until it fails
// itself; then primary is retried.
func NewFailoverTranscriber(primary, fallback Transcriber) Transcriber {
	if fallback == nil {
		return primary
	}
	return &failoverTranscriber{primary: primary, fallback: fallback}
}

type failoverTranscriber struct {
	fallbackActive atomic.Bool
	primary        Transcriber
	fallback       Transcriber
}

func (t *failoverTranscriber) Transcribe(ctx context.Context, samples []int16, sampleRate int, channel conversation.Speaker) (string, error) {
	if t.fallbackActive.Load() {
		text, fbErr := t.fallback.Transcribe(ctx, samples, sampleRate, channel)
		if fbErr == nil {
			return text, nil
		}
		// Fallback failed after being active; try primary again.
		text, prErr := t.primary.Transcribe(ctx, samples, sampleRate, channel)
		if prErr == nil {
			t.fallbackActive.Store(false)
			return text, nil
		}
		return "", fmt.Errorf("transcribe fallback failed: %v; transcribe primary failed: %w", fbErr, prErr)
	}

	text, prErr := t.primary.Transcribe(ctx, samples, sampleRate, channel)
	if prErr == nil {
		return text, nil
	}
	text, fbErr := t.fallback.Transcribe(ctx, samples, sampleRate, channel)
	if fbErr != nil {
		return "", fmt.Errorf("transcribe primary failed: %v; transcribe fallback failed: %w", prErr, fbErr)
	}
	t.fallbackActive.Store(true)
	return text, nil
}

// FallbackActive reports whether calls currently go to the fallback.
func (t *failoverTranscriber) FallbackActive() bool {
	return t.fallbackActive.Load()
}
