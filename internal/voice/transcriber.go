// Package voice turns the two audio channels of a call into clean text.
package voice

import (
	"context"
	"errors"

	"github.com/ent0n29/callcoach/internal/conversation"
)

// ErrNoAudio is returned by transcribers for an empty sample slice.
var ErrNoAudio = errors.New("no audio samples")

// Transcriber converts one channel of mono PCM16 audio into raw text.
// An empty string means nothing was recognized.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16, sampleRate int, channel conversation.Speaker) (string, error)
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, samples []int16, sampleRate int, channel conversation.Speaker) (string, error)

// Transcribe implements Transcriber.
func (f TranscriberFunc) Transcribe(ctx context.Context, samples []int16, sampleRate int, channel conversation.Speaker) (string, error) {
	return f(ctx, samples, sampleRate, channel)
}
