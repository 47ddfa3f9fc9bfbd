package voice

import (
	"context"
	"sync"

	"github.com/ent0n29/callcoach/internal/conversation"
)

// MockTranscriber is the offline transcriber used when no OpenAI key is
// configured. Scripted lines are served in order per channel; once a
// channel's script is exhausted, Default is returned for that channel.
type MockTranscriber struct {
	mu      sync.Mutex
	script  map[conversation.Speaker][]string
	Default map[conversation.Speaker]string
	Err     error
	calls   map[conversation.Speaker]int
}

// NewMockTranscriber returns a mock that answers every non-empty chunk with
// a canned line per channel.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{
		Default: map[conversation.Speaker]string{
			conversation.SpeakerSalesperson: "Pouvez-vous me décrire votre processus actuel ?",
			conversation.SpeakerClient:      "On perd beaucoup de temps sur le suivi des appels.",
		},
	}
}

// Script queues lines for channel.
func (m *MockTranscriber) Script(channel conversation.Speaker, lines ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.script == nil {
		m.script = make(map[conversation.Speaker][]string)
	}
	m.script[channel] = append(m.script[channel], lines...)
}

// Transcribe implements Transcriber.
func (m *MockTranscriber) Transcribe(_ context.Context, samples []int16, _ int, channel conversation.Speaker) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[conversation.Speaker]int)
	}
	m.calls[channel]++
	if m.Err != nil {
		return "", m.Err
	}
	if len(samples) == 0 {
		return "", ErrNoAudio
	}
	if queue := m.script[channel]; len(queue) > 0 {
		m.script[channel] = queue[1:]
		return queue[0], nil
	}
	return m.Default[channel], nil
}

// Calls returns how many times channel was transcribed.
func (m *MockTranscriber) Calls(channel conversation.Speaker) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[channel]
}
