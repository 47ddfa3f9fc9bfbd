package llm

import (
	"context"
	"sync"
)

// Mock is a scripted Completer for tests and offline mode. Answers are
// served in order; once exhausted the last answer repeats. Respond, when
// set, takes precedence over the script.
type Mock struct {
	Answers []string
	Err     error
	Respond func(Request) (string, error)

	mu       sync.Mutex
	next     int
	requests []Request
}

// Complete implements Completer.
func (m *Mock) Complete(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.Respond != nil {
		return m.Respond(req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Answers) == 0 {
		return "", nil
	}
	i := m.next
	if i >= len(m.Answers) {
		i = len(m.Answers) - 1
	} else {
		m.next++
	}
	return m.Answers[i], nil
}

// Requests returns every request seen so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls reports how many requests were made.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
