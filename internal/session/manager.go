// Package session keeps the live call sessions and serializes the work
// done on each of them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/callcoach/internal/conversation"
)

var ErrNotFound = errors.New("session not found")

// Ended is handed to callers of End and to the expire hook.
type Ended struct {
	Info
	State   *conversation.State
	EndedAt time.Time
	Expired bool
}

type entry struct {
	info  Info
	state *conversation.State

	// mu serializes operations on one session. ended is guarded by mu.
	mu    sync.Mutex
	ended bool
}

// Manager stores sessions in memory. Different sessions run in parallel;
// operations on the same session run one at a time.
type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*entry
	inactivityTimeout time.Duration
	onExpire          func(Ended)
	now               func() time.Time
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*entry),
		inactivityTimeout: inactivityTimeout,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// InactivityTimeout returns the idle time after which the janitor ends a session.
func (m *Manager) InactivityTimeout() time.Duration { return m.inactivityTimeout }

func (m *Manager) SetExpireHook(hook func(Ended)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create registers state under a fresh id.
func (m *Manager) Create(cfg Config, state *conversation.State) Info {
	now := m.now()
	e := &entry{
		info: Info{
			ID:             uuid.NewString(),
			Config:         cfg,
			StartedAt:      now,
			LastActivityAt: now,
		},
		state: state,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[e.info.ID] = e
	return e.info
}

func (m *Manager) Get(sessionID string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return Info{}, ErrNotFound
	}
	return e.info, nil
}

// With runs fn with exclusive access to the session state. Concurrent
// calls for the same session wait for each other.
func (m *Manager) With(sessionID string, fn func(*conversation.State) error) error {
	e, err := m.touch(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		return ErrNotFound
	}
	err = fn(e.state)
	_, _ = m.touch(sessionID)
	return err
}

func (m *Manager) touch(sessionID string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	e.info.LastActivityAt = m.now()
	return e, nil
}

// End removes the session and returns its final state. It waits for an
// in-flight operation on the session to finish.
func (m *Manager) End(sessionID string) (Ended, error) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return Ended{}, ErrNotFound
	}
	return m.finish(e, false), nil
}

func (m *Manager) finish(e *entry, expired bool) Ended {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended = true
	return Ended{Info: e.info, State: e.state, EndedAt: m.now(), Expired: expired}
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs lists the live session ids in no particular order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) expireInactive() {
	now := m.now()
	var expired []*entry

	m.mu.Lock()
	for id, e := range m.sessions {
		if now.Sub(e.info.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		expired = append(expired, e)
		delete(m.sessions, id)
	}
	hook := m.onExpire
	m.mu.Unlock()

	for _, e := range expired {
		ended := m.finish(e, true)
		if hook != nil {
			hook(ended)
		}
	}
}
