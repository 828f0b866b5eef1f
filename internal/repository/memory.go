package repository

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process store used by the console host and when no database is configured.
type Memory struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	locations []CapturedLocation
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]Session)}
}

func (m *Memory) LoadSession(_ context.Context, conversationID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[conversationID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.State = slices.Clone(session.State)

	return &session, nil
}

func (m *Memory) SaveSession(_ context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.State = slices.Clone(session.State)
	m.sessions[session.ConversationID] = session

	return nil
}

func (m *Memory) DeleteSession(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, conversationID)
	return nil
}

func (m *Memory) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			removed++
		}
	}

	return removed, nil
}

func (m *Memory) CountSessions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions), nil
}

func (m *Memory) SaveCapturedLocation(_ context.Context, loc CapturedLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.locations = append(m.locations, loc)
	return nil
}

func (m *Memory) RecentLocations(_ context.Context, conversationID string, limit int) ([]CapturedLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []CapturedLocation
	for i := len(m.locations) - 1; i >= 0 && len(out) < limit; i-- {
		if m.locations[i].ConversationID == conversationID {
			out = append(out, m.locations[i])
		}
	}

	return out, nil
}
