package store

import (
	"context"
	"sync"
)

// Memory is the fallback Store when no database is configured. Recovery
// rows only survive the process, which matches what single-node dev runs
// need.
type Memory struct {
	mu      sync.RWMutex
	names   map[string]string
	matches map[string]RecoveryInfo
	users   map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		names:   make(map[string]string),
		matches: make(map[string]RecoveryInfo),
		users:   make(map[string]string),
	}
}

func (m *Memory) DisplayName(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names[userID], nil
}

func (m *Memory) SetDisplayName(_ context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[userID] = name
	return nil
}

func (m *Memory) SaveActiveMatch(_ context.Context, matchID string, info RecoveryInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[matchID] = info
	return nil
}

func (m *Memory) GetActiveMatch(_ context.Context, matchID string) (*RecoveryInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.matches[matchID]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (m *Memory) ClearActiveMatch(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, matchID)
	return nil
}

func (m *Memory) SetUserActiveMatch(_ context.Context, userID, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if matchID == "" {
		delete(m.users, userID)
		return nil
	}
	m.users[userID] = matchID
	return nil
}

func (m *Memory) GetUserActiveMatch(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID], nil
}
