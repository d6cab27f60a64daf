package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu       sync.RWMutex
	games    map[uuid.UUID]GameRecord
	sessions map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:    map[uuid.UUID]GameRecord{},
		sessions: map[string]string{},
	}
}

func (m *MemoryStore) PutGame(_ context.Context, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[rec.ID] = rec
	return nil
}

func (m *MemoryStore) PutSession(_ context.Context, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = userID
	return nil
}

func (m *MemoryStore) FindGame(_ context.Context, id uuid.UUID) (GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.games[id]
	if !ok {
		return GameRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) DeleteGame(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *MemoryStore) EndGame(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	rec.Ended = true
	m.games[id] = rec
	return nil
}

func (m *MemoryStore) ListActiveGames(_ context.Context) ([]GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []GameRecord
	for _, rec := range m.games {
		if !rec.Pending && !rec.Ended {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b GameRecord) int { return slices.Compare(a.ID[:], b.ID[:]) })
	return out, nil
}

func (m *MemoryStore) LookupSession(_ context.Context, token string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userID, ok := m.sessions[token]
	if !ok {
		return "", ErrNotFound
	}
	return userID, nil
}

var _ Store = (*MemoryStore)(nil)
