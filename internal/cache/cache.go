// Package cache stores serialized game snapshots keyed by game id.
package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Cache is the snapshot cache. Get reports ok=false when no snapshot exists.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (data []byte, ok bool, err error)
	Set(ctx context.Context, id uuid.UUID, data []byte) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

// Key is the cache key of a game snapshot.
func Key(id uuid.UUID) string { return "game:" + id.String() }

// Memory is a process-local Cache used when no Redis URL is configured.
type Memory struct {
	mu    sync.RWMutex
	items map[uuid.UUID][]byte
}

func NewMemory() *Memory {
	return &Memory{items: map[uuid.UUID][]byte{}}
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.items[id]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *Memory) Set(_ context.Context, id uuid.UUID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
