package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jwebster45206/world-forge/pkg/entity"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	entities  map[string]*entity.GeneratedEntity
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		entities: make(map[string]*entity.GeneratedEntity),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on SaveEntity with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveEntity mocks saving an entity
func (m *MockStorage) SaveEntity(ctx context.Context, ent *entity.GeneratedEntity) error {
	if ent == nil || ent.ID == "" {
		return errors.New("entity must have an id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.entities[ent.ID] = ent
	return nil
}

// GetEntity mocks loading an entity
func (m *MockStorage) GetEntity(ctx context.Context, id string) (*entity.GeneratedEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ent, ok := m.entities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ent, nil
}

// ListEntityIDs mocks listing stored entity ids
func (m *MockStorage) ListEntityIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.entities))
	for id := range m.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteEntity mocks deleting an entity
func (m *MockStorage) DeleteEntity(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[id]; !ok {
		return ErrNotFound
	}
	delete(m.entities, id)
	return nil
}
