package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/world-forge/pkg/entity"
)

// ErrNotFound is returned when an entity id has no stored record.
var ErrNotFound = errors.New("entity not found")

// Storage persists composed entities. The pipeline itself never touches
// storage; callers (handlers, worker) save results after composition.
type Storage interface {
	// Ping checks if the storage backend is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close() error

	// SaveEntity stores a composed entity, keyed by its id
	SaveEntity(ctx context.Context, ent *entity.GeneratedEntity) error

	// GetEntity loads an entity by id. Returns ErrNotFound when absent.
	GetEntity(ctx context.Context, id string) (*entity.GeneratedEntity, error)

	// ListEntityIDs returns the ids of all stored entities
	ListEntityIDs(ctx context.Context) ([]string, error)

	// DeleteEntity removes an entity by id
	DeleteEntity(ctx context.Context, id string) error
}
