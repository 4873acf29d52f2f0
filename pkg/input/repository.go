package input

import (
	"context"
	"sync"
)

// Repository finds a single entity matching every column/value pair of the criteria.
// A missing entity is reported as (nil, nil).
type Repository interface {
	FindOne(ctx context.Context, criteria map[string]any) (any, error)
}

// RepositoryFunc adapts a function to Repository
type RepositoryFunc func(ctx context.Context, criteria map[string]any) (any, error)

func (f RepositoryFunc) FindOne(ctx context.Context, criteria map[string]any) (any, error) {
	return f(ctx, criteria)
}

// Repositories resolves the repository of an entity name
type Repositories interface {
	Repository(entity string) (Repository, error)
}

// RepositoryMap is a Repositories backed by a map, safe for concurrent use
type RepositoryMap struct {
	mu    sync.RWMutex
	repos map[string]Repository
}

// NewRepositoryMap creates a RepositoryMap holding repos
func NewRepositoryMap(repos map[string]Repository) *RepositoryMap {
	m := &RepositoryMap{repos: make(map[string]Repository, len(repos))}
	for name, repo := range repos {
		m.repos[name] = repo
	}
	return m
}

// Set registers repo for entity
func (m *RepositoryMap) Set(entity string, repo Repository) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repos[entity] = repo
}

// Repository implements Repositories
func (m *RepositoryMap) Repository(entity string) (Repository, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	repo, ok := m.repos[entity]
	if !ok {
		return nil, configErrorf("no repository registered for entity %q", entity)
	}
	return repo, nil
}
