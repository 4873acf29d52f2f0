// Package repository provides input.Repository implementations backed by memory and SQL databases.
package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/toyz/axon-input/pkg/input"
)

// Memory is an in-process repository. Criteria match an entity when every column
// equals the entity's field of the same key, compared by their printed form so that
// "42" from a query string matches an int 42.
type Memory struct {
	mu        sync.RWMutex
	entities  []any
	extractor input.Hydrator
}

// NewMemory creates a repository holding entities. Columns are read with a StructHydrator.
func NewMemory(entities ...any) *Memory {
	return &Memory{entities: entities, extractor: input.NewStructHydrator()}
}

// WithExtractor returns m reading columns through h, e.g. an AccessorHydrator
func (m *Memory) WithExtractor(h input.Hydrator) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractor = h
	return m
}

// Add appends entities
func (m *Memory) Add(entities ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = append(m.entities, entities...)
}

// Len returns the number of stored entities
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

// FindOne implements input.Repository
func (m *Memory) FindOne(ctx context.Context, criteria map[string]any) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entity := range m.entities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		columns, err := m.extractor.Extract(entity)
		if err != nil {
			return nil, err
		}
		if matches(columns, criteria) {
			return entity, nil
		}
	}
	return nil, nil
}

func matches(columns, criteria map[string]any) bool {
	for column, want := range criteria {
		got, ok := lookup(columns, column)
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func lookup(columns map[string]any, column string) (any, bool) {
	if v, ok := columns[column]; ok {
		return v, true
	}
	for k, v := range columns {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return nil, false
}
