/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycrud

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/entitycrud/datastore"
)

// ModelFactory opens the model backing a collection.
type ModelFactory func(collection string) (datastore.Model, error)

// ModelSet shares one datastore.Model per collection between resources.
type ModelSet struct {
	mu      sync.Mutex
	factory ModelFactory
	models  map[string]datastore.Model
}

// NewModelSet creates a ModelSet that opens missing models with factory.
func NewModelSet(factory ModelFactory) *ModelSet {
	return &ModelSet{
		factory: factory,
		models:  make(map[string]datastore.Model),
	}
}

// Register adds a model for collection.
func (s *ModelSet) Register(collection string, m datastore.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[collection]; exists {
		return fmt.Errorf("model for collection %q already registered", collection)
	}
	s.models[collection] = m
	return nil
}

// Get returns the model for collection, opening it on first use.
func (s *ModelSet) Get(collection string) (datastore.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, exists := s.models[collection]; exists {
		return m, nil
	}
	if s.factory == nil {
		return nil, fmt.Errorf("model for collection %q not found", collection)
	}

	m, err := s.factory(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", collection, err)
	}
	s.models[collection] = m
	return m, nil
}

// Collections returns the collections opened so far, sorted.
func (s *ModelSet) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.models))
	for k := range s.models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
