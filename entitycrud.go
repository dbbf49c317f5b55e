/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycrud

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/suparena/entitycrud/crud"
)

// Registry is a thread-safe set of controllers keyed by resource path.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*crud.Controller
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		controllers: make(map[string]*crud.Controller),
	}
}

func normalizePath(path string) string {
	return strings.Trim(path, "/")
}

// Register adds a controller served under /<path>.
func (r *Registry) Register(path string, c *crud.Controller) error {
	key := normalizePath(path)
	if key == "" {
		return fmt.Errorf("resource path must not be empty")
	}
	if c == nil {
		return fmt.Errorf("controller for %q is nil", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.controllers[key]; exists {
		return fmt.Errorf("resource %q already registered", key)
	}
	r.controllers[key] = c
	return nil
}

// Get retrieves the controller registered for path.
func (r *Registry) Get(path string) (*crud.Controller, error) {
	key := normalizePath(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.controllers[key]
	if !exists {
		return nil, fmt.Errorf("resource %q not found", key)
	}
	return c, nil
}

// Remove unregisters the controller for path.
func (r *Registry) Remove(path string) error {
	key := normalizePath(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.controllers[key]; !exists {
		return fmt.Errorf("resource %q not found", key)
	}
	delete(r.controllers, key)
	return nil
}

// List returns the registered resource paths, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedKeysLocked()
}

// Mount attaches every registered controller to router under /<path>.
// Controllers registered afterwards are not mounted.
func (r *Registry) Mount(router chi.Router) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.sortedKeysLocked() {
		router.Mount("/"+key, r.controllers[key].Routes())
	}
}

func (r *Registry) sortedKeysLocked() []string {
	keys := make([]string, 0, len(r.controllers))
	for k := range r.controllers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
