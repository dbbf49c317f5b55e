/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-memory implementation of datastore.Model for
// tests and local runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/suparena/entitycrud/datastore"
	"github.com/suparena/entitycrud/storagemodels"
)

// Op names a Model operation for error injection.
type Op string

const (
	OpFindByID          Op = "findById"
	OpFind              Op = "find"
	OpInsertOne         Op = "insertOne"
	OpInsertMany        Op = "insertMany"
	OpFindByIDAndUpdate Op = "findByIdAndUpdate"
	OpUpdateMany        Op = "updateMany"
	OpFindByIDAndRemove Op = "findByIdAndRemove"
	OpRemove            Op = "remove"
)

// ErrDuplicateKey is returned when inserting a document whose _id is taken.
var ErrDuplicateKey = errors.New("duplicate key")

// Model is an in-memory, concurrency-safe datastore.Model.
// Documents are kept in insertion order.
type Model struct {
	mu    sync.RWMutex
	name  string
	order []string
	data  map[string]storagemodels.Document
	errs  map[Op]error
	newID func() string
}

var _ datastore.Model = (*Model)(nil)

// New creates an empty in-memory model.
func New(name string) *Model {
	return &Model{
		name:  name,
		data:  make(map[string]storagemodels.Document),
		errs:  make(map[Op]error),
		newID: func() string { return uuid.NewString() },
	}
}

// WithError makes op fail with err. A nil err clears the injection.
func (m *Model) WithError(op Op, err error) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
	} else {
		m.errs[op] = err
	}
	return m
}

// WithIDFunc sets the generator used for documents inserted without an _id.
func (m *Model) WithIDFunc(f func() string) *Model {
	m.newID = f
	return m
}

// Name returns the collection name.
func (m *Model) Name() string {
	return m.name
}

func (m *Model) injected(op Op) error {
	return m.errs[op]
}

// FindByID retrieves a document by id, or nil if absent.
func (m *Model) FindByID(ctx context.Context, id string) (storagemodels.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.injected(OpFindByID); err != nil {
		return nil, err
	}
	doc, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

// Find returns the documents matching q in insertion order.
func (m *Model) Find(ctx context.Context, q storagemodels.Query) ([]storagemodels.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.injected(OpFind); err != nil {
		return nil, err
	}

	var wanted map[string]struct{}
	if q.IDs != nil {
		wanted = make(map[string]struct{}, len(q.IDs))
		for _, id := range q.IDs {
			wanted[id] = struct{}{}
		}
	}

	results := make([]storagemodels.Document, 0)
	var skipped int64
	for _, id := range m.order {
		if wanted != nil {
			if _, ok := wanted[id]; !ok {
				continue
			}
		}
		if skipped < q.Skip {
			skipped++
			continue
		}
		if q.Limit > 0 && int64(len(results)) >= q.Limit {
			break
		}
		results = append(results, m.data[id].Clone())
	}
	return results, nil
}

// InsertOne stores doc, assigning an _id when it has none.
func (m *Model) InsertOne(ctx context.Context, doc storagemodels.Document) (storagemodels.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(OpInsertOne); err != nil {
		return nil, err
	}
	stored, err := m.prepare(doc, nil)
	if err != nil {
		return nil, err
	}
	m.put(stored)
	return stored.Clone(), nil
}

// InsertMany stores every document or none of them.
func (m *Model) InsertMany(ctx context.Context, docs []storagemodels.Document) ([]storagemodels.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(OpInsertMany); err != nil {
		return nil, err
	}

	pending := make(map[string]struct{}, len(docs))
	prepared := make([]storagemodels.Document, 0, len(docs))
	for _, doc := range docs {
		stored, err := m.prepare(doc, pending)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, stored)
	}

	out := make([]storagemodels.Document, len(prepared))
	for i, stored := range prepared {
		m.put(stored)
		out[i] = stored.Clone()
	}
	return out, nil
}

// FindByIDAndUpdate applies patch to one document and returns the result, or nil if absent.
func (m *Model) FindByIDAndUpdate(ctx context.Context, id string, patch storagemodels.Document) (storagemodels.Document, error) {
	set, unset, err := datastore.NormalizePatch(patch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(OpFindByIDAndUpdate); err != nil {
		return nil, err
	}
	doc, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	apply(doc, set, unset)
	return doc.Clone(), nil
}

// UpdateMany applies patch to every listed document that exists.
func (m *Model) UpdateMany(ctx context.Context, ids []string, patch storagemodels.Document) (*storagemodels.UpdateResult, error) {
	set, unset, err := datastore.NormalizePatch(patch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(OpUpdateMany); err != nil {
		return nil, err
	}

	res := &storagemodels.UpdateResult{Acknowledged: true}
	for _, id := range unique(ids) {
		doc, ok := m.data[id]
		if !ok {
			continue
		}
		res.MatchedCount++
		if apply(doc, set, unset) {
			res.ModifiedCount++
		}
	}
	return res, nil
}

// FindByIDAndRemove deletes one document and returns it, or nil if absent.
func (m *Model) FindByIDAndRemove(ctx context.Context, id string) (storagemodels.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(OpFindByIDAndRemove); err != nil {
		return nil, err
	}
	doc, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	m.delete(id)
	return doc, nil
}

// Remove deletes every listed document that exists.
func (m *Model) Remove(ctx context.Context, ids []string) (*storagemodels.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(OpRemove); err != nil {
		return nil, err
	}

	res := &storagemodels.DeleteResult{Acknowledged: true}
	for _, id := range unique(ids) {
		if _, ok := m.data[id]; ok {
			m.delete(id)
			res.DeletedCount++
		}
	}
	return res, nil
}

// Helper methods for testing

// SetData replaces the stored documents. Each document must carry a string _id.
func (m *Model) SetData(docs []storagemodels.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := make(map[string]storagemodels.Document, len(docs))
	order := make([]string, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc.ID()
		if !ok {
			return fmt.Errorf("document without _id: %v", doc)
		}
		if _, dup := data[id]; !dup {
			order = append(order, id)
		}
		data[id] = doc.Clone()
	}
	m.data = data
	m.order = order
	return nil
}

// Count returns the number of stored documents.
func (m *Model) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all documents.
func (m *Model) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]storagemodels.Document)
	m.order = nil
}

// prepare copies doc and resolves its id. pending tracks ids claimed by the
// current batch; it may be nil. Caller holds the write lock.
func (m *Model) prepare(doc storagemodels.Document, pending map[string]struct{}) (storagemodels.Document, error) {
	stored := doc.Clone()
	if stored == nil {
		stored = storagemodels.Document{}
	}
	id, ok := stored.ID()
	if !ok {
		if raw, present := stored[storagemodels.IDField]; present && raw != nil {
			return nil, fmt.Errorf("unsupported _id type %T", raw)
		}
		id = m.newID()
		stored[storagemodels.IDField] = id
	}
	if _, exists := m.data[id]; exists {
		return nil, fmt.Errorf("%w: %s collection _id %q", ErrDuplicateKey, m.name, id)
	}
	if pending != nil {
		if _, claimed := pending[id]; claimed {
			return nil, fmt.Errorf("%w: %s collection _id %q", ErrDuplicateKey, m.name, id)
		}
		pending[id] = struct{}{}
	}
	return stored, nil
}

func (m *Model) put(doc storagemodels.Document) {
	id, _ := doc.ID()
	m.data[id] = doc
	m.order = append(m.order, id)
}

func (m *Model) delete(id string) {
	delete(m.data, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// apply mutates doc and reports whether anything changed.
func apply(doc, set storagemodels.Document, unset []string) bool {
	changed := false
	for k, v := range set {
		if old, ok := doc[k]; !ok || fmt.Sprint(old) != fmt.Sprint(v) {
			changed = true
		}
		doc[k] = v
	}
	for _, k := range unset {
		if _, ok := doc[k]; ok {
			delete(doc, k)
			changed = true
		}
	}
	return changed
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
