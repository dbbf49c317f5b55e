/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/entitycrud/storagemodels"
)

// Model is a named collection of documents in a document store.
//
// FindByID, FindByIDAndUpdate and FindByIDAndRemove return (nil, nil) when no
// document has the given id.
type Model interface {
	FindByID(ctx context.Context, id string) (storagemodels.Document, error)

	Find(ctx context.Context, q storagemodels.Query) ([]storagemodels.Document, error)

	InsertOne(ctx context.Context, doc storagemodels.Document) (storagemodels.Document, error)

	InsertMany(ctx context.Context, docs []storagemodels.Document) ([]storagemodels.Document, error)

	// FindByIDAndUpdate applies patch and returns the updated document.
	FindByIDAndUpdate(ctx context.Context, id string, patch storagemodels.Document) (storagemodels.Document, error)

	UpdateMany(ctx context.Context, ids []string, patch storagemodels.Document) (*storagemodels.UpdateResult, error)

	// FindByIDAndRemove deletes the document and returns it as it was before removal.
	FindByIDAndRemove(ctx context.Context, id string) (storagemodels.Document, error)

	Remove(ctx context.Context, ids []string) (*storagemodels.DeleteResult, error)
}
