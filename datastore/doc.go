/*
Package datastore defines the core interface for the persistence layer behind
the CRUD controllers.

The main interface is Model, a named collection of schema-flexible documents:

	type Model interface {
	    FindByID(ctx context.Context, id string) (storagemodels.Document, error)
	    Find(ctx context.Context, q storagemodels.Query) ([]storagemodels.Document, error)
	    InsertOne(ctx context.Context, doc storagemodels.Document) (storagemodels.Document, error)
	    InsertMany(ctx context.Context, docs []storagemodels.Document) ([]storagemodels.Document, error)
	    FindByIDAndUpdate(ctx context.Context, id string, patch storagemodels.Document) (storagemodels.Document, error)
	    UpdateMany(ctx context.Context, ids []string, patch storagemodels.Document) (*storagemodels.UpdateResult, error)
	    FindByIDAndRemove(ctx context.Context, id string) (storagemodels.Document, error)
	    Remove(ctx context.Context, ids []string) (*storagemodels.DeleteResult, error)
	}

Implementations:
  - memory: in-memory model for tests and local runs
  - mongodb: MongoDB collection
  - ddb: DynamoDB single-table design

Patches follow MongoDB update semantics: a document whose keys are plain field
names is merged into the stored document, while operator documents ("$set",
"$unset") are applied as written.
*/
package datastore
