/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mongodb implements datastore.Model on a MongoDB collection.
//
// String ids that are valid BSON ObjectIds are cast to primitive.ObjectID
// before they reach the server, so documents created by the driver can be
// addressed by their hex id. Plain patches are applied as $set; operator
// patches are passed through unchanged.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suparena/entitycrud/datastore"
	"github.com/suparena/entitycrud/storagemodels"
)

// MongoModel wraps a single collection.
type MongoModel struct {
	coll *mongo.Collection
}

var _ datastore.Model = (*MongoModel)(nil)

// Connect opens a client for uri and verifies the deployment is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// NewMongoModel returns a model backed by coll.
func NewMongoModel(coll *mongo.Collection) *MongoModel {
	return &MongoModel{coll: coll}
}

// castID converts a hex ObjectId string to primitive.ObjectID and leaves any
// other id as is.
func castID(id string) any {
	if strfmt.IsBSONObjectID(id) {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			return oid
		}
	}
	return id
}

func castIDs(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = castID(id)
	}
	return out
}

func byID(id string) bson.M {
	return bson.M{"_id": castID(id)}
}

func byIDs(ids []string) bson.M {
	return bson.M{"_id": bson.M{"$in": castIDs(ids)}}
}

// toUpdate builds the update document for a patch. It returns nil when the
// patch changes nothing.
func toUpdate(patch storagemodels.Document) bson.M {
	if datastore.IsOperatorPatch(patch) {
		return bson.M(patch)
	}
	set := bson.M{}
	for k, v := range patch {
		if k == storagemodels.IDField {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return nil
	}
	return bson.M{"$set": set}
}

// prepare copies doc and casts a hex string _id to an ObjectId.
func prepare(doc storagemodels.Document) bson.M {
	out := bson.M{}
	for k, v := range doc {
		out[k] = v
	}
	if id, ok := out[storagemodels.IDField].(string); ok {
		out[storagemodels.IDField] = castID(id)
	}
	return out
}

func fromBSON(m bson.M) storagemodels.Document {
	if m == nil {
		return nil
	}
	return storagemodels.Document(m)
}

// decodeOne decodes a single result, mapping ErrNoDocuments to nil.
func decodeOne(res *mongo.SingleResult) (storagemodels.Document, error) {
	var m bson.M
	if err := res.Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return fromBSON(m), nil
}

// FindByID retrieves a single document by id, or nil if none exists.
func (m *MongoModel) FindByID(ctx context.Context, id string) (storagemodels.Document, error) {
	doc, err := decodeOne(m.coll.FindOne(ctx, byID(id)))
	if err != nil {
		return nil, fmt.Errorf("findOne on %s: %w", m.coll.Name(), err)
	}
	return doc, nil
}

// Find returns the documents selected by q in natural order.
func (m *MongoModel) Find(ctx context.Context, q storagemodels.Query) ([]storagemodels.Document, error) {
	filter := bson.M{}
	if q.IDs != nil {
		filter = byIDs(q.IDs)
	}

	opts := options.Find()
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find on %s: %w", m.coll.Name(), err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("find on %s: %w", m.coll.Name(), err)
	}

	docs := make([]storagemodels.Document, len(raw))
	for i, r := range raw {
		docs[i] = fromBSON(r)
	}
	return docs, nil
}

// InsertOne stores doc and returns it with its _id.
func (m *MongoModel) InsertOne(ctx context.Context, doc storagemodels.Document) (storagemodels.Document, error) {
	stored := prepare(doc)
	res, err := m.coll.InsertOne(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("insertOne on %s: %w", m.coll.Name(), err)
	}
	stored[storagemodels.IDField] = res.InsertedID
	return fromBSON(stored), nil
}

// InsertMany stores docs in one ordered insert.
func (m *MongoModel) InsertMany(ctx context.Context, docs []storagemodels.Document) ([]storagemodels.Document, error) {
	if len(docs) == 0 {
		return []storagemodels.Document{}, nil
	}

	prepared := make([]bson.M, len(docs))
	batch := make([]any, len(docs))
	for i, doc := range docs {
		prepared[i] = prepare(doc)
		batch[i] = prepared[i]
	}

	res, err := m.coll.InsertMany(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("insertMany on %s: %w", m.coll.Name(), err)
	}

	out := make([]storagemodels.Document, len(prepared))
	for i, p := range prepared {
		if i < len(res.InsertedIDs) {
			p[storagemodels.IDField] = res.InsertedIDs[i]
		}
		out[i] = fromBSON(p)
	}
	return out, nil
}

// FindByIDAndUpdate applies patch and returns the updated document, or nil.
func (m *MongoModel) FindByIDAndUpdate(ctx context.Context, id string, patch storagemodels.Document) (storagemodels.Document, error) {
	update := toUpdate(patch)
	if update == nil {
		return m.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	doc, err := decodeOne(m.coll.FindOneAndUpdate(ctx, byID(id), update, opts))
	if err != nil {
		return nil, fmt.Errorf("findOneAndUpdate on %s: %w", m.coll.Name(), err)
	}
	return doc, nil
}

// UpdateMany applies patch to every document whose id is listed.
func (m *MongoModel) UpdateMany(ctx context.Context, ids []string, patch storagemodels.Document) (*storagemodels.UpdateResult, error) {
	filter := byIDs(ids)
	update := toUpdate(patch)
	if update == nil {
		n, err := m.coll.CountDocuments(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("countDocuments on %s: %w", m.coll.Name(), err)
		}
		return &storagemodels.UpdateResult{Acknowledged: true, MatchedCount: n}, nil
	}

	res, err := m.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("updateMany on %s: %w", m.coll.Name(), err)
	}
	return &storagemodels.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

// FindByIDAndRemove deletes a document and returns it, or nil.
func (m *MongoModel) FindByIDAndRemove(ctx context.Context, id string) (storagemodels.Document, error) {
	doc, err := decodeOne(m.coll.FindOneAndDelete(ctx, byID(id)))
	if err != nil {
		return nil, fmt.Errorf("findOneAndDelete on %s: %w", m.coll.Name(), err)
	}
	return doc, nil
}

// Remove deletes every document whose id is listed.
func (m *MongoModel) Remove(ctx context.Context, ids []string) (*storagemodels.DeleteResult, error) {
	res, err := m.coll.DeleteMany(ctx, byIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("deleteMany on %s: %w", m.coll.Name(), err)
	}
	return &storagemodels.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
