/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suparena/entitycrud/datastore"
	"github.com/suparena/entitycrud/datastore/ddb"
	"github.com/suparena/entitycrud/datastore/memory"
	"github.com/suparena/entitycrud/datastore/mongodb"
	"github.com/suparena/entitycrud/internal/config"
	"github.com/suparena/entitycrud/registry"
)

// backend opens models for the configured store and releases its client.
type backend struct {
	Open  func(collection string) (datastore.Model, error)
	Close func(ctx context.Context) error
}

func openBackend(ctx context.Context, cfg *config.Config, resources []config.Resource) (*backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return &backend{
			Open:  func(collection string) (datastore.Model, error) { return memory.New(collection), nil },
			Close: func(context.Context) error { return nil },
		}, nil

	case config.BackendMongoDB:
		client, err := mongodb.Connect(ctx, cfg.MongoDB.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB.Database)
		return &backend{
			Open:  mongoOpener(db),
			Close: client.Disconnect,
		}, nil

	case config.BackendDynamoDB:
		if err := registerIndexMaps(resources); err != nil {
			return nil, err
		}
		client, err := ddb.NewClient(ctx, ddb.ClientConfig{
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Region:    cfg.AWS.Region,
			Endpoint:  cfg.AWS.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		table := cfg.AWS.Table
		return &backend{
			Open: func(collection string) (datastore.Model, error) {
				return ddb.NewDynamodbModel(client, table, collection), nil
			},
			Close: func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func mongoOpener(db *mongo.Database) func(string) (datastore.Model, error) {
	return func(collection string) (datastore.Model, error) {
		return mongodb.NewMongoModel(db.Collection(collection)), nil
	}
}

// registerIndexMaps installs the key patterns declared in the resources file.
func registerIndexMaps(resources []config.Resource) error {
	for _, res := range resources {
		if len(res.IndexMap) == 0 {
			continue
		}
		if err := registry.RegisterIndexMap(res.CollectionName(), res.IndexMap); err != nil {
			return fmt.Errorf("resource %q: %w", res.Path, err)
		}
	}
	return nil
}
