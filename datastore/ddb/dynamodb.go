/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/suparena/entitycrud/datastore"
	"github.com/suparena/entitycrud/registry"
	"github.com/suparena/entitycrud/storagemodels"
)

// EntityTypeAttr tags every item with the collection it belongs to.
const EntityTypeAttr = "EntityType"

const (
	batchGetLimit   = 100
	batchWriteLimit = 25
)

// ErrUnprocessed is returned when DynamoDB leaves part of a batch unprocessed.
var ErrUnprocessed = errors.New("batch partially unprocessed")

// API is the subset of the DynamoDB client used by DynamodbModel.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *sdk.BatchGetItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error)
}

// DynamodbModel implements datastore.Model on a single DynamoDB table.
// Several collections can share the table; items are told apart by EntityTypeAttr.
type DynamodbModel struct {
	client     API
	tableName  string
	collection string
	newID      func() string
}

var _ datastore.Model = (*DynamodbModel)(nil)

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// ClientConfig holds the settings used to build a DynamoDB client.
type ClientConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewClient initializes a DynamoDB client. Static credentials are used when an
// access key is given, otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cc ClientConfig) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cc.Region),
	}
	if cc.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKey, cc.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	})
	return client, nil
}

// NewDynamodbModel constructs a model for one collection stored in tableName.
func NewDynamodbModel(client API, tableName, collection string) *DynamodbModel {
	return &DynamodbModel{
		client:     client,
		tableName:  tableName,
		collection: collection,
		newID:      func() string { return uuid.NewString() },
	}
}

// WithIDFunc sets the generator used for documents inserted without an _id.
func (d *DynamodbModel) WithIDFunc(f func() string) *DynamodbModel {
	d.newID = f
	return d
}

func (d *DynamodbModel) indexMap() map[string]string {
	return registry.IndexMapFor(d.collection)
}

// expandMacros replaces {field} macros in every template with the matching
// document attribute. Unknown or non-scalar fields expand to "".
func expandMacros(indexMap map[string]string, av map[string]types.AttributeValue) map[string]string {
	res := make(map[string]string, len(indexMap))

	for fieldName, template := range indexMap {
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")

			val, ok := av[key]
			if !ok {
				return ""
			}

			switch tv := val.(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				return ""
			}
		})
		res[fieldName] = expanded
	}

	return res
}

// expandStringKey builds the primary key for an id: every macro in the PK and
// SK templates is replaced with the id.
func expandStringKey(indexMap map[string]string, id string) (map[string]types.AttributeValue, error) {
	pk := macroPattern.ReplaceAllLiteralString(indexMap["PK"], id)
	sk := macroPattern.ReplaceAllLiteralString(indexMap["SK"], id)
	if pk == "" || sk == "" {
		return nil, fmt.Errorf("index map missing valid PK or SK")
	}
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}

func (d *DynamodbModel) keyFor(id string) (map[string]types.AttributeValue, error) {
	key, err := expandStringKey(d.indexMap(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to build key for %s %q: %w", d.collection, id, err)
	}
	return key, nil
}

// toItem marshals a document and adds its key and type attributes.
func (d *DynamodbModel) toItem(doc storagemodels.Document) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	indexMap := d.indexMap()
	for k, v := range expandMacros(indexMap, av) {
		av[k] = &types.AttributeValueMemberS{Value: v}
	}
	id, _ := doc.ID()
	key, err := expandStringKey(indexMap, id)
	if err != nil {
		return nil, err
	}
	for k, v := range key {
		av[k] = v
	}
	av[EntityTypeAttr] = &types.AttributeValueMemberS{Value: d.collection}
	return av, nil
}

// fromItem strips key and type attributes and unmarshals the rest.
func (d *DynamodbModel) fromItem(item map[string]types.AttributeValue) (storagemodels.Document, error) {
	if len(item) == 0 {
		return nil, nil
	}

	clean := make(map[string]types.AttributeValue, len(item))
	reserved := d.reservedAttrs()
	for k, v := range item {
		if _, skip := reserved[k]; skip {
			continue
		}
		clean[k] = v
	}

	var doc map[string]any
	if err := attributevalue.UnmarshalMap(clean, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return storagemodels.Document(doc), nil
}

func (d *DynamodbModel) reservedAttrs() map[string]struct{} {
	reserved := map[string]struct{}{
		"PK":           {},
		"SK":           {},
		EntityTypeAttr: {},
	}
	for k := range d.indexMap() {
		reserved[k] = struct{}{}
	}
	return reserved
}

// ensureID copies doc and assigns an _id when it has none.
func (d *DynamodbModel) ensureID(doc storagemodels.Document) (storagemodels.Document, error) {
	out := doc.Clone()
	if out == nil {
		out = storagemodels.Document{}
	}
	if _, ok := out.ID(); !ok {
		if raw, present := out[storagemodels.IDField]; present && raw != nil {
			return nil, fmt.Errorf("unsupported _id type %T", raw)
		}
		out[storagemodels.IDField] = d.newID()
	}
	return out, nil
}

// FindByID retrieves a single document, or nil if no item exists.
func (d *DynamodbModel) FindByID(ctx context.Context, id string) (storagemodels.Document, error) {
	key, err := d.keyFor(id)
	if err != nil {
		return nil, err
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &d.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	return d.fromItem(out.Item)
}

// InsertOne stores a new document. It fails if an item with the same key exists.
func (d *DynamodbModel) InsertOne(ctx context.Context, doc storagemodels.Document) (storagemodels.Document, error) {
	stored, err := d.ensureID(doc)
	if err != nil {
		return nil, err
	}
	item, err := d.toItem(stored)
	if err != nil {
		return nil, err
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           &d.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			id, _ := stored.ID()
			return nil, fmt.Errorf("%s %q already exists: %w", d.collection, id, err)
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return stored, nil
}

// InsertMany writes all documents with BatchWriteItem, 25 per request.
func (d *DynamodbModel) InsertMany(ctx context.Context, docs []storagemodels.Document) ([]storagemodels.Document, error) {
	stored := make([]storagemodels.Document, 0, len(docs))
	requests := make([]types.WriteRequest, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))

	for _, doc := range docs {
		s, err := d.ensureID(doc)
		if err != nil {
			return nil, err
		}
		id, _ := s.ID()
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate _id %q in batch", id)
		}
		seen[id] = struct{}{}

		item, err := d.toItem(s)
		if err != nil {
			return nil, err
		}
		stored = append(stored, s)
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	if err := d.batchWrite(ctx, requests); err != nil {
		return nil, err
	}
	return stored, nil
}

// FindByIDAndUpdate applies patch to an existing item and returns the new
// document, or nil if the item does not exist.
func (d *DynamodbModel) FindByIDAndUpdate(ctx context.Context, id string, patch storagemodels.Document) (storagemodels.Document, error) {
	expr, err := d.buildUpdate(patch)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return d.FindByID(ctx, id)
	}

	key, err := d.keyFor(id)
	if err != nil {
		return nil, err
	}

	out, err := d.client.UpdateItem(ctx, expr.input(d.tableName, key, types.ReturnValueAllNew))
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return nil, nil
		}
		return nil, fmt.Errorf("UpdateItem failed: %w", err)
	}
	return d.fromItem(out.Attributes)
}

// UpdateMany applies patch to every listed item that exists. DynamoDB has no
// multi-item update, so items are updated one conditional request at a time.
func (d *DynamodbModel) UpdateMany(ctx context.Context, ids []string, patch storagemodels.Document) (*storagemodels.UpdateResult, error) {
	expr, err := d.buildUpdate(patch)
	if err != nil {
		return nil, err
	}

	res := &storagemodels.UpdateResult{Acknowledged: true}
	if expr == nil {
		existing, err := d.Find(ctx, storagemodels.Query{IDs: ids})
		if err != nil {
			return nil, err
		}
		res.MatchedCount = int64(len(existing))
		return res, nil
	}

	for _, id := range uniqueIDs(ids) {
		key, err := d.keyFor(id)
		if err != nil {
			return nil, err
		}
		_, err = d.client.UpdateItem(ctx, expr.input(d.tableName, key, types.ReturnValueNone))
		if err != nil {
			var cfe *types.ConditionalCheckFailedException
			if errors.As(err, &cfe) {
				continue
			}
			return nil, fmt.Errorf("UpdateItem failed for %q: %w", id, err)
		}
		res.MatchedCount++
		res.ModifiedCount++
	}
	return res, nil
}

// FindByIDAndRemove deletes an item and returns the document it held, or nil.
func (d *DynamodbModel) FindByIDAndRemove(ctx context.Context, id string) (storagemodels.Document, error) {
	key, err := d.keyFor(id)
	if err != nil {
		return nil, err
	}

	out, err := d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:    &d.tableName,
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return d.fromItem(out.Attributes)
}

// Remove deletes the listed items with BatchWriteItem. DynamoDB does not say
// which keys existed, so DeletedCount is the number of distinct ids submitted.
func (d *DynamodbModel) Remove(ctx context.Context, ids []string) (*storagemodels.DeleteResult, error) {
	unique := uniqueIDs(ids)
	requests := make([]types.WriteRequest, 0, len(unique))
	for _, id := range unique {
		key, err := d.keyFor(id)
		if err != nil {
			return nil, err
		}
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
	}

	if err := d.batchWrite(ctx, requests); err != nil {
		return nil, err
	}
	return &storagemodels.DeleteResult{Acknowledged: true, DeletedCount: int64(len(unique))}, nil
}

func (d *DynamodbModel) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(requests) {
			end = len(requests)
		}

		out, err := d.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				d.tableName: requests[start:end],
			},
		})
		if err != nil {
			return fmt.Errorf("BatchWriteItem failed: %w", err)
		}
		if n := len(out.UnprocessedItems[d.tableName]); n > 0 {
			return fmt.Errorf("%w: %d of %d write requests", ErrUnprocessed, n, end-start)
		}
	}
	return nil
}

func uniqueIDs(ids []string) []string {
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
