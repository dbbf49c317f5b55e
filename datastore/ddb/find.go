/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitycrud/storagemodels"
)

// Find returns the documents selected by q. An id filter is served with
// BatchGetItem, everything else with a Scan on the collection's EntityType.
// Skip and limit are applied to the matching documents in the order returned.
func (d *DynamodbModel) Find(ctx context.Context, q storagemodels.Query) ([]storagemodels.Document, error) {
	if q.IDs == nil {
		return d.scan(ctx, q.Skip, q.Limit)
	}

	docs, err := d.batchGet(ctx, q.IDs)
	if err != nil {
		return nil, err
	}
	return paginate(docs, q.Skip, q.Limit), nil
}

// batchGet fetches documents by id, 100 keys per request. Missing ids are
// omitted; the result follows the order of ids.
func (d *DynamodbModel) batchGet(ctx context.Context, ids []string) ([]storagemodels.Document, error) {
	unique := uniqueIDs(ids)
	byID := make(map[string]storagemodels.Document, len(unique))

	for start := 0; start < len(unique); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(unique) {
			end = len(unique)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range unique[start:end] {
			key, err := d.keyFor(id)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}

		out, err := d.client.BatchGetItem(ctx, &sdk.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				d.tableName: {Keys: keys},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("BatchGetItem failed: %w", err)
		}
		if pending, ok := out.UnprocessedKeys[d.tableName]; ok && len(pending.Keys) > 0 {
			return nil, fmt.Errorf("%w: %d of %d keys", ErrUnprocessed, len(pending.Keys), len(keys))
		}

		for _, item := range out.Responses[d.tableName] {
			doc, err := d.fromItem(item)
			if err != nil {
				return nil, err
			}
			if id, ok := doc.ID(); ok {
				byID[id] = doc
			}
		}
	}

	docs := make([]storagemodels.Document, 0, len(byID))
	for _, id := range unique {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// scan walks every page of the collection, stopping once skip+limit
// documents have been collected.
func (d *DynamodbModel) scan(ctx context.Context, skip, limit int64) ([]storagemodels.Document, error) {
	input := &sdk.ScanInput{
		TableName:        &d.tableName,
		FilterExpression: aws.String("#et = :et"),
		ExpressionAttributeNames: map[string]string{
			"#et": EntityTypeAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":et": &types.AttributeValueMemberS{Value: d.collection},
		},
	}

	docs := make([]storagemodels.Document, 0)
	var seen int64
	for {
		out, err := d.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		for _, item := range out.Items {
			if seen < skip {
				seen++
				continue
			}
			if limit > 0 && int64(len(docs)) >= limit {
				return docs, nil
			}
			doc, err := d.fromItem(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}

		if len(out.LastEvaluatedKey) == 0 {
			return docs, nil
		}
		if limit > 0 && int64(len(docs)) >= limit {
			return docs, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func paginate(docs []storagemodels.Document, skip, limit int64) []storagemodels.Document {
	if skip >= int64(len(docs)) {
		return []storagemodels.Document{}
	}
	docs = docs[skip:]
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}
