/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory stand-in for the DynamoDB client. It understands
// exactly the expressions DynamodbModel generates.
type fakeDynamo struct {
	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	order       []string
	pageSize    int
	err         error
	unprocessed bool
	calls       map[string]int
}

var _ API = (*fakeDynamo)(nil)

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		items:    make(map[string]map[string]types.AttributeValue),
		pageSize: 100,
		calls:    make(map[string]int),
	}
}

func keyString(key map[string]types.AttributeValue) string {
	pk := key["PK"].(*types.AttributeValueMemberS).Value
	sk := key["SK"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeDynamo) store(key string, item map[string]types.AttributeValue) {
	if _, ok := f.items[key]; !ok {
		f.order = append(f.order, key)
	}
	f.items[key] = copyItem(item)
}

func (f *fakeDynamo) remove(key string) {
	delete(f.items, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			return
		}
	}
}

func (f *fakeDynamo) begin(op string) error {
	f.calls[op]++
	return f.err
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetItem"); err != nil {
		return nil, err
	}
	return &sdk.GetItemOutput{Item: copyItem(f.items[keyString(in.Key)])}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutItem"); err != nil {
		return nil, err
	}
	key := keyString(in.Item)
	if _, exists := f.items[key]; exists && aws.ToString(in.ConditionExpression) == "attribute_not_exists(PK)" {
		return nil, conditionFailed()
	}
	f.store(key, in.Item)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateItem"); err != nil {
		return nil, err
	}
	key := keyString(in.Key)
	item, exists := f.items[key]
	if !exists {
		return nil, conditionFailed()
	}

	expr := aws.ToString(in.UpdateExpression)
	setPart, removePart := expr, ""
	if i := strings.Index(expr, "REMOVE "); i >= 0 {
		setPart, removePart = strings.TrimSpace(expr[:i]), expr[i+len("REMOVE "):]
	}
	if strings.HasPrefix(setPart, "SET ") {
		for _, clause := range strings.Split(strings.TrimPrefix(setPart, "SET "), ", ") {
			parts := strings.SplitN(clause, " = ", 2)
			item[in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
		}
	}
	if removePart != "" {
		for _, name := range strings.Split(removePart, ", ") {
			delete(item, in.ExpressionAttributeNames[name])
		}
	}

	out := &sdk.UpdateItemOutput{}
	if in.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(item)
	}
	return out, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteItem"); err != nil {
		return nil, err
	}
	key := keyString(in.Key)
	old := copyItem(f.items[key])
	f.remove(key)

	out := &sdk.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Scan"); err != nil {
		return nil, err
	}

	want := in.ExpressionAttributeValues[":et"].(*types.AttributeValueMemberS).Value
	start := 0
	if in.ExclusiveStartKey != nil {
		last := keyString(in.ExclusiveStartKey)
		for i, k := range f.order {
			if k == last {
				start = i + 1
				break
			}
		}
	}

	out := &sdk.ScanOutput{}
	end := start + f.pageSize
	if end > len(f.order) {
		end = len(f.order)
	}
	for _, k := range f.order[start:end] {
		item := f.items[k]
		if et, ok := item[EntityTypeAttr].(*types.AttributeValueMemberS); ok && et.Value == want {
			out.Items = append(out.Items, copyItem(item))
		}
	}
	if end < len(f.order) {
		last := f.items[f.order[end-1]]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	return out, nil
}

func (f *fakeDynamo) BatchGetItem(ctx context.Context, in *sdk.BatchGetItemInput, _ ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("BatchGetItem"); err != nil {
		return nil, err
	}

	out := &sdk.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	for table, req := range in.RequestItems {
		if f.unprocessed {
			out.UnprocessedKeys = map[string]types.KeysAndAttributes{table: {Keys: req.Keys[:1]}}
			continue
		}
		for _, key := range req.Keys {
			if item, ok := f.items[keyString(key)]; ok {
				out.Responses[table] = append(out.Responses[table], copyItem(item))
			}
		}
	}
	return out, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, in *sdk.BatchWriteItemInput, _ ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("BatchWriteItem"); err != nil {
		return nil, err
	}

	out := &sdk.BatchWriteItemOutput{}
	for table, reqs := range in.RequestItems {
		if f.unprocessed {
			out.UnprocessedItems = map[string][]types.WriteRequest{table: reqs[:1]}
			continue
		}
		for _, req := range reqs {
			switch {
			case req.PutRequest != nil:
				f.store(keyString(req.PutRequest.Item), req.PutRequest.Item)
			case req.DeleteRequest != nil:
				f.remove(keyString(req.DeleteRequest.Key))
			}
		}
	}
	return out, nil
}
