/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycrud/registry"
	"github.com/suparena/entitycrud/storagemodels"
)

const testTable = "entitycrud-test"

func newTestModel(t *testing.T, collection string) (*DynamodbModel, *fakeDynamo) {
	t.Helper()
	fake := newFakeDynamo()
	n := 0
	m := NewDynamodbModel(fake, testTable, collection).WithIDFunc(func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	})
	return m, fake
}

func TestExpandMacros(t *testing.T) {
	av, err := attributevalue.MarshalMap(map[string]any{"_id": "42", "email": "a@b.c", "score": 7, "active": true})
	require.NoError(t, err)

	got := expandMacros(map[string]string{
		"PK":     "USER#{_id}",
		"GSI1PK": "EMAIL#{email}",
		"GSI1SK": "SCORE#{score}#{active}",
		"GSI2PK": "NOPE#{missing}",
	}, av)

	assert.Equal(t, "USER#42", got["PK"])
	assert.Equal(t, "EMAIL#a@b.c", got["GSI1PK"])
	assert.Equal(t, "SCORE#7#true", got["GSI1SK"])
	assert.Equal(t, "NOPE#", got["GSI2PK"])
}

func TestExpandStringKey(t *testing.T) {
	key, err := expandStringKey(map[string]string{"PK": "USER#{_id}", "SK": "PROFILE"}, "42")
	require.NoError(t, err)
	assert.Equal(t, "USER#42|PROFILE", keyString(key))

	_, err = expandStringKey(map[string]string{"PK": "USER#{_id}"}, "42")
	assert.Error(t, err)
}

func TestBuildUpdateExpression(t *testing.T) {
	u, err := buildUpdateExpression(map[string]any{"name": "Ada", "age": 36}, []string{"tmp"})
	require.NoError(t, err)

	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1 REMOVE #r0", u.expression)
	assert.Equal(t, map[string]string{"#f0": "age", "#f1": "name", "#r0": "tmp"}, u.names)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "36"}, u.values[":v0"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Ada"}, u.values[":v1"])

	none, err := buildUpdateExpression(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDynamodbModelInsertAndFindByID(t *testing.T) {
	ctx := context.Background()
	m, fake := newTestModel(t, "users")

	doc, err := m.InsertOne(ctx, storagemodels.Document{"name": "Ada", "score": 3})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", doc["_id"])

	raw := fake.items["USERS#gen-1|USERS#gen-1"]
	require.NotNil(t, raw, "item should be keyed by the default index map")
	assert.Equal(t, &types.AttributeValueMemberS{Value: "users"}, raw[EntityTypeAttr])

	found, err := m.FindByID(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Document{"_id": "gen-1", "name": "Ada", "score": float64(3)}, found)

	missing, err := m.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = m.InsertOne(ctx, storagemodels.Document{"_id": "gen-1"})
	assert.Error(t, err, "duplicate ids must be rejected")
}

func TestDynamodbModelRegisteredIndexMap(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, registry.RegisterIndexMap("players", map[string]string{
		"PK":     "PLAYER#{_id}",
		"SK":     "PROFILE",
		"GSI1PK": "EMAIL#{email}",
	}))
	t.Cleanup(func() { registry.UnregisterIndexMap("players") })

	m, fake := newTestModel(t, "players")
	_, err := m.InsertOne(ctx, storagemodels.Document{"_id": "p1", "email": "p1@club.org"})
	require.NoError(t, err)

	raw := fake.items["PLAYER#p1|PROFILE"]
	require.NotNil(t, raw)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "EMAIL#p1@club.org"}, raw["GSI1PK"])

	found, err := m.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.NotContains(t, found, "GSI1PK")
	assert.NotContains(t, found, "PK")
	assert.Equal(t, "p1@club.org", found["email"])
}

func TestDynamodbModelInsertManyChunks(t *testing.T) {
	ctx := context.Background()
	m, fake := newTestModel(t, "events")

	docs := make([]storagemodels.Document, 30)
	for i := range docs {
		docs[i] = storagemodels.Document{"seq": i}
	}
	stored, err := m.InsertMany(ctx, docs)
	require.NoError(t, err)
	assert.Len(t, stored, 30)
	assert.Equal(t, 2, fake.calls["BatchWriteItem"])
	assert.Len(t, fake.items, 30)

	_, err = m.InsertMany(ctx, []storagemodels.Document{{"_id": "x"}, {"_id": "x"}})
	assert.Error(t, err)
}

func TestDynamodbModelFind(t *testing.T) {
	ctx := context.Background()
	m, fake := newTestModel(t, "users")
	other, _ := newTestModel(t, "orders")
	other.client = fake
	fake.pageSize = 2

	for i := 1; i <= 5; i++ {
		_, err := m.InsertOne(ctx, storagemodels.Document{"_id": fmt.Sprintf("u%d", i)})
		require.NoError(t, err)
	}
	_, err := other.InsertOne(ctx, storagemodels.Document{"_id": "o1"})
	require.NoError(t, err)

	t.Run("ScanAllPages", func(t *testing.T) {
		docs, err := m.Find(ctx, storagemodels.Query{})
		require.NoError(t, err)
		assert.Len(t, docs, 5)
	})

	t.Run("ScanSkipLimit", func(t *testing.T) {
		docs, err := m.Find(ctx, storagemodels.Query{Skip: 1, Limit: 2})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "u2", docs[0]["_id"])
		assert.Equal(t, "u3", docs[1]["_id"])
	})

	t.Run("ByIDs", func(t *testing.T) {
		docs, err := m.Find(ctx, storagemodels.Query{IDs: []string{"u4", "missing", "u1", "u4"}})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "u4", docs[0]["_id"])
		assert.Equal(t, "u1", docs[1]["_id"])
	})

	t.Run("EmptyIDList", func(t *testing.T) {
		docs, err := m.Find(ctx, storagemodels.Query{IDs: []string{}})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestDynamodbModelUpdate(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestModel(t, "users")
	for _, id := range []string{"a", "b"} {
		_, err := m.InsertOne(ctx, storagemodels.Document{"_id": id, "name": "old", "tmp": true})
		require.NoError(t, err)
	}

	updated, err := m.FindByIDAndUpdate(ctx, "a", storagemodels.Document{"name": "new", "PK": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, "new", updated["name"])
	assert.Equal(t, "a", updated["_id"])

	updated, err = m.FindByIDAndUpdate(ctx, "a", storagemodels.Document{"$unset": map[string]any{"tmp": ""}})
	require.NoError(t, err)
	assert.NotContains(t, updated, "tmp")

	missing, err := m.FindByIDAndUpdate(ctx, "zzz", storagemodels.Document{"name": "x"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	res, err := m.UpdateMany(ctx, []string{"a", "b", "zzz"}, storagemodels.Document{"name": "bulk"})
	require.NoError(t, err)
	assert.Equal(t, &storagemodels.UpdateResult{Acknowledged: true, MatchedCount: 2, ModifiedCount: 2}, res)

	b, err := m.FindByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "bulk", b["name"])

	noop, err := m.UpdateMany(ctx, []string{"a", "zzz"}, storagemodels.Document{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), noop.MatchedCount)
	assert.Equal(t, int64(0), noop.ModifiedCount)
}

func TestDynamodbModelRemove(t *testing.T) {
	ctx := context.Background()
	m, fake := newTestModel(t, "users")
	for _, id := range []string{"a", "b", "c"} {
		_, err := m.InsertOne(ctx, storagemodels.Document{"_id": id})
		require.NoError(t, err)
	}

	removed, err := m.FindByIDAndRemove(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", removed["_id"])

	gone, err := m.FindByIDAndRemove(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, gone)

	res, err := m.Remove(ctx, []string{"b", "c", "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.DeletedCount)
	assert.Empty(t, fake.items)
}

func TestDynamodbModelFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("ClientError", func(t *testing.T) {
		m, fake := newTestModel(t, "users")
		boom := errors.New("throttled")
		fake.err = boom

		_, err := m.FindByID(ctx, "a")
		assert.ErrorIs(t, err, boom)
		_, err = m.Find(ctx, storagemodels.Query{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("UnprocessedWrites", func(t *testing.T) {
		m, fake := newTestModel(t, "users")
		fake.unprocessed = true

		_, err := m.InsertMany(ctx, []storagemodels.Document{{"a": 1}})
		assert.ErrorIs(t, err, ErrUnprocessed)
		_, err = m.Remove(ctx, []string{"a"})
		assert.ErrorIs(t, err, ErrUnprocessed)
		_, err = m.Find(ctx, storagemodels.Query{IDs: []string{"a"}})
		assert.ErrorIs(t, err, ErrUnprocessed)
	})

	t.Run("UnsupportedOperator", func(t *testing.T) {
		m, _ := newTestModel(t, "users")
		_, err := m.FindByIDAndUpdate(ctx, "a", storagemodels.Document{"$inc": map[string]any{"n": 1}})
		assert.Error(t, err)
	})
}
