/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitycrud/datastore"
	"github.com/suparena/entitycrud/storagemodels"
)

// updateExpression is a compiled UpdateItem expression.
type updateExpression struct {
	expression string
	names      map[string]string
	values     map[string]types.AttributeValue
}

func (u *updateExpression) input(table string, key map[string]types.AttributeValue, rv types.ReturnValue) *sdk.UpdateItemInput {
	in := &sdk.UpdateItemInput{
		TableName:                &table,
		Key:                      key,
		UpdateExpression:         aws.String(u.expression),
		ExpressionAttributeNames: u.names,
		ConditionExpression:      aws.String("attribute_exists(PK)"),
		ReturnValues:             rv,
	}
	if len(u.values) > 0 {
		in.ExpressionAttributeValues = u.values
	}
	return in
}

// buildUpdate compiles a patch, ignoring key and type attributes. It returns
// nil when nothing is left to change.
func (d *DynamodbModel) buildUpdate(patch storagemodels.Document) (*updateExpression, error) {
	set, unset, err := datastore.NormalizePatch(patch)
	if err != nil {
		return nil, err
	}

	reserved := d.reservedAttrs()
	setFields := make(map[string]any, len(set))
	for k, v := range set {
		if _, skip := reserved[k]; !skip {
			setFields[k] = v
		}
	}
	removeFields := make([]string, 0, len(unset))
	for _, k := range unset {
		if _, skip := reserved[k]; !skip {
			removeFields = append(removeFields, k)
		}
	}

	return buildUpdateExpression(setFields, removeFields)
}

// buildUpdateExpression transforms the fields to set and remove into:
//   - an "update expression" (e.g., "SET #f0 = :v0, #f1 = :v1 REMOVE #r0")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
//
// Fields are numbered in sorted order so the output is deterministic.
func buildUpdateExpression(set map[string]any, remove []string) (*updateExpression, error) {
	if len(set) == 0 && len(remove) == 0 {
		return nil, nil
	}

	fields := make([]string, 0, len(set))
	for f := range set {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	u := &updateExpression{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
	var clauses []string

	if len(fields) > 0 {
		setClauses := make([]string, 0, len(fields))
		for i, field := range fields {
			placeholderName := fmt.Sprintf("#f%d", i)
			placeholderValue := fmt.Sprintf(":v%d", i)

			av, err := attributevalue.Marshal(set[field])
			if err != nil {
				return nil, fmt.Errorf("failed to marshal update value for field '%s': %w", field, err)
			}

			setClauses = append(setClauses, fmt.Sprintf("%s = %s", placeholderName, placeholderValue))
			u.names[placeholderName] = field
			u.values[placeholderValue] = av
		}
		clauses = append(clauses, "SET "+strings.Join(setClauses, ", "))
	}

	if len(remove) > 0 {
		removed := append([]string(nil), remove...)
		sort.Strings(removed)
		removeClauses := make([]string, 0, len(removed))
		for i, field := range removed {
			placeholderName := fmt.Sprintf("#r%d", i)
			removeClauses = append(removeClauses, placeholderName)
			u.names[placeholderName] = field
		}
		clauses = append(clauses, "REMOVE "+strings.Join(removeClauses, ", "))
	}

	u.expression = strings.Join(clauses, " ")
	return u, nil
}
