/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/suparena/entitycrud/storagemodels"
)

// ErrUnsupportedOperator is returned for update operators a backend cannot apply.
var ErrUnsupportedOperator = errors.New("unsupported update operator")

// IsOperatorPatch reports whether patch is written with update operators ("$set", ...).
func IsOperatorPatch(patch storagemodels.Document) bool {
	for k := range patch {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// NormalizePatch splits a patch into the fields to set and the fields to unset.
// Plain patches are treated as an implicit $set. The identifier is never updated.
// Unset fields are returned sorted.
func NormalizePatch(patch storagemodels.Document) (storagemodels.Document, []string, error) {
	set := storagemodels.Document{}
	var unset []string

	if !IsOperatorPatch(patch) {
		for k, v := range patch {
			if k == storagemodels.IDField {
				continue
			}
			set[k] = v
		}
		return set, nil, nil
	}

	for op, arg := range patch {
		fields, ok := asFields(arg)
		if !strings.HasPrefix(op, "$") {
			return nil, nil, fmt.Errorf("%w: field %q mixed with operators", ErrUnsupportedOperator, op)
		}
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s expects an object", ErrUnsupportedOperator, op)
		}
		switch op {
		case "$set":
			for k, v := range fields {
				if k == storagemodels.IDField {
					continue
				}
				set[k] = v
			}
		case "$unset":
			for k := range fields {
				if k == storagemodels.IDField {
					continue
				}
				unset = append(unset, k)
			}
		default:
			return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedOperator, op)
		}
	}
	sort.Strings(unset)
	return set, unset, nil
}

func asFields(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case storagemodels.Document:
		return m, true
	default:
		return nil, false
	}
}
