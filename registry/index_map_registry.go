/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"strings"
	"sync"
)

// IndexMapRegistry associates collections with their DynamoDB key patterns.

var (
	indexMapRegistry = make(map[string]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates a collection with an index map (PK, SK, and
// optional GSI attributes). A later registration replaces an earlier one.
func RegisterIndexMap(collection string, idxMap map[string]string) error {
	if collection == "" {
		return fmt.Errorf("index map registry: empty collection name")
	}
	if idxMap["PK"] == "" || idxMap["SK"] == "" {
		return fmt.Errorf("index map registry: %q must define PK and SK", collection)
	}

	cp := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		cp[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[collection] = cp
	return nil
}

// GetIndexMap retrieves the index map for a collection, if any.
func GetIndexMap(collection string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[collection]
	return m, ok
}

// UnregisterIndexMap removes a collection's index map.
func UnregisterIndexMap(collection string) {
	mu.Lock()
	defer mu.Unlock()
	delete(indexMapRegistry, collection)
}

// DefaultIndexMap is used for collections without a registered index map:
// one item per document, keyed "<COLLECTION>#<id>".
func DefaultIndexMap(collection string) map[string]string {
	key := strings.ToUpper(collection) + "#{_id}"
	return map[string]string{
		"PK": key,
		"SK": key,
	}
}

// IndexMapFor returns the registered index map or the default one.
func IndexMapFor(collection string) map[string]string {
	if m, ok := GetIndexMap(collection); ok {
		return m
	}
	return DefaultIndexMap(collection)
}
