/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// IDField is the document attribute holding the record identifier.
const IDField = "_id"

// Document is a schema-flexible record as stored in a document store.
type Document map[string]any

// ID returns the document identifier as a string, if it has one.
func (d Document) ID() (string, bool) {
	v, ok := d[IDField]
	if !ok || v == nil {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, id != ""
	case interface{ Hex() string }:
		return id.Hex(), true
	default:
		return "", false
	}
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Query selects documents for a Find operation.
type Query struct {
	// IDs restricts the result to documents whose identifier is in the list.
	// A nil slice means no id filter; an empty non-nil slice matches nothing.
	IDs []string
	// Skip is the number of matching documents to skip.
	Skip int64
	// Limit caps the number of returned documents. Zero means no limit.
	Limit int64
}

// UpdateResult acknowledges a batch update.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult acknowledges a batch removal.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
