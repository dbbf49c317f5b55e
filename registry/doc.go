/*
Package registry manages DynamoDB key patterns for document collections.

Each collection stored in the single DynamoDB table is associated with an
index map, a set of attribute templates whose {macros} are replaced with
document fields when items are written and with the document id when items
are looked up:

	registry.RegisterIndexMap("users", map[string]string{
	    "PK":     "USER#{_id}",
	    "SK":     "USER#{_id}",
	    "GSI1PK": "EMAIL#{email}",
	    "GSI1SK": "USER",
	})

Collections without a registration fall back to DefaultIndexMap, which keys
every item as "<COLLECTION>#<id>" for both PK and SK.

The registry is thread-safe and is usually populated at start-up from the
resources file.
*/
package registry
