/*
Package ddb provides a DynamoDB implementation of the datastore.Model interface.

DynamodbModel supports:
  - Single-table design: many collections in one table, told apart by the
    EntityType attribute
  - Macro-based key expansion (e.g., "USER#{_id}") from the registry package
  - Batch inserts, reads and removals (BatchWriteItem / BatchGetItem)
  - Conditional updates that report missing items as nil

Key Features:

Macro Expansion:
Keys use macros that are replaced with document field values:

	indexMap := map[string]string{
	    "PK":     "USER#{_id}",    // Becomes "USER#123"
	    "SK":     "PROFILE",       // Static value
	    "GSI1PK": "{email}",       // Direct field value
	}

Lookups by id replace every macro of PK and SK with the id, so PK and SK
templates should only reference the identifier.

Batches:
DynamoDB may leave part of a batch unprocessed. The model never retries;
it reports ErrUnprocessed and leaves it to the caller.

For usage examples, see the tests and the crudserver command.
*/
package ddb
