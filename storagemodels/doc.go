/*
Package storagemodels defines the data structures shared by every data store
backend and by the CRUD controllers.

Key Types:

Document:
A schema-flexible record keyed by attribute name. The identifier is stored
under IDField ("_id"):

	doc := storagemodels.Document{"_id": "42", "name": "Ada"}
	id, ok := doc.ID()

Query:
Selection for Find operations, combining an optional id set with skip/limit
pagination:

	q := storagemodels.Query{IDs: []string{"1", "2"}}
	page := storagemodels.Query{Skip: 20, Limit: 20}

UpdateResult / DeleteResult:
Acknowledgment structures returned by batch updates and removals. They are
sent back to clients as-is, so their JSON shape is part of the HTTP contract:

	{"acknowledged": true, "matchedCount": 2, "modifiedCount": 2}

These types provide a consistent interface across different storage implementations.
*/
package storagemodels
