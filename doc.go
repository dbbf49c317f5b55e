/*
Package entitycrud exposes document-store collections as CRUD HTTP resources.

Each resource is a crud.Controller bound to a datastore.Model. Controllers are
collected in a Registry and mounted on a chi router under their resource path.
Models are shared per collection through a ModelSet, so two resources reading
the same collection use the same backend handle.

Supported backends:
  - memory: concurrency-safe in-process store (datastore/memory)
  - MongoDB: one collection per resource (datastore/mongodb)
  - DynamoDB: single-table layout with per-collection key patterns (datastore/ddb)

Basic Usage:

	models := entitycrud.NewModelSet(func(collection string) (datastore.Model, error) {
		return memory.New(collection), nil
	})
	users, _ := models.Get("users")

	reg := entitycrud.NewRegistry()
	_ = reg.Register("users", crud.New(users, "User"))

	r := chi.NewRouter()
	reg.Mount(r)
	http.ListenAndServe(":8080", r)

Requests are then dispatched on their shape:

	POST   /users        {"data": {...}} or {"data": [...]}
	GET    /users/{id}   GET /users?ids=a,b   GET /users?offset=20
	PUT    /users/{id}   {"data": {...}}      PUT /users {"ids": [...], "data": {...}}
	DELETE /users/{id}   DELETE /users?ids=a,b
*/
package entitycrud
