/*
Package crud wires HTTP requests for a resource to a datastore.Model.

A Controller exposes one entry point per verb. Each entry point inspects the
request once (route id, query parameters, body fields) and routes to a
terminal handler that issues exactly one store call and writes exactly one
response:

	POST   /        data: {...}       -> insertOne          200 record
	POST   /        data: [...]       -> insertMany         200 {"data": [...]}
	GET    /{id}    or ?id=           -> findById           200 record | 422
	GET    /?ids=a,b                  -> find by ids        200 {"data": [...]}
	GET    /?offset=n[&limit=m]       -> find skip/limit    200 {"data", "offset", "limit"}
	GET    /                          -> find all           200 {"data": [...]}
	PUT    /{id}    or body id        -> findByIdAndUpdate  200 {"item": record|null}
	PUT    /        body ids          -> updateMany         200 update result
	DELETE /{id}    or ?id=           -> findByIdAndRemove  204
	DELETE /?ids=   or body ids       -> remove             204

Missing data or identifiers are answered with 400, unprocessable payloads and
unknown records with 422, and store failures with 500 and a JSON body
describing the raw error.

Usage:

	users := memory.New("users")
	ctrl := crud.New(users, "User", crud.WithPaginationLimit(50))
	r := chi.NewRouter()
	r.Mount("/users", ctrl.Routes())
*/
package crud
