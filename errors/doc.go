/*
Package errors provides semantic error types for the CRUD controllers.

Each failure class of a request maps to one sentinel, and every typed error
matches its sentinel through errors.Is, so callers can branch on the class
without caring about the concrete type:

	var (
	    ErrMissingData       = errors.New("missing data")
	    ErrMissingIdentifier = errors.New("missing ids")
	    ErrUnprocessableType = errors.New("unprocessable type")
	    ErrNotFound          = errors.New("entity not found")
	    ErrStoreFailure      = errors.New("store failure")
	    ErrInvalidInput      = errors.New("invalid input")
	)

StatusCode resolves any of them to the HTTP status used in responses:

	400  ErrMissingData, ErrMissingIdentifier, ErrInvalidInput
	422  ErrUnprocessableType, ErrNotFound
	500  ErrStoreFailure and anything unrecognised

Store failures are wrapped at the call site:

	doc, err := m.FindByID(ctx, id)
	if err != nil {
	    return errors.NewStoreError("findById", err)
	}

StoreError implements json.Marshaler so the raw cause can be written as the
response body.
*/
package errors
