/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package crud

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/suparena/entitycrud/datastore"
	errs "github.com/suparena/entitycrud/errors"
	"github.com/suparena/entitycrud/params"
	"github.com/suparena/entitycrud/storagemodels"
)

// Store operation names reported in StoreError.
const (
	opFindByID          = "findById"
	opFind              = "find"
	opInsertOne         = "insertOne"
	opInsertMany        = "insertMany"
	opFindByIDAndUpdate = "findByIdAndUpdate"
	opUpdateMany        = "updateMany"
	opFindByIDAndRemove = "findByIdAndRemove"
	opRemove            = "remove"
)

// Controller dispatches HTTP requests for one resource to its model.
type Controller struct {
	model  datastore.Model
	name   string
	config Config
}

// New creates a controller for m. name is used in client-facing messages.
func New(m datastore.Model, name string, overrides ...Option) *Controller {
	return &Controller{
		model:  m,
		name:   name,
		config: buildConfig(overrides),
	}
}

// Name returns the resource display name.
func (c *Controller) Name() string { return c.name }

// Config returns a copy of the controller settings.
func (c *Controller) Config() Config { return c.config }

// Routes returns a router serving the controller at "/" and "/{id}".
func (c *Controller) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", c.Create)
	r.Get("/", c.Read)
	r.Get("/{id}", c.Read)
	r.Put("/", c.Update)
	r.Put("/{id}", c.Update)
	r.Delete("/", c.Delete)
	r.Delete("/{id}", c.Delete)
	return r
}

func (c *Controller) trace(r *http.Request, handler string) {
	zerolog.Ctx(r.Context()).Debug().
		Str("resource", c.name).
		Str("handler", handler).
		Msg("dispatching request")
}

// Create inserts the record or records carried under "data".
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := DecodeCreatePayload(body.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch p := payload.(type) {
	case Batch:
		c.createMultiple(w, r, p.Documents)
	case Single:
		c.createSingle(w, r, p.Document)
	}
}

// Read fetches one record, a list of records or a page of the collection.
func (c *Controller) Read(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if id := routeOrQueryID(r); id != "" {
		c.getSingle(w, r, id)
		return
	}

	ids, ok, err := params.FromValues(query, "ids")
	if err != nil {
		writeError(w, r, errs.NewValidationError("ids", err.Error()))
		return
	}
	if ok {
		c.getByIDs(w, r, ids)
		return
	}

	if query.Get("offset") != "" {
		c.getAllPaginated(w, r)
		return
	}
	c.getAll(w, r)
}

// Update applies "data" to one record or to every record of an id-list.
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	patch, err := DecodePatch(body.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if id := chi.URLParam(r, "id"); id != "" {
		c.updateSingle(w, r, id, patch)
		return
	}
	if truthy(body.ID) {
		id, err := identifier(body.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		c.updateSingle(w, r, id, patch)
		return
	}

	if truthy(body.IDs) {
		ids, err := c.idList(r, body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		c.updateMultiple(w, r, ids, patch)
		return
	}

	writeError(w, r, errs.ErrMissingIdentifier)
}

// Delete removes one record or every record of an id-list.
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	if id := routeOrQueryID(r); id != "" {
		c.deleteSingle(w, r, id)
		return
	}

	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	_, queryIDs, _ := params.FromValues(r.URL.Query(), "ids")
	if queryIDs || truthy(body.IDs) {
		ids, err := c.idList(r, body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		c.deleteMultiple(w, r, ids)
		return
	}

	writeError(w, r, errs.ErrMissingIdentifier)
}

// routeOrQueryID returns the route id, falling back to the "id" query parameter.
func routeOrQueryID(r *http.Request) string {
	if id := chi.URLParam(r, "id"); id != "" {
		return id
	}
	return r.URL.Query().Get("id")
}

// idList prefers the "ids" query parameter over the body list.
func (c *Controller) idList(r *http.Request, body requestBody) ([]string, error) {
	ids, ok, err := params.FromValues(r.URL.Query(), "ids")
	if err != nil {
		return nil, errs.NewValidationError("ids", err.Error())
	}
	if ok {
		return ids, nil
	}
	return identifierList(body.IDs)
}

func (c *Controller) getSingle(w http.ResponseWriter, r *http.Request, id string) {
	c.trace(r, "getSingle")
	doc, err := c.model.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, errs.NewStoreError(opFindByID, err))
		return
	}
	if doc == nil {
		writeError(w, r, errs.NewNotFoundError(c.name, id))
		return
	}
	writeJSON(w, r, http.StatusOK, doc)
}

func (c *Controller) getByIDs(w http.ResponseWriter, r *http.Request, ids []string) {
	c.trace(r, "getByIds")
	docs, err := c.model.Find(r.Context(), storagemodels.Query{IDs: ids})
	if err != nil {
		writeError(w, r, errs.NewStoreError(opFind, err))
		return
	}
	writeJSON(w, r, http.StatusOK, listResponse{Data: nonNil(docs)})
}

func (c *Controller) getAllPaginated(w http.ResponseWriter, r *http.Request) {
	c.trace(r, "getAllPaginated")
	offset, limit, err := c.pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	docs, err := c.model.Find(r.Context(), storagemodels.Query{Skip: offset, Limit: limit})
	if err != nil {
		writeError(w, r, errs.NewStoreError(opFind, err))
		return
	}
	writeJSON(w, r, http.StatusOK, pageResponse{Data: nonNil(docs), Offset: offset, Limit: limit})
}

// pagination reads offset and limit. Without a limit parameter the offset is
// reused as the limit when OffsetAsLimit is set.
func (c *Controller) pagination(r *http.Request) (int64, int64, error) {
	query := r.URL.Query()

	offset, err := nonNegative(query.Get("offset"))
	if err != nil {
		return 0, 0, errs.NewValidationError("offset", err.Error())
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := nonNegative(raw)
		if err != nil {
			return 0, 0, errs.NewValidationError("limit", err.Error())
		}
		return offset, limit, nil
	}

	if c.config.OffsetAsLimit {
		return offset, offset, nil
	}
	return offset, c.config.PaginationLimit, nil
}

func nonNegative(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func (c *Controller) getAll(w http.ResponseWriter, r *http.Request) {
	c.trace(r, "getAll")
	docs, err := c.model.Find(r.Context(), storagemodels.Query{})
	if err != nil {
		writeError(w, r, errs.NewStoreError(opFind, err))
		return
	}
	writeJSON(w, r, http.StatusOK, listResponse{Data: nonNil(docs)})
}

func (c *Controller) createSingle(w http.ResponseWriter, r *http.Request, doc storagemodels.Document) {
	c.trace(r, "createSingle")
	created, err := c.model.InsertOne(r.Context(), doc)
	if err != nil {
		writeError(w, r, errs.NewStoreError(opInsertOne, err))
		return
	}
	writeJSON(w, r, http.StatusOK, created)
}

func (c *Controller) createMultiple(w http.ResponseWriter, r *http.Request, docs []storagemodels.Document) {
	c.trace(r, "createMultiple")
	created, err := c.model.InsertMany(r.Context(), docs)
	if err != nil {
		writeError(w, r, errs.NewStoreError(opInsertMany, err))
		return
	}
	writeJSON(w, r, http.StatusOK, listResponse{Data: nonNil(created)})
}

func (c *Controller) updateSingle(w http.ResponseWriter, r *http.Request, id string, patch storagemodels.Document) {
	c.trace(r, "updateSingle")
	doc, err := c.model.FindByIDAndUpdate(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, errs.NewStoreError(opFindByIDAndUpdate, err))
		return
	}
	writeJSON(w, r, http.StatusOK, itemResponse{Item: doc})
}

func (c *Controller) updateMultiple(w http.ResponseWriter, r *http.Request, ids []string, patch storagemodels.Document) {
	c.trace(r, "updateMultiple")
	res, err := c.model.UpdateMany(r.Context(), ids, patch)
	if err != nil {
		writeError(w, r, errs.NewStoreError(opUpdateMany, err))
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (c *Controller) deleteSingle(w http.ResponseWriter, r *http.Request, id string) {
	c.trace(r, "deleteSingle")
	if _, err := c.model.FindByIDAndRemove(r.Context(), id); err != nil {
		writeError(w, r, errs.NewStoreError(opFindByIDAndRemove, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) deleteMultiple(w http.ResponseWriter, r *http.Request, ids []string) {
	c.trace(r, "deleteMultiple")
	if _, err := c.model.Remove(r.Context(), ids); err != nil {
		writeError(w, r, errs.NewStoreError(opRemove, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listResponse struct {
	Data []storagemodels.Document `json:"data"`
}

type pageResponse struct {
	Data   []storagemodels.Document `json:"data"`
	Offset int64                    `json:"offset"`
	Limit  int64                    `json:"limit"`
}

type itemResponse struct {
	Item storagemodels.Document `json:"item"`
}

func nonNil(docs []storagemodels.Document) []storagemodels.Document {
	if docs == nil {
		return []storagemodels.Document{}
	}
	return docs
}
