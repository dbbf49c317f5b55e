/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package crud

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	errs "github.com/suparena/entitycrud/errors"
	"github.com/suparena/entitycrud/params"
	"github.com/suparena/entitycrud/storagemodels"
)

// maxBodyBytes caps the size of a decoded request body.
const maxBodyBytes = 4 << 20

// requestBody is the envelope every mutating request is decoded into.
// Data stays raw until a verb-specific decoder picks its shape.
type requestBody struct {
	Data json.RawMessage `json:"data"`
	ID   any             `json:"id"`
	IDs  any             `json:"ids"`
}

// decodeBody reads the JSON body of r. An empty body decodes to the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request) (requestBody, error) {
	var body requestBody
	if r.Body == nil || r.Body == http.NoBody {
		return body, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return body, errs.NewValidationError("body", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return body, errs.NewValidationError("body", err.Error())
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return body, errs.NewValidationError("body", err.Error())
	}
	return body, nil
}

// CreatePayload is the shape of the data carried by a create request:
// either Single or Batch.
type CreatePayload interface {
	isCreatePayload()
}

// Single is a create request carrying one record.
type Single struct {
	Document storagemodels.Document
}

// Batch is a create request carrying a list of records.
type Batch struct {
	Documents []storagemodels.Document
}

func (Single) isCreatePayload() {}
func (Batch) isCreatePayload()  {}

// DecodeCreatePayload picks the create case from the JSON kind of raw.
// Falsy data yields ErrMissingData; scalars yield an UnprocessableTypeError.
func DecodeCreatePayload(raw json.RawMessage) (CreatePayload, error) {
	switch kind := jsonKind(raw); {
	case isFalsy(raw):
		return nil, errs.ErrMissingData
	case kind == "array":
		var docs []storagemodels.Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, errs.NewUnprocessableTypeError(kind)
		}
		return Batch{Documents: docs}, nil
	case kind == "object":
		var doc storagemodels.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errs.NewUnprocessableTypeError(kind)
		}
		return Single{Document: doc}, nil
	default:
		return nil, errs.NewUnprocessableTypeError(kind)
	}
}

// DecodePatch decodes the data of an update request, which must be an object.
func DecodePatch(raw json.RawMessage) (storagemodels.Document, error) {
	if isFalsy(raw) {
		return nil, errs.ErrMissingData
	}
	kind := jsonKind(raw)
	if kind != "object" {
		return nil, errs.NewUnprocessableTypeError(kind)
	}
	var patch storagemodels.Document
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, errs.NewUnprocessableTypeError(kind)
	}
	return patch, nil
}

// jsonKind names the JSON type of raw the way a JavaScript typeof would,
// with arrays reported separately.
func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "undefined"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// isFalsy reports whether raw is absent, null, false, zero or an empty string.
func isFalsy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch jsonKind(trimmed) {
	case "undefined", "null":
		return true
	case "boolean":
		return string(trimmed) == "false"
	case "string":
		return string(trimmed) == `""`
	case "number":
		f, err := strconv.ParseFloat(string(trimmed), 64)
		return err == nil && f == 0
	default:
		return false
	}
}

// truthy applies the same rules to an already decoded value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

// identifier converts a decoded body id to a string.
func identifier(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", errs.NewUnprocessableTypeError(kindOf(v))
	}
}

// identifierList normalizes a decoded body id-list.
func identifierList(v any) ([]string, error) {
	ids, err := params.AsList(v)
	if err != nil {
		if errors.Is(err, params.ErrUnsupportedParameterType) {
			return nil, errs.NewUnprocessableTypeError(kindOf(v))
		}
		return nil, err
	}
	return ids, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		return "number"
	case []any:
		return "array"
	default:
		return "object"
	}
}
