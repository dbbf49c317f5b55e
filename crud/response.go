/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package crud

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	errs "github.com/suparena/entitycrud/errors"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// writeError maps err to its status. Store failures are sent as JSON so the
// client receives the raw cause; everything else is a plain-text message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var storeErr *errs.StoreError
	if errors.As(err, &storeErr) {
		writeJSON(w, r, http.StatusInternalServerError, storeErr)
		return
	}
	writeText(w, errs.StatusCode(err), err.Error())
}
