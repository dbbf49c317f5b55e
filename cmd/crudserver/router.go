/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/suparena/entitycrud"
	"github.com/suparena/entitycrud/crud"
	"github.com/suparena/entitycrud/internal/config"
	"github.com/suparena/entitycrud/internal/logger"
)

// newRouter registers a controller per resource and mounts them behind the
// logging middleware.
func newRouter(cfg *config.Config, resources []config.Resource, models *entitycrud.ModelSet, log zerolog.Logger) (chi.Router, error) {
	reg := entitycrud.NewRegistry()
	for _, res := range resources {
		m, err := models.Get(res.CollectionName())
		if err != nil {
			return nil, err
		}
		if err := reg.Register(res.Path, crud.New(m, res.Name, res.Options(cfg.PaginationLimit)...)); err != nil {
			return nil, fmt.Errorf("resource %q: %w", res.Path, err)
		}
		log.Debug().Str("path", res.Path).Str("collection", res.CollectionName()).Msg("resource registered")
	}

	r := chi.NewRouter()
	r.Use(logger.Middleware(log)...)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entitycrud.GetVersionInfo())
	})

	reg.Mount(r)
	return r, nil
}
