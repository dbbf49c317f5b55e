//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycrud_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/suparena/entitycrud"
	"github.com/suparena/entitycrud/crud"
	"github.com/suparena/entitycrud/datastore"
	"github.com/suparena/entitycrud/datastore/mongodb"
)

// setupMongoServer mounts a users resource backed by a throwaway MongoDB database.
func setupMongoServer(t *testing.T) *httptest.Server {
	t.Helper()
	_ = godotenv.Load()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongodb.Connect(ctx, uri)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	db := client.Database("entitycrud_it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	models := entitycrud.NewModelSet(func(collection string) (datastore.Model, error) {
		return mongodb.NewMongoModel(db.Collection(collection)), nil
	})
	users, err := models.Get("users")
	if err != nil {
		t.Fatalf("Failed to open users: %v", err)
	}

	reg := entitycrud.NewRegistry()
	if err := reg.Register("users", crud.New(users, "User")); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	r := chi.NewRouter()
	reg.Mount(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var buf strings.Builder
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return resp.StatusCode, []byte(buf.String())
}

func TestIntegrationMongoLifecycle(t *testing.T) {
	srv := setupMongoServer(t)

	status, body := call(t, srv, http.MethodPost, "/users", `{"data":{"name":"Ada"}}`)
	if status != http.StatusOK {
		t.Fatalf("Create failed: %d %s", status, body)
	}
	var created map[string]any
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	id, _ := created["_id"].(string)
	if id == "" {
		t.Fatalf("Expected an ObjectId hex string, got %v", created["_id"])
	}

	status, body = call(t, srv, http.MethodPost, "/users", `{"data":[{"name":"Bob"},{"name":"Eve"}]}`)
	if status != http.StatusOK {
		t.Fatalf("Batch create failed: %d %s", status, body)
	}

	status, body = call(t, srv, http.MethodGet, "/users/"+id, "")
	if status != http.StatusOK || !strings.Contains(string(body), "Ada") {
		t.Fatalf("Read failed: %d %s", status, body)
	}

	status, body = call(t, srv, http.MethodPut, "/users/"+id, `{"data":{"name":"Ada Lovelace"}}`)
	if status != http.StatusOK || !strings.Contains(string(body), "Ada Lovelace") {
		t.Fatalf("Update failed: %d %s", status, body)
	}

	status, body = call(t, srv, http.MethodGet, "/users?offset=1", "")
	if status != http.StatusOK {
		t.Fatalf("Paginated read failed: %d %s", status, body)
	}
	var page struct {
		Data   []map[string]any `json:"data"`
		Offset int              `json:"offset"`
		Limit  int              `json:"limit"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}
	if page.Offset != 1 || page.Limit != 1 || len(page.Data) != 1 {
		t.Fatalf("Unexpected page %+v", page)
	}

	status, _ = call(t, srv, http.MethodDelete, "/users/"+id, "")
	if status != http.StatusNoContent {
		t.Fatalf("Delete failed: %d", status)
	}

	status, _ = call(t, srv, http.MethodGet, "/users/"+id, "")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 after delete, got %d", status)
	}
}
