package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/pkg/sqlobjects"
)

const createUserSQLite = `CREATE TABLE "user" (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	age INTEGER,
	score REAL NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	ctx := context.Background()

	cfg := sqlobjects.DefaultConfig()
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "users.db")

	client, err := sqlobjects.Open(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if _, err := client.Conn().Exec(ctx, createUserSQLite); err != nil {
		t.Fatalf("create table: %v", err)
	}
	users, err := sqlobjects.Register(ctx, client, userSchema)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return newServer(client, users, zerolog.Nop())
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) userResponse {
	t.Helper()
	var u userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return u
}

func TestUserLifecycle(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com","age":36}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /users = %d %s", rec.Code, rec.Body)
	}
	created := decodeUser(t, rec)
	if created.ID == "" || created.Name != "Ada" || created.Age == nil || *created.Age != 36 {
		t.Errorf("created = %+v", created)
	}
	if !created.Active {
		t.Error("created user should be active by default")
	}
	if created.CreatedAt.IsZero() {
		t.Error("created_at should be filled in by the database")
	}

	rec = do(t, e, http.MethodGet, "/users/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /users/:id = %d %s", rec.Code, rec.Body)
	}

	rec = do(t, e, http.MethodPatch, "/users/"+created.ID, `{"name":"Grace","age":40}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH /users/:id = %d %s", rec.Code, rec.Body)
	}
	if u := decodeUser(t, rec); u.Name != "Grace" || *u.Age != 40 {
		t.Errorf("patched = %+v", u)
	}

	rec = do(t, e, http.MethodPost, "/users/"+created.ID+"/duplicate", `{"email":"grace@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST duplicate = %d %s", rec.Code, rec.Body)
	}
	dup := decodeUser(t, rec)
	if dup.ID == created.ID || dup.Name != "Grace" || dup.Email != "grace@example.com" {
		t.Errorf("duplicate = %+v", dup)
	}

	rec = do(t, e, http.MethodGet, "/users", "")
	var all []userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil || len(all) != 2 {
		t.Fatalf("GET /users = %s, %v", rec.Body, err)
	}

	rec = do(t, e, http.MethodDelete, "/users/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE /users/:id = %d %s", rec.Code, rec.Body)
	}
	rec = do(t, e, http.MethodGet, "/users/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after DELETE = %d, want 404", rec.Code)
	}
}

func TestUserErrors(t *testing.T) {
	e := newTestServer(t)
	if rec := do(t, e, http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com"}`); rec.Code != http.StatusCreated {
		t.Fatalf("POST /users = %d %s", rec.Code, rec.Body)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"duplicate email", http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com"}`, http.StatusConflict},
		{"invalid email", http.MethodPost, "/users", `{"name":"Ada","email":"nope"}`, http.StatusBadRequest},
		{"missing name", http.MethodPost, "/users", `{"email":"x@example.com"}`, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/users/not-a-uuid", "", http.StatusNotFound},
		{"unknown id", http.MethodGet, "/users/0190b0d6-7c3e-7000-8000-000000000000", "", http.StatusNotFound},
		{"unknown column", http.MethodPatch, "/users/0190b0d6-7c3e-7000-8000-000000000000", `{"nickname":"x"}`, http.StatusBadRequest},
		{"patch unknown id", http.MethodPatch, "/users/0190b0d6-7c3e-7000-8000-000000000000", `{"name":"x"}`, http.StatusNotFound},
		{"no route", http.MethodGet, "/accounts", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d %s, want %d", tt.method, tt.path, rec.Code, rec.Body, tt.want)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"database":"healthy"`) {
		t.Errorf("GET /health body = %s", rec.Body)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &sqlobjects.NotFoundError{Table: "user", ID: "x"}, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", &sqlobjects.NotFoundError{Table: "user"}), http.StatusNotFound},
		{"missing field", &sqlobjects.MissingFieldError{Table: "user", Field: "name"}, http.StatusBadRequest},
		{"unique", &sqlobjects.QueryError{Code: sqlobjects.UniqueViolation}, http.StatusConflict},
		{"not null", &sqlobjects.QueryError{Code: sqlobjects.NotNullViolation}, http.StatusBadRequest},
		{"other query failure", &sqlobjects.QueryError{Code: sqlobjects.Other}, http.StatusInternalServerError},
		{"http error", echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed},
		{"unsupported value", fmt.Errorf("%w: chan int", sqlobjects.ErrUnsupportedValueType), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := classify(tt.err); got != tt.want {
				t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
