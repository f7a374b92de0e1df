package userservice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(f fixture) *http.ServeMux {
	mux := http.NewServeMux()
	NewUserHTTPHandler(f.svc, logger.NewNop()).Register(mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_RegisterLoginAndLookup(t *testing.T) {
	f := newFixture()
	mux := newTestMux(f)

	rec := do(mux, http.MethodPost, "/register", `{"name":"Ann","email":"ann@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var reg struct {
		Message string `json:"message"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "User registered successfully", reg.Message)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(mux, http.MethodPost, "/register", `{"name":"Ann","email":"ann@x.com","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"User already exists with this email"}`, rec.Body.String())

	rec = do(mux, http.MethodPost, "/login", `{"email":"ann@x.com","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login successful")

	rec = do(mux, http.MethodPost, "/login", `{"email":"ann@x.com","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid email or password"}`, rec.Body.String())

	rec = do(mux, http.MethodGet, "/users/"+reg.User.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ann@x.com", got["email"])

	rec = do(mux, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestHTTP_UnknownUserIs404(t *testing.T) {
	rec := do(newTestMux(newFixture()), http.MethodGet, "/users/u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())
}

func TestHTTP_RegisterRejectsBadBodies(t *testing.T) {
	mux := newTestMux(newFixture())

	rec := do(mux, http.MethodPost, "/register", `{"name":"Ann"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodPost, "/register", `{"name":"","email":"ann@x.com","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name must be 1-100 characters long")
}
