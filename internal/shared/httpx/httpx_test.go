package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_WritesJSONBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(context.Background(), logger.NewNop(), rec, http.StatusNotFound, "User not found", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	cases := []struct {
		name    string
		ct      string
		payload string
		wantErr bool
	}{
		{"ok", "application/json", `{"name":"Ann"}`, false},
		{"no content type", "", `{"name":"Ann"}`, false},
		{"unknown field", "application/json", `{"name":"Ann","age":3}`, true},
		{"not json", "text/plain", `{"name":"Ann"}`, true},
		{"malformed", "application/json", `{"name":`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.payload))
			if tc.ct != "" {
				req.Header.Set("Content-Type", tc.ct)
			}
			var dst body
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ann", dst.Name)
		})
	}
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(logger.NewNop(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestJSON_NilDataIsEmptyObject(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(context.Background(), logger.NewNop(), rec, http.StatusOK, nil)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got)
}

func TestHealthHandler(t *testing.T) {
	up := func(context.Context) (string, bool) { return "connected", true }
	down := func(context.Context) (string, bool) { return "connecting", false }

	rec := httptest.NewRecorder()
	HealthHandler(map[string]Check{"rabbitmq": up}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rabbitmq":"connected"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	HealthHandler(map[string]Check{"rabbitmq": down, "postgres": up}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"rabbitmq":"connecting","postgres":"connected"}`, rec.Body.String())
}
