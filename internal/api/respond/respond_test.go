package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailCarriesRequestID(t *testing.T) {
	t.Parallel()

	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, Internal("ARCHIVE_ERROR", "Failed to list snapshots", errors.New("conn reset")))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	var body struct {
		Error Problem `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ARCHIVE_ERROR", body.Error.Code)
	assert.Equal(t, "conn reset", body.Error.Detail)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestFailWithoutDetail(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), NotFound("No team named x"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"No team named x"}}`, rec.Body.String())
}

func TestPayloadServe(t *testing.T) {
	t.Parallel()

	p := Payload{Data: []byte(`{"teams":[]}`), ETag: `W/"abc"`, TTL: 2 * time.Minute, Hit: true}

	t.Run("fresh", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		p.Serve(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
		assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
		assert.Equal(t, "public, max-age=120, stale-while-revalidate=60", rec.Header().Get("Cache-Control"))
		assert.Equal(t, `{"teams":[]}`, rec.Body.String())
	})

	t.Run("not modified", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("If-None-Match", `W/"abc"`)
		rec := httptest.NewRecorder()
		p.Serve(rec, req)

		assert.Equal(t, http.StatusNotModified, rec.Code)
		assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
		assert.Empty(t, rec.Body.String())
	})
}
