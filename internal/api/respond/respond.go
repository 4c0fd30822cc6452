// Package respond writes the leaderboard API's JSON bodies and headers.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/albapepper/scoracle-leaderboard/internal/cache"
)

// Problem is a failed request as reported to clients, nested under "error".
type Problem struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Problems shared by several handlers.
var (
	ErrNotReady = Problem{Status: http.StatusServiceUnavailable, Code: "NOT_READY",
		Message: "Leaderboard has not been loaded yet"}
	ErrArchiveDisabled = Problem{Status: http.StatusServiceUnavailable, Code: "ARCHIVE_DISABLED",
		Message: "Snapshot archive is not configured"}
	ErrRateLimited = Problem{Status: http.StatusTooManyRequests, Code: "RATE_LIMITED",
		Message: "Too many requests"}
)

// NotFound reports a missing team or snapshot.
func NotFound(message string) Problem {
	return Problem{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: message}
}

// BadRequest reports an invalid path or query parameter.
func BadRequest(code, message string) Problem {
	return Problem{Status: http.StatusBadRequest, Code: code, Message: message}
}

// Internal reports a server-side failure; err becomes the detail.
func Internal(code, message string, err error) Problem {
	p := Problem{Status: http.StatusInternalServerError, Code: code, Message: message}
	if err != nil {
		p.Detail = err.Error()
	}
	return p
}

// Fail writes p, tagged with the request id chi assigned to r.
func Fail(w http.ResponseWriter, r *http.Request, p Problem) {
	p.RequestID = middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(struct {
		Error Problem `json:"error"`
	}{p})
}

// Payload is a pre-encoded JSON body held in the response cache.
type Payload struct {
	Data []byte
	ETag string
	TTL  time.Duration
	Hit  bool
}

// Serve writes the payload, or a bare 304 when the client already holds it.
func (p Payload) Serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", p.ETag)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), p.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")
	if p.Hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	maxAge := int(p.TTL.Seconds())
	w.Header().Set("Cache-Control",
		fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, maxAge/2))
	w.WriteHeader(http.StatusOK)
	w.Write(p.Data)
}

// Object encodes v uncached. Health checks and archive listings use it.
func Object(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
