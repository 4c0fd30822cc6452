package api

import (
	_ "embed"
	"net/http"
)

// OpenAPIPath is where the API description is served; the Swagger UI at
// /docs/ loads it from here.
const OpenAPIPath = "/openapi.json"

//go:embed openapi.json
var openAPIDoc []byte

func serveOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(openAPIDoc)
}
