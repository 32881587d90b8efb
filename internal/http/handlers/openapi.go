package handlers

import (
	_ "embed"
	"fmt"
	"net/http"
)

// openAPISpec is the machine-readable contract for the /api surface, embedded
// so the binary always documents exactly the routes it serves.
//
//go:embed openapi.json
var openAPISpec []byte

// SpecRoute is where the raw OpenAPI document is mounted.
const SpecRoute = "/api/openapi.json"

var redocPage = []byte(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>AdForge API Docs</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { margin: 0; padding: 0; }
      redoc { display: block; height: 100vh; }
    </style>
  </head>
  <body>
    <redoc spec-url=%q></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`, SpecRoute))

// OpenAPIJSON serves the embedded spec. Clients may cache it briefly; the
// document only changes on deploy.
func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(openAPISpec)
}

// OpenAPIDocs serves a Redoc page rendering the OpenAPI document.
func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(redocPage)
}
