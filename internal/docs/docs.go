// Package docs serves the OpenAPI description of the HTTP API.
package docs

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.yaml
var specYAML []byte

const specPath = "/api/docs/openapi.yaml"

// referenceCSP replaces the API-wide "default-src 'none'" policy for the
// reference page only: the viewer script and styles load from jsDelivr and
// fetch the document from this origin.
const referenceCSP = "default-src 'none'; " +
	"script-src https://cdn.jsdelivr.net; " +
	"style-src https://cdn.jsdelivr.net 'unsafe-inline'; " +
	"font-src https://cdn.jsdelivr.net; " +
	"connect-src 'self'; img-src data:; frame-ancestors 'none'"

func HandleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `inline; filename="videogate-openapi.yaml"`)
	_, _ = w.Write(specYAML)
}

func HandleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", referenceCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(referenceHTML))
}

const referenceHTML = `<!DOCTYPE html>
<html lang="en"><head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>videogate: options and messages API</title>
</head><body>
  <noscript>The raw OpenAPI document is at <a href="` + specPath + `">` + specPath + `</a>.</noscript>
  <script id="api-reference" data-url="` + specPath + `"
    data-configuration='{"hideDownloadButton":false,"hiddenClients":true,"darkMode":true}'></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body></html>`
