package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/creatorfund/boostd/internal/api/middleware"
	"github.com/creatorfund/boostd/internal/api/response"
)

// OpenAPIHandler serves the OpenAPI document as JSON, stamped with the
// running build's version.
type OpenAPIHandler struct {
	rawYAML []byte
	version string

	once     sync.Once
	jsonSpec []byte
	jsonErr  error
}

// NewOpenAPIHandler creates a handler that renders yamlSpec on first request.
// An empty version leaves info.version as written in the document.
func NewOpenAPIHandler(yamlSpec []byte, version string) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec, version: version}
}

func (h *OpenAPIHandler) render() ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(h.rawYAML, &doc); err != nil {
		return nil, fmt.Errorf("parsing openapi document: %w", err)
	}

	if h.version != "" {
		info, _ := doc["info"].(map[string]any)
		if info == nil {
			info = map[string]any{}
			doc["info"] = info
		}
		info["version"] = h.version
	}

	return json.Marshal(doc)
}

// ServeHTTP writes the rendered document.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.jsonSpec, h.jsonErr = h.render()
	})

	if h.jsonErr != nil {
		slog.Error("failed to render OpenAPI document", "error", h.jsonErr)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render OpenAPI document", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonSpec); err != nil {
		slog.Error("failed to write OpenAPI response", "error", err)
	}
}
