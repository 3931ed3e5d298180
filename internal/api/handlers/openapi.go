// openapi.go — OpenAPI-документ API (встроенный openapi.yaml), загрузка и выдача в JSON.
package handlers

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Aryan-dev-enth/certificate-manager/internal/config"
)

//go:embed openapi.yaml
var openAPIYAML []byte

// LoadOpenAPI разбирает и валидирует встроенный OpenAPI-документ.
// Версия документа берётся из config.Version.
func LoadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIYAML)
	if err != nil {
		return nil, fmt.Errorf("разбор OpenAPI-документа: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI-документа: %w", err)
	}
	doc.Info.Version = config.Version
	return doc, nil
}

// OpenAPIHandler отдаёт OpenAPI-документ в JSON.
type OpenAPIHandler struct {
	body []byte
}

// NewOpenAPIHandler загружает документ и сериализует его один раз при старте.
func NewOpenAPIHandler(ctx context.Context) (*OpenAPIHandler, error) {
	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("сериализация OpenAPI-документа: %w", err)
	}
	return &OpenAPIHandler{body: body}, nil
}

// ServeHTTP — GET /api/v1/openapi.json.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.body)
}
