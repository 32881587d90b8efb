package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"adforge/internal/creative"
	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/middleware"
	"adforge/internal/mood"
	"adforge/internal/social"
	"adforge/internal/storage"
)

// App carries the wired collaborators every handler needs. Handlers stay thin:
// decode, delegate, render.
type App struct {
	SQL           infra.SQLExecutor
	Store         *storage.FileStore
	Orchestrator  *creative.GenerationOrchestrator
	ProductImages *creative.ProductImageRenderer
	Mood          *mood.Service
	Social        *social.Client
	Config        *infra.Config
	Logger        infra.Logger

	// HTTPClient fetches remote images referenced by URL. Nil falls back to
	// http.DefaultClient.
	HTTPClient *http.Client
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]string{"error": slug, "message": message})
}

// domainError translates the domain error taxonomy into HTTP statuses. Errors
// outside the taxonomy stay opaque 500s so internals never leak to callers.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrGenerationFailed):
		a.error(w, http.StatusUnprocessableEntity, "generation_failed", err.Error())
	case errors.Is(err, domain.ErrGenerationTimeout):
		a.error(w, http.StatusGatewayTimeout, "generation_timeout", err.Error())
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, http.StatusBadGateway, "provider_failure", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("http: unhandled error")
		a.error(w, http.StatusInternalServerError, "internal", "unexpected error")
	}
}

func (a *App) requestID(r *http.Request) string {
	return middleware.RequestIDFromContext(r.Context())
}

func (a *App) httpClient() *http.Client {
	if a.HTTPClient != nil {
		return a.HTTPClient
	}
	return http.DefaultClient
}
