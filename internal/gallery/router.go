package gallery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all gallery routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Browsing.
	r.Get("/collections", h.ListCollections)
	r.Get("/collections/{collection}/units", h.ListUnits)
	r.Get("/artifacts", h.ListArtifacts)
	r.Get("/artifacts/file", h.ServeArtifact)

	// Search.
	r.Get("/search", h.Search)

	// Execution.
	r.Post("/collections/{collection}/units/{unit}/run", h.RunUnit)
	r.Post("/collections/{collection}/montage", h.BuildMontage)
	r.Get("/runs", h.ListRuns)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
