package gallery

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/apperr"
)

// Handler holds the gallery route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListCollections handles GET /api/collections.
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.svc.Collections(r.Context())
	if err != nil {
		slog.Error("list collections failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, CollectionListResponse{Collections: cols})
}

// ListUnits handles GET /api/collections/{collection}/units.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	units, err := h.svc.Units(r.Context(), collection)
	if err != nil {
		slog.Error("list units failed", slog.String("collection", collection), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, UnitListResponse{Collection: collection, Units: units})
}

// ListArtifacts handles GET /api/artifacts?collection=&unit=&limit=&offset=.
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	collection := q.Get("collection")
	unit := q.Get("unit")
	if collection == "" || unit == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("collection and unit are required"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.Artifacts(r.Context(), collection, unit, limit, offset)
	if err != nil {
		slog.Error("list artifacts failed", slog.String("unit", unit), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ArtifactListResponse{Artifacts: items, Total: total})
}

// Search handles GET /api/search?q=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ServeArtifact handles GET /api/artifacts/file?path=.
// The path is tree-relative; traversal is rejected by the tree jail.
func (h *Handler) ServeArtifact(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	abs, err := h.svc.ArtifactFile(rel)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidPath):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
		default:
			slog.Error("serve artifact failed", slog.String("path", rel), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	http.ServeFile(w, r, abs)
}

// RunUnit handles POST /api/collections/{collection}/units/{unit}/run.
// The response carries the run record; a failed unit is still HTTP 200
// with status "failed" in the record.
func (h *Handler) RunUnit(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	unit := chi.URLParam(r, "unit")

	rec, err := h.svc.RunUnit(r.Context(), collection, unit)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("unknown unit"))
			return
		}
		slog.Error("run unit failed", slog.String("unit", unit), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// BuildMontage handles POST /api/collections/{collection}/montage.
func (h *Handler) BuildMontage(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	out, err := h.svc.BuildMontage(r.Context(), collection)
	if err != nil {
		slog.Error("montage failed", slog.String("collection", collection), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if out == "" {
		writeJSON(w, http.StatusNotFound, errorBody("collection has no artifacts"))
		return
	}
	writeJSON(w, http.StatusOK, MontageResponse{Path: out})
}

// ListRuns handles GET /api/runs?limit=.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}
