package gallery

import (
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/models"
)

// CollectionListResponse wraps collection listings.
type CollectionListResponse struct {
	Collections []index.CollectionRow `json:"collections"`
}

// UnitListResponse wraps the units of one collection.
type UnitListResponse struct {
	Collection string          `json:"collection"`
	Units      []index.UnitRow `json:"units"`
}

// ArtifactListResponse wraps paginated artifact listings.
type ArtifactListResponse struct {
	Artifacts []models.Artifact `json:"artifacts"`
	Total     int               `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// RunListResponse wraps recent run records.
type RunListResponse struct {
	Runs []models.Run `json:"runs"`
}

// MontageResponse reports the outcome of an overview build.
type MontageResponse struct {
	Path string `json:"path"`
}
