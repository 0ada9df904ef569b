// Package models defines the domain types for Sowilo.
package models

import "time"

// Artifact is one captured figure under the outputs tree, as recorded in
// the index.
type Artifact struct {
	Path       string    `json:"path"` // relative to the outputs root
	Collection string    `json:"collection"`
	Unit       string    `json:"unit"`
	Index      int       `json:"index,omitempty"`
	Label      string    `json:"label,omitempty"`
	Checksum   string    `json:"checksum"`
	SizeBytes  int64     `json:"size_bytes"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ArtifactMetadata is the lightweight form returned by tree listings.
type ArtifactMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run records a single unit execution.
type Run struct {
	ID         int64     `json:"id"`
	Collection string    `json:"collection"`
	Unit       string    `json:"unit"`
	Status     string    `json:"status"`
	Artifacts  int       `json:"artifacts"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run.Status values.
const (
	RunStatusOK     = "ok"
	RunStatusFailed = "failed"
)
