package index

import "github.com/starford/sowilo/internal/models"

// ArtifactIndex defines the interface for ledger operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type ArtifactIndex interface {
	UpsertArtifact(a models.Artifact) error
	DeleteArtifact(path string) error
	GetArtifact(path string) (*models.Artifact, error)
	GetChecksum(path string) (string, error)
	ListCollections() ([]CollectionRow, error)
	ListUnits(collection string) ([]UnitRow, error)
	ListArtifacts(collection, unit string) ([]models.Artifact, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	InsertRun(r models.Run) (int64, error)
	ListRuns(limit int) ([]models.Run, error)
	Close() error
}

// Verify *DB satisfies ArtifactIndex at compile time.
var _ ArtifactIndex = (*DB)(nil)
