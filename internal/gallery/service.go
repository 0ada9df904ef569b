package gallery

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/logging"
	"github.com/starford/sowilo/internal/models"
	"github.com/starford/sowilo/internal/runner"
)

// Service coordinates the outputs tree, the ledger, and the runner for the
// HTTP and MCP surfaces. Listings come from the ledger; file content comes
// from the tree.
type Service struct {
	tree artifact.Store
	db   index.ArtifactIndex
	run  *runner.Runner
	log  *slog.Logger
}

// NewService creates a gallery service. run may be nil when unit execution
// is not exposed (read-only surfaces).
func NewService(tree artifact.Store, db index.ArtifactIndex, run *runner.Runner) *Service {
	return &Service{tree: tree, db: db, run: run, log: logging.New("gallery")}
}

// Collections lists every indexed collection.
func (s *Service) Collections(_ context.Context) ([]index.CollectionRow, error) {
	rows, err := s.db.ListCollections()
	return nonNilSlice(rows), err
}

// Units lists the units of one collection. Unknown collections yield an
// empty list, matching the ledger's view.
func (s *Service) Units(_ context.Context, collection string) ([]index.UnitRow, error) {
	rows, err := s.db.ListUnits(collection)
	return nonNilSlice(rows), err
}

// Artifacts returns one unit's artifacts with slice-level pagination and
// the total count before paging.
func (s *Service) Artifacts(_ context.Context, collection, unit string, limit, offset int) ([]models.Artifact, int, error) {
	rows, err := s.db.ListArtifacts(collection, unit)
	if err != nil {
		return nil, 0, err
	}
	total := len(rows)
	if offset > total {
		offset = total
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return nonNilSlice(rows), total, nil
}

// Search delegates full-text search to the ledger.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	return nonNilSlice(results), err
}

// ArtifactFile resolves a tree-relative path to an absolute one for file
// serving. Traversal attempts map to ErrInvalidPath, missing files to
// ErrNotFound.
func (s *Service) ArtifactFile(path string) (string, error) {
	abs, err := s.tree.Resolve(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	return abs, nil
}

// ReadArtifact returns the raw bytes of one artifact.
func (s *Service) ReadArtifact(_ context.Context, path string) ([]byte, error) {
	data, err := s.tree.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// RunUnit executes one unit on demand and records the run in the ledger.
// The record is returned even when the unit fails; only unknown units are
// an error.
func (s *Service) RunUnit(ctx context.Context, collection, unit string) (*models.Run, error) {
	if s.run == nil {
		return nil, apperr.ErrNotFound
	}
	rec, err := s.run.RunOne(ctx, collection, unit)
	if err != nil {
		return nil, err
	}
	id, insErr := s.db.InsertRun(rec)
	if insErr != nil {
		s.log.Warn("run record not persisted", slog.String("unit", unit), slog.String("error", insErr.Error()))
	} else {
		rec.ID = id
	}
	return &rec, nil
}

// BuildMontage rebuilds the overview montage for one collection and
// returns the written tree path ("" when the collection has no tiles).
func (s *Service) BuildMontage(_ context.Context, collection string) (string, error) {
	if s.run == nil {
		return "", apperr.ErrNotFound
	}
	return s.run.BuildOverview(collection)
}

// Runs returns recent run records, newest first.
func (s *Service) Runs(_ context.Context, limit int) ([]models.Run, error) {
	runs, err := s.db.ListRuns(limit)
	return nonNilSlice(runs), err
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
