package index

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/sowilo/internal/artifact"
	"github.com/starford/sowilo/internal/models"
)

var (
	// figureName matches harness naming: 01.png, 02-scree-plot.png.
	figureName = regexp.MustCompile(`^([0-9]+)(?:-(.+))?$`)
	// legacyName matches organize naming: fig1.png, fig007.png.
	legacyName = regexp.MustCompile(`^fig([0-9]+)$`)
)

// Sync walks the outputs tree and brings the ledger up to date:
//   - new/changed artifacts are upserted
//   - artifacts removed from disk are deleted from the ledger
func Sync(db *DB, store artifact.Store, logger *slog.Logger) error {
	metas, err := store.ListImages("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		if err := indexMeta(db, m); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteArtifact(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexMeta upserts one tree listing entry into the ledger.
func indexMeta(db *DB, meta models.ArtifactMetadata) error {
	return db.UpsertArtifact(artifactFromMeta(meta))
}

// artifactFromMeta derives collection, unit, and figure naming from the
// relative path <collection>/<unit>/<name>.png. Paths outside that shape
// keep empty fields and still index by path.
func artifactFromMeta(meta models.ArtifactMetadata) models.Artifact {
	a := models.Artifact{
		Path:      meta.Path,
		Checksum:  meta.Checksum,
		SizeBytes: meta.SizeBytes,
		UpdatedAt: meta.UpdatedAt,
	}
	segs := strings.Split(meta.Path, "/")
	if len(segs) >= 2 {
		a.Collection = segs[0]
	}
	if len(segs) >= 3 {
		a.Unit = segs[1]
	}
	name := segs[len(segs)-1]
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[:dot]
	}
	if m := figureName.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		a.Index = n
		a.Label = m[2]
	} else if m := legacyName.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		a.Index = n
	}
	return a
}
