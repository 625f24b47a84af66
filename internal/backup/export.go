// Package backup exports and restores the six collections of a protocolos
// database, restores legacy single-file backups and copies data between
// engines. A backup is a directory with one JSONL file per collection, each
// line a document in relaxed MongoDB extended JSON, plus a manifest with
// counts and sha256 checksums.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Options configures Export, Import, ImportLegacy and Copy.
type Options struct {
	// Replace clears each target collection before loading it.
	Replace bool
	// Database is recorded in the manifest.
	Database string
	Log      zerolog.Logger
	Now      func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Export writes every standard collection of db to dir and returns the
// manifest.
func Export(ctx context.Context, db types.Database, dir string, opts Options) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating backup id: %w", err)
	}
	m := &Manifest{
		ID:        id.String(),
		Version:   FormatVersion,
		Engine:    db.Engine(),
		Database:  opts.Database,
		CreatedAt: opts.now().UTC(),
	}
	for _, name := range types.StandardCollectionNames {
		coll, err := db.Collection(name)
		if err != nil {
			return nil, err
		}
		docs, err := coll.Find(nil).All(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		file := name + ".jsonl"
		sum, err := writeJSONL(filepath.Join(dir, file), docs)
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", file, err)
		}
		m.Collections = append(m.Collections, Entry{Name: name, File: file, Count: int64(len(docs)), SHA256: sum})
		opts.Log.Debug().Str("collection", name).Int("documents", len(docs)).Msg("collection exported")
	}
	if err := WriteManifest(dir, m); err != nil {
		return nil, err
	}
	opts.Log.Info().Str("id", m.ID).Str("dir", dir).Msg("backup written")
	return m, nil
}
