package backup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/protocol"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// batchSize bounds the documents passed to one InsertMany.
const batchSize = 500

// Stats counts the documents loaded per collection.
type Stats map[string]int64

// Import verifies the backup in dir and loads it into db. With
// Options.Replace each listed collection is emptied first. Fields unknown to
// the schema are dropped and record statuses are normalized.
func Import(ctx context.Context, db types.Database, dir string, opts Options) (Stats, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if err := m.Verify(dir); err != nil {
		return nil, err
	}
	stats := Stats{}
	for _, e := range m.Collections {
		l, err := newLoader(db, e.Name, opts)
		if err != nil {
			return stats, err
		}
		if err := l.clear(ctx); err != nil {
			return stats, err
		}
		err = readJSONL(filepath.Join(dir, e.File),
			func(d types.Document) error { return l.add(ctx, d) },
			func(line int, err error) {
				l.log.Warn().Err(err).Int("line", line).Msg("skipping undecodable line")
			})
		if err != nil {
			return stats, err
		}
		if err := l.flush(ctx); err != nil {
			return stats, err
		}
		stats[e.Name] = l.loaded
	}
	opts.Log.Info().Str("id", m.ID).Any("loaded", stats).Msg("backup restored")
	return stats, nil
}

// loader batches documents into one collection.
type loader struct {
	coll    types.Collection
	table   *schema.Table
	replace bool
	log     zerolog.Logger
	pending []types.Document
	loaded  int64
}

func newLoader(db types.Database, name string, opts Options) (*loader, error) {
	coll, err := db.Collection(name)
	if err != nil {
		return nil, err
	}
	table, err := schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &loader{
		coll:    coll,
		table:   table,
		replace: opts.Replace,
		log:     opts.Log.With().Str("collection", name).Logger(),
	}, nil
}

func (l *loader) clear(ctx context.Context) error {
	if !l.replace {
		return nil
	}
	res, err := l.coll.DeleteMany(ctx, nil)
	if err != nil {
		return fmt.Errorf("clearing %s: %w", l.table.Name, err)
	}
	l.log.Info().Int64("deleted", res.Count).Msg("collection cleared")
	return nil
}

func (l *loader) add(ctx context.Context, d types.Document) error {
	l.pending = append(l.pending, l.clean(d))
	if len(l.pending) >= batchSize {
		return l.flush(ctx)
	}
	return nil
}

func (l *loader) flush(ctx context.Context) error {
	if len(l.pending) == 0 {
		return nil
	}
	res, err := l.coll.InsertMany(ctx, l.pending)
	if err != nil {
		return fmt.Errorf("loading %s: %w", l.table.Name, err)
	}
	l.loaded += int64(len(res.IDs))
	l.pending = l.pending[:0]
	return nil
}

// clean drops identity keys and fields the table does not know, and fixes
// record status spellings.
func (l *loader) clean(d types.Document) types.Document {
	out := make(types.Document, len(d))
	for k, v := range d {
		if types.IsIdentity(k) {
			continue
		}
		if !l.table.Has(k) {
			l.log.Warn().Str("field", k).Msg("dropping unknown field")
			continue
		}
		out[k] = v
	}
	if l.table.Name == types.RecordsCollection {
		if s, ok := out[types.FieldStatus].(string); ok {
			out[types.FieldStatus] = protocol.NormalizeStatus(s)
		}
	}
	return out
}
