package backup

import (
	"context"
	"fmt"
	"io"
	"slices"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/mongodb"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// ImportLegacy restores a single-file backup of the form
// {"protocolos": [...], "usuarios": [...]} written as MongoDB extended JSON
// ($oid, $date). Every collection present in the file is replaced.
// Collections absent from the file are left alone.
func ImportLegacy(ctx context.Context, db types.Database, r io.Reader, opts Options) (Stats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading legacy backup: %w", err)
	}
	var raw bson.M
	if err := bson.UnmarshalExtJSON(data, false, &raw); err != nil {
		return nil, fmt.Errorf("decoding legacy backup: %w", err)
	}
	opts.Replace = true
	stats := Stats{}
	for _, name := range types.StandardCollectionNames {
		v, ok := raw[name]
		if !ok {
			continue
		}
		list, ok := mongodb.Normalize(v).([]any)
		if !ok {
			return stats, fmt.Errorf("legacy backup: %s is not a list", name)
		}
		l, err := newLoader(db, name, opts)
		if err != nil {
			return stats, err
		}
		if err := l.clear(ctx); err != nil {
			return stats, err
		}
		for i, item := range list {
			d, ok := item.(map[string]any)
			if !ok {
				l.log.Warn().Int("index", i).Msg("skipping non-object entry")
				continue
			}
			if err := l.add(ctx, types.Document(d)); err != nil {
				return stats, err
			}
		}
		if err := l.flush(ctx); err != nil {
			return stats, err
		}
		stats[name] = l.loaded
	}
	for k := range raw {
		if !slices.Contains(types.StandardCollectionNames, k) {
			opts.Log.Warn().Str("key", k).Msg("ignoring unknown legacy backup section")
		}
	}
	opts.Log.Info().Any("loaded", stats).Msg("legacy backup restored")
	return stats, nil
}
