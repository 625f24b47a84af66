package backup

import (
	"context"
	"fmt"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// CopyResult counts copied and rejected documents per collection.
type CopyResult struct {
	Copied Stats
	Failed Stats
}

// Copy migrates every standard collection from src to dst. Documents are
// inserted one by one; a rejected document, such as a duplicate key, is
// logged and counted without stopping the copy.
func Copy(ctx context.Context, src, dst types.Database, opts Options) (CopyResult, error) {
	res := CopyResult{Copied: Stats{}, Failed: Stats{}}
	for _, name := range types.StandardCollectionNames {
		from, err := src.Collection(name)
		if err != nil {
			return res, err
		}
		docs, err := from.Find(nil).All(ctx)
		if err != nil {
			return res, fmt.Errorf("reading %s: %w", name, err)
		}
		l, err := newLoader(dst, name, opts)
		if err != nil {
			return res, err
		}
		if err := l.clear(ctx); err != nil {
			return res, err
		}
		for _, d := range docs {
			if _, err := l.coll.InsertOne(ctx, l.clean(d)); err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				res.Failed[name]++
				l.log.Warn().Err(err).Any("id", d[types.IDKey]).Msg("document not copied")
				continue
			}
			res.Copied[name]++
		}
		l.log.Info().Int64("copied", res.Copied[name]).Int64("failed", res.Failed[name]).Msg("collection copied")
	}
	return res, nil
}
