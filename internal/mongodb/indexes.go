package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Server codes for an index whose keys already exist under another name or
// with other options. Deployments created by older releases carry such
// indexes; they are kept.
const (
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// indexModel renders a catalog index as a driver index model.
func indexModel(ix schema.Index) mongo.IndexModel {
	keys := make(bson.D, 0, len(ix.Columns))
	for _, k := range ix.Columns {
		dir := 1
		if k.Desc {
			dir = -1
		}
		keys = append(keys, bson.E{Key: k.Name, Value: dir})
	}
	return mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(ix.Name).SetUnique(ix.Unique),
	}
}

// createIndexes creates every catalog index one at a time so that a
// conflicting legacy index does not block the rest.
func createIndexes(ctx context.Context, db *mongo.Database, log zerolog.Logger) error {
	for _, t := range schema.All() {
		coll := db.Collection(t.Name)
		for _, ix := range t.AllIndexes() {
			_, err := coll.Indexes().CreateOne(ctx, indexModel(ix))
			if err == nil {
				continue
			}
			var cmdErr mongo.CommandError
			if errors.As(err, &cmdErr) && (cmdErr.Code == codeIndexOptionsConflict || cmdErr.Code == codeIndexKeySpecsConflict) {
				log.Warn().Str("collection", t.Name).Str("index", ix.Name).Msg("equivalent index exists, keeping it")
				continue
			}
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: building %s on %s: %v", types.ErrDuplicateKey, ix.Name, t.Name, err)
			}
			return fmt.Errorf("creating index %s on %s: %w", ix.Name, t.Name, err)
		}
	}
	log.Debug().Int("collections", len(schema.All())).Msg("indexes ready")
	return nil
}
