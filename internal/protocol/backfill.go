package protocol

import (
	"context"
	"fmt"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// BackfillResult reports how many timestamp twins were filled and how many
// display dates could not be parsed.
type BackfillResult struct {
	Updated int `json:"migrados"`
	Failed  int `json:"erros"`
}

// BackfillDates derives every missing timestamp twin of stored records from
// its display date. Records written before twins existed carry only the
// display string. Only administrators may run it.
func (s *Service) BackfillDates(ctx context.Context, by string) (BackfillResult, error) {
	var out BackfillResult
	if err := s.requireAdmin(ctx, by); err != nil {
		return out, err
	}
	table, err := schema.Lookup(types.RecordsCollection)
	if err != nil {
		return out, err
	}
	for _, tw := range table.Twins {
		docs, err := s.records.Find(types.Where(
			types.Eq(tw.Timestamp, nil),
			types.Ne(tw.Display, nil),
			types.Ne(tw.Display, ""),
		)).Project(types.Projection{tw.Display: 1, types.FieldCode: 1}).All(ctx)
		if err != nil {
			return out, fmt.Errorf("finding records without %s: %w", tw.Timestamp, err)
		}
		for _, d := range docs {
			at, ok := document.ParseDisplay(d.String(tw.Display))
			if !ok {
				s.log.Warn().Str("numero", d.String(types.FieldCode)).Str("field", tw.Display).
					Str("value", d.String(tw.Display)).Msg("cannot backfill unparseable date")
				out.Failed++
				continue
			}
			_, err := s.records.UpdateOne(ctx,
				types.Where(types.Eq(types.IdentityKey, d[types.IdentityKey])),
				types.SetFields(map[string]any{tw.Timestamp: at}))
			if err != nil {
				return out, fmt.Errorf("backfilling %s: %w", tw.Timestamp, err)
			}
			out.Updated++
		}
	}
	s.log.Info().Int("updated", out.Updated).Int("failed", out.Failed).Msg("date backfill finished")
	return out, nil
}
