package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// printCounts writes per-collection counts as a table or as JSON.
func printCounts(w io.Writer, jsonMode bool, counts map[string]int64) error {
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tDOCUMENTS")
	for _, name := range types.StandardCollectionNames {
		if n, ok := counts[name]; ok {
			fmt.Fprintf(tw, "%s\t%d\n", name, n)
		}
	}
	return tw.Flush()
}

// countAll counts the documents of every standard collection.
func countAll(ctx context.Context, db types.Database) (map[string]int64, error) {
	out := make(map[string]int64, len(types.StandardCollectionNames))
	for _, name := range types.StandardCollectionNames {
		c, err := db.Collection(name)
		if err != nil {
			return nil, err
		}
		n, err := c.CountDocuments(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}
