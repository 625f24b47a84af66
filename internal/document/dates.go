// Package document holds the document shaping shared by every engine:
// timestamp-twin derivation, timestamp coercion, identity handling and
// projection.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/schema"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// Display layouts accepted for the human-readable half of a date twin, in
// the order they are tried.
const (
	DateLayout      = "2006-01-02"
	DateTimeLayout  = "2006-01-02 15:04:05"
	StampLayout     = "2006-01-02 15:04:05 UTC"
	timestampLayout = time.RFC3339Nano
)

var displayLayouts = []string{DateLayout, DateTimeLayout, StampLayout}

// ParseDisplay parses a display date string as UTC.
func ParseDisplay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range displayLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimestamp parses a serialized timestamp (RFC 3339, then the display
// layouts) as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(timestampLayout, strings.TrimSpace(s)); err == nil {
		return t.UTC(), true
	}
	return ParseDisplay(s)
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// Coercer prepares documents for storage in one table.
type Coercer struct {
	table *schema.Table
	log   zerolog.Logger
	now   Clock
}

// NewCoercer returns a Coercer for table. A nil clock uses time.Now.
func NewCoercer(table *schema.Table, log zerolog.Logger, now Clock) *Coercer {
	if now == nil {
		now = time.Now
	}
	return &Coercer{table: table, log: log, now: now}
}

// Timestamps normalizes every timestamp column present in fields: empty
// strings become nil, strings are parsed into UTC time.Time values, and
// strings that cannot be parsed are logged and become nil. fields is
// modified in place.
func (c *Coercer) Timestamps(fields map[string]any) {
	for name, v := range fields {
		col, ok := c.table.Column(name)
		if !ok || col.Kind != schema.Timestamp {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" {
				fields[name] = nil
				continue
			}
			parsed, ok := ParseTimestamp(t)
			if !ok {
				c.log.Warn().Str("field", name).Str("value", t).Msg("could not parse timestamp")
				fields[name] = nil
				continue
			}
			fields[name] = parsed
		case time.Time:
			fields[name] = t.UTC()
		}
	}
}

// Dates derives missing timestamp twins from their display strings. A twin
// is derived when it is absent, nil or not a time value after Timestamps
// ran. Parse failures are logged; a required twin then falls back to the
// current time, any other twin is left nil. doc is modified in place.
func (c *Coercer) Dates(doc map[string]any) {
	c.Timestamps(doc)
	for _, tw := range c.table.Twins {
		if _, ok := doc[tw.Timestamp].(time.Time); ok {
			continue
		}
		display, _ := doc[tw.Display].(string)
		if strings.TrimSpace(display) == "" {
			continue
		}
		if t, ok := ParseDisplay(display); ok {
			doc[tw.Timestamp] = t
			continue
		}
		c.log.Warn().Str("field", tw.Display).Str("value", display).Msg("could not parse date")
		if tw.Required {
			doc[tw.Timestamp] = c.now().UTC()
			c.log.Info().Str("field", tw.Timestamp).Msg("set to current time as fallback")
		}
	}
}

// PrepareInsert returns a copy of doc ready for insertion: identity keys are
// dropped, unknown fields are rejected with types.ErrUnknownField, scalars
// are converted with Scalar, absent or nil columns take their default, and
// timestamps and twins are coerced.
func (c *Coercer) PrepareInsert(doc types.Document) (types.Document, error) {
	out := make(types.Document, len(doc)+len(c.table.Columns))
	for k, v := range doc {
		if types.IsIdentity(k) {
			continue
		}
		col, ok := c.table.Column(k)
		if !ok {
			return nil, c.table.Check(k)
		}
		out[k] = Scalar(col, v)
	}
	for _, col := range c.table.Columns {
		if col.Default != nil && out[col.Name] == nil {
			out[col.Name] = Default(col)
		}
	}
	c.Dates(out)
	return out, nil
}

// PrepareSet returns a copy of set with scalars and timestamps coerced. Identity keys and
// unknown fields are rejected.
func (c *Coercer) PrepareSet(set map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(set))
	for k, v := range set {
		if types.IsIdentity(k) {
			return nil, fmt.Errorf("%w: identity cannot be updated", types.ErrInvalidUpdate)
		}
		col, ok := c.table.Column(k)
		if !ok {
			return nil, c.table.Check(k)
		}
		out[k] = Scalar(col, v)
	}
	c.Timestamps(out)
	return out, nil
}
