package document

import (
	"fmt"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// WithIdentity sets the identity of doc under both identity keys: the raw
// value under "_id" and its string form under "id".
func WithIdentity(doc types.Document, id any) types.Document {
	doc[types.IdentityKey] = id
	doc[types.IDKey] = IDString(id)
	return doc
}

// IDString formats an engine identity as a string.
func IDString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case fmt.Stringer:
		if h, ok := id.(interface{ Hex() string }); ok {
			return h.Hex()
		}
		return v.String()
	}
	return fmt.Sprint(id)
}

// Inclusive reports whether p lists fields to keep rather than fields to
// drop. Identity entries do not decide the mode.
func Inclusive(p types.Projection) bool {
	for k, v := range p {
		if !types.IsIdentity(k) && v != 0 {
			return true
		}
	}
	return false
}

// Project returns doc shaped by p. An inclusion projection keeps the listed
// fields plus both identity keys unless "_id" is 0; otherwise every field is
// kept except the excluded ones. Excluding "_id" drops both identity keys.
func Project(doc types.Document, p types.Projection) types.Document {
	if len(p) == 0 || doc == nil {
		return doc
	}
	dropID := false
	if v, ok := p[types.IdentityKey]; ok && v == 0 {
		dropID = true
	}

	out := make(types.Document, len(doc))
	if Inclusive(p) {
		for k, v := range p {
			if v == 0 || types.IsIdentity(k) {
				continue
			}
			if val, ok := doc[k]; ok {
				out[k] = val
			}
		}
		if !dropID {
			for _, k := range []string{types.IdentityKey, types.IDKey} {
				if val, ok := doc[k]; ok {
					out[k] = val
				}
			}
		}
		return out
	}

	for k, v := range doc {
		out[k] = v
	}
	for k, v := range p {
		if v == 0 {
			delete(out, k)
		}
	}
	if dropID {
		delete(out, types.IdentityKey)
		delete(out, types.IDKey)
	}
	return out
}
