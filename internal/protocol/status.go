package protocol

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

var statusByKey = func() map[string]string {
	m := make(map[string]string, len(types.Statuses))
	for _, s := range types.Statuses {
		m[statusKey(s)] = s
	}
	return m
}()

// statusKey lowercases s and strips diacritics.
func statusKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// NormalizeStatus maps spelling variants such as "concluido" or "Concluido"
// to the canonical status. Unknown values are returned unchanged.
func NormalizeStatus(s string) string {
	if canon, ok := statusByKey[statusKey(s)]; ok {
		return canon
	}
	return s
}
