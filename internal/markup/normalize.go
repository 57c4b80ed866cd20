package markup

import (
	"strings"
	"unicode/utf8"
)

const (
	// ExcerptLimit is the excerpt budget in Unicode scalar values of escaped text.
	ExcerptLimit = 140
	Ellipsis     = "…"
)

// Normalize escapes raw for the dialect and truncates the escaped text to
// ExcerptLimit runes, appending Ellipsis when anything was cut. Escaping
// happens rune by rune so an escape sequence is either kept whole or dropped;
// the result never splits a code point or an entity. When an escape unit does
// not fit into the remaining budget the kept text is shorter than ExcerptLimit.
func Normalize(raw string, d Dialect) string {
	var (
		b     strings.Builder
		count int
	)

	for _, r := range raw {
		unit := d.Escape(string(r))
		n := utf8.RuneCountInString(unit)
		if count+n > ExcerptLimit {
			b.WriteString(Ellipsis)
			return b.String()
		}
		b.WriteString(unit)
		count += n
	}

	return b.String()
}
