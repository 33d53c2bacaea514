// Package keys builds cache keys for sheet lookups.
package keys

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const prefix = "nomk:v1"

// Decode keys a decode lookup by its input text and scale hint ("auto"
// when the scale is detected). Non-ASCII labels are replaced in the
// readable part, so the hash of the normalized text disambiguates.
func Decode(scale, text string) string {
	norm := normalizeText(text)
	safe := sanitizeForKey(norm)

	const maxTextLen = 96
	if len(safe) > maxTextLen {
		safe = safe[:maxTextLen]
	}

	sum := xxhash.Sum64String(norm)
	return fmt.Sprintf("%s:decode:%s:%s:h=%016x", prefix, sanitizeForKey(scale), safe, sum)
}

// Encode keys an encode lookup by scale and the exact coordinate. Points a
// hair apart can sit in different sheets, and -0 is kept apart from 0.
func Encode(scale string, lon, lat float64) string {
	return fmt.Sprintf("%s:encode:%s:%s:%s", prefix, sanitizeForKey(scale), exact(lon), exact(lat))
}

// exact prints the shortest form that parses back to v.
func exact(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// normalizeText drops all whitespace; the nomenclature grammar ignores it.
func normalizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case isAlphaNum(r) || r == '_' || r == '-' || r == ',':
			out = r
		default:
			// any other rune (including Cyrillic) becomes '-'
			out = '-'
		}
		if out == '-' && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
