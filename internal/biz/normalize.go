package biz

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSource canonicalizes a listing-source identifier. Feeds deliver
// the same site as "Zillow ", "zillow" or with stray accents; per-source
// counts are only meaningful on a single spelling.
func NormalizeSource(source string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)), // Remove diacritics
		norm.NFC,
	)
	result, _, err := transform.String(t, source)
	if err != nil {
		result = source
	}
	return strings.ToLower(strings.TrimSpace(result))
}
