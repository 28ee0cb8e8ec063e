package stopsearch

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldPool holds lowercase → NFD → strip combining marks → NFC chains.
// Transformers are stateful, so each borrower gets its own.
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			cases.Lower(language.Und),
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		)
	},
}

// Normalize returns the comparable form of a stop name or query: lower-cased
// without regard to locale, stripped of combining diacritics, with every run
// of whitespace collapsed to a single space and the ends trimmed.
//
//	Normalize("  Náměstí   Míru ") == "namesti miru"
//
// Normalize never fails and Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	t := foldPool.Get().(transform.Transformer)
	folded, _, err := transform.String(t, text)
	t.Reset()
	foldPool.Put(t)
	if err != nil {
		// Only reachable on invalid UTF-8 mid-chain; fall back to plain lowering.
		folded = strings.ToLower(text)
	}

	return strings.Join(strings.Fields(folded), " ")
}
