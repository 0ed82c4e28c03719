package normalizer

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CategoryName is the canonical form under which categories are matched
// and stored: trimmed and lowercased.
func CategoryName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StripAccents removes combining marks ("categoría" -> "categoria").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldText lowercases s, strips accents and drops all whitespace. Header
// and month matching compare folded strings.
func FoldText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(StripAccents(s)))
}

var parenthetical = regexp.MustCompile(`\([^()]*\)`)

// StripParenthetical removes every "(...)" segment from s.
// "Luz (bimestral)" -> "Luz".
func StripParenthetical(s string) string {
	for parenthetical.MatchString(s) {
		s = parenthetical.ReplaceAllString(s, " ")
	}
	return CleanDescription(s)
}

// CleanDescription trims s and collapses inner runs of whitespace.
func CleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var monthsByName = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// Month resolves a Spanish month name. Matching is exact after folding, so
// "Total Enero" is not a month.
func Month(name string) (time.Month, bool) {
	m, ok := monthsByName[FoldText(name)]
	return m, ok
}
