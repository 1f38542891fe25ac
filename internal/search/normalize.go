package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Characters kept by title normalization: word characters, whitespace,
	// hyphen and slash. Everything else becomes a space.
	reTitleStrip = regexp.MustCompile(`[^\p{L}\p{N}_\s\-/]+`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

type synonymRule struct {
	re   *regexp.Regexp
	repl string
}

// synonymRules holds one compiled rule per titleSynonyms key, longest key
// first so "front-end" is rewritten before a shorter key could mangle it.
// Ties break alphabetically to keep the order deterministic.
var synonymRules = buildSynonymRules()

func buildSynonymRules() []synonymRule {
	keys := make([]string, 0, len(titleSynonyms))
	for k := range titleSynonyms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	rules := make([]synonymRule, 0, len(keys))
	for _, k := range keys {
		rules = append(rules, synonymRule{
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`),
			repl: titleSynonyms[k],
		})
	}
	return rules
}

// NormalizeTitle canonicalizes a job-title query: lowercase, strip
// punctuation, collapse whitespace, then expand every known shorthand at
// word boundaries. Idempotent: normalizing an already-normalized title is
// a no-op. Empty or whitespace-only input yields "".
func NormalizeTitle(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = reTitleStrip.ReplaceAllString(s, " ")
	s = collapseSpace(s)
	for _, rule := range synonymRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}
	return collapseSpace(s)
}

// NormalizeCountry canonicalizes a country query to a 2-letter code where
// possible. Lookup order: exact alias hit on the lowercased input, alias
// hit after accent folding, then a bare two-letter value is uppercased.
// Anything else passes through trimmed, so free text like "Narnia" can
// still be substring-matched against stored locations downstream.
func NormalizeCountry(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	key := strings.ToLower(trimmed)
	if code, ok := countryAliases[key]; ok {
		return code
	}
	if folded := foldAccents(key); folded != key {
		if code, ok := countryAliases[folded]; ok {
			return code
		}
	}
	if isTwoLetters(key) {
		return strings.ToUpper(key)
	}
	return trimmed
}

func isTwoLetters(s string) bool {
	rs := []rune(s)
	return len(rs) == 2 && unicode.IsLetter(rs[0]) && unicode.IsLetter(rs[1])
}

// foldAccents strips combining marks so "österreich" and "osterreich"
// compare equal. On transform failure the input is returned unchanged.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func collapseSpace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}
