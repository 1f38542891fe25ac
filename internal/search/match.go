package search

import (
	"strings"
	"unicode"
)

// Tokenize splits a query into lowercase whitespace-delimited tokens.
func Tokenize(q string) []string {
	return strings.Fields(strings.ToLower(q))
}

// candidateTokens splits candidate text on whitespace and punctuation.
// Input is assumed lowercased.
func candidateTokens(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// MatchesTokens reports whether candidate text satisfies every query token.
// A token is satisfied when it occurs as a substring of at least one
// candidate token, so "eng" matches "Senior Engineer". When per-token
// matching fails, the whole query rejoined with spaces is tried against the
// full candidate text, which tolerates query tokens carrying punctuation
// ("front-end" against "front-end dev"). An empty token list matches
// everything.
func MatchesTokens(queryTokens []string, candidate string) bool {
	if len(queryTokens) == 0 {
		return true
	}
	lower := strings.ToLower(candidate)
	cand := candidateTokens(lower)
	matched := true
	for _, qt := range queryTokens {
		qt = strings.ToLower(qt)
		if qt == "" {
			continue
		}
		found := false
		for _, ct := range cand {
			if strings.Contains(ct, qt) {
				found = true
				break
			}
		}
		if !found {
			matched = false
			break
		}
	}
	if matched {
		return true
	}
	phrase := strings.ToLower(strings.Join(queryTokens, " "))
	return strings.Contains(lower, phrase)
}

// MatchesLocation reports whether a stored location satisfies a normalized
// country value. A 2-letter code matches as a standalone location token or
// through any full country name mapping to that code; longer free text
// matches by plain containment. Empty country matches everything.
func MatchesLocation(country, location string) bool {
	if country == "" {
		return true
	}
	loc := strings.ToLower(location)
	key := strings.ToLower(country)
	if code, ok := countryAliases[key]; ok {
		key = strings.ToLower(code)
	}
	if len(key) == 2 {
		for _, tok := range candidateTokens(loc) {
			if tok == key {
				return true
			}
		}
		for name, code := range countryAliases {
			if len(name) > 2 && strings.EqualFold(code, key) && strings.Contains(loc, name) {
				return true
			}
		}
		return false
	}
	return strings.Contains(loc, key)
}

// ExtractCountryCode pulls a country code out of a free-form location,
// scanning tokens right to left since locations usually end with the
// country. Falls back to normalizing the supplied country value.
func ExtractCountryCode(location, fallbackCountry string) string {
	toks := candidateTokens(strings.ToLower(location))
	for i := len(toks) - 1; i >= 0; i-- {
		if code, ok := countryAliases[toks[i]]; ok {
			return code
		}
		if isTwoLetters(toks[i]) {
			return strings.ToUpper(toks[i])
		}
	}
	return NormalizeCountry(fallbackCountry)
}
