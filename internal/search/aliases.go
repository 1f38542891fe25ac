// Package search implements the query-understanding pipeline: alias
// tables, title and country normalization, salary extraction, and token
// matching. Every function is pure and total: no I/O, no errors, no
// panics on any string input.
package search

import (
	"sort"
	"strings"
)

// ─── Alias tables ────────────────────────────────────────────────────────────

// countryAliases maps lowercase country spellings to canonical codes.
// Keys are matched exactly against the lowercased, accent-folded input.
var countryAliases = map[string]string{
	"deutschland": "DE", "germany": "DE", "deu": "DE", "de": "DE",
	"switzerland": "CH", "schweiz": "CH", "suisse": "CH", "svizzera": "CH", "ch": "CH",
	"austria": "AT", "osterreich": "AT", "at": "AT",
	"europe": "EU", "eu": "EU",
	"uk": "UK", "gb": "UK", "england": "UK", "united kingdom": "UK",
	"usa": "US", "united states": "US", "america": "US", "us": "US",
	"spain": "ES", "es": "ES",
	"france": "FR", "fr": "FR",
	"italy": "IT", "it": "IT",
	"netherlands": "NL", "nl": "NL",
	"belgium": "BE", "be": "BE",
	"sweden": "SE", "se": "SE",
	"poland":   "PL",
	"colombia": "CO",
	"mexico":   "MX",
}

// titleSynonyms maps shorthand job-title phrases to their expanded form.
// Applied longest key first so "software eng" wins over a hypothetical "eng".
var titleSynonyms = map[string]string{
	"swe":           "software engineer",
	"software eng":  "software engineer",
	"sw eng":        "software engineer",
	"frontend":      "front end",
	"front-end":     "front end",
	"backend":       "back end",
	"back-end":      "back end",
	"fullstack":     "full stack",
	"full-stack":    "full stack",
	"pm":            "product manager",
	"prod mgr":      "product manager",
	"product owner": "product manager",
	"ds":            "data scientist",
	"ml":            "machine learning",
	"mle":           "machine learning engineer",
	"sre":           "site reliability engineer",
	"devops":        "devops",
	"sec eng":       "security engineer",
	"infosec":       "security",
}

// CountryNames returns the full-name alias keys (longer than a bare code),
// sorted, for callers that match country words inside free-form locations.
func CountryNames() []string {
	names := make([]string, 0, len(countryAliases))
	for k := range countryAliases {
		if len(k) > 2 {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// NamesForCode returns the full-name alias keys that map to the given
// 2-letter code, sorted. Bare 2-letter aliases are skipped: a "%de%"
// pattern would match Dresden.
func NamesForCode(code string) []string {
	var names []string
	for k, v := range countryAliases {
		if len(k) > 2 && strings.EqualFold(v, code) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// CountryCodeFor returns the canonical code for a lowercase alias key and
// whether the key is known.
func CountryCodeFor(key string) (string, bool) {
	code, ok := countryAliases[key]
	return code, ok
}
