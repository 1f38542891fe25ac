package search

// Query is the normalized form of one raw search request: the unit handed
// to the listings store's filter. Built per request, discarded after.
type Query struct {
	RawTitle   string
	RawCountry string
	Title      string // residual title after salary extraction, normalized
	Country    string // 2-letter code, or trimmed free text, or ""
	Salary     SalaryQuery
	Tokens     []string // whitespace tokens of Title
}

// ParseQuery runs the full pipeline in order: salary extraction on the raw
// title, title normalization of the residual, country normalization. It
// never fails; malformed input degrades to a wider filter, not an error.
func ParseQuery(rawTitle, rawCountry string) Query {
	residual, salary := ParseSalaryQuery(rawTitle)
	title := NormalizeTitle(residual)
	return Query{
		RawTitle:   rawTitle,
		RawCountry: rawCountry,
		Title:      title,
		Country:    NormalizeCountry(rawCountry),
		Salary:     salary,
		Tokens:     Tokenize(title),
	}
}

// IsEmpty reports whether the query applies no filter at all.
func (q Query) IsEmpty() bool {
	return q.Title == "" && q.Country == "" && !q.Salary.HasBounds()
}

// MatchesListing applies the fuzzy matcher to one listing: title tokens
// against the listing's title text, country against its location. Salary
// bounds are left to the store, which knows the listing's declared range.
func (q Query) MatchesListing(title, location string) bool {
	if !MatchesTokens(q.Tokens, title) {
		return false
	}
	return MatchesLocation(q.Country, location)
}
