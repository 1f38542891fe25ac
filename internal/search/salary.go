package search

import (
	"regexp"
	"strconv"
	"strings"
)

// SalaryQuery carries the optional salary bounds extracted from a title
// query. Amounts are currency-agnostic integers. When both bounds are
// present, Min <= Max always holds.
type SalaryQuery struct {
	Min *int
	Max *int
}

// HasBounds reports whether at least one bound was extracted.
func (s SalaryQuery) HasBounds() bool { return s.Min != nil || s.Max != nil }

var (
	reSalaryRange = regexp.MustCompile(`(?i)(\d[\d,.\s]*k?)\s*[-–]\s*(\d[\d,.\s]*k?)`)
	reSalaryFloor = regexp.MustCompile(`(?i)(?:>\s*=?|\b(?:over|above)\b)\s*(\d[\d,.\s]*k?)`)
	reSalaryPlus  = regexp.MustCompile(`(?i)\b(\d[\d,.\s]*k)\s*\+`)
	reSalaryCeil  = regexp.MustCompile(`(?i)(?:<\s*=?|\b(?:under|below)\b)\s*(\d[\d,.\s]*k?)`)
)

// ParseSalaryQuery extracts an inline salary filter from a raw title query
// and returns the residual title with the matched span removed, whitespace
// collapsed. Recognized forms, in precedence order:
//
//	80k-120k, 80-120k   range (a lone k distributes to the bare side)
//	>100k, >= 100k      floor, also "over 100k" / "above 100k"
//	100k+               floor
//	<90k, <= 90k        ceiling, also "under 90k" / "below 90k"
//
// The first form that matches wins. A bare number, with or without a k
// suffix, is never treated as a filter: it stays in the title. A reversed
// range is swapped so Min <= Max.
func ParseSalaryQuery(raw string) (string, SalaryQuery) {
	if strings.TrimSpace(raw) == "" {
		return "", SalaryQuery{}
	}
	s := raw

	// Range. Skip spans with no k on either side ("3-5 years" is not a
	// salary range).
	for _, m := range reSalaryRange.FindAllStringSubmatchIndex(s, -1) {
		lhs, rhs := s[m[2]:m[3]], s[m[4]:m[5]]
		lk, rk := hasKSuffix(lhs), hasKSuffix(rhs)
		if !lk && !rk {
			continue
		}
		lo, hi := parseAmount(lhs), parseAmount(rhs)
		if rk && !lk {
			lo *= 1000
		}
		if lk && !rk {
			hi *= 1000
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return cutSpan(s, m[0], m[1]), SalaryQuery{Min: &lo, Max: &hi}
	}

	if m := reSalaryFloor.FindStringSubmatchIndex(s); m != nil {
		v := parseAmount(s[m[2]:m[3]])
		return cutSpan(s, m[0], m[1]), SalaryQuery{Min: &v}
	}
	if m := reSalaryPlus.FindStringSubmatchIndex(s); m != nil {
		v := parseAmount(s[m[2]:m[3]])
		return cutSpan(s, m[0], m[1]), SalaryQuery{Min: &v}
	}
	if m := reSalaryCeil.FindStringSubmatchIndex(s); m != nil {
		v := parseAmount(s[m[2]:m[3]])
		return cutSpan(s, m[0], m[1]), SalaryQuery{Max: &v}
	}
	return collapseSpace(s), SalaryQuery{}
}

// cutSpan removes s[start:end], joining the halves with a space so words on
// either side of the removed filter never merge.
func cutSpan(s string, start, end int) string {
	return collapseSpace(s[:start] + " " + s[end:])
}

func hasKSuffix(s string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(s)), "k")
}

// parseAmount converts a numeric span like "80k", "80,000" or "120 000"
// into an integer. Commas, dots and spaces are thousand separators; a
// trailing k multiplies by 1000. Returns 0 when no digits survive.
func parseAmount(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	thousands := strings.HasSuffix(s, "k")
	if thousands {
		s = strings.TrimSuffix(s, "k")
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteByte(byte(r))
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	if thousands {
		n *= 1000
	}
	return n
}
