package search_test

import (
	"strings"
	"testing"

	"github.com/Catalitium/catalitiumJobs/internal/search"
)

// ── NormalizeTitle: shorthand expansion ────────────────────────────────────

func TestNormalizeTitle_Shorthand(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SWE", "software engineer"},
		{"Senior SWE", "senior software engineer"},
		{"sw eng", "software engineer"},
		{"software eng", "software engineer"},
		{"PM", "product manager"},
		{"prod mgr", "product manager"},
		{"product owner", "product manager"},
		{"DS", "data scientist"},
		{"MLE", "machine learning engineer"},
		{"SRE", "site reliability engineer"},
		{"sec eng", "security engineer"},
		{"infosec", "security"},
	}
	for _, c := range cases {
		if got := search.NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeTitle_HyphenVariants(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Front-End Dev", "front end dev"},
		{"frontend dev", "front end dev"},
		{"Back-End Engineer", "back end engineer"},
		{"backend engineer", "back end engineer"},
		{"Fullstack", "full stack"},
		{"full-stack dev", "full stack dev"},
	}
	for _, c := range cases {
		if got := search.NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// ── NormalizeTitle: substitution policy ────────────────────────────────────

func TestNormalizeTitle_LongestKeyFirst(t *testing.T) {
	// "front-end" must be rewritten as a whole before the shorter
	// "frontend" key could ever see it.
	got := search.NormalizeTitle("frontend and front-end")
	want := "front end and front end"
	if got != want {
		t.Errorf("NormalizeTitle overlapping keys = %q, want %q", got, want)
	}
}

func TestNormalizeTitle_WordBoundariesOnly(t *testing.T) {
	// Shorthand inside longer words must not be rewritten.
	cases := []struct {
		in   string
		want string
	}{
		{"answer", "answer"},            // contains "swe"
		{"8pm shift lead", "8pm shift lead"}, // "pm" not standalone
		{"hands-on", "hands-on"},        // "ds" not standalone
		{"html developer", "html developer"}, // "ml" not standalone
	}
	for _, c := range cases {
		if got := search.NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeTitle_PunctuationStripped(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Senior,, SWE!!  ", "senior software engineer"},
		{"C++ Developer", "c developer"},
		{"Dev (Remote)", "dev remote"},
		{"UI/UX designer", "ui/ux designer"}, // slash survives
		{"co-founder", "co-founder"},         // hyphen survives
	}
	for _, c := range cases {
		if got := search.NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeTitle_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		if got := search.NormalizeTitle(in); got != "" {
			t.Errorf("NormalizeTitle(%q) = %q, want empty", in, got)
		}
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"SWE", "Front-End Dev", "sw,eng", "backend 🚀 engineer",
		"  Senior,, PM!!  ", "answer", "data scientist", "", "a\x00b",
		strings.Repeat("swe ", 50),
	}
	for _, in := range inputs {
		once := search.NormalizeTitle(in)
		twice := search.NormalizeTitle(once)
		if once != twice {
			t.Errorf("NormalizeTitle not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

// ── NormalizeCountry ───────────────────────────────────────────────────────

func TestNormalizeCountry_Aliases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Germany", "DE"},
		{"deutschland", "DE"},
		{"de", "DE"},
		{"DEU", "DE"},
		{"Switzerland", "CH"},
		{"schweiz", "CH"},
		{"Austria", "AT"},
		{"österreich", "AT"},
		{"osterreich", "AT"},
		{"United Kingdom", "UK"},
		{"england", "UK"},
		{"gb", "UK"},
		{"USA", "US"},
		{"united states", "US"},
		{"america", "US"},
		{"Europe", "EU"},
		{"Poland", "PL"},
		{"colombia", "CO"},
		{"Mexico", "MX"},
	}
	for _, c := range cases {
		if got := search.NormalizeCountry(c.in); got != c.want {
			t.Errorf("NormalizeCountry(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCountry_TwoLetterPassthrough(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"xk", "XK"},
		{"Xk", "XK"},
		{"JP", "JP"},
	}
	for _, c := range cases {
		if got := search.NormalizeCountry(c.in); got != c.want {
			t.Errorf("NormalizeCountry(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCountry_FreeTextPassthrough(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Narnia", "Narnia"},
		{"  Narnia  ", "Narnia"},
		{"South America", "South America"},
	}
	for _, c := range cases {
		if got := search.NormalizeCountry(c.in); got != c.want {
			t.Errorf("NormalizeCountry(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCountry_NoPartialWordMatch(t *testing.T) {
	// "Croatia" contains "at" but is not Austria; unknown names pass
	// through untouched rather than hitting an alias buried inside them.
	cases := []struct {
		in   string
		want string
	}{
		{"Croatia", "Croatia"},
		{"Besuchen", "Besuchen"}, // contains "be" and "ch"
		{"Denmark", "Denmark"},   // starts with "de"
	}
	for _, c := range cases {
		if got := search.NormalizeCountry(c.in); got != c.want {
			t.Errorf("NormalizeCountry(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeCountry_Empty(t *testing.T) {
	for _, in := range []string{"", "   "} {
		if got := search.NormalizeCountry(in); got != "" {
			t.Errorf("NormalizeCountry(%q) = %q, want empty", in, got)
		}
	}
}

func TestNormalizeCountry_Idempotent(t *testing.T) {
	inputs := []string{
		"Germany", "de", "xk", "Narnia", "österreich", "", "  us  ",
		"Croatia", "\x00",
	}
	for _, in := range inputs {
		once := search.NormalizeCountry(in)
		twice := search.NormalizeCountry(once)
		if once != twice {
			t.Errorf("NormalizeCountry not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
