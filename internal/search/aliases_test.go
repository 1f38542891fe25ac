package search_test

import (
	"sort"
	"testing"

	"github.com/Catalitium/catalitiumJobs/internal/search"
)

func TestCountryNames_FullNamesOnly(t *testing.T) {
	names := search.CountryNames()
	if len(names) == 0 {
		t.Fatal("CountryNames() returned nothing")
	}
	if !sort.StringsAreSorted(names) {
		t.Error("CountryNames() should be sorted")
	}
	seen := map[string]bool{}
	for _, n := range names {
		if len(n) <= 2 {
			t.Errorf("CountryNames() contains bare code %q", n)
		}
		if seen[n] {
			t.Errorf("CountryNames() contains duplicate %q", n)
		}
		seen[n] = true
	}
	for _, want := range []string{"germany", "deutschland", "united kingdom"} {
		if !seen[want] {
			t.Errorf("CountryNames() missing %q", want)
		}
	}
}

func TestCountryCodeFor(t *testing.T) {
	if code, ok := search.CountryCodeFor("germany"); !ok || code != "DE" {
		t.Errorf(`CountryCodeFor("germany") = %q, %v; want "DE", true`, code, ok)
	}
	if _, ok := search.CountryCodeFor("atlantis"); ok {
		t.Error(`CountryCodeFor("atlantis") should not resolve`)
	}
}
